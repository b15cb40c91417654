package services

import (
	"bytes"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"
)

const (
	thumbTargetWidth = 320
	thumbJPEGQuality = 85
)

// decodeImage decodes the uploaded bytes and returns the image with its
// pixel dimensions. JPEG, PNG, and GIF are supported.
func decodeImage(data []byte) (image.Image, int, int, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	b := src.Bounds()
	return src, b.Dx(), b.Dy(), nil
}

// makeThumbnail scales src down to targetWidth preserving aspect ratio,
// using nearest-neighbor sampling. Images already narrower than targetWidth
// are returned unchanged.
func makeThumbnail(src image.Image, targetWidth int) image.Image {
	b := src.Bounds()
	if b.Dx() <= targetWidth || b.Dx() == 0 {
		return src
	}

	targetHeight := b.Dy() * targetWidth / b.Dx()
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	for y := 0; y < targetHeight; y++ {
		sy := b.Min.Y + y*b.Dy()/targetHeight
		for x := 0; x < targetWidth; x++ {
			sx := b.Min.X + x*b.Dx()/targetWidth
			dst.Set(x, y, src.At(sx, sy))
		}
	}

	return dst
}

// encodeJPEG renders img as a JPEG suitable for thumbnail delivery.
func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
