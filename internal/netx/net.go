// Package netx contains small HTTP helpers shared by client components.
package netx

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressFunc is called as upload bytes are written. total is the file
// size; sent grows monotonically up to total.
type ProgressFunc func(sent, total int64)

// progressReader counts bytes pulled from the underlying reader and reports
// them to fn.
type progressReader struct {
	r     io.Reader
	total int64
	sent  int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent, p.total)
		}
	}
	return n, err
}

// MultipartFile builds a multipart/form-data body streaming the file at
// path under the given field name, reporting progress as the body is read.
// It returns the body reader and the content type for the request header.
//
// The body is produced through a pipe, so the file is streamed rather than
// buffered; the returned reader must be consumed or closed.
func MultipartFile(path, field string, progress ProgressFunc) (io.ReadCloser, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer f.Close()
		part, err := mw.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := &progressReader{r: f, total: st.Size(), fn: progress}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	return pr, mw.FormDataContentType(), nil
}

// Do sends req with the given client and reads the whole response body.
// Non-2xx statuses are returned as a *BadStatusError carrying the body.
func Do(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BadStatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// BadStatusError reports a non-2xx HTTP response.
type BadStatusError struct {
	Status int
	Body   string
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}
