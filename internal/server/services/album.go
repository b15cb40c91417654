package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mealbook/mealbook/internal/common"
	"github.com/mealbook/mealbook/internal/dbx"
	sc "github.com/mealbook/mealbook/internal/server/config"
	"github.com/mealbook/mealbook/internal/server/models"
	"github.com/mealbook/mealbook/internal/server/repositories/repomanager"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AlbumImage is what the album API reports back for one picture: the remote
// id plus presigned links and display metadata.
type AlbumImage struct {
	ID            string
	Filename      string
	ThumbImageURL string
	FullImageURL  string
	Width         int
	Height        int
	SortIndex     int
	IsKey         bool
}

// AlbumService manages meals and their picture albums: storing uploads in
// object storage, listing albums with presigned URLs, and applying key-image,
// ordering, and deletion updates.
type AlbumService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewAlbumService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *AlbumService {
	return &AlbumService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

// GetRandomStorageKey builds an object key for an uploaded picture.
func GetRandomStorageKey(mealID string) string {
	return fmt.Sprintf("meals/%s/%v", mealID, uuid.New())
}

func (s *AlbumService) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// CreateMeal creates a meal record owned by userID.
func (s *AlbumService) CreateMeal(ctx context.Context, userID string, title string) (*models.Meal, error) {
	meal := &models.Meal{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
	}

	if err := s.repomanager.Meals(s.db).Create(ctx, meal); err != nil {
		return nil, fmt.Errorf("error creating meal: %v", err)
	}

	return meal, nil
}

// ListMeals returns all meals owned by userID.
func (s *AlbumService) ListMeals(ctx context.Context, userID string) ([]*models.Meal, error) {
	return s.repomanager.Meals(s.db).ListByUser(ctx, userID)
}

// checkMealOwner loads the meal and verifies that userID owns it.
func (s *AlbumService) checkMealOwner(ctx context.Context, userID, mealID string) (*models.Meal, error) {
	meal, err := s.repomanager.Meals(s.db).GetByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	if meal.UserID != userID {
		return nil, common.ErrorForbidden
	}
	return meal, nil
}

// SaveUpload stores the uploaded picture and its generated thumbnail in
// object storage, records the image row, and returns presigned URLs.
// Non-image payloads yield common.ErrorNotAnImage.
func (s *AlbumService) SaveUpload(ctx context.Context, userID, mealID, filename string, data []byte) (*AlbumImage, error) {

	if _, err := s.checkMealOwner(ctx, userID, mealID); err != nil {
		return nil, err
	}

	src, width, height, err := decodeImage(data)
	if err != nil {
		return nil, common.ErrorNotAnImage
	}

	thumb, err := encodeJPEG(makeThumbnail(src, thumbTargetWidth))
	if err != nil {
		return nil, fmt.Errorf("error encoding thumbnail: %v", err)
	}

	client, err := s.getS3Client()
	if err != nil {
		return nil, err
	}

	storageKey := GetRandomStorageKey(mealID)
	thumbKey := storageKey + "_thumb"

	if err := s.storeObject(ctx, client, storageKey, data); err != nil {
		return nil, err
	}
	if err := s.storeObject(ctx, client, thumbKey, thumb); err != nil {
		return nil, err
	}

	img := &models.Image{
		ID:         uuid.NewString(),
		MealID:     mealID,
		Filename:   filename,
		StorageKey: storageKey,
		ThumbKey:   thumbKey,
		Width:      width,
		Height:     height,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Images(tx)

		index, err := repoTx.NextSortIndex(ctx, mealID)
		if err != nil {
			return err
		}
		img.SortIndex = index

		return repoTx.Create(ctx, img)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating image: %v", err)
	}

	return s.presentImage(ctx, client, img)
}

// GetAlbum lists the meal's live pictures in visual order with presigned URLs.
func (s *AlbumService) GetAlbum(ctx context.Context, userID, mealID string) ([]*AlbumImage, error) {

	if _, err := s.checkMealOwner(ctx, userID, mealID); err != nil {
		return nil, err
	}

	imgs, err := s.repomanager.Images(s.db).ListByMeal(ctx, mealID)
	if err != nil {
		return nil, fmt.Errorf("error listing images: %v", err)
	}

	client, err := s.getS3Client()
	if err != nil {
		return nil, err
	}

	album := make([]*AlbumImage, 0, len(imgs))
	for _, img := range imgs {
		ai, err := s.presentImage(ctx, client, img)
		if err != nil {
			return nil, err
		}
		album = append(album, ai)
	}

	return album, nil
}

// SetKeyImage moves the key designation to imageID; an empty imageID clears it.
func (s *AlbumService) SetKeyImage(ctx context.Context, userID, mealID, imageID string) error {

	if _, err := s.checkMealOwner(ctx, userID, mealID); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Images(tx).SetKey(ctx, mealID, imageID)
	})
}

// Reorder rewrites the album's sort indexes to match ids. Images absent from
// ids keep their previous relative order after the listed ones.
func (s *AlbumService) Reorder(ctx context.Context, userID, mealID string, ids []string) error {

	if _, err := s.checkMealOwner(ctx, userID, mealID); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Images(tx)
		for i, id := range ids {
			if err := repoTx.SetSortIndex(ctx, id, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyDeletions soft-deletes the listed images in one transaction.
func (s *AlbumService) ApplyDeletions(ctx context.Context, userID, mealID string, ids []string) error {

	if _, err := s.checkMealOwner(ctx, userID, mealID); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Images(tx)
		for _, id := range ids {
			if err := repoTx.MarkDeleted(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *AlbumService) storeObject(ctx context.Context, client *s3.Client, key string, data []byte) error {
	bucket := s.config.S3Bucket

	_, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("error storing object %s: %v", key, err)
	}
	return nil
}

func (s *AlbumService) presignedGetURL(ctx context.Context, client *s3.Client, key string) (string, error) {
	bucket := s.config.S3Bucket

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignValidityDuration))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *AlbumService) presentImage(ctx context.Context, client *s3.Client, img *models.Image) (*AlbumImage, error) {
	thumbURL, err := s.presignedGetURL(ctx, client, img.ThumbKey)
	if err != nil {
		return nil, err
	}
	fullURL, err := s.presignedGetURL(ctx, client, img.StorageKey)
	if err != nil {
		return nil, err
	}

	return &AlbumImage{
		ID:            img.ID,
		Filename:      img.Filename,
		ThumbImageURL: thumbURL,
		FullImageURL:  fullURL,
		Width:         img.Width,
		Height:        img.Height,
		SortIndex:     img.SortIndex,
		IsKey:         img.IsKey,
	}, nil
}
