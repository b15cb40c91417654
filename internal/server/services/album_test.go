package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mealbook/mealbook/internal/common"
	sc "github.com/mealbook/mealbook/internal/server/config"
	"github.com/mealbook/mealbook/internal/server/models"
)

// --- fakes ---

type fakeMealsRepo struct {
	getOut  *models.Meal
	getErr  error
	created []*models.Meal
	listOut []*models.Meal
}

func (f *fakeMealsRepo) Create(ctx context.Context, meal *models.Meal) error {
	f.created = append(f.created, meal)
	return nil
}

func (f *fakeMealsRepo) GetByID(ctx context.Context, id string) (*models.Meal, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeMealsRepo) ListByUser(ctx context.Context, userID string) ([]*models.Meal, error) {
	return f.listOut, nil
}

type fakeImagesRepo struct {
	created   []*models.Image
	listOut   []*models.Image
	nextIndex int

	keyMeal  string
	keyImage string

	sortSet map[string]int
	deleted []string
}

func (f *fakeImagesRepo) Create(ctx context.Context, img *models.Image) error {
	f.created = append(f.created, img)
	return nil
}

func (f *fakeImagesRepo) GetByID(ctx context.Context, id string) (*models.Image, error) {
	return nil, common.ErrorNotFound
}

func (f *fakeImagesRepo) ListByMeal(ctx context.Context, mealID string) ([]*models.Image, error) {
	return f.listOut, nil
}

func (f *fakeImagesRepo) SetKey(ctx context.Context, mealID, id string) error {
	f.keyMeal, f.keyImage = mealID, id
	return nil
}

func (f *fakeImagesRepo) SetSortIndex(ctx context.Context, id string, index int) error {
	if f.sortSet == nil {
		f.sortSet = map[string]int{}
	}
	f.sortSet[id] = index
	return nil
}

func (f *fakeImagesRepo) MarkDeleted(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeImagesRepo) NextSortIndex(ctx context.Context, mealID string) (int, error) {
	return f.nextIndex, nil
}

// --- helpers ---

func newAlbumService(t *testing.T, rm *fakeRepoManager) (*AlbumService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })
	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "albums",
	}
	return NewAlbumService(db, rm, cfg), mock
}

// stubS3 replaces the AWS seams with in-memory fakes for the test's duration.
func stubS3(t *testing.T) (stored *map[string][]byte) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPresign := newS3PresignClient
	origPut := putObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		newS3PresignClient = origPresign
		putObject = origPut
		presignGetObject = origGet
	})

	objects := map[string][]byte{}

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(in.Body); err != nil {
			return nil, err
		}
		objects[*in.Key] = buf.Bytes()
		return &s3.PutObjectOutput{}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://s3.local/" + *in.Key}, nil
	}

	return &objects
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// --- tests ---

func TestSaveUpload_Success(t *testing.T) {
	objects := stubS3(t)

	rm := &fakeRepoManager{
		m:  &fakeMealsRepo{getOut: &models.Meal{ID: "m1", UserID: "u1"}},
		im: &fakeImagesRepo{nextIndex: 3},
	}
	s, mock := newAlbumService(t, rm)
	mock.ExpectBegin()
	mock.ExpectCommit()

	ai, err := s.SaveUpload(context.Background(), "u1", "m1", "dinner.png", pngBytes(t, 800, 600))
	if err != nil {
		t.Fatalf("SaveUpload error: %v", err)
	}

	if ai.ID == "" {
		t.Fatalf("expected generated remote id")
	}
	if ai.Width != 800 || ai.Height != 600 {
		t.Fatalf("unexpected dimensions: %dx%d", ai.Width, ai.Height)
	}
	if ai.ThumbImageURL == "" || ai.FullImageURL == "" {
		t.Fatalf("expected presigned urls")
	}
	if ai.SortIndex != 3 {
		t.Fatalf("unexpected sort index: %d", ai.SortIndex)
	}

	if len(rm.im.created) != 1 {
		t.Fatalf("expected one image row, got %d", len(rm.im.created))
	}
	row := rm.im.created[0]
	if row.MealID != "m1" || row.Filename != "dinner.png" {
		t.Fatalf("unexpected image row: %+v", row)
	}

	// full image and thumbnail both stored
	if len(*objects) != 2 {
		t.Fatalf("expected 2 stored objects, got %d", len(*objects))
	}
	if _, ok := (*objects)[row.StorageKey]; !ok {
		t.Fatalf("full image not stored under %q", row.StorageKey)
	}
	if _, ok := (*objects)[row.ThumbKey]; !ok {
		t.Fatalf("thumbnail not stored under %q", row.ThumbKey)
	}
}

func TestSaveUpload_NotAnImage(t *testing.T) {
	stubS3(t)

	rm := &fakeRepoManager{
		m:  &fakeMealsRepo{getOut: &models.Meal{ID: "m1", UserID: "u1"}},
		im: &fakeImagesRepo{},
	}
	s, _ := newAlbumService(t, rm)

	_, err := s.SaveUpload(context.Background(), "u1", "m1", "notes.txt", []byte("just text"))
	if !errors.Is(err, common.ErrorNotAnImage) {
		t.Fatalf("expected ErrorNotAnImage, got %v", err)
	}
}

func TestSaveUpload_WrongOwner(t *testing.T) {
	rm := &fakeRepoManager{
		m: &fakeMealsRepo{getOut: &models.Meal{ID: "m1", UserID: "someone-else"}},
	}
	s, _ := newAlbumService(t, rm)

	_, err := s.SaveUpload(context.Background(), "u1", "m1", "dinner.png", pngBytes(t, 10, 10))
	if !errors.Is(err, common.ErrorForbidden) {
		t.Fatalf("expected ErrorForbidden, got %v", err)
	}
}

func TestSaveUpload_MealNotFound(t *testing.T) {
	rm := &fakeRepoManager{
		m: &fakeMealsRepo{getErr: common.ErrorNotFound},
	}
	s, _ := newAlbumService(t, rm)

	_, err := s.SaveUpload(context.Background(), "u1", "nope", "dinner.png", pngBytes(t, 10, 10))
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetAlbum_PresignsInOrder(t *testing.T) {
	stubS3(t)

	rm := &fakeRepoManager{
		m: &fakeMealsRepo{getOut: &models.Meal{ID: "m1", UserID: "u1"}},
		im: &fakeImagesRepo{listOut: []*models.Image{
			{ID: "i1", MealID: "m1", StorageKey: "k1", ThumbKey: "k1_thumb", Width: 4, Height: 3, SortIndex: 0, IsKey: true},
			{ID: "i2", MealID: "m1", StorageKey: "k2", ThumbKey: "k2_thumb", Width: 3, Height: 4, SortIndex: 1},
		}},
	}
	s, _ := newAlbumService(t, rm)

	album, err := s.GetAlbum(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("GetAlbum error: %v", err)
	}
	if len(album) != 2 {
		t.Fatalf("expected 2 images, got %d", len(album))
	}
	if album[0].ID != "i1" || !album[0].IsKey {
		t.Fatalf("unexpected first image: %+v", album[0])
	}
	if album[0].ThumbImageURL != "https://s3.local/k1_thumb" {
		t.Fatalf("unexpected thumb url: %q", album[0].ThumbImageURL)
	}
	if album[1].FullImageURL != "https://s3.local/k2" {
		t.Fatalf("unexpected full url: %q", album[1].FullImageURL)
	}
}

func TestSetKeyImage_RunsInTx(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		m:  &fakeMealsRepo{getOut: &models.Meal{ID: "m1", UserID: "u1"}},
		im: &fakeImagesRepo{},
	}
	cfg := &sc.Config{S3Bucket: "albums"}
	s := NewAlbumService(db, rm, cfg)

	if err := s.SetKeyImage(context.Background(), "u1", "m1", "i2"); err != nil {
		t.Fatalf("SetKeyImage error: %v", err)
	}
	if rm.im.keyMeal != "m1" || rm.im.keyImage != "i2" {
		t.Fatalf("key not moved: meal=%q image=%q", rm.im.keyMeal, rm.im.keyImage)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sqlmock expectations: %v", err)
	}
}

func TestReorder_RewritesSortIndexes(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		m:  &fakeMealsRepo{getOut: &models.Meal{ID: "m1", UserID: "u1"}},
		im: &fakeImagesRepo{},
	}
	s := NewAlbumService(db, rm, &sc.Config{})

	if err := s.Reorder(context.Background(), "u1", "m1", []string{"i3", "i1", "i2"}); err != nil {
		t.Fatalf("Reorder error: %v", err)
	}
	want := map[string]int{"i3": 0, "i1": 1, "i2": 2}
	for id, idx := range want {
		if rm.im.sortSet[id] != idx {
			t.Fatalf("image %s at index %d, want %d", id, rm.im.sortSet[id], idx)
		}
	}
}

func TestApplyDeletions_MarksAll(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{
		m:  &fakeMealsRepo{getOut: &models.Meal{ID: "m1", UserID: "u1"}},
		im: &fakeImagesRepo{},
	}
	s := NewAlbumService(db, rm, &sc.Config{})

	if err := s.ApplyDeletions(context.Background(), "u1", "m1", []string{"i1", "i2"}); err != nil {
		t.Fatalf("ApplyDeletions error: %v", err)
	}
	if len(rm.im.deleted) != 2 {
		t.Fatalf("expected 2 deletions, got %d", len(rm.im.deleted))
	}
}

func TestCreateMeal_And_ListMeals(t *testing.T) {
	rm := &fakeRepoManager{m: &fakeMealsRepo{}}
	s, _ := newAlbumService(t, rm)

	meal, err := s.CreateMeal(context.Background(), "u1", "Dinner")
	if err != nil {
		t.Fatalf("CreateMeal error: %v", err)
	}
	if meal.ID == "" || meal.UserID != "u1" || meal.Title != "Dinner" {
		t.Fatalf("unexpected meal: %+v", meal)
	}

	rm.m.listOut = []*models.Meal{meal}
	meals, err := s.ListMeals(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListMeals error: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 meal, got %d", len(meals))
	}
}
