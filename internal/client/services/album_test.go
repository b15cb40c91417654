package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealbook/mealbook/internal/album"
	"github.com/mealbook/mealbook/internal/album/transport"
	"github.com/mealbook/mealbook/internal/client/client"
	"github.com/mealbook/mealbook/internal/client/models"
	"github.com/mealbook/mealbook/internal/logging"
	"github.com/mealbook/mealbook/internal/netx"
)

type fakeAPI struct {
	album      []client.AlbumImage
	albumErr   error
	uploadFn   func(path string, progress netx.ProgressFunc) (*client.AlbumImage, error)
	reordered  [][]string
	keysSet    []string
	deletions  [][]string
	reorderErr error
}

func (f *fakeAPI) Close() error { return nil }

func (f *fakeAPI) Register(ctx context.Context, login string, password []byte) error { return nil }

func (f *fakeAPI) Login(ctx context.Context, login string, password []byte) error { return nil }

func (f *fakeAPI) CreateMeal(ctx context.Context, title string) (*client.Meal, error) {
	return &client.Meal{ID: "m1", Title: title}, nil
}

func (f *fakeAPI) ListMeals(ctx context.Context) ([]client.Meal, error) { return nil, nil }

func (f *fakeAPI) FetchAlbum(ctx context.Context, mealID string) ([]client.AlbumImage, error) {
	return f.album, f.albumErr
}

func (f *fakeAPI) Upload(ctx context.Context, mealID, path string, progress netx.ProgressFunc) (*client.AlbumImage, error) {
	return f.uploadFn(path, progress)
}

func (f *fakeAPI) SetKeyImage(ctx context.Context, mealID, imageID string) error {
	f.keysSet = append(f.keysSet, imageID)
	return nil
}

func (f *fakeAPI) Reorder(ctx context.Context, mealID string, ids []string) error {
	if f.reorderErr != nil {
		return f.reorderErr
	}
	f.reordered = append(f.reordered, ids)
	return nil
}

func (f *fakeAPI) SubmitDeletions(ctx context.Context, mealID string, ids []string) error {
	f.deletions = append(f.deletions, ids)
	return nil
}

type fakeJournal struct {
	rows map[string]*models.PendingUpload
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{rows: map[string]*models.PendingUpload{}}
}

func (f *fakeJournal) Add(ctx context.Context, u *models.PendingUpload) error {
	f.rows[u.ID] = u
	return nil
}

func (f *fakeJournal) ListByMeal(ctx context.Context, mealID string) ([]models.PendingUpload, error) {
	var out []models.PendingUpload
	for _, u := range f.rows {
		if u.MealID == mealID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeJournal) Remove(ctx context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func serverImage(id string) client.AlbumImage {
	return client.AlbumImage{
		ID:            id,
		ThumbImageURL: "https://s3.local/" + id + "_thumb",
		FullImageURL:  "https://s3.local/" + id,
		Width:         800,
		Height:        600,
	}
}

func newSession(api *fakeAPI, j *fakeJournal) *AlbumSession {
	return NewAlbumSession("m1", api, j, nil, logging.Discard())
}

// tempImage writes a throwaway file and returns its path. AddFile stages
// into a "pending" subdirectory of the working directory, so callers should
// t.Chdir into a temp dir first.
func tempImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("picture bytes"), 0o600))
	return path
}

func stagedCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("pending")
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func TestOpen_ReplaysAlbumAndKey(t *testing.T) {
	imgs := []client.AlbumImage{serverImage("r1"), serverImage("r2"), serverImage("r3")}
	imgs[1].IsKey = true
	api := &fakeAPI{album: imgs}
	s := newSession(api, newFakeJournal())

	var keyEvents int
	s.Registry().OnKeyChange = func(*album.Record) { keyEvents++ }

	require.NoError(t, s.Open(context.Background()))

	reg := s.Registry()
	assert.Equal(t, 3, reg.Len())
	for i, id := range []string{"r1", "r2", "r3"} {
		rec := reg.FindByLocalID(i)
		require.NotNil(t, rec)
		assert.Equal(t, id, rec.RemoteID)
		assert.Equal(t, album.StatusVisible, rec.Status)
	}
	require.NotNil(t, reg.KeyImage())
	assert.Equal(t, "r2", reg.KeyImage().RemoteID)
	assert.Zero(t, keyEvents, "replay must not fire key-change events")
}

func TestOpen_ResumesJournaledUpload(t *testing.T) {
	staged := tempImage(t, "dinner.jpg")

	j := newFakeJournal()
	require.NoError(t, j.Add(context.Background(), &models.PendingUpload{
		ID:        "row1",
		MealID:    "m1",
		Path:      staged,
		CreatedAt: time.Now(),
	}))

	api := &fakeAPI{
		uploadFn: func(path string, progress netx.ProgressFunc) (*client.AlbumImage, error) {
			assert.Equal(t, staged, path)
			img := serverImage("r9")
			return &img, nil
		},
	}
	s := newSession(api, j)

	require.NoError(t, s.Open(context.Background()))

	rec := s.Registry().FindByRemoteID("r9")
	require.NotNil(t, rec)
	assert.Equal(t, album.StatusVisible, rec.Status)
	assert.Empty(t, j.rows, "completed upload must leave the journal")
	assert.NoFileExists(t, staged, "completed upload must remove its staged copy")
}

func TestAddFile_Success(t *testing.T) {
	t.Chdir(t.TempDir())
	j := newFakeJournal()
	var lastSent, total int64
	api := &fakeAPI{
		uploadFn: func(path string, progress netx.ProgressFunc) (*client.AlbumImage, error) {
			assert.FileExists(t, path, "uploads read from the staged copy")
			progress(512, 1024)
			progress(1024, 1024)
			lastSent, total = 1024, 1024
			img := serverImage("r1")
			return &img, nil
		},
	}
	s := newSession(api, j)

	require.NoError(t, s.AddFile(context.Background(), tempImage(t, "lunch.png")))

	rec := s.Registry().FindByRemoteID("r1")
	require.NotNil(t, rec)
	assert.Equal(t, album.StatusVisible, rec.Status)
	assert.Equal(t, "lunch.png", rec.Filename)
	assert.Equal(t, int64(1024), lastSent)
	assert.Equal(t, int64(1024), total)
	assert.Empty(t, j.rows)
	assert.Zero(t, stagedCount(t), "settled uploads must not leave staged files")
	// First upload takes the key designation.
	require.NotNil(t, s.Registry().KeyImage())
	assert.Equal(t, "r1", s.Registry().KeyImage().RemoteID)
}

func TestAddFile_UnreadablePath(t *testing.T) {
	t.Chdir(t.TempDir())
	j := newFakeJournal()
	attempts := 0
	api := &fakeAPI{
		uploadFn: func(path string, progress netx.ProgressFunc) (*client.AlbumImage, error) {
			attempts++
			return nil, nil
		},
	}
	s := newSession(api, j)

	require.NoError(t, s.AddFile(context.Background(), "/no/such/file.png"))

	assert.Zero(t, attempts, "unreadable files never reach the transport")
	rec := s.Registry().FindByFilename("file.png", album.FindOptions{IncludeErrored: true})
	require.NotNil(t, rec)
	assert.Equal(t, album.StatusErrored, rec.Status)
	assert.Empty(t, j.rows)
}

func TestAddFile_RecoverableErrorRetriesOnce(t *testing.T) {
	t.Chdir(t.TempDir())
	j := newFakeJournal()
	attempts := 0
	api := &fakeAPI{
		uploadFn: func(path string, progress netx.ProgressFunc) (*client.AlbumImage, error) {
			attempts++
			if attempts == 1 {
				return nil, errors.New("connection reset")
			}
			img := serverImage("r1")
			return &img, nil
		},
	}
	s := newSession(api, j)

	require.NoError(t, s.AddFile(context.Background(), tempImage(t, "lunch.png")))

	assert.Equal(t, 2, attempts)
	rec := s.Registry().FindByRemoteID("r1")
	require.NotNil(t, rec)
	assert.Equal(t, album.StatusVisible, rec.Status)
	assert.Equal(t, 1, rec.ErrorCount)
	assert.Empty(t, j.rows)
}

func TestAddFile_ValidationErrorIsTerminal(t *testing.T) {
	t.Chdir(t.TempDir())
	j := newFakeJournal()
	attempts := 0
	api := &fakeAPI{
		uploadFn: func(path string, progress netx.ProgressFunc) (*client.AlbumImage, error) {
			attempts++
			return nil, &transport.StatusError{Status: 422, Message: "not an image"}
		},
	}
	s := newSession(api, j)

	require.NoError(t, s.AddFile(context.Background(), tempImage(t, "notes.txt")))

	assert.Equal(t, 1, attempts, "validation errors must not retry")
	rec := s.Registry().FindByFilename("notes.txt", album.FindOptions{IncludeErrored: true})
	require.NotNil(t, rec)
	assert.Equal(t, album.StatusErrored, rec.Status)
	assert.Empty(t, j.rows, "terminally failed upload must leave the journal")
	assert.Zero(t, stagedCount(t))
	assert.Zero(t, s.tr.QueueLen())
}

func TestAddFile_ExhaustedRetriesKeepNothingQueued(t *testing.T) {
	t.Chdir(t.TempDir())
	j := newFakeJournal()
	attempts := 0
	api := &fakeAPI{
		uploadFn: func(path string, progress netx.ProgressFunc) (*client.AlbumImage, error) {
			attempts++
			return nil, errors.New("connection reset")
		},
	}
	s := newSession(api, j)

	require.NoError(t, s.AddFile(context.Background(), tempImage(t, "lunch.png")))

	assert.Equal(t, 2, attempts)
	rec := s.Registry().FindByFilename("lunch.png", album.FindOptions{IncludeErrored: true})
	require.NotNil(t, rec)
	assert.Equal(t, album.StatusErrored, rec.Status)
	assert.Equal(t, 2, rec.ErrorCount)
	assert.Empty(t, j.rows)
	assert.Zero(t, s.tr.QueueLen())
}

func TestFlush_SubmitsOrderKeyAndDeletions(t *testing.T) {
	imgs := []client.AlbumImage{serverImage("r1"), serverImage("r2"), serverImage("r3")}
	imgs[0].IsKey = true
	api := &fakeAPI{album: imgs}
	s := newSession(api, newFakeJournal())
	require.NoError(t, s.Open(context.Background()))

	s.SetOrder([]int{2, 0, 1})
	require.NoError(t, s.SetKey(1))
	require.NoError(t, s.ToggleDelete(2))

	require.NoError(t, s.Flush(context.Background()))

	require.Len(t, api.reordered, 1)
	assert.Equal(t, []string{"r3", "r1", "r2"}, api.reordered[0])
	assert.Equal(t, []string{"r2"}, api.keysSet)
	require.Len(t, api.deletions, 1)
	assert.Equal(t, []string{"r3"}, api.deletions[0])

	// Confirmed deletions are tombstoned locally.
	assert.Nil(t, s.Registry().FindByRemoteID("r3"))
	assert.False(t, s.Registry().FindByLocalID(2).Live())
}

func TestFlush_ReorderFailureLeavesOrderPending(t *testing.T) {
	api := &fakeAPI{
		album:      []client.AlbumImage{serverImage("r1"), serverImage("r2")},
		reorderErr: errors.New("boom"),
	}
	s := newSession(api, newFakeJournal())
	require.NoError(t, s.Open(context.Background()))

	s.SetOrder([]int{1, 0})
	require.Error(t, s.Flush(context.Background()))
	assert.Equal(t, "r2,r1", s.Registry().Form().SortOrder)

	api.reorderErr = nil
	require.NoError(t, s.Flush(context.Background()))
	require.Len(t, api.reordered, 1)
	assert.Equal(t, []string{"r2", "r1"}, api.reordered[0])
	assert.Empty(t, s.Registry().Form().SortOrder)
}

func TestSetKey_UnknownImage(t *testing.T) {
	s := newSession(&fakeAPI{}, newFakeJournal())
	require.NoError(t, s.Open(context.Background()))
	assert.Error(t, s.SetKey(5))
	assert.Error(t, s.ToggleDelete(5))
}

func TestCancel_DropsQueuedUpload(t *testing.T) {
	t.Chdir(t.TempDir())
	j := newFakeJournal()
	s := newSession(&fakeAPI{}, j)
	ctx := context.Background()

	// Queue a staged file without starting the transfer, the same shape
	// resumePending leaves behind.
	staged, err := s.stageFile(tempImage(t, "soup.jpg"))
	require.NoError(t, err)
	require.NoError(t, j.Add(ctx, &models.PendingUpload{ID: "j1", MealID: "m1", Path: staged}))
	handle := s.tr.Enqueue(ctx, staged)
	s.pending[handle] = pendingRef{rowID: "j1", stagedPath: staged}

	rec := s.reg.FindByFileHandle(handle, album.FindOptions{})
	require.NotNil(t, rec)
	require.Equal(t, album.StatusQueued, rec.Status)

	require.NoError(t, s.Cancel(ctx, rec.LocalID))

	assert.Equal(t, album.StatusCanceled, rec.Status)
	assert.Zero(t, s.tr.QueueLen())
	assert.Empty(t, j.rows)
	assert.Equal(t, 0, stagedCount(t))
	assert.NoFileExists(t, staged)
}

func TestCancel_RejectsSettledImage(t *testing.T) {
	api := &fakeAPI{album: []client.AlbumImage{serverImage("r1")}}
	s := newSession(api, newFakeJournal())
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	rec := s.reg.FindByRemoteID("r1")
	require.NotNil(t, rec)
	assert.Error(t, s.Cancel(ctx, rec.LocalID))
	assert.Error(t, s.Cancel(ctx, 99))
	assert.Equal(t, album.StatusVisible, rec.Status)
}
