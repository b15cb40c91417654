// Package services holds the client-side session logic that ties the album
// registry, the upload transport and the server API together.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mealbook/mealbook/internal/album"
	"github.com/mealbook/mealbook/internal/album/transport"
	"github.com/mealbook/mealbook/internal/client/client"
	"github.com/mealbook/mealbook/internal/client/models"
	"github.com/mealbook/mealbook/internal/client/repositories/journal"
	"github.com/mealbook/mealbook/internal/filex"
	"github.com/mealbook/mealbook/internal/logging"
	"github.com/mealbook/mealbook/internal/netx"
)

// maxQueuedUploads caps how many files may wait in the transport queue at
// once. Further AddFile calls are rejected with a queue-limit alert.
const maxQueuedUploads = 10

// stagingDirName is the subdirectory queued pictures are copied into, one
// per-upload directory each, until the server confirms them.
const stagingDirName = "pending"

// pendingRef ties a transport handle back to its journal row and staged
// copy, so both can be removed once the upload is settled.
type pendingRef struct {
	rowID      string
	stagedPath string
}

// AlbumSession drives one open meal album: it owns the registry, the HTTP
// upload transport and the dispatcher between them, and keeps the pending
// upload journal in step with the queue so an interrupted session can
// re-offer what never finished. Not safe for concurrent use.
type AlbumSession struct {
	mealID string

	api     client.Client
	journal journal.Repository
	log     logging.Logger

	reg  *album.Registry
	tr   *transport.HTTPTransport
	disp *transport.Dispatcher

	// pending maps transport handles to their journal rows and staged
	// copies, so finished and abandoned uploads can clean both up.
	pending map[string]pendingRef
}

// NewAlbumSession builds a session for mealID rendering through view. A nil
// view is acceptable and renders nothing.
func NewAlbumSession(mealID string, api client.Client, j journal.Repository, view album.View, log logging.Logger) *AlbumSession {
	s := &AlbumSession{
		mealID:  mealID,
		api:     api,
		journal: j,
		log:     log,
		pending: map[string]pendingRef{},
	}

	s.reg = album.NewRegistry(view)
	s.tr = transport.NewHTTPTransport(s.uploadFile)
	s.disp = transport.NewDispatcher(s.reg, s.tr, log)
	s.tr.SetSink(s.handleEvent)

	return s
}

// Registry exposes the session's album registry for rendering and lookups.
func (s *AlbumSession) Registry() *album.Registry {
	return s.reg
}

// Alert installs the queue-limit alert callback.
func (s *AlbumSession) Alert(fn func(message string)) {
	s.disp.Alert = fn
}

// Open replays the server-side album into the registry and re-queues any
// uploads the journal says never finished. Replayed records arrive in the
// server's sort order; the server's key designation is applied without
// firing the key-change event.
func (s *AlbumSession) Open(ctx context.Context) error {
	imgs, err := s.api.FetchAlbum(ctx, s.mealID)
	if err != nil {
		return fmt.Errorf("fetching album: %w", err)
	}

	var keyID string
	for _, img := range imgs {
		rec := s.reg.Create()
		if _, err := s.reg.CompleteFromServer(rec, album.ServerImage{
			RemoteID: img.ID,
			ThumbURL: img.ThumbImageURL,
			FullURL:  img.FullImageURL,
			Width:    img.Width,
			Height:   img.Height,
		}); err != nil {
			return fmt.Errorf("replaying image %s: %w", img.ID, err)
		}
		if img.IsKey {
			keyID = img.ID
		}
	}
	if rec := s.reg.FindByRemoteID(keyID); rec != nil {
		s.reg.SetKeyImage(rec, true)
	}

	return s.resumePending(ctx)
}

// resumePending re-queues journaled uploads left over from an interrupted
// session and drives the queue until it drains.
func (s *AlbumSession) resumePending(ctx context.Context) error {
	pending, err := s.journal.ListByMeal(ctx, s.mealID)
	if err != nil {
		return fmt.Errorf("reading upload journal: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	for _, p := range pending {
		handle := s.tr.Enqueue(ctx, p.Path)
		s.pending[handle] = pendingRef{rowID: p.ID, stagedPath: p.Path}
	}
	s.log.Info(ctx, "resuming pending uploads", "meal", s.mealID, "count", len(pending))
	return s.tr.StartUpload(ctx)
}

// AddFile stages a local picture, journals it, queues it and drives the
// upload. The queue cap and unreadable files surface through the
// dispatcher's queue-error paths.
func (s *AlbumSession) AddFile(ctx context.Context, path string) error {
	if s.tr.QueueLen() >= maxQueuedUploads {
		s.disp.Handle(ctx, transport.Event{
			Type:    transport.FileQueueError,
			Code:    transport.CodeQueueLimit,
			Message: fmt.Sprintf("upload queue is full (limit %d)", maxQueuedUploads),
		})
		return nil
	}

	if !filex.IsRegularFile(path) {
		s.disp.Handle(ctx, transport.Event{
			Type:     transport.FileQueueError,
			Handle:   uuid.NewString(),
			Filename: filepath.Base(path),
			Code:     transport.CodeInvalidType,
			Message:  fmt.Sprintf("cannot read %s", path),
		})
		return nil
	}

	// The staged copy outlives the original: resume after a crash works
	// even if the user moves or deletes the source file.
	staged, err := s.stageFile(path)
	if err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}

	row := &models.PendingUpload{
		ID:        uuid.NewString(),
		MealID:    s.mealID,
		Path:      staged,
		CreatedAt: time.Now(),
	}
	if err := s.journal.Add(ctx, row); err != nil {
		// The upload still proceeds; only crash recovery is degraded.
		s.log.Warn(ctx, "journaling upload", "path", path, "error", err)
	}

	handle := s.tr.Enqueue(ctx, staged)
	s.pending[handle] = pendingRef{rowID: row.ID, stagedPath: staged}

	return s.tr.StartUpload(ctx)
}

// stageFile copies path into a fresh per-upload staging directory, keeping
// the original base name.
func (s *AlbumSession) stageFile(path string) (string, error) {
	dir, err := filex.EnsureSubDir(filepath.Join(stagingDirName, uuid.NewString()))
	if err != nil {
		return "", err
	}

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	staged := filepath.Join(dir, filepath.Base(path))
	dst, err := os.Create(staged)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(staged)
		return "", err
	}
	return staged, nil
}

// Cancel withdraws the queued or in-flight upload at localID. The record
// goes terminal, the transport drops the file (aborting a transfer in
// progress), and the journal row and staged copy are cleaned up.
func (s *AlbumSession) Cancel(ctx context.Context, localID int) error {
	rec := s.reg.FindByLocalID(localID)
	if rec == nil || rec.FileHandle == "" {
		return fmt.Errorf("no image %d", localID)
	}
	if rec.Status != album.StatusQueued && rec.Status != album.StatusUploading {
		return fmt.Errorf("image %d is not uploading", localID)
	}

	handle := rec.FileHandle
	s.reg.Cancel(rec)
	s.tr.CancelUpload(handle)
	s.dropJournalRow(ctx, handle)
	return nil
}

// SetKey designates the record at localID as the album's key image.
func (s *AlbumSession) SetKey(localID int) error {
	rec := s.reg.FindByLocalID(localID)
	if !s.reg.SetKeyImage(rec, false) {
		return fmt.Errorf("no image %d", localID)
	}
	return nil
}

// ToggleDelete flips the deletion marker on the record at localID.
func (s *AlbumSession) ToggleDelete(localID int) error {
	rec := s.reg.FindByLocalID(localID)
	if !rec.Live() {
		return fmt.Errorf("no image %d", localID)
	}
	s.reg.ToggleDeletion(rec)
	return nil
}

// SetOrder records the desired visual order, given as LocalIDs. The order is
// submitted to the server on the next Flush.
func (s *AlbumSession) SetOrder(localIDs []int) {
	s.reg.SortOrder(localIDs)
}

// Flush pushes the session's accumulated form state to the server: the
// pending sort order, the key designation, and any deletion markers.
// Deletions confirmed by the server are tombstoned locally.
func (s *AlbumSession) Flush(ctx context.Context) error {
	form := s.reg.Form()

	if form.SortOrder != "" {
		ids := strings.Split(form.SortOrder, ",")
		if err := s.api.Reorder(ctx, s.mealID, ids); err != nil {
			return fmt.Errorf("submitting sort order: %w", err)
		}
		form.SortOrder = ""
	}

	if form.KeyImage != "" {
		if err := s.api.SetKeyImage(ctx, s.mealID, form.KeyImage); err != nil {
			return fmt.Errorf("submitting key image: %w", err)
		}
	}

	if markers := form.DeleteMarkers(); len(markers) > 0 {
		if err := s.api.SubmitDeletions(ctx, s.mealID, markers); err != nil {
			return fmt.Errorf("submitting deletions: %w", err)
		}
		for _, id := range markers {
			rec := s.reg.FindByRemoteID(id)
			if rec == nil {
				continue
			}
			s.reg.ToggleDeletion(rec)
			s.reg.Clear(rec.LocalID)
		}
	}

	return nil
}

// uploadFile is the transport's UploadFunc: it performs the API upload and
// re-encodes the server's answer as the completion payload the dispatcher
// expects.
func (s *AlbumSession) uploadFile(ctx context.Context, path string, progress func(sent, total int64)) ([]byte, error) {
	img, err := s.api.Upload(ctx, s.mealID, path, netx.ProgressFunc(progress))
	if err != nil {
		return nil, err
	}
	return json.Marshal(img)
}

// handleEvent is the transport sink: dispatcher first, then journal upkeep.
// A journal row is dropped once its upload either succeeded or failed for
// good; recoverable errors keep the row for the next attempt.
func (s *AlbumSession) handleEvent(ctx context.Context, ev transport.Event) {
	s.disp.Handle(ctx, ev)

	switch ev.Type {
	case transport.UploadSuccess:
		s.dropJournalRow(ctx, ev.Handle)
	case transport.UploadError:
		rec := s.reg.FindByFileHandle(ev.Handle, album.FindOptions{
			IncludeCanceled: true,
			IncludeErrored:  true,
		})
		if rec != nil && (rec.Status == album.StatusErrored || rec.Status == album.StatusCanceled) {
			s.dropJournalRow(ctx, ev.Handle)
		}
	}
}

func (s *AlbumSession) dropJournalRow(ctx context.Context, handle string) {
	ref, ok := s.pending[handle]
	if !ok {
		return
	}
	delete(s.pending, handle)

	if err := s.journal.Remove(ctx, ref.rowID); err != nil {
		s.log.Warn(ctx, "removing journal row", "id", ref.rowID, "error", err)
	}
	if ref.stagedPath != "" {
		if err := os.Remove(ref.stagedPath); err != nil {
			s.log.Warn(ctx, "removing staged file", "path", ref.stagedPath, "error", err)
		}
		// Each staged file sits in its own directory.
		_ = os.Remove(filepath.Dir(ref.stagedPath))
	}
}
