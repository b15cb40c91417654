package transport

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/mealbook/mealbook/internal/album"
)

// UploadFunc moves one file to the server and returns the raw completion
// payload. progress is called as bytes are sent.
type UploadFunc func(ctx context.Context, path string, progress func(sent, total int64)) ([]byte, error)

// Sink receives transport events; usually (*Dispatcher).Handle.
type Sink func(ctx context.Context, ev Event)

type queuedFile struct {
	handle string
	path   string
	name   string
}

// HTTPTransport uploads queued files over HTTP, one at a time, emitting the
// standard event sequence for each attempt. A failed file stays at the head
// of the queue so the next StartUpload retries it; CancelUpload removes it
// and aborts an in-flight transfer.
type HTTPTransport struct {
	upload UploadFunc
	sink   Sink

	mu       sync.Mutex
	queue    []*queuedFile
	canceled map[string]bool
	active   string
	abort    context.CancelFunc
}

// NewHTTPTransport builds a transport around upload. Call SetSink before
// enqueueing anything.
func NewHTTPTransport(upload UploadFunc) *HTTPTransport {
	return &HTTPTransport{
		upload:   upload,
		canceled: map[string]bool{},
	}
}

// SetSink sets the event receiver. Registry, dispatcher and transport
// reference each other, so the sink is wired after construction.
func (t *HTTPTransport) SetSink(s Sink) {
	t.sink = s
}

// Enqueue accepts a local file for upload, assigns it a handle, and emits
// FileQueued. The returned handle correlates all later events.
func (t *HTTPTransport) Enqueue(ctx context.Context, path string) string {
	f := &queuedFile{
		handle: uuid.NewString(),
		path:   path,
		name:   filepath.Base(path),
	}

	t.mu.Lock()
	t.queue = append(t.queue, f)
	t.mu.Unlock()

	t.emit(ctx, Event{Type: FileQueued, Handle: f.handle, Filename: f.name})
	return f.handle
}

// QueueLen returns the number of files waiting to upload.
func (t *HTTPTransport) QueueLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// StartUpload transfers the file at the head of the queue, synchronously,
// emitting start/progress/error-or-success/complete as it goes. Nothing
// queued is not an error. A transport missing its sink or upload function
// is misassembled; that is an album.FatalError, not a per-file failure.
func (t *HTTPTransport) StartUpload(ctx context.Context) error {
	if t.sink == nil {
		return &album.FatalError{Op: "StartUpload", Reason: "no event sink wired"}
	}
	if t.upload == nil {
		return &album.FatalError{Op: "StartUpload", Reason: "no upload function wired"}
	}

	f := t.next()
	if f == nil {
		return nil
	}

	uploadCtx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.active = f.handle
	t.abort = cancel
	t.mu.Unlock()

	defer func() {
		cancel()
		t.mu.Lock()
		t.active = ""
		t.abort = nil
		t.mu.Unlock()
	}()

	t.emit(ctx, Event{Type: UploadStart, Handle: f.handle, Filename: f.name})

	payload, err := t.upload(uploadCtx, f.path, func(sent, total int64) {
		t.emit(ctx, Event{
			Type:        UploadProgress,
			Handle:      f.handle,
			Filename:    f.name,
			BytesLoaded: sent,
			BytesTotal:  total,
		})
	})

	if err != nil {
		t.emit(ctx, Event{
			Type:     UploadError,
			Handle:   f.handle,
			Filename: f.name,
			Code:     classify(err),
			Message:  err.Error(),
		})
		// The file stays queued for a retry unless the dispatcher canceled
		// it while handling the error event.
		t.dropIfCanceled(f.handle)
	} else {
		t.remove(f.handle)
		t.emit(ctx, Event{Type: UploadSuccess, Handle: f.handle, Filename: f.name, Payload: payload})
	}

	t.emit(ctx, Event{Type: UploadComplete, Handle: f.handle, Filename: f.name})
	return nil
}

// CancelUpload removes the handle from the queue and aborts its transfer if
// it is the one in flight.
func (t *HTTPTransport) CancelUpload(handle string) {
	t.mu.Lock()
	t.canceled[handle] = true
	abort := t.abort
	active := t.active
	t.mu.Unlock()

	t.remove(handle)
	if active == handle && abort != nil {
		abort()
	}
}

func (t *HTTPTransport) emit(ctx context.Context, ev Event) {
	if t.sink != nil {
		t.sink(ctx, ev)
	}
}

// next returns the first queued file that has not been canceled.
func (t *HTTPTransport) next() *queuedFile {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.queue) > 0 {
		f := t.queue[0]
		if !t.canceled[f.handle] {
			return f
		}
		t.queue = t.queue[1:]
	}
	return nil
}

func (t *HTTPTransport) remove(handle string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, f := range t.queue {
		if f.handle == handle {
			t.queue = append(t.queue[:i], t.queue[i+1:]...)
			return
		}
	}
}

func (t *HTTPTransport) dropIfCanceled(handle string) {
	t.mu.Lock()
	canceled := t.canceled[handle]
	t.mu.Unlock()
	if canceled {
		t.remove(handle)
	}
}

// classify maps an upload failure to an error code for the retry policy.
func classify(err error) ErrorCode {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			return CodeIO
		}
		var se *StatusError
		if errors.As(err, &se) {
			return se.Code()
		}
		return CodeHTTP
	}
}

// StatusError is an upload failure that already knows its classification,
// typically produced from an HTTP response status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Code maps the HTTP status to an ErrorCode.
func (e *StatusError) Code() ErrorCode {
	switch e.Status {
	case 401, 403:
		return CodeSecurity
	case 413:
		return CodeSizeLimit
	case 422:
		return CodeValidation
	default:
		return CodeHTTP
	}
}
