// Package transport connects the album registry to an upload transport.
//
// A Transport moves file bytes and reports what happened as a stream of
// Events correlated by file handle. The Dispatcher translates those events
// into registry state transitions and drives the transport's retry/cancel
// decisions from the registry's answers.
package transport

import "context"

// EventType enumerates transport callbacks.
type EventType int

const (
	// FileQueued: a file was accepted into the transport queue.
	FileQueued EventType = iota
	// FileQueueError: a file was rejected before it ever queued.
	FileQueueError
	// UploadStart: the transfer for a handle began.
	UploadStart
	// UploadProgress: bytes moved.
	UploadProgress
	// UploadError: the transfer failed.
	UploadError
	// UploadSuccess: the server accepted the upload; Payload carries its
	// JSON completion response.
	UploadSuccess
	// UploadComplete: the transport is done with this handle, success or
	// not. Always the final event of an attempt.
	UploadComplete
)

func (t EventType) String() string {
	switch t {
	case FileQueued:
		return "file_queued"
	case FileQueueError:
		return "file_queue_error"
	case UploadStart:
		return "upload_start"
	case UploadProgress:
		return "upload_progress"
	case UploadError:
		return "upload_error"
	case UploadSuccess:
		return "upload_success"
	case UploadComplete:
		return "upload_complete"
	default:
		return "unknown"
	}
}

// Event is one transport callback. Which fields are meaningful depends on
// Type; Handle is always set except for queue-limit errors, which concern no
// particular file.
type Event struct {
	Type     EventType
	Handle   string
	Filename string

	// Code and Message describe queue and upload errors.
	Code    ErrorCode
	Message string

	// Transfer progress, bytes.
	BytesLoaded int64
	BytesTotal  int64

	// Payload is the raw server completion response for UploadSuccess.
	Payload []byte
}

// Transport is the control surface the dispatcher uses.
//
// Events for a given handle are assumed to arrive in the order
// queued → start → progress* → (error|success) → complete. The dispatcher
// tolerates a skipped start but not truly reordered delivery.
type Transport interface {
	// StartUpload begins transferring the next queued file, emitting events
	// as it goes. A transport with nothing queued returns nil.
	StartUpload(ctx context.Context) error
	// CancelUpload abandons the file with the given handle: it is removed
	// from the queue and any in-flight transfer for it is aborted.
	CancelUpload(handle string)
}
