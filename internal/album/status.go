package album

// Status is the closed set of image lifecycle states.
type Status int

const (
	// StatusCreated is the initial state of a freshly created record.
	StatusCreated Status = iota
	// StatusQueued means the upload is waiting for the transport.
	StatusQueued
	// StatusUploading means the transport reported the upload started.
	StatusUploading
	// StatusErrored means the last upload attempt failed. The state is
	// terminal once the retry budget is exhausted or the error was not
	// recoverable.
	StatusErrored
	// StatusVisible means the server confirmed and persisted the image.
	StatusVisible
	// StatusDeleting means a visible image is marked for deletion on the
	// next form submit. Reversible back to StatusVisible.
	StatusDeleting
	// StatusCanceled is terminal: the upload was abandoned before completion.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusQueued:
		return "queued"
	case StatusUploading:
		return "uploading"
	case StatusErrored:
		return "errored"
	case StatusVisible:
		return "visible"
	case StatusDeleting:
		return "deleting"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// CanTransition reports whether moving from s to the target state is legal.
// The relation is total: every pair of states has an explicit answer.
// Tombstoning is orthogonal to status and is not part of this relation.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusCreated:
		// StatusVisible directly covers records replayed from server data,
		// which skip the queued/uploading states entirely.
		return to == StatusQueued || to == StatusErrored || to == StatusVisible
	case StatusQueued:
		return to == StatusUploading || to == StatusErrored || to == StatusCanceled
	case StatusUploading:
		return to == StatusErrored || to == StatusVisible || to == StatusCanceled
	case StatusErrored:
		return to == StatusQueued
	case StatusVisible:
		return to == StatusDeleting
	case StatusDeleting:
		return to == StatusVisible
	case StatusCanceled:
		return false
	default:
		return false
	}
}
