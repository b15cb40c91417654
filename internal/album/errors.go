package album

import (
	"errors"
	"fmt"
)

var (
	// ErrBadFile means the transport handed over a file without a usable
	// handle or name. Terminal for that file.
	ErrBadFile = errors.New("problem uploading file")

	// ErrBadServerResponse means the upload-completion payload was missing
	// required fields. Always non-recoverable: the transport considers the
	// transfer finished and will not re-offer it.
	ErrBadServerResponse = errors.New("bad server response")
)

// BadFileMessage is the user-visible description rendered for ErrBadFile.
const BadFileMessage = "Problem uploading file"

// FatalError signals a page-integrity problem (missing view container,
// broken collaborator wiring). It is distinct from per-image upload errors:
// there is no per-record recovery path, the whole component is considered
// misconfigured.
type FatalError struct {
	Op     string
	Reason string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("album: fatal: %s: %s", e.Op, e.Reason)
}

// UploadError describes one failed upload attempt as reported by the
// transport.
type UploadError struct {
	// Recoverable marks errors eligible for the counted-retry policy
	// (network and IO failures). Security, validation and cancellation
	// errors are not recoverable.
	Recoverable bool
	// Message is the short user-visible description.
	Message string
}
