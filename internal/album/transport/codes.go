package transport

// ErrorCode classifies queue and upload failures. The split drives the
// counted-retry policy: transient transfer problems are worth another
// attempt, policy violations and cancellations are not.
type ErrorCode int

const (
	// Queue-time rejections.

	// CodeQueueLimit: the queue already holds the maximum number of files.
	CodeQueueLimit ErrorCode = iota + 1
	// CodeSizeLimit: the file exceeds the size limit.
	CodeSizeLimit
	// CodeZeroByte: the file is empty.
	CodeZeroByte
	// CodeInvalidType: the file type is not accepted.
	CodeInvalidType

	// Transfer-time failures.

	// CodeHTTP: the server answered with a failing HTTP status.
	CodeHTTP
	// CodeIO: reading the file or moving bytes failed.
	CodeIO
	// CodeSecurity: the request was rejected on security grounds.
	CodeSecurity
	// CodeUploadLimit: the account's upload limit was hit.
	CodeUploadLimit
	// CodeValidation: the server rejected the file content.
	CodeValidation
	// CodeCanceled: the user abandoned the upload.
	CodeCanceled
	// CodeStopped: the transport was stopped mid-transfer.
	CodeStopped
)

// Recoverable reports whether an error code feeds the counted-retry policy.
// HTTP and IO failures are transient; everything else is final for the
// handle.
func (c ErrorCode) Recoverable() bool {
	switch c {
	case CodeHTTP, CodeIO:
		return true
	default:
		return false
	}
}
