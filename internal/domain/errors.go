package domain

import "errors"

// Error taxonomy for the download pipeline. Each value maps to a distinct,
// stable client-facing code so clients can branch on cause; internal error
// text never reaches the client.
var (
	// ErrInvalidReference means the source URL is malformed or unsupported.
	ErrInvalidReference = errors.New("invalid media reference")

	// ErrSessionExists is returned when creating a session whose storage
	// already exists.
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionNotFound means the session folder or record is missing.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionUnreadable means the session record exists but could not be
	// read or decoded.
	ErrSessionUnreadable = errors.New("session record unreadable")

	// ErrSessionUnwritable means the session record could not be persisted.
	ErrSessionUnwritable = errors.New("session record unwritable")

	// ErrFormatUnavailable means no format matched even after fallback.
	ErrFormatUnavailable = errors.New("no matching format available")

	// ErrDownloadFailed means at least one raw-stream download failed.
	// Partial results are discarded.
	ErrDownloadFailed = errors.New("stream download failed")

	// ErrProcessingFailed means the external encode/merge step failed.
	ErrProcessingFailed = errors.New("media processing failed")
)

// ErrorCode translates a pipeline error into its stable client code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, ErrSessionExists):
		return "session_exists"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionUnreadable):
		return "session_unreadable"
	case errors.Is(err, ErrSessionUnwritable):
		return "session_unwritable"
	case errors.Is(err, ErrFormatUnavailable), errors.Is(err, ErrDownloadFailed):
		return "download_failed"
	case errors.Is(err, ErrProcessingFailed):
		return "processing_failed"
	default:
		return "internal_error"
	}
}
