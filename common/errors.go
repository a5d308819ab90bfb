package common

import (
	"errors"
)

var ErrNoFiles = errors.New("no files submitted")
var ErrTooManyFiles = errors.New("too many files in one batch")
var ErrMediaTooLarge = errors.New("media too large")
var ErrEmptyArchiveRequest = errors.New("no files requested for archive")
var ErrNoValidArchiveEntries = errors.New("none of the requested files are available")
var ErrArtifactNotFound = errors.New("converted file not found")
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// Reasons an item can fail. These are shown to clients.
var ErrUnsupportedMedia = errors.New("unsupported media type")
var ErrCorruptMedia = errors.New("media could not be decoded")
var ErrItemTimeout = errors.New("conversion timed out")
var ErrEncodeFailed = errors.New("failed to encode converted image")
var ErrTranscodeFailed = errors.New("failed to transcode audio")
var ErrOutputFailed = errors.New("failed to store converted output")
var ErrBatchCancelled = errors.New("batch cancelled before conversion finished")
var ErrInternal = errors.New("internal error during conversion")

var ItemFailureReasons = []error{
	ErrUnsupportedMedia,
	ErrCorruptMedia,
	ErrMediaTooLarge,
	ErrItemTimeout,
	ErrEncodeFailed,
	ErrTranscodeFailed,
	ErrOutputFailed,
	ErrBatchCancelled,
	ErrInternal,
}

// ItemError pairs a client facing reason with the detailed cause. errors.Is matches both.
type ItemError struct {
	Reason error
	Cause  error
}

func NewItemError(reason error, cause error) *ItemError {
	return &ItemError{Reason: reason, Cause: cause}
}

func (e *ItemError) Error() string {
	return e.Reason.Error() + ": " + e.Cause.Error()
}

func (e *ItemError) Unwrap() error {
	return e.Cause
}

func (e *ItemError) Is(target error) bool {
	return target == e.Reason
}

// FailureReason returns the client facing reason carried by err, or nil if it has none.
func FailureReason(err error) error {
	var itemErr *ItemError
	if errors.As(err, &itemErr) {
		return itemErr.Reason
	}
	for _, reason := range ItemFailureReasons {
		if errors.Is(err, reason) {
			return reason
		}
	}
	return nil
}
