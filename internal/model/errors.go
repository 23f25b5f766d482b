package model

import "errors"

var (
	// ErrInvalidInput reports malformed or mismatched trace data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOutOfRange reports a toggle or navigation target outside valid bounds.
	ErrOutOfRange = errors.New("out of range")
	// ErrMissingViewer reports that no platform viewer is available.
	ErrMissingViewer = errors.New("no viewer available")
	// ErrDeletionFailure reports a backing file that could not be removed.
	ErrDeletionFailure = errors.New("deletion failed")
	// ErrWriteFailure reports a catalog that could not be written or copied.
	ErrWriteFailure = errors.New("catalog write failed")
)
