package errs

import "errors"

// Sentinel domain errors, mapped to HTTP codes in handlers.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRecordingNotFound = errors.New("recording not found")
)
