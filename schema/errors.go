package schema

import "errors"

var (
	// ErrEmptyPrompt indicates the submitted prompt was empty.
	ErrEmptyPrompt = errors.New("empty prompt")
	// ErrTurnActive indicates a turn is already in flight for the session.
	ErrTurnActive = errors.New("turn already active")
	// ErrSessionNotFound indicates the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed indicates the session has been closed.
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownOperation indicates a file operation with an unrecognized kind.
	ErrUnknownOperation = errors.New("unknown file operation")
	// ErrInvalidStatus indicates an unrecognized file status value.
	ErrInvalidStatus = errors.New("invalid file status")
	// ErrUnknownFrame indicates a frame with an unrecognized type.
	ErrUnknownFrame = errors.New("unknown frame type")
	// ErrGeneratorUnavailable indicates no generation backend is configured.
	ErrGeneratorUnavailable = errors.New("generator not configured")
)
