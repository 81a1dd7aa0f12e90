package core

import "github.com/appforge-dev/appforge/schema"

// EventSink receives incremental session events from the core service, so a
// transport can re-render the transcript between frames.
type EventSink interface {
	OnMessage(sessionID schema.SessionID, message schema.Message)
	OnFileOperation(sessionID schema.SessionID, record schema.FileRecord)
	OnStateChange(sessionID schema.SessionID, state schema.TurnState, progress int)
}
