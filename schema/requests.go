package schema

// Session lifecycle.

// CreateSessionRequest describes a request to open a new session.
type CreateSessionRequest struct {
	Model ModelID
}

// CreateSessionResponse reports the created session.
type CreateSessionResponse struct {
	SessionID SessionID
}

// CloseSessionRequest describes a request to close a session.
type CloseSessionRequest struct {
	SessionID SessionID
}

// CloseSessionResponse acknowledges a closed session.
type CloseSessionResponse struct{}

// Turn operations.

// SubmitRequest describes a prompt submission for one turn.
type SubmitRequest struct {
	SessionID SessionID
	Prompt    string
}

// SubmitResponse reports the transcript entries created for the turn.
type SubmitResponse struct {
	UserMessage      Message
	AssistantMessage Message
}

// ResetRequest describes a request to clear a session's ledger and transcript.
type ResetRequest struct {
	SessionID SessionID
}

// ResetResponse acknowledges a reset.
type ResetResponse struct{}

// State queries.

// StateRequest describes a request for a session snapshot.
type StateRequest struct {
	SessionID SessionID
}

// StateResponse reports the session snapshot.
type StateResponse struct {
	Snapshot SessionSnapshot
}

// UsageRequest describes a request for session usage counters.
type UsageRequest struct {
	SessionID SessionID
}

// UsageResponse reports usage counters.
type UsageResponse struct {
	Usage Usage
}
