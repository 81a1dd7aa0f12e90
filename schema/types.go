package schema

// SessionID identifies a generation session (one page session lifetime).
type SessionID string

// MessageID identifies a transcript message.
type MessageID string

// ModelID identifies a generation model.
type ModelID string

// Role identifies the author of a transcript message.
type Role string

const (
	// RoleUser marks a message authored by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a message authored by the generation backend.
	RoleAssistant Role = "assistant"
)

// OperationKind describes what a file operation does to its path.
type OperationKind string

const (
	// OperationCreate introduces a new file.
	OperationCreate OperationKind = "create"
	// OperationUpdate rewrites an existing file.
	OperationUpdate OperationKind = "update"
	// OperationDelete removes a file.
	OperationDelete OperationKind = "delete"
)

// FileStatus tracks the lifecycle of a generated file within a turn.
type FileStatus string

const (
	// StatusPending indicates the file is announced but not yet generating.
	StatusPending FileStatus = "pending"
	// StatusProcessing indicates content is being generated.
	StatusProcessing FileStatus = "processing"
	// StatusCompleted indicates the file content is final for this turn.
	StatusCompleted FileStatus = "completed"
	// StatusError indicates generation failed for this file.
	StatusError FileStatus = "error"
)

// NodeKind distinguishes file tree node types.
type NodeKind string

const (
	// NodeFile is a leaf carrying content.
	NodeFile NodeKind = "file"
	// NodeFolder is an interior node with ordered children.
	NodeFolder NodeKind = "folder"
)

// TurnState is the session controller's per-turn state machine position.
type TurnState string

const (
	// TurnIdle means no turn is active; submits are accepted.
	TurnIdle TurnState = "idle"
	// TurnSending means the request has been submitted but not yet accepted.
	TurnSending TurnState = "sending"
	// TurnStreaming means frames are being consumed.
	TurnStreaming TurnState = "streaming"
)
