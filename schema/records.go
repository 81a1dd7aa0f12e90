package schema

import "time"

// FileRecord is the latest known operation state for one generated path.
type FileRecord struct {
	Path     string        `json:"path"`
	Kind     OperationKind `json:"kind"`
	Status   FileStatus    `json:"status"`
	Content  string        `json:"content,omitempty"`
	Language string        `json:"language,omitempty"`
}

// TreeNode is one node of the derived file tree. Folders carry ordered
// children; files carry content and language. The tree is always recomputed
// from the ledger, never mutated independently.
type TreeNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Kind     NodeKind   `json:"kind"`
	Children []TreeNode `json:"children,omitempty"`
	Content  string     `json:"content,omitempty"`
	Language string     `json:"language,omitempty"`
}

// Message is one transcript entry. Assistant messages carry the snapshot of
// file records finalized during their turn.
type Message struct {
	ID        MessageID    `json:"id"`
	Role      Role         `json:"role"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
	Files     []FileRecord `json:"files,omitempty"`
}

// Usage accumulates per-session generation counters. Counters only advance on
// successful turns.
type Usage struct {
	Turns           int `json:"turns"`
	FilesGenerated  int `json:"files_generated"`
	PromptChars     int `json:"prompt_chars"`
	NarrationChars  int `json:"narration_chars"`
	CreditsConsumed int `json:"credits_consumed"`
}

// Sandbox describes a backend-provisioned live execution environment.
type Sandbox struct {
	URL    string `json:"url"`
	IsMock bool   `json:"isMock"`
}

// SessionSnapshot is a transport-friendly view of one session's state.
type SessionSnapshot struct {
	ID           SessionID  `json:"id"`
	Messages     []Message  `json:"messages"`
	Tree         []TreeNode `json:"tree"`
	Preview      string     `json:"preview,omitempty"`
	HasPreview   bool       `json:"has_preview"`
	Sandbox      *Sandbox   `json:"sandbox,omitempty"`
	IsGenerating bool       `json:"is_generating"`
	Progress     int        `json:"progress"`
	Usage        Usage      `json:"usage"`
}
