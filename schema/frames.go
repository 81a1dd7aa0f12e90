package schema

import "encoding/json"

// FrameType is the discriminator carried in each streamed frame payload.
type FrameType string

const (
	// FrameContent carries narration text from the model.
	FrameContent FrameType = "content"
	// FrameFileOperation announces or updates a generated file.
	FrameFileOperation FrameType = "file_operation"
	// FrameSandboxURL announces a live execution environment for the app.
	FrameSandboxURL FrameType = "sandbox_url"
	// FrameStatus carries progress narration for the active turn.
	FrameStatus FrameType = "status"
	// FrameComplete is the terminal frame; no frames follow it.
	FrameComplete FrameType = "complete"
	// FrameError reports a backend-side failure for the turn.
	FrameError FrameType = "error"
)

// Frame is one decoded event from the generation stream.
type Frame struct {
	Type FrameType `json:"type"`

	// Content narration (content frames).
	Content string `json:"content,omitempty"`

	// Status/complete/error narration.
	Message string `json:"message,omitempty"`

	// File operation fields (file_operation frames).
	Operation   OperationKind `json:"operation,omitempty"`
	Path        string        `json:"path,omitempty"`
	Status      FileStatus    `json:"status,omitempty"`
	FileContent string        `json:"fileContent,omitempty"`
	Language    string        `json:"language,omitempty"`

	// Sandbox fields (sandbox_url frames).
	URL    string `json:"url,omitempty"`
	IsMock bool   `json:"isMock,omitempty"`

	// Raw is the undecoded frame payload, kept for diagnostics.
	Raw json.RawMessage `json:"-"`
}

// frameWire matches the backend payload, which reuses "content" for both
// narration and file bodies depending on frame type.
type frameWire struct {
	Type      FrameType     `json:"type"`
	Content   string        `json:"content,omitempty"`
	Message   string        `json:"message,omitempty"`
	Operation OperationKind `json:"operation,omitempty"`
	Path      string        `json:"path,omitempty"`
	Status    FileStatus    `json:"status,omitempty"`
	Language  string        `json:"language,omitempty"`
	URL       string        `json:"url,omitempty"`
	IsMock    bool          `json:"isMock,omitempty"`
}

// UnmarshalJSON decodes the wire shape, routing the shared "content" field to
// FileContent for file_operation frames.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var wire frameWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*f = Frame{
		Type:      wire.Type,
		Message:   wire.Message,
		Operation: wire.Operation,
		Path:      wire.Path,
		Status:    wire.Status,
		Language:  wire.Language,
		URL:       wire.URL,
		IsMock:    wire.IsMock,
	}
	if wire.Type == FrameFileOperation {
		f.FileContent = wire.Content
	} else {
		f.Content = wire.Content
	}
	return nil
}

// MarshalJSON emits the wire shape consumed by UnmarshalJSON.
func (f Frame) MarshalJSON() ([]byte, error) {
	wire := frameWire{
		Type:      f.Type,
		Content:   f.Content,
		Message:   f.Message,
		Operation: f.Operation,
		Path:      f.Path,
		Status:    f.Status,
		Language:  f.Language,
		URL:       f.URL,
		IsMock:    f.IsMock,
	}
	if f.Type == FrameFileOperation {
		wire.Content = f.FileContent
	}
	return json.Marshal(wire)
}
