package core

import (
	"context"

	"github.com/appforge-dev/appforge/schema"
)

// Generator is the upstream generation backend boundary. Implementations turn
// a prompt plus prior turn history into a stream of typed frames.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (FrameStream, error)
}

// GenerateRequest describes one turn's request payload.
type GenerateRequest struct {
	Prompt  string
	Model   schema.ModelID
	History []HistoryEntry
}

// HistoryEntry is one prior message sent as context with the prompt.
type HistoryEntry struct {
	Role    schema.Role `json:"role"`
	Content string      `json:"content"`
}

// FrameStream yields decoded frames from the backend response.
type FrameStream interface {
	Next(ctx context.Context) (schema.Frame, error)
	Close() error
}
