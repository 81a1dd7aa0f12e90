package core

import (
	"context"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/schema"
)

// Service is the transport-agnostic API for managing generation sessions.
type Service interface {
	CreateSession(ctx context.Context, req schema.CreateSessionRequest) (schema.CreateSessionResponse, error)
	CloseSession(ctx context.Context, req schema.CloseSessionRequest) (schema.CloseSessionResponse, error)
	Submit(ctx context.Context, req schema.SubmitRequest) (schema.SubmitResponse, error)
	Reset(ctx context.Context, req schema.ResetRequest) (schema.ResetResponse, error)
	State(ctx context.Context, req schema.StateRequest) (schema.StateResponse, error)
	Usage(ctx context.Context, req schema.UsageRequest) (schema.UsageResponse, error)
}

// ServiceDeps captures dependencies for the core service.
type ServiceDeps struct {
	Generator   Generator
	Synthesizer Synthesizer
	EventSink   EventSink
	Logger      pslog.Logger
}
