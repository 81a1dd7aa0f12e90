package core

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/internal/logx"
	"github.com/appforge-dev/appforge/schema"
)

type service struct {
	deps ServiceDeps
	cfg  schema.ServiceConfig

	mu       sync.Mutex
	sessions map[schema.SessionID]*session
}

// New constructs the core service. Generator is required; Synthesizer
// defaults to the built-in preview synthesizer and EventSink to a no-op.
func New(deps ServiceDeps, cfg schema.ServiceConfig) Service {
	if deps.Logger == nil {
		deps.Logger = pslog.Ctx(context.Background())
	}
	if deps.Synthesizer == nil {
		deps.Synthesizer = NewSynthesizer(PreviewConfig{})
	}
	if deps.EventSink == nil {
		deps.EventSink = nopSink{}
	}
	return &service{
		deps:     deps,
		cfg:      schema.NormalizeServiceConfig(cfg),
		sessions: make(map[schema.SessionID]*session),
	}
}

type nopSink struct{}

func (nopSink) OnMessage(schema.SessionID, schema.Message)            {}
func (nopSink) OnFileOperation(schema.SessionID, schema.FileRecord)   {}
func (nopSink) OnStateChange(schema.SessionID, schema.TurnState, int) {}

func (s *service) CreateSession(ctx context.Context, req schema.CreateSessionRequest) (schema.CreateSessionResponse, error) {
	id := newSessionID()
	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}
	sess := &session{
		id:     id,
		model:  model,
		state:  schema.TurnIdle,
		ledger: newLedger(),
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	logx.Session(s.deps.Logger, id).Info("session created", "model", model)
	return schema.CreateSessionResponse{SessionID: id}, nil
}

func (s *service) CloseSession(ctx context.Context, req schema.CloseSessionRequest) (schema.CloseSessionResponse, error) {
	s.mu.Lock()
	sess, ok := s.sessions[req.SessionID]
	if ok {
		delete(s.sessions, req.SessionID)
	}
	s.mu.Unlock()
	if !ok {
		return schema.CloseSessionResponse{}, schema.ErrSessionNotFound
	}
	sess.mu.Lock()
	sess.closed = true
	cancel := sess.turnCancel
	sess.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	logx.Session(s.deps.Logger, req.SessionID).Info("session closed")
	return schema.CloseSessionResponse{}, nil
}

func (s *service) Submit(ctx context.Context, req schema.SubmitRequest) (schema.SubmitResponse, error) {
	prompt, err := schema.NormalizePrompt(req.Prompt)
	if err != nil {
		return schema.SubmitResponse{}, err
	}
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return schema.SubmitResponse{}, err
	}
	return s.submit(ctx, sess, prompt)
}

func (s *service) Reset(ctx context.Context, req schema.ResetRequest) (schema.ResetResponse, error) {
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return schema.ResetResponse{}, err
	}
	sess.mu.Lock()
	cancel := sess.turnCancel
	sess.mu.Unlock()
	if cancel != nil {
		cancel()
		sess.waitTurn()
	}
	sess.mu.Lock()
	sess.ledger.reset()
	sess.messages = nil
	sess.sandbox = nil
	sess.progress = 0
	sess.state = schema.TurnIdle
	sess.history = nil
	sess.mu.Unlock()
	logx.Session(s.deps.Logger, req.SessionID).Info("session reset")
	s.deps.EventSink.OnStateChange(req.SessionID, schema.TurnIdle, 0)
	return schema.ResetResponse{}, nil
}

func (s *service) State(ctx context.Context, req schema.StateRequest) (schema.StateResponse, error) {
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return schema.StateResponse{}, err
	}
	return schema.StateResponse{Snapshot: s.snapshot(sess)}, nil
}

func (s *service) Usage(ctx context.Context, req schema.UsageRequest) (schema.UsageResponse, error) {
	sess, err := s.lookup(req.SessionID)
	if err != nil {
		return schema.UsageResponse{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return schema.UsageResponse{Usage: sess.usage}, nil
}

func (s *service) lookup(id schema.SessionID) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, schema.ErrSessionNotFound
	}
	return sess, nil
}

// snapshot assembles the observable session state. The tree and preview are
// memoized on the ledger version so repeated polls do not rebuild them.
func (s *service) snapshot(sess *session) schema.SessionSnapshot {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.derivedVersion != sess.ledger.version || sess.derived == nil {
		completed := sess.ledger.allCompleted()
		tree := buildTree(completed)
		var preview string
		var hasPreview bool
		if sess.sandbox == nil || sess.sandbox.IsMock {
			preview, hasPreview = s.deps.Synthesizer.Synthesize(completed)
		}
		sess.derived = &derivedState{tree: tree, preview: preview, hasPreview: hasPreview}
		sess.derivedVersion = sess.ledger.version
	}
	snap := schema.SessionSnapshot{
		ID:           sess.id,
		Messages:     append([]schema.Message(nil), sess.messages...),
		Tree:         sess.derived.tree,
		Preview:      sess.derived.preview,
		HasPreview:   sess.derived.hasPreview,
		IsGenerating: sess.state == schema.TurnSending || sess.state == schema.TurnStreaming,
		Progress:     sess.progress,
		Usage:        sess.usage,
	}
	if sess.sandbox != nil {
		sb := *sess.sandbox
		snap.Sandbox = &sb
	}
	return snap
}

func nowUTC() time.Time { return time.Now().UTC() }
