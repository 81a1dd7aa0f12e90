package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/internal/logx"
	"github.com/appforge-dev/appforge/schema"
)

// derivedState caches the tree and preview computed from one ledger version.
type derivedState struct {
	tree       []schema.TreeNode
	preview    string
	hasPreview bool
}

type session struct {
	id    schema.SessionID
	model schema.ModelID

	mu       sync.Mutex
	closed   bool
	state    schema.TurnState
	progress int
	ledger   *ledger
	messages []schema.Message
	history  []HistoryEntry
	sandbox  *schema.Sandbox
	usage    schema.Usage

	derived        *derivedState
	derivedVersion uint64

	turnCancel context.CancelFunc
	turnDone   chan struct{}
}

// waitTurn blocks until the in-flight turn goroutine, if any, has finished.
func (sess *session) waitTurn() {
	sess.mu.Lock()
	done := sess.turnDone
	sess.mu.Unlock()
	if done != nil {
		<-done
	}
}

// turnProgressLocked estimates completion from the ledger. It never reports
// 100 before the complete frame arrives.
func (sess *session) turnProgressLocked() int {
	total := sess.ledger.len()
	if total == 0 {
		return 0
	}
	p := sess.ledger.completedCount() * 100 / total
	if p > 99 {
		p = 99
	}
	return p
}

func (sess *session) updateMessageLocked(id schema.MessageID, fn func(*schema.Message)) (schema.Message, bool) {
	for i := range sess.messages {
		if sess.messages[i].ID == id {
			fn(&sess.messages[i])
			return sess.messages[i], true
		}
	}
	return schema.Message{}, false
}

func (sess *session) removeMessageLocked(id schema.MessageID) {
	for i := range sess.messages {
		if sess.messages[i].ID == id {
			sess.messages = append(sess.messages[:i], sess.messages[i+1:]...)
			return
		}
	}
}

// submit runs one turn. It appends the user message and an assistant
// placeholder, starts the generator stream, and consumes frames in a single
// goroutine so events apply in arrival order. Only one turn may be active
// per session.
func (s *service) submit(ctx context.Context, sess *session, prompt string) (schema.SubmitResponse, error) {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return schema.SubmitResponse{}, schema.ErrSessionClosed
	}
	if sess.state != schema.TurnIdle {
		sess.mu.Unlock()
		return schema.SubmitResponse{}, schema.ErrTurnActive
	}
	sess.state = schema.TurnSending
	sess.progress = 0
	userMsg := schema.Message{
		ID:        newMessageID(),
		Role:      schema.RoleUser,
		Content:   prompt,
		Timestamp: nowUTC(),
	}
	assistantMsg := schema.Message{
		ID:        newMessageID(),
		Role:      schema.RoleAssistant,
		Timestamp: nowUTC(),
	}
	sess.messages = append(sess.messages, userMsg, assistantMsg)
	history := append([]HistoryEntry(nil), sess.history...)
	turnCtx, cancel := context.WithCancel(logx.ContextWithSession(context.WithoutCancel(ctx), sess.id))
	done := make(chan struct{})
	sess.turnCancel = cancel
	sess.turnDone = done
	model := sess.model
	sess.mu.Unlock()

	log := logx.Session(s.deps.Logger, sess.id)
	s.deps.EventSink.OnMessage(sess.id, userMsg)
	s.deps.EventSink.OnStateChange(sess.id, schema.TurnSending, 0)
	log.Info("turn started", "prompt_chars", len(prompt))

	stream, err := s.deps.Generator.Generate(turnCtx, GenerateRequest{
		Prompt:  prompt,
		Model:   model,
		History: history,
	})
	if err != nil {
		cancel()
		close(done)
		s.failTurn(sess, assistantMsg.ID, err)
		return schema.SubmitResponse{}, fmt.Errorf("%w: %v", schema.ErrGeneratorUnavailable, err)
	}

	sess.mu.Lock()
	sess.state = schema.TurnStreaming
	sess.mu.Unlock()
	s.deps.EventSink.OnStateChange(sess.id, schema.TurnStreaming, 0)

	go func() {
		defer close(done)
		defer cancel()
		defer stream.Close()
		s.consume(turnCtx, sess, stream, prompt, assistantMsg.ID)
	}()

	return schema.SubmitResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// consume drains the frame stream and applies each frame to session state.
// The loop exits on the complete frame, an error frame, a transport error,
// or context cancellation.
func (s *service) consume(ctx context.Context, sess *session, stream FrameStream, prompt string, assistantID schema.MessageID) {
	log := logx.Session(s.deps.Logger, sess.id)
	var narration strings.Builder
	for {
		frame, err := stream.Next(ctx)
		if err != nil {
			if err == io.EOF {
				err = fmt.Errorf("stream ended before completion")
			}
			s.failTurn(sess, assistantID, err)
			return
		}
		switch frame.Type {
		case schema.FrameContent, schema.FrameStatus:
			text := frame.Content
			if text == "" {
				text = frame.Message
			}
			if text != "" {
				narration.WriteString(text)
				s.updateAssistant(sess, assistantID, narration.String())
			}
		case schema.FrameFileOperation:
			s.applyFileOperation(sess, frame, log)
		case schema.FrameSandboxURL:
			s.setSandbox(sess, frame)
		case schema.FrameError:
			text := frame.Message
			if text == "" {
				text = frame.Content
			}
			if text == "" {
				text = "generation failed"
			}
			s.failTurn(sess, assistantID, fmt.Errorf("%s", text))
			return
		case schema.FrameComplete:
			s.finishTurn(sess, prompt, assistantID, narration.String())
			return
		default:
			log.Warn("ignoring unknown frame", "type", string(frame.Type))
		}
	}
}

func (s *service) applyFileOperation(sess *session, frame schema.Frame, log pslog.Logger) {
	sess.mu.Lock()
	before := sess.ledger.version
	err := sess.ledger.apply(frame)
	changed := err == nil && sess.ledger.version != before
	var rec schema.FileRecord
	if changed {
		if r := sess.ledger.records[frame.Path]; r != nil {
			rec = *r
		}
		sess.progress = sess.turnProgressLocked()
	}
	progress := sess.progress
	sess.mu.Unlock()
	if err != nil {
		log.Warn("rejected file operation", "path", frame.Path, "error", err.Error())
		return
	}
	if changed {
		s.deps.EventSink.OnFileOperation(sess.id, rec)
		s.deps.EventSink.OnStateChange(sess.id, schema.TurnStreaming, progress)
	}
}

func (s *service) setSandbox(sess *session, frame schema.Frame) {
	if frame.URL == "" {
		return
	}
	sess.mu.Lock()
	sess.sandbox = &schema.Sandbox{URL: frame.URL, IsMock: frame.IsMock}
	sess.derived = nil
	sess.mu.Unlock()
}

func (s *service) updateAssistant(sess *session, id schema.MessageID, content string) {
	sess.mu.Lock()
	msg, ok := sess.updateMessageLocked(id, func(m *schema.Message) {
		m.Content = content
	})
	sess.mu.Unlock()
	if ok {
		s.deps.EventSink.OnMessage(sess.id, msg)
	}
}

// finishTurn finalizes a successful turn: the assistant message gets a
// summary with the file snapshot attached, usage counters advance, and the
// session returns to idle.
func (s *service) finishTurn(sess *session, prompt string, assistantID schema.MessageID, narration string) {
	sess.mu.Lock()
	files := sess.ledger.all()
	summary := finalSummary(narration, len(files))
	msg, _ := sess.updateMessageLocked(assistantID, func(m *schema.Message) {
		m.Content = summary
		m.Files = append([]schema.FileRecord(nil), files...)
	})
	sess.usage.Turns++
	sess.usage.FilesGenerated += len(files)
	sess.usage.PromptChars += len(prompt)
	sess.usage.NarrationChars += len(narration)
	sess.usage.CreditsConsumed += s.cfg.CreditsPerTurn
	sess.history = appendHistory(sess.history, prompt, summary, s.cfg.HistoryLimit)
	sess.progress = 100
	sess.state = schema.TurnIdle
	sess.turnCancel = nil
	fileCount := len(files)
	sess.mu.Unlock()

	logx.Session(s.deps.Logger, sess.id).Info("turn completed", "files", fileCount)
	s.deps.EventSink.OnMessage(sess.id, msg)
	s.deps.EventSink.OnStateChange(sess.id, schema.TurnIdle, 100)
}

// failTurn removes the assistant placeholder, appends a categorized error
// message, and returns the session to idle. Usage counters do not advance.
func (s *service) failTurn(sess *session, assistantID schema.MessageID, cause error) {
	errMsg := schema.Message{
		ID:        newMessageID(),
		Role:      schema.RoleAssistant,
		Content:   failureMessage(cause.Error()),
		Timestamp: nowUTC(),
	}
	sess.mu.Lock()
	sess.removeMessageLocked(assistantID)
	sess.messages = append(sess.messages, errMsg)
	sess.state = schema.TurnIdle
	sess.progress = 0
	sess.turnCancel = nil
	sess.mu.Unlock()

	logx.Session(s.deps.Logger, sess.id).Warn("turn failed", "error", cause.Error())
	s.deps.EventSink.OnMessage(sess.id, errMsg)
	s.deps.EventSink.OnStateChange(sess.id, schema.TurnIdle, 0)
}

func finalSummary(narration string, fileCount int) string {
	var b strings.Builder
	if trimmed := strings.TrimSpace(narration); trimmed != "" {
		b.WriteString(trimmed)
		b.WriteString("\n\n")
	}
	switch fileCount {
	case 0:
		b.WriteString("Done. No files were changed this turn.")
	case 1:
		b.WriteString("Generated 1 file. Open the preview to see your app, and keep prompting to refine it.")
	default:
		fmt.Fprintf(&b, "Generated %d files. Open the preview to see your app, and keep prompting to refine it.", fileCount)
	}
	return b.String()
}

func appendHistory(history []HistoryEntry, prompt, reply string, limit int) []HistoryEntry {
	history = append(history,
		HistoryEntry{Role: schema.RoleUser, Content: prompt},
		HistoryEntry{Role: schema.RoleAssistant, Content: reply},
	)
	if limit > 0 && len(history) > limit {
		history = append([]HistoryEntry(nil), history[len(history)-limit:]...)
	}
	return history
}
