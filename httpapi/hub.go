package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/schema"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64                  `json:"seq"`
	Type      string                  `json:"type"`
	Message   *schema.Message         `json:"message,omitempty"`
	File      *schema.FileRecord      `json:"file,omitempty"`
	State     schema.TurnState        `json:"state,omitempty"`
	Progress  int                     `json:"progress,omitempty"`
	Snapshot  *schema.SessionSnapshot `json:"snapshot,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Hub broadcasts core events to SSE subscribers per session. It implements
// core.EventSink.
type Hub struct {
	mu          sync.Mutex
	sessions    map[schema.SessionID]*sessionHub
	historySize int
}

// NewHub constructs a hub with the given replay history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		sessions:    make(map[schema.SessionID]*sessionHub),
		historySize: historySize,
	}
}

// OnMessage implements core.EventSink.
func (h *Hub) OnMessage(sessionID schema.SessionID, msg schema.Message) {
	m := msg
	h.publish(sessionID, StreamEvent{
		Type:      "message",
		Message:   &m,
		Timestamp: time.Now(),
	})
}

// OnFileOperation implements core.EventSink.
func (h *Hub) OnFileOperation(sessionID schema.SessionID, record schema.FileRecord) {
	r := record
	h.publish(sessionID, StreamEvent{
		Type:      "file",
		File:      &r,
		Timestamp: time.Now(),
	})
}

// OnStateChange implements core.EventSink.
func (h *Hub) OnStateChange(sessionID schema.SessionID, state schema.TurnState, progress int) {
	h.publish(sessionID, StreamEvent{
		Type:      "state",
		State:     state,
		Progress:  progress,
		Timestamp: time.Now(),
	})
}

// Subscribe registers a subscriber for a session.
func (h *Hub) Subscribe(sessionID schema.SessionID) (<-chan StreamEvent, func(), uint64, []StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.getOrCreateLocked(sessionID)
	ch := make(chan StreamEvent, 256)
	sh.subs[ch] = struct{}{}
	history := append([]StreamEvent(nil), sh.history...)
	seq := sh.seq
	log := pslog.Ctx(context.Background()).With("session", sessionID)
	log.Info("hub subscribe", "subs", len(sh.subs), "history", len(history))
	unsub := func() {
		h.mu.Lock()
		delete(sh.subs, ch)
		close(ch)
		remaining := len(sh.subs)
		h.mu.Unlock()
		log.Info("hub unsubscribe", "subs", remaining)
	}
	return ch, unsub, seq, history
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(sessionID schema.SessionID, after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.sessions[sessionID]
	if sh == nil {
		return nil
	}
	events := make([]StreamEvent, 0, len(sh.history))
	for _, event := range sh.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	return events
}

// Drop discards a session's replay history after the session closes. Live
// subscribers keep their channels until their own unsubscribe runs.
func (h *Hub) Drop(sessionID schema.SessionID) {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
}

func (h *Hub) publish(sessionID schema.SessionID, event StreamEvent) {
	h.mu.Lock()
	sh := h.getOrCreateLocked(sessionID)
	sh.seq++
	event.Seq = sh.seq
	sh.history = append(sh.history, event)
	if len(sh.history) > h.historySize {
		sh.history = sh.history[len(sh.history)-h.historySize:]
	}
	// Fan-out happens under the lock: sends are non-blocking, and unsubscribe
	// closes channels under the same lock, so a send can never hit a closed
	// channel.
	dropped := 0
	for sub := range sh.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		pslog.Ctx(context.Background()).Warn("hub event dropped", "session", sessionID, "type", event.Type, "dropped", dropped)
	}
}

func (h *Hub) getOrCreateLocked(sessionID schema.SessionID) *sessionHub {
	sh := h.sessions[sessionID]
	if sh == nil {
		sh = &sessionHub{
			subs: make(map[chan StreamEvent]struct{}),
		}
		h.sessions[sessionID] = sh
	}
	return sh
}

type sessionHub struct {
	seq     uint64
	history []StreamEvent
	subs    map[chan StreamEvent]struct{}
}
