package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/core"
	"github.com/appforge-dev/appforge/internal/logx"
	"github.com/appforge-dev/appforge/schema"
)

// Server serves the session API.
type Server struct {
	cfg      Config
	service  core.Service
	hub      *Hub
	basePath string
}

// NewServer constructs an HTTP server. The hub should be the same instance
// wired into the core service as its event sink.
func NewServer(cfg Config, service core.Service, hub *Hub) *Server {
	return &Server{
		cfg:      cfg,
		service:  service,
		hub:      hub,
		basePath: normalizeBasePath(cfg.BasePath),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/session/{id}", s.handleCloseSession)
	mux.HandleFunc("POST /api/session/{id}/prompt", s.handlePrompt)
	mux.HandleFunc("POST /api/session/{id}/reset", s.handleReset)
	mux.HandleFunc("GET /api/session/{id}/state", s.handleState)
	mux.HandleFunc("GET /api/session/{id}/usage", s.handleUsage)
	mux.HandleFunc("GET /api/session/{id}/preview", s.handlePreview)
	mux.HandleFunc("GET /api/session/{id}/events", s.handleEvents)

	handler := withRequestLogging(mux)
	if s.basePath == "" {
		return handler
	}
	prefix := s.basePath
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	log := pslog.Ctx(r.Context()).With("remote", clientIP(r))
	var payload struct {
		Model string `json:"model"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r.Body, &payload); err != nil {
			log.Warn("http session decode failed", "err", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	resp, err := s.service.CreateSession(r.Context(), schema.CreateSessionRequest{
		Model: schema.ModelID(payload.Model),
	})
	if err != nil {
		log.Warn("http session create failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": resp.SessionID})
	log.Info("http session create ok", "session", resp.SessionID)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := schema.SessionID(r.PathValue("id"))
	log := logx.WithSession(r.Context(), sessionID)
	if _, err := s.service.CloseSession(r.Context(), schema.CloseSessionRequest{SessionID: sessionID}); err != nil {
		log.Warn("http session close failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	s.hub.Drop(sessionID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	log.Info("http session close ok")
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	sessionID := schema.SessionID(r.PathValue("id"))
	log := logx.WithSession(r.Context(), sessionID)
	var payload struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http prompt decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.Submit(r.Context(), schema.SubmitRequest{
		SessionID: sessionID,
		Prompt:    payload.Prompt,
	})
	if err != nil {
		log.Warn("http prompt failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	log.Info("http prompt ok", "prompt_len", len(payload.Prompt))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := schema.SessionID(r.PathValue("id"))
	log := logx.WithSession(r.Context(), sessionID)
	if _, err := s.service.Reset(r.Context(), schema.ResetRequest{SessionID: sessionID}); err != nil {
		log.Warn("http reset failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	log.Info("http reset ok")
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sessionID := schema.SessionID(r.PathValue("id"))
	log := logx.WithSession(r.Context(), sessionID)
	resp, err := s.service.State(r.Context(), schema.StateRequest{SessionID: sessionID})
	if err != nil {
		log.Warn("http state failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Snapshot)
	log.Debug("http state ok", "messages", len(resp.Snapshot.Messages), "generating", resp.Snapshot.IsGenerating)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	sessionID := schema.SessionID(r.PathValue("id"))
	resp, err := s.service.Usage(r.Context(), schema.UsageRequest{SessionID: sessionID})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Usage)
}

// handlePreview serves the synthesized document directly so a browser iframe
// can point at it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sessionID := schema.SessionID(r.PathValue("id"))
	log := logx.WithSession(r.Context(), sessionID)
	resp, err := s.service.State(r.Context(), schema.StateRequest{SessionID: sessionID})
	if err != nil {
		log.Warn("http preview failed", "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	if !resp.Snapshot.HasPreview {
		writeError(w, http.StatusNotFound, errors.New("no preview available"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, resp.Snapshot.Preview)
	log.Debug("http preview ok", "bytes", len(resp.Snapshot.Preview))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := schema.SessionID(r.PathValue("id"))
	log := logx.WithSession(r.Context(), sessionID)
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	stateResp, err := s.service.State(r.Context(), schema.StateRequest{SessionID: sessionID})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	snapshot := stateResp.Snapshot
	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})
	flusher.Flush()

	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(sessionID, lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
		flusher.Flush()
	}

	ch, unsubscribe, _, _ := s.hub.Subscribe(sessionID)
	defer unsubscribe()

	notify := r.Context().Done()
	log.Info("http events opened", "last_id", lastID, "replay", replayCount)
	for {
		select {
		case <-notify:
			log.Info("http events closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, schema.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrTurnActive):
		return http.StatusConflict
	case errors.Is(err, schema.ErrEmptyPrompt), errors.Is(err, schema.ErrSessionClosed):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrGeneratorUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
