package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/core"
	"github.com/appforge-dev/appforge/httpapi"
	"github.com/appforge-dev/appforge/internal/backend"
	"github.com/appforge-dev/appforge/internal/sse"
	"github.com/appforge-dev/appforge/schema"
)

func requireLong(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

func testLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		VerboseFields: true,
	})
}

func containsAll(value string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(value, term) {
			return false
		}
	}
	return true
}

// scriptedBackend serves the generation endpoint, answering every prompt with
// a fixed frame script.
func scriptedBackend(t *testing.T, script func(prompt string) []schema.Frame) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, frame := range script(req.Prompt) {
			if err := sse.Encode(w, frame); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type stack struct {
	api    *httptest.Server
	client *http.Client
}

// newStack wires the full service behind a real HTTP listener: backend client
// pointed at the scripted backend, session service, event hub, and API server.
func newStack(t *testing.T, script func(prompt string) []schema.Frame) *stack {
	t.Helper()
	logger := testLogger()
	backendSrv := scriptedBackend(t, script)

	generator := backend.New(backend.Config{BaseURL: backendSrv.URL}, logger)
	hub := httpapi.NewHub(100)
	service := core.New(core.ServiceDeps{
		Generator:   generator,
		Synthesizer: core.NewSynthesizer(core.PreviewConfig{}),
		EventSink:   hub,
		Logger:      logger,
	}, schema.ServiceConfig{
		DefaultModel:   "mvp-builder",
		HistoryLimit:   schema.DefaultHistoryLimit,
		CreditsPerTurn: schema.DefaultCreditsPerTurn,
	})
	server := httpapi.NewServer(httpapi.Config{}, service, hub)

	api := httptest.NewServer(server.Handler())
	t.Cleanup(api.Close)
	return &stack{api: api, client: api.Client()}
}

func (s *stack) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	resp, err := s.client.Post(s.api.URL+path, "application/json", reader)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (s *stack) getJSON(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := s.client.Get(s.api.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func (s *stack) createSession(t *testing.T) string {
	t.Helper()
	resp := s.post(t, "/api/session", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create session status %d", resp.StatusCode)
	}
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.SessionID == "" {
		t.Fatalf("empty session id")
	}
	return created.SessionID
}

func (s *stack) prompt(t *testing.T, sessionID, prompt string) {
	t.Helper()
	resp := s.post(t, "/api/session/"+sessionID+"/prompt", map[string]string{"prompt": prompt})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("prompt status %d: %s", resp.StatusCode, raw)
	}
}

func (s *stack) waitIdle(t *testing.T, sessionID string) schema.SessionSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var snap schema.SessionSnapshot
		status := s.getJSON(t, "/api/session/"+sessionID+"/state", &snap)
		if status != http.StatusOK {
			t.Fatalf("state status %d", status)
		}
		if !snap.IsGenerating {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session %s never went idle", sessionID)
	return schema.SessionSnapshot{}
}

func completedFile(path, content, language string) schema.Frame {
	return schema.Frame{
		Type:        schema.FrameFileOperation,
		Operation:   schema.OperationCreate,
		Path:        path,
		Status:      schema.StatusCompleted,
		FileContent: content,
		Language:    language,
	}
}

func reactScript(appSource string) func(prompt string) []schema.Frame {
	return func(prompt string) []schema.Frame {
		return []schema.Frame{
			{Type: schema.FrameContent, Content: fmt.Sprintf("Building %q.\n", prompt)},
			completedFile("src/App.tsx", appSource, "typescript"),
			{Type: schema.FrameComplete, Message: "Code generation completed"},
		}
	}
}
