package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/httpapi"
	"github.com/appforge-dev/appforge/internal/sse"
	"github.com/appforge-dev/appforge/schema"
)

func newBackendMockCmd() *cobra.Command {
	var addr string
	var delayMS int
	var scenario string
	cmd := &cobra.Command{
		Use:           "backend-mock",
		Short:         "Mock generation backend emitting scripted frame streams",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			handler := &mockBackend{
				delay:    time.Duration(delayMS) * time.Millisecond,
				scenario: scenario,
			}
			mux := http.NewServeMux()
			mux.Handle("POST /api/generate", handler)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger.Info("mock backend listening", "addr", addr, "scenario", scenarioLabel(scenario))
			return httpapi.ListenAndServe(ctx, addr, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().IntVar(&delayMS, "delay-ms", 30, "delay between frames")
	cmd.Flags().StringVar(&scenario, "scenario", "", "force a scenario (react, landing, edit, failure)")
	return cmd
}

func scenarioLabel(scenario string) string {
	if scenario == "" {
		return "auto"
	}
	return scenario
}

type mockBackend struct {
	delay    time.Duration
	scenario string
}

type mockRequest struct {
	Prompt              string `json:"prompt"`
	Model               string `json:"model"`
	ConversationHistory []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"conversationHistory"`
}

func (m *mockBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req mockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprintf(w, `{"detail":"invalid request: %s"}`, err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"prompt is required"}`))
		return
	}

	frames := m.script(req)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)
	for _, frame := range frames {
		select {
		case <-r.Context().Done():
			return
		default:
		}
		if err := sse.Encode(w, frame); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		if m.delay > 0 {
			time.Sleep(m.delay)
		}
	}
}

// pickScenario chooses a frame script for the request. The choice is
// deterministic in the prompt so repeated runs replay identically.
func (m *mockBackend) pickScenario(req mockRequest) string {
	if m.scenario != "" {
		return m.scenario
	}
	lower := strings.ToLower(req.Prompt)
	switch {
	case strings.Contains(lower, "fail"):
		return "failure"
	case len(req.ConversationHistory) > 0:
		return "edit"
	case strings.Contains(lower, "landing") || strings.Contains(lower, "page"):
		return "landing"
	}
	names := []string{"react", "landing"}
	return names[mockSeed(req)%uint64(len(names))]
}

func (m *mockBackend) script(req mockRequest) []schema.Frame {
	switch m.pickScenario(req) {
	case "landing":
		return scenarioLanding(req)
	case "edit":
		return scenarioEdit(req)
	case "failure":
		return scenarioFailure(req)
	default:
		return scenarioReact(req)
	}
}

func mockSeed(req mockRequest) uint64 {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(req.Prompt))
	_, _ = hasher.Write([]byte(req.Model))
	return hasher.Sum64()
}

// mockTitle derives a short app title from the prompt.
func mockTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 3 {
		words = words[:3]
	}
	for i, word := range words {
		word = strings.ToLower(strings.Trim(word, ".,!?"))
		if word != "" {
			word = strings.ToUpper(word[:1]) + word[1:]
		}
		words[i] = word
	}
	title := strings.Join(words, " ")
	if title == "" {
		title = "My App"
	}
	return title
}

func fileFrame(op schema.OperationKind, path string, status schema.FileStatus, content, language string) schema.Frame {
	return schema.Frame{
		Type:        schema.FrameFileOperation,
		Operation:   op,
		Path:        path,
		Status:      status,
		FileContent: content,
		Language:    language,
	}
}

func scenarioReact(req mockRequest) []schema.Frame {
	title := mockTitle(req.Prompt)
	appSource := fmt.Sprintf(`import React, { useState } from 'react';
import './index.css';

export default function App() {
  const [count, setCount] = useState(0);
  return (
    <div className="app">
      <h1>%s</h1>
      <p>Generated from your prompt.</p>
      <button onClick={() => setCount(count + 1)}>Clicked {count} times</button>
    </div>
  );
}
`, title)
	css := `.app { font-family: sans-serif; text-align: center; padding: 4rem; }
.app button { padding: 0.5rem 1.5rem; cursor: pointer; }
`
	return []schema.Frame{
		{Type: schema.FrameContent, Content: "Setting up your app structure.\n"},
		fileFrame(schema.OperationCreate, "src/index.css", schema.StatusPending, "", "css"),
		fileFrame(schema.OperationCreate, "src/index.css", schema.StatusCompleted, css, "css"),
		{Type: schema.FrameStatus, Message: "Writing components.\n"},
		fileFrame(schema.OperationCreate, "src/App.tsx", schema.StatusProcessing, "", "typescript"),
		fileFrame(schema.OperationCreate, "src/App.tsx", schema.StatusCompleted, appSource, "typescript"),
		{Type: schema.FrameSandboxURL, URL: "https://mock-sandbox.invalid/" + fmt.Sprintf("%x", mockSeed(req)), IsMock: true},
		{Type: schema.FrameComplete, Message: "Code generation completed"},
	}
}

func scenarioLanding(req mockRequest) []schema.Frame {
	title := mockTitle(req.Prompt)
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
  <main>
    <h1>%s</h1>
    <p>Your generated landing page.</p>
  </main>
</body>
</html>
`, title, title)
	return []schema.Frame{
		{Type: schema.FrameContent, Content: "Building a landing page.\n"},
		fileFrame(schema.OperationCreate, "index.html", schema.StatusProcessing, "", "html"),
		fileFrame(schema.OperationCreate, "index.html", schema.StatusCompleted, page, "html"),
		{Type: schema.FrameComplete, Message: "Code generation completed"},
	}
}

func scenarioEdit(req mockRequest) []schema.Frame {
	title := mockTitle(req.Prompt)
	appSource := fmt.Sprintf(`import React from 'react';

export default function App() {
  return (
    <div className="app">
      <h1>%s</h1>
      <p>Updated per your request.</p>
    </div>
  );
}
`, title)
	return []schema.Frame{
		{Type: schema.FrameContent, Content: "Applying your changes.\n"},
		fileFrame(schema.OperationUpdate, "src/App.tsx", schema.StatusProcessing, "", "typescript"),
		fileFrame(schema.OperationUpdate, "src/App.tsx", schema.StatusCompleted, appSource, "typescript"),
		{Type: schema.FrameComplete, Message: "Code generation completed"},
	}
}

func scenarioFailure(req mockRequest) []schema.Frame {
	return []schema.Frame{
		{Type: schema.FrameContent, Content: "Starting generation.\n"},
		{Type: schema.FrameError, Message: "model overloaded, please retry"},
	}
}
