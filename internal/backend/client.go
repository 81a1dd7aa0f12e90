// Package backend is the HTTP client for the generation service. It submits
// prompts and exposes the streaming response as typed frames.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/core"
	"github.com/appforge-dev/appforge/internal/sse"
	"github.com/appforge-dev/appforge/schema"
)

const generatePath = "/api/generate"

// Config describes the backend endpoint.
type Config struct {
	// BaseURL is the backend root, e.g. http://localhost:8000.
	BaseURL string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
}

// Client implements core.Generator against the backend's streaming endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     pslog.Logger
}

// New constructs a backend client. The HTTP client carries no timeout since
// generation streams stay open for the duration of a turn; cancellation runs
// through the request context.
func New(cfg Config, log pslog.Logger) *Client {
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 0},
		log:     log,
	}
}

type generatePayload struct {
	Prompt              string              `json:"prompt"`
	Model               string              `json:"model,omitempty"`
	ConversationHistory []core.HistoryEntry `json:"conversationHistory"`
}

// Generate submits the prompt and returns the frame stream. The response body
// stays open until the stream is closed or the context is cancelled.
func (c *Client) Generate(ctx context.Context, req core.GenerateRequest) (core.FrameStream, error) {
	payload := generatePayload{
		Prompt:              req.Prompt,
		Model:               string(req.Model),
		ConversationHistory: req.History,
	}
	if payload.ConversationHistory == nil {
		payload.ConversationHistory = []core.HistoryEntry{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generate request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		detail := readErrorDetail(resp.Body)
		if detail != "" {
			return nil, fmt.Errorf("backend status %s: %s", resp.Status, detail)
		}
		return nil, fmt.Errorf("backend status %s", resp.Status)
	}

	c.log.Debug("generation stream open", "url", c.baseURL+generatePath)
	return &stream{
		body: resp.Body,
		dec:  sse.NewDecoder(resp.Body, c.log),
	}, nil
}

// readErrorDetail pulls a short error description from a non-200 response
// body, preferring the JSON "detail" field the backend uses.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

type stream struct {
	body io.ReadCloser
	dec  *sse.Decoder
}

func (s *stream) Next(ctx context.Context) (schema.Frame, error) {
	return s.dec.Next(ctx)
}

func (s *stream) Close() error {
	return s.body.Close()
}
