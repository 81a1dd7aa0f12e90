package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/appforge-dev/appforge/schema"
)

type fakeService struct {
	createResp schema.CreateSessionResponse
	submitErr  error
	stateResp  schema.StateResponse
	stateErr   error
	resetErr   error
	closeErr   error
	usageResp  schema.UsageResponse

	lastSubmit schema.SubmitRequest
}

func (f *fakeService) CreateSession(ctx context.Context, req schema.CreateSessionRequest) (schema.CreateSessionResponse, error) {
	return f.createResp, nil
}

func (f *fakeService) CloseSession(ctx context.Context, req schema.CloseSessionRequest) (schema.CloseSessionResponse, error) {
	return schema.CloseSessionResponse{}, f.closeErr
}

func (f *fakeService) Submit(ctx context.Context, req schema.SubmitRequest) (schema.SubmitResponse, error) {
	f.lastSubmit = req
	if f.submitErr != nil {
		return schema.SubmitResponse{}, f.submitErr
	}
	return schema.SubmitResponse{
		UserMessage:      schema.Message{ID: "m1", Role: schema.RoleUser, Content: req.Prompt},
		AssistantMessage: schema.Message{ID: "m2", Role: schema.RoleAssistant},
	}, nil
}

func (f *fakeService) Reset(ctx context.Context, req schema.ResetRequest) (schema.ResetResponse, error) {
	return schema.ResetResponse{}, f.resetErr
}

func (f *fakeService) State(ctx context.Context, req schema.StateRequest) (schema.StateResponse, error) {
	if f.stateErr != nil {
		return schema.StateResponse{}, f.stateErr
	}
	return f.stateResp, nil
}

func (f *fakeService) Usage(ctx context.Context, req schema.UsageRequest) (schema.UsageResponse, error) {
	return f.usageResp, nil
}

func newTestServer(svc *fakeService) *httptest.Server {
	server := NewServer(Config{}, svc, NewHub(16))
	return httptest.NewServer(server.Handler())
}

func TestCreateSessionEndpoint(t *testing.T) {
	svc := &fakeService{createResp: schema.CreateSessionResponse{SessionID: "s1"}}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/session", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["session_id"] != "s1" {
		t.Fatalf("session_id = %q", body["session_id"])
	}
}

func TestPromptEndpoint(t *testing.T) {
	svc := &fakeService{}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/session/s1/prompt", "application/json", strings.NewReader(`{"prompt":"build it"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if svc.lastSubmit.SessionID != "s1" || svc.lastSubmit.Prompt != "build it" {
		t.Fatalf("submit request = %+v", svc.lastSubmit)
	}
}

func TestPromptEndpointStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{schema.ErrSessionNotFound, http.StatusNotFound},
		{schema.ErrTurnActive, http.StatusConflict},
		{schema.ErrEmptyPrompt, http.StatusBadRequest},
		{schema.ErrGeneratorUnavailable, http.StatusBadGateway},
	}
	for _, tc := range cases {
		svc := &fakeService{submitErr: tc.err}
		ts := newTestServer(svc)
		resp, err := http.Post(ts.URL+"/api/session/s1/prompt", "application/json", strings.NewReader(`{"prompt":"x"}`))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		ts.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, resp.StatusCode, tc.status)
		}
	}
}

func TestStateEndpoint(t *testing.T) {
	svc := &fakeService{stateResp: schema.StateResponse{Snapshot: schema.SessionSnapshot{
		ID:         "s1",
		HasPreview: true,
		Preview:    "<html><body>app</body></html>",
		Progress:   100,
	}}}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/session/s1/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var snap schema.SessionSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.ID != "s1" || !snap.HasPreview || snap.Progress != 100 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	svc := &fakeService{stateResp: schema.StateResponse{Snapshot: schema.SessionSnapshot{
		HasPreview: true,
		Preview:    "<html><body>app</body></html>",
	}}}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/session/s1/preview")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestPreviewEndpointNoPreview(t *testing.T) {
	svc := &fakeService{stateResp: schema.StateResponse{}}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/session/s1/preview")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestBasePathMounting(t *testing.T) {
	svc := &fakeService{createResp: schema.CreateSessionResponse{SessionID: "s1"}}
	server := NewServer(Config{BasePath: "/forge"}, svc, NewHub(16))
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/forge/api/session", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
