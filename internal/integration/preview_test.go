package integration_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/appforge-dev/appforge/schema"
)

// servePreview runs the full stack for one turn and serves the synthesized
// document on its own listener so a browser can load it.
func servePreview(t *testing.T, script func(prompt string) []schema.Frame, prompt string) *httptest.Server {
	t.Helper()
	s := newStack(t, script)
	sessionID := s.createSession(t)
	s.prompt(t, sessionID, prompt)
	snap := s.waitIdle(t, sessionID)
	if !snap.HasPreview {
		t.Fatalf("expected preview after turn")
	}

	doc := snap.Preview
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(doc))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newBrowser(t *testing.T) context.Context {
	t.Helper()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	t.Cleanup(cancelAlloc)

	ctx, cancelCtx := chromedp.NewContext(allocCtx)
	t.Cleanup(cancelCtx)

	ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
	t.Cleanup(cancelTimeout)

	if err := chromedp.Run(ctx); err != nil {
		t.Skipf("chromedp failed to start: %v", err)
	}
	return ctx
}

func TestPreviewRendersReactComponent(t *testing.T) {
	requireLong(t)
	srv := servePreview(t, reactScript(counterApp), "build a counter app")
	ctx := newBrowser(t)

	var heading, buttonText string
	err := chromedp.Run(ctx,
		chromedp.Navigate(srv.URL),
		chromedp.WaitVisible(`#root h1`, chromedp.ByQuery),
		chromedp.Text(`#root h1`, &heading, chromedp.ByQuery),
		chromedp.Click(`#root button`, chromedp.ByQuery),
		chromedp.Click(`#root button`, chromedp.ByQuery),
		chromedp.Text(`#root button`, &buttonText, chromedp.ByQuery),
	)
	if err != nil {
		t.Fatalf("chromedp failed: %v", err)
	}
	if heading != "Counter Demo" {
		t.Fatalf("unexpected heading %q", heading)
	}
	if !strings.Contains(buttonText, "count is 2") {
		t.Fatalf("unexpected button text %q", buttonText)
	}
}

func TestPreviewShowsDiagnosticForBrokenComponent(t *testing.T) {
	requireLong(t)
	broken := `import React from 'react';

export default function App() {
  return <div><h1>{missingData.title}</h1></div>;
}
`
	srv := servePreview(t, reactScript(broken), "build something broken")
	ctx := newBrowser(t)

	var panelText string
	err := chromedp.Run(ctx,
		chromedp.Navigate(srv.URL),
		chromedp.WaitVisible(`#root div`, chromedp.ByQuery),
		chromedp.Text(`#root`, &panelText, chromedp.ByQuery),
	)
	if err != nil {
		t.Fatalf("chromedp failed: %v", err)
	}
	if !strings.Contains(panelText, "Preview error") {
		t.Fatalf("expected diagnostic panel, got %q", panelText)
	}
}
