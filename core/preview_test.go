package core

import (
	"strings"
	"testing"

	"github.com/appforge-dev/appforge/schema"
)

func record(path, content string) schema.FileRecord {
	return schema.FileRecord{
		Path:    path,
		Kind:    schema.OperationCreate,
		Status:  schema.StatusCompleted,
		Content: content,
	}
}

func TestSynthesizeVerbatimHTMLPassthrough(t *testing.T) {
	synth := NewSynthesizer(PreviewConfig{})
	doc, ok := synth.Synthesize([]schema.FileRecord{record("index.html", "<h1>Hi</h1>")})
	if !ok {
		t.Fatalf("expected a preview")
	}
	if doc != "<h1>Hi</h1>" {
		t.Fatalf("HTML entry must pass through verbatim, got %q", doc)
	}
}

func TestSynthesizePrefersIndexHTMLOverOtherHTML(t *testing.T) {
	synth := NewSynthesizer(PreviewConfig{})
	doc, ok := synth.Synthesize([]schema.FileRecord{
		record("about.html", "<p>about</p>"),
		record("public/index.html", "<p>home</p>"),
	})
	if !ok || doc != "<p>home</p>" {
		t.Fatalf("index.html must win, got %q", doc)
	}
}

func TestSynthesizeBuildsShellFromAppComponent(t *testing.T) {
	synth := NewSynthesizer(PreviewConfig{})
	records := []schema.FileRecord{
		record("src/App.tsx", "import React from \"react\";\nexport default function App() { return <h1>Hello</h1>; }"),
		record("src/index.css", "body { margin: 0; }"),
		record("src/components/Button.tsx", "export function Button() { return <button>Go</button>; }"),
		record("src/main.tsx", "import App from \"./App\";\nReactDOM.createRoot(document.getElementById(\"root\")).render(<App />);"),
	}
	doc, ok := synth.Synthesize(records)
	if !ok {
		t.Fatalf("expected a preview")
	}
	for _, fragment := range []string{
		DefaultReactURL,
		DefaultBabelURL,
		"body { margin: 0; }",
		"function Button()",
		"function App()",
		"React.createElement(App)",
		"__showDiagnostic",
	} {
		if !strings.Contains(doc, fragment) {
			t.Fatalf("shell missing %q:\n%s", fragment, doc)
		}
	}
	if strings.Contains(doc, "import ") {
		t.Fatalf("imports must not reach the shell:\n%s", doc)
	}
	// The bootstrap file issues its own mount; the shell replaces it.
	if strings.Contains(doc, "src/main") || strings.Count(doc, "createRoot") != 1 {
		t.Fatalf("bootstrap file must be dropped:\n%s", doc)
	}
}

func TestSynthesizeGracefulDegradationOnBrokenSource(t *testing.T) {
	synth := NewSynthesizer(PreviewConfig{})
	doc, ok := synth.Synthesize([]schema.FileRecord{
		record("App.tsx", "export default function App( { return <<<broken"),
	})
	if !ok {
		t.Fatalf("broken source must still yield a document")
	}
	if doc == "" || !strings.Contains(doc, "text/babel") {
		t.Fatalf("expected a non-empty document with a mount script, got %q", doc)
	}
}

func TestSynthesizeNoEntrySentinel(t *testing.T) {
	synth := NewSynthesizer(PreviewConfig{})
	doc, ok := synth.Synthesize([]schema.FileRecord{
		record("README.md", "# notes"),
		record("src/util.ts", "export const x = 1;"),
	})
	if ok || doc != "" {
		t.Fatalf("expected the no-preview sentinel, got ok=%v doc=%q", ok, doc)
	}
}

func TestSynthesizeCustomRuntimeURLs(t *testing.T) {
	synth := NewSynthesizer(PreviewConfig{
		ReactURL:    "https://cdn.example/react.js",
		ReactDOMURL: "https://cdn.example/react-dom.js",
		BabelURL:    "https://cdn.example/babel.js",
	})
	doc, ok := synth.Synthesize([]schema.FileRecord{
		record("App.jsx", "export default function App() { return null; }"),
	})
	if !ok {
		t.Fatalf("expected a preview")
	}
	for _, url := range []string{"https://cdn.example/react.js", "https://cdn.example/react-dom.js", "https://cdn.example/babel.js"} {
		if !strings.Contains(doc, url) {
			t.Fatalf("shell missing runtime url %q", url)
		}
	}
}
