package core

import (
	"fmt"
	"path"
	"strings"

	"github.com/appforge-dev/appforge/schema"
)

// Synthesizer turns completed file records into a single renderable HTML
// document. It is a narrow seam on purpose: the current implementation is a
// regex down-leveler, and a future bundler can replace it without touching
// the ledger or the session controller.
type Synthesizer interface {
	// Synthesize returns the document and true, or ("", false) when no usable
	// entry point exists. It never fails: broken source surfaces at render
	// time inside the sandboxed frame, not here.
	Synthesize(records []schema.FileRecord) (string, bool)
}

// PreviewConfig points the synthesized shell at its runtime scripts.
type PreviewConfig struct {
	ReactURL    string
	ReactDOMURL string
	BabelURL    string
}

// Default CDN locations for the component runtime loaded by the shell.
const (
	DefaultReactURL    = "https://unpkg.com/react@18/umd/react.production.min.js"
	DefaultReactDOMURL = "https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"
	DefaultBabelURL    = "https://unpkg.com/@babel/standalone/babel.min.js"
)

type previewSynthesizer struct {
	cfg PreviewConfig
}

// NewSynthesizer builds the default heuristic synthesizer.
func NewSynthesizer(cfg PreviewConfig) Synthesizer {
	if cfg.ReactURL == "" {
		cfg.ReactURL = DefaultReactURL
	}
	if cfg.ReactDOMURL == "" {
		cfg.ReactDOMURL = DefaultReactDOMURL
	}
	if cfg.BabelURL == "" {
		cfg.BabelURL = DefaultBabelURL
	}
	return &previewSynthesizer{cfg: cfg}
}

// entryPredicate matches a record that can serve as the preview entry point.
// Predicates are evaluated in priority order; the first hit wins.
type entryPredicate struct {
	name  string
	match func(schema.FileRecord) bool
}

var entryPredicates = []entryPredicate{
	{"index html", func(r schema.FileRecord) bool {
		return strings.Contains(path.Base(r.Path), "index.html")
	}},
	{"any html", func(r schema.FileRecord) bool {
		ext := strings.ToLower(path.Ext(r.Path))
		return ext == ".html" || ext == ".htm"
	}},
}

func (s *previewSynthesizer) Synthesize(records []schema.FileRecord) (string, bool) {
	// Explicit HTML entry points pass through verbatim.
	for _, predicate := range entryPredicates {
		for _, record := range records {
			if predicate.match(record) {
				return record.Content, true
			}
		}
	}

	root, styles, aux := classify(records)
	if root == nil {
		return "", false
	}

	var defs strings.Builder
	for _, record := range aux {
		defs.WriteString(reduceSource(record.Content))
		defs.WriteString("\n\n")
	}
	reduced := reduceSource(root.Content)
	defs.WriteString(reduced)

	return buildShell(s.cfg, defs.String(), styles, componentName(reduced)), true
}

// classify splits records into the root component, stylesheet content, and
// auxiliary component definitions. Bootstrap files (main.*, index.*) are
// dropped because the shell issues its own mount call.
func classify(records []schema.FileRecord) (root *schema.FileRecord, styles string, aux []schema.FileRecord) {
	var css strings.Builder
	for i := range records {
		record := records[i]
		base := path.Base(record.Path)
		stem := strings.TrimSuffix(base, path.Ext(base))
		switch strings.ToLower(path.Ext(base)) {
		case ".css":
			css.WriteString(record.Content)
			css.WriteString("\n")
		case ".js", ".jsx", ".ts", ".tsx":
			switch {
			case stem == "App":
				if root == nil {
					root = &records[i]
				}
			case stem == "main" || stem == "index":
				// Mount bootstrap; superseded by the shell.
			default:
				aux = append(aux, record)
			}
		}
	}
	return root, css.String(), aux
}

const shellTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>Preview</title>
<script crossorigin src="%s"></script>
<script crossorigin src="%s"></script>
<script src="%s"></script>
<style>
%s
</style>
</head>
<body>
<div id="root"></div>
<script>
function __showDiagnostic(message, stack) {
  var mount = document.getElementById('root');
  mount.innerHTML = '';
  var panel = document.createElement('div');
  panel.style.cssText = 'font-family:monospace;padding:16px;background:#fff5f5;color:#7f1d1d;border:1px solid #fca5a5;border-radius:8px;margin:16px;white-space:pre-wrap;';
  var title = document.createElement('strong');
  title.textContent = 'Preview error: ' + message;
  panel.appendChild(title);
  if (stack) {
    var trace = document.createElement('pre');
    trace.style.cssText = 'margin-top:8px;overflow:auto;font-size:12px;';
    trace.textContent = stack;
    panel.appendChild(trace);
  }
  mount.appendChild(panel);
}
window.addEventListener('error', function (event) {
  __showDiagnostic(event.message, event.error && event.error.stack);
});
</script>
<script type="text/babel" data-presets="react">
%s

try {
  var __mount = ReactDOM.createRoot(document.getElementById('root'));
  __mount.render(React.createElement(%s));
} catch (err) {
  __showDiagnostic(err.message, err.stack);
}
</script>
</body>
</html>
`

func buildShell(cfg PreviewConfig, defs, styles, rootName string) string {
	return fmt.Sprintf(shellTemplate, cfg.ReactURL, cfg.ReactDOMURL, cfg.BabelURL, styles, defs, rootName)
}
