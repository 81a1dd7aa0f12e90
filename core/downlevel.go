package core

import (
	"regexp"
	"strings"
)

// The reducers below down-level template-shaped TypeScript/JSX into something
// a browser runtime can evaluate directly. This is a line-oriented heuristic,
// not a parser: it is correct only for the constrained output the generation
// backend is prompted to produce, and best-effort on anything else.

var (
	importFromRe     = regexp.MustCompile(`^\s*import\b`)
	exportDefaultRe  = regexp.MustCompile(`^(\s*)export\s+default\s+`)
	exportKeywordRe  = regexp.MustCompile(`^(\s*)export\s+`)
	typeAliasRe      = regexp.MustCompile(`^\s*(?:declare\s+)?type\s+[A-Za-z_$][\w$]*(?:<[^=]*>)?\s*=`)
	interfaceRe      = regexp.MustCompile(`^\s*(?:declare\s+)?interface\s+[A-Za-z_$][\w$]*`)
	// Annotation stripping only fires when the right-hand side looks like a
	// type (primitive keyword or capitalized identifier), so object literals
	// such as {count: 0} survive.
	paramAnnotationRe = regexp.MustCompile(`([(,]\s*[A-Za-z_$][\w$]*\??)\s*:\s*(?:string|number|boolean|any|void|[A-Z][\w$<>\[\].]*)(\[\])?`)
	varAnnotationRe   = regexp.MustCompile(`\b(const|let|var)\s+([A-Za-z_$][\w$]*)\s*:\s*(?:string|number|boolean|any|void|[A-Z][\w$<>\[\].,\s|&]*?)(\[\])?\s*=`)
	returnTypeRe      = regexp.MustCompile(`\)\s*:\s*[A-Za-z_$][\w$<>\[\].\s|&]*\s*(=>|\{)`)
	genericCallRe     = regexp.MustCompile(`\b(useState|useRef|useReducer|useMemo|useCallback|useContext)<[^>]*>\(`)
	asCastRe          = regexp.MustCompile(`\s+as\s+(?:const\b|string\b|number\b|boolean\b|any\b|unknown\b|[A-Z][\w$<>\[\].]*)`)
)

// reduceSource strips import statements, type-annotation syntax, interface
// and type alias declarations, and export keywords, then collapses blank-line
// runs.
func reduceSource(source string) string {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	skipUntilClose := 0
	skipImport := false
	for _, line := range lines {
		if skipUntilClose > 0 {
			skipUntilClose += strings.Count(line, "{") - strings.Count(line, "}")
			if skipUntilClose <= 0 {
				skipUntilClose = 0
			}
			continue
		}
		if skipImport {
			if importEnds(line) {
				skipImport = false
			}
			continue
		}
		if importFromRe.MatchString(line) {
			if !importEnds(line) {
				skipImport = true
			}
			continue
		}
		if interfaceRe.MatchString(line) || (typeAliasRe.MatchString(line) && strings.Contains(line, "{")) {
			depth := strings.Count(line, "{") - strings.Count(line, "}")
			if depth > 0 {
				skipUntilClose = depth
			}
			continue
		}
		if typeAliasRe.MatchString(line) {
			continue
		}
		out = append(out, reduceLine(line))
	}
	return collapseBlankRuns(out)
}

// importEnds reports whether an import statement finishes on this line. The
// backend emits either single-line imports or brace lists closed by a line
// containing the source module.
func importEnds(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.Contains(trimmed, " from ") {
		return true
	}
	return strings.HasSuffix(trimmed, `";`) || strings.HasSuffix(trimmed, `';`) ||
		strings.HasSuffix(trimmed, `"`) || strings.HasSuffix(trimmed, `'`)
}

func reduceLine(line string) string {
	if m := exportDefaultRe.FindStringSubmatch(line); m != nil {
		rest := line[len(m[0]):]
		trimmed := strings.TrimSpace(rest)
		// `export default App;` re-exports a name declared above; nothing to keep.
		if !strings.ContainsAny(trimmed, "({=") {
			return ""
		}
		line = m[1] + rest
	} else {
		line = exportKeywordRe.ReplaceAllString(line, "$1")
	}
	line = genericCallRe.ReplaceAllString(line, "$1(")
	line = varAnnotationRe.ReplaceAllString(line, "$1 $2 =")
	line = returnTypeRe.ReplaceAllString(line, ") $1")
	line = paramAnnotationRe.ReplaceAllString(line, "$1")
	line = asCastRe.ReplaceAllString(line, "")
	return line
}

func collapseBlankRuns(lines []string) string {
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

var componentNameRe = regexp.MustCompile(`function\s+([A-Z][\w$]*)\s*\(`)
var constComponentRe = regexp.MustCompile(`(?:const|let|var)\s+([A-Z][\w$]*)\s*=`)

// componentName guesses the root component's identifier from reduced source.
func componentName(reduced string) string {
	if m := componentNameRe.FindStringSubmatch(reduced); m != nil {
		return m[1]
	}
	if m := constComponentRe.FindStringSubmatch(reduced); m != nil {
		return m[1]
	}
	return "App"
}
