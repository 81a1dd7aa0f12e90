package core

import (
	"strings"
	"testing"
)

func TestReduceSourceStripsImports(t *testing.T) {
	source := strings.Join([]string{
		`import React from "react";`,
		`import { useState, useEffect } from "react";`,
		`import {`,
		`  Button,`,
		`  Card,`,
		`} from "./components";`,
		``,
		`function App() { return null; }`,
	}, "\n")
	reduced := reduceSource(source)
	if strings.Contains(reduced, "import") {
		t.Fatalf("imports must be stripped, got:\n%s", reduced)
	}
	if !strings.Contains(reduced, "function App()") {
		t.Fatalf("declaration must survive, got:\n%s", reduced)
	}
}

func TestReduceSourceStripsTypeDeclarations(t *testing.T) {
	source := strings.Join([]string{
		`interface Props {`,
		`  title: string;`,
		`  onClick: () => void;`,
		`}`,
		`type Mode = "light" | "dark";`,
		`type Item = {`,
		`  id: number;`,
		`};`,
		`function App() { return null; }`,
	}, "\n")
	reduced := reduceSource(source)
	if strings.Contains(reduced, "interface") || strings.Contains(reduced, "Mode") || strings.Contains(reduced, "Item") {
		t.Fatalf("type declarations must be stripped, got:\n%s", reduced)
	}
	if !strings.Contains(reduced, "function App()") {
		t.Fatalf("function must survive, got:\n%s", reduced)
	}
}

func TestReduceSourceStripsExportKeyword(t *testing.T) {
	reduced := reduceSource("export default function App() { return null; }\nexport const helper = 1;")
	if strings.Contains(reduced, "export") {
		t.Fatalf("export keywords must be stripped, got:\n%s", reduced)
	}
	if !strings.Contains(reduced, "function App()") || !strings.Contains(reduced, "const helper = 1;") {
		t.Fatalf("declarations must survive, got:\n%s", reduced)
	}
}

func TestReduceSourceDropsTrailingDefaultReexport(t *testing.T) {
	reduced := reduceSource("function App() { return null; }\nexport default App;")
	if strings.Contains(reduced, "default") {
		t.Fatalf("default re-export must vanish, got:\n%s", reduced)
	}
}

func TestReduceSourceStripsAnnotations(t *testing.T) {
	source := strings.Join([]string{
		`function Greeting(name: string, count: number): string {`,
		`  const label: string = name;`,
		`  const [items, setItems] = useState<Item[]>([]);`,
		`  return label as string;`,
		`}`,
	}, "\n")
	reduced := reduceSource(source)
	if strings.Contains(reduced, ": string") || strings.Contains(reduced, ": number") {
		t.Fatalf("annotations must be stripped, got:\n%s", reduced)
	}
	if strings.Contains(reduced, "<Item[]>") {
		t.Fatalf("generic call args must be stripped, got:\n%s", reduced)
	}
	if !strings.Contains(reduced, "function Greeting(name, count)") {
		t.Fatalf("params must survive annotation stripping, got:\n%s", reduced)
	}
}

func TestReduceSourceKeepsObjectLiterals(t *testing.T) {
	source := `const state = useState({ count: 0, label: "hi" });`
	reduced := reduceSource(source)
	if !strings.Contains(reduced, `{ count: 0, label: "hi" }`) {
		t.Fatalf("object literals must survive, got:\n%s", reduced)
	}
}

func TestReduceSourceCollapsesBlankRuns(t *testing.T) {
	source := "const a = 1;\n\n\n\nconst b = 2;\n\n\n"
	reduced := reduceSource(source)
	if strings.Contains(reduced, "\n\n\n") {
		t.Fatalf("blank runs must collapse, got %q", reduced)
	}
	if !strings.HasSuffix(reduced, "const b = 2;") {
		t.Fatalf("trailing blanks must be trimmed, got %q", reduced)
	}
}

func TestComponentName(t *testing.T) {
	if got := componentName("function TodoApp() {}"); got != "TodoApp" {
		t.Fatalf("expected TodoApp, got %q", got)
	}
	if got := componentName("const Dashboard = () => null;"); got != "Dashboard" {
		t.Fatalf("expected Dashboard, got %q", got)
	}
	if got := componentName("nothing here"); got != "App" {
		t.Fatalf("expected App fallback, got %q", got)
	}
}
