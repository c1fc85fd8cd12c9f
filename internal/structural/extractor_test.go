package structural

import (
	"reflect"
	"regexp"
	"testing"

	"archlens/internal/analysis"
	"archlens/internal/slogutil"
)

func newTestExtractor() *Extractor {
	return NewExtractor(slogutil.NewDiscardLogger())
}

func extract(t *testing.T, files ...FileContent) *analysis.StructuralReport {
	t.Helper()
	report, err := newTestExtractor().Extract(analysis.ModuleInfo{Path: "mod"}, files)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if report == nil {
		t.Fatal("Extract returned nil report")
	}
	return report
}

type symKey struct {
	Name     string
	Kind     analysis.SymbolKind
	Exported bool
}

func symbolSet(report *analysis.StructuralReport) map[symKey]bool {
	set := make(map[symKey]bool)
	for _, s := range report.Symbols {
		set[symKey{s.Name, s.Kind, s.Exported}] = true
	}
	return set
}

func expectSymbols(t *testing.T, report *analysis.StructuralReport, want ...symKey) {
	t.Helper()
	set := symbolSet(report)
	for _, w := range want {
		if !set[w] {
			t.Errorf("missing symbol %+v in %+v", w, report.Symbols)
		}
	}
}

func TestExtract_GoMainNotExported(t *testing.T) {
	report := extract(t, FileContent{Path: "main.go", Content: "package main\n\nfunc main() {}\n"})

	if len(report.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %+v", report.Symbols)
	}
	s := report.Symbols[0]
	if s.Name != "main" || s.Kind != analysis.SymbolFunction || s.Exported || s.Line != 3 || s.File != "main.go" {
		t.Errorf("symbol = %+v", s)
	}
	if report.Exports == nil || len(report.Exports) != 0 {
		t.Errorf("Exports = %#v, want empty non-nil", report.Exports)
	}
}

func TestExtract_Go(t *testing.T) {
	src := `package store

import (
	"context"
	db "database/sql"
	_ "embed"
)

import "fmt"

const MaxRows = 10
const defaultName = "x"
var ErrMissing = fmt.Errorf("missing")

type Store struct {
	conn *db.DB
}

type Reader interface {
	Read(ctx context.Context) error
}

type ID string

func New() *Store { return &Store{} }

func (s *Store) Read(ctx context.Context) error {
	if s.conn == nil && ctx != nil {
		return nil
	}
	return nil
}

// func commented() {}
`
	report := extract(t, FileContent{Path: "store/store.go", Content: src})

	expectSymbols(t, report,
		symKey{"MaxRows", analysis.SymbolConstant, true},
		symKey{"defaultName", analysis.SymbolConstant, false},
		symKey{"ErrMissing", analysis.SymbolVariable, true},
		symKey{"Store", analysis.SymbolClass, true},
		symKey{"Reader", analysis.SymbolInterface, true},
		symKey{"ID", analysis.SymbolType, true},
		symKey{"New", analysis.SymbolFunction, true},
		symKey{"Read", analysis.SymbolMethod, true},
	)
	for _, s := range report.Symbols {
		if s.Name == "commented" {
			t.Error("commented-out declaration should be skipped")
		}
	}

	var targets []string
	for _, imp := range report.Imports {
		targets = append(targets, imp.To)
	}
	if want := []string{"context", "database/sql", "embed", "fmt"}; !reflect.DeepEqual(targets, want) {
		t.Errorf("imports = %v, want %v", targets, want)
	}
	if !reflect.DeepEqual(report.Imports[1].ImportedNames, []string{"db"}) {
		t.Errorf("aliased import names = %v", report.Imports[1].ImportedNames)
	}

	if report.Complexity.FunctionCount != 2 || report.Complexity.ClassCount != 1 {
		t.Errorf("complexity counts = %+v", report.Complexity)
	}
	// 1 + if + &&
	if report.Complexity.CyclomaticEstimate != 3 {
		t.Errorf("cyclomatic = %d, want 3", report.Complexity.CyclomaticEstimate)
	}
}

func TestExtract_TypeScript(t *testing.T) {
	src := `import React, { useState, type FC as Comp } from 'react';
import type { Props } from './types';
import * as path from "node:path";
import './styles.css';
export { helper as publicHelper } from './helpers';
const fs = require('fs');

export interface Config { debug: boolean }
export type Handler = (req: Request) => Response;
export enum Mode { A, B }
export default class App {
  render(): string {
    return this.ready ? "ok" : "no";
  }
}
export async function start() {}
function internal() {}
export const handler = async (req) => { return req?.body ?? null; };
const API_URL = "https://example.com";
let counter = 0;
export { internal };
`
	report := extract(t, FileContent{Path: "src/app.ts", Content: src})

	expectSymbols(t, report,
		symKey{"Config", analysis.SymbolInterface, true},
		symKey{"Handler", analysis.SymbolType, true},
		symKey{"Mode", analysis.SymbolType, true},
		symKey{"App", analysis.SymbolClass, true},
		symKey{"render", analysis.SymbolMethod, false},
		symKey{"start", analysis.SymbolFunction, true},
		symKey{"internal", analysis.SymbolFunction, false},
		symKey{"handler", analysis.SymbolFunction, true},
		symKey{"API_URL", analysis.SymbolConstant, true},
		symKey{"counter", analysis.SymbolVariable, false},
	)

	byTarget := make(map[string]analysis.ImportEdge)
	for _, imp := range report.Imports {
		byTarget[imp.To] = imp
	}
	react := byTarget["react"]
	if !react.IsDefault || !reflect.DeepEqual(react.ImportedNames, []string{"useState", "Comp", "React"}) {
		t.Errorf("react import = %+v", react)
	}
	if !byTarget["./types"].IsType {
		t.Error("type-only import should set IsType")
	}
	if !reflect.DeepEqual(byTarget["node:path"].ImportedNames, []string{"path"}) {
		t.Errorf("namespace import = %+v", byTarget["node:path"])
	}
	if _, ok := byTarget["./styles.css"]; !ok {
		t.Error("side-effect import missing")
	}
	if _, ok := byTarget["./helpers"]; !ok {
		t.Error("re-export missing")
	}
	if fs := byTarget["fs"]; !fs.IsDefault || !reflect.DeepEqual(fs.ImportedNames, []string{"fs"}) {
		t.Errorf("require import = %+v", fs)
	}

	exports := make(map[string]bool)
	for _, e := range report.Exports {
		exports[e] = true
	}
	for _, want := range []string{"Config", "App", "start", "handler", "API_URL", "internal"} {
		if !exports[want] {
			t.Errorf("expected %s in exports %v", want, report.Exports)
		}
	}
	if exports["counter"] {
		t.Error("counter should not be exported")
	}

	// 1 + ternary; optional chaining and nullish coalescing are not branches
	if report.Complexity.CyclomaticEstimate != 2 {
		t.Errorf("cyclomatic = %d, want 2", report.Complexity.CyclomaticEstimate)
	}
}

func TestExtract_Python(t *testing.T) {
	src := `from typing import List, Optional as Opt
import os, sys as system

MAX_SIZE = 100
_cache = {}

class Service:
    def run(self):
        pass

    def _helper(self):
        pass

def main():
    pass

async def _private():
    pass
`
	report := extract(t, FileContent{Path: "svc/service.py", Content: src})

	expectSymbols(t, report,
		symKey{"MAX_SIZE", analysis.SymbolConstant, true},
		symKey{"_cache", analysis.SymbolVariable, false},
		symKey{"Service", analysis.SymbolClass, true},
		symKey{"run", analysis.SymbolMethod, true},
		symKey{"_helper", analysis.SymbolMethod, false},
		symKey{"main", analysis.SymbolFunction, true},
		symKey{"_private", analysis.SymbolFunction, false},
	)

	if len(report.Imports) != 3 {
		t.Fatalf("imports = %+v", report.Imports)
	}
	if !reflect.DeepEqual(report.Imports[0].ImportedNames, []string{"List", "Opt"}) {
		t.Errorf("from-import names = %v", report.Imports[0].ImportedNames)
	}
	if report.Imports[2].To != "sys" || !reflect.DeepEqual(report.Imports[2].ImportedNames, []string{"system"}) {
		t.Errorf("aliased import = %+v", report.Imports[2])
	}
}

func TestExtract_RustJavaCSharpKotlin(t *testing.T) {
	tests := []struct {
		name string
		file FileContent
		want []symKey
	}{
		{
			name: "rust",
			file: FileContent{Path: "src/lib.rs", Content: "use std::collections::{HashMap, HashSet};\npub struct Cache {}\nstruct Inner;\npub trait Store {}\nimpl Cache {\n    pub fn get(&self) {}\n    fn evict(&mut self) {}\n}\npub fn new() -> Cache { Cache {} }\nconst LIMIT: usize = 5;\n"},
			want: []symKey{
				{"Cache", analysis.SymbolClass, true},
				{"Inner", analysis.SymbolClass, false},
				{"Store", analysis.SymbolInterface, true},
				{"get", analysis.SymbolMethod, true},
				{"evict", analysis.SymbolMethod, false},
				{"new", analysis.SymbolFunction, true},
				{"LIMIT", analysis.SymbolConstant, true},
			},
		},
		{
			name: "java",
			file: FileContent{Path: "src/main/java/App.java", Content: "import java.util.List;\npublic class App {\n    public static final int MAX = 3;\n    public void run() {}\n    private String name() { return \"\"; }\n}\ninterface Hidden {}\n"},
			want: []symKey{
				{"App", analysis.SymbolClass, true},
				{"MAX", analysis.SymbolConstant, true},
				{"run", analysis.SymbolMethod, true},
				{"name", analysis.SymbolMethod, false},
				{"Hidden", analysis.SymbolInterface, false},
			},
		},
		{
			name: "csharp",
			file: FileContent{Path: "Program.cs", Content: "using System.Text;\npublic class Program {\n    public static void Main(string[] args) {}\n    private int Count() { return 0; }\n}\n"},
			want: []symKey{
				{"Program", analysis.SymbolClass, true},
				{"Main", analysis.SymbolMethod, true},
				{"Count", analysis.SymbolMethod, false},
			},
		},
		{
			name: "kotlin",
			file: FileContent{Path: "App.kt", Content: "import kotlinx.coroutines.launch\ndata class User(val id: Int)\nprivate fun helper() {}\nfun main() {}\nconst val VERSION = \"1\"\n"},
			want: []symKey{
				{"User", analysis.SymbolClass, true},
				{"helper", analysis.SymbolFunction, false},
				{"main", analysis.SymbolFunction, true},
				{"VERSION", analysis.SymbolConstant, true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := extract(t, tt.file)
			expectSymbols(t, report, tt.want...)
			if len(report.Imports) == 0 {
				t.Error("expected at least one import")
			}
		})
	}
}

func TestExtract_DeclarationsNamedNew(t *testing.T) {
	tests := []struct {
		name string
		file FileContent
		want []symKey
	}{
		{
			name: "rust",
			file: FileContent{Path: "src/lib.rs", Content: "pub fn new() -> Cache {\n    Cache {}\n}\nimpl Pool {\n    pub fn new() -> Self { Pool }\n}\n"},
			want: []symKey{
				{"new", analysis.SymbolFunction, true},
				{"new", analysis.SymbolMethod, true},
			},
		},
		{
			name: "python",
			file: FileContent{Path: "util.py", Content: "def new(cls):\n    return cls()\n\nclass Factory:\n    def new(self):\n        pass\n"},
			want: []symKey{
				{"new", analysis.SymbolFunction, true},
				{"new", analysis.SymbolMethod, true},
			},
		},
		{
			name: "ruby",
			file: FileContent{Path: "x.rb", Content: "def new\nend\nclass Widget\n  def self.new(*args)\n  end\nend\n"},
			want: []symKey{
				{"new", analysis.SymbolFunction, true},
				{"new", analysis.SymbolMethod, true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := extract(t, tt.file)
			expectSymbols(t, report, tt.want...)

			found := false
			for _, e := range report.Exports {
				if e == "new" {
					found = true
				}
			}
			if !found {
				t.Errorf("expected new in exports %v", report.Exports)
			}
		})
	}
}

func TestExtract_LoosePatternsSkipKeywords(t *testing.T) {
	src := "class Runner {\n  run() {\n    if (this.ready) {\n      return 1;\n    }\n    while (this.busy) {\n    }\n  }\n}\n"
	report := extract(t, FileContent{Path: "runner.js", Content: src})

	expectSymbols(t, report, symKey{"run", analysis.SymbolMethod, false})
	for _, s := range report.Symbols {
		if s.Name == "if" || s.Name == "while" {
			t.Errorf("keyword captured as symbol: %+v", s)
		}
	}
}

func TestExtract_RustUseBraces(t *testing.T) {
	report := extract(t, FileContent{Path: "a.rs", Content: "use std::collections::{HashMap, HashSet};\n"})
	imp := report.Imports[0]
	if imp.To != "std::collections" || !reflect.DeepEqual(imp.ImportedNames, []string{"HashMap", "HashSet"}) {
		t.Errorf("use edge = %+v", imp)
	}
}

func TestExtract_Markdown(t *testing.T) {
	src := "---\ntitle: Guide\ntags: [a, b]\n---\n# Intro\n\nText\n\n## Setup ##\n\n```sh\n# not a heading\n```\n\n### Too deep\n"
	report := extract(t, FileContent{Path: "docs/guide.md", Content: src})

	want := []analysis.Symbol{
		{Name: "title", Kind: analysis.SymbolKey, File: "docs/guide.md", Line: 2},
		{Name: "tags", Kind: analysis.SymbolKey, File: "docs/guide.md", Line: 3},
		{Name: "Intro", Kind: analysis.SymbolHeading, File: "docs/guide.md", Line: 5},
		{Name: "Setup", Kind: analysis.SymbolHeading, File: "docs/guide.md", Line: 9},
	}
	if !reflect.DeepEqual(report.Symbols, want) {
		t.Errorf("symbols = %+v, want %+v", report.Symbols, want)
	}
}

func TestExtract_MarkdownMalformedFrontmatter(t *testing.T) {
	report := extract(t, FileContent{Path: "a.md", Content: "---\ntitle: [unclosed\n---\n# Title\n"})
	if len(report.Symbols) != 1 || report.Symbols[0].Name != "Title" {
		t.Errorf("symbols = %+v", report.Symbols)
	}
}

func TestExtract_Shell(t *testing.T) {
	src := "#!/bin/bash\nsource ./lib.sh\n. \"$HOME/.env\"\nexport API_KEY=abc\nLOG_LEVEL=info\nlocal_var=1\ndeploy() {\n  echo hi\n}\nfunction cleanup {\n  rm -rf tmp\n}\n"
	report := extract(t, FileContent{Path: "scripts/deploy.sh", Content: src})

	expectSymbols(t, report,
		symKey{"API_KEY", analysis.SymbolConstant, true},
		symKey{"LOG_LEVEL", analysis.SymbolConstant, true},
		symKey{"deploy", analysis.SymbolFunction, false},
		symKey{"cleanup", analysis.SymbolFunction, false},
	)
	if len(report.Imports) != 2 || report.Imports[0].To != "./lib.sh" || report.Imports[1].To != "$HOME/.env" {
		t.Errorf("imports = %+v", report.Imports)
	}
}

func TestExtract_UnprofiledLanguageCountsLinesOnly(t *testing.T) {
	report := extract(t, FileContent{Path: "main.swift", Content: "// comment\nfunc hello() {\n  print(\"x\")\n}\n\n"})
	if len(report.Symbols) != 0 {
		t.Errorf("expected no symbols, got %+v", report.Symbols)
	}
	if report.Complexity.LinesOfCode != 3 {
		t.Errorf("LinesOfCode = %d, want 3", report.Complexity.LinesOfCode)
	}
}

func TestExtract_NoFiles(t *testing.T) {
	report, err := newTestExtractor().Extract(analysis.ModuleInfo{Path: "empty"}, nil)
	if err != nil || report != nil {
		t.Errorf("Extract(no files) = %v, %v; want nil, nil", report, err)
	}
}

func TestExtract_RecoversProfilePanic(t *testing.T) {
	e := newTestExtractor()
	e.RegisterProfile(&LanguageProfile{
		Language:     "go",
		Declarations: []DeclPattern{{Kind: analysis.SymbolFunction, Pattern: regexp.MustCompile(`^func`)}},
		Imports: func(file, content string) []analysis.ImportEdge {
			panic("boom")
		},
	})

	report, err := e.Extract(analysis.ModuleInfo{Path: "broken"}, []FileContent{{Path: "a.go", Content: "func a() {}"}})
	if err == nil || report != nil {
		t.Fatalf("expected recovered error, got report=%v err=%v", report, err)
	}
}

func TestCyclomaticEstimate(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 1},
		{"if a {} else if b {} else {}", 3},
		{"for x in y: pass\nwhile true:\nelif z:", 4},
		{"switch x { case 1: case 2: }", 3},
		{"try {} catch (e) {}", 2},
		{"a && b || c", 3},
		{"x ? y : z", 2},
		{"a?.b ?? c", 1},
		{"notif forty", 1},
	}
	for _, tt := range tests {
		if got := CyclomaticEstimate(tt.text); got != tt.want {
			t.Errorf("CyclomaticEstimate(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestLinesOfCode(t *testing.T) {
	text := "package x\n\n// comment\n# hash\n/* block\n * star\n */\n-- sql\ncode()\n   \n"
	if got := LinesOfCode(text); got != 2 {
		t.Errorf("LinesOfCode = %d, want 2", got)
	}
}
