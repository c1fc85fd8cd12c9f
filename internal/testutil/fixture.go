// Package testutil provides repository fixtures and stable JSON comparison for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ServiceRepo is a small Go service with an entry point, a handlers module and a README.
var ServiceRepo = map[string]string{
	"main.go":           "package main\n\nfunc main() {}\n",
	"handlers/users.go": "package handlers\n\nfunc ListUsers() {}\nfunc GetUser() {}\n",
	"README.md":         "# demo\n",
}

// WriteTree writes files (slash-separated relative path to content) under root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
}

// TempRepo writes files into a fresh temporary directory and returns its path.
func TempRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	WriteTree(t, root, files)
	return root
}
