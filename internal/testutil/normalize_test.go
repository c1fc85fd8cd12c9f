package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarshalNormalized(t *testing.T) {
	data := map[string]any{
		"analysisId": "abc",
		"source":     "/tmp/repo-1/src",
		"nested":     []any{map[string]any{"timestamp": "now", "name": "x"}},
	}

	got := string(MarshalNormalized(t, "/tmp/repo-1", data))

	if strings.Contains(got, "analysisId") || strings.Contains(got, "timestamp") {
		t.Errorf("volatile fields should be removed:\n%s", got)
	}
	if !strings.Contains(got, `"source": "<root>/src"`) {
		t.Errorf("root should be replaced:\n%s", got)
	}
	if !strings.Contains(got, `"name": "x"`) {
		t.Errorf("stable fields should survive:\n%s", got)
	}
	if strings.Contains(got, `\u003c`) {
		t.Errorf("placeholders must not be HTML-escaped:\n%s", got)
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Errorf("output should end with a single newline:\n%q", got)
	}
}

func TestLineDiff(t *testing.T) {
	diff := lineDiff("a\nb\nc\nd", "a\nb\nX\nd")
	if !strings.Contains(diff, "-c\n") || !strings.Contains(diff, "+X\n") {
		t.Errorf("diff should show the changed line, got:\n%s", diff)
	}
	if !strings.Contains(diff, " b\n") {
		t.Errorf("diff should include context, got:\n%s", diff)
	}
	if lineDiff("same", "same") != "" {
		t.Error("identical input should produce an empty diff")
	}
}

func TestTempRepo(t *testing.T) {
	root := TempRepo(t, ServiceRepo)
	data, err := os.ReadFile(filepath.Join(root, "handlers", "users.go"))
	if err != nil {
		t.Fatalf("fixture file missing: %v", err)
	}
	if !strings.HasPrefix(string(data), "package handlers") {
		t.Errorf("unexpected content: %q", data)
	}
	other := MarshalNormalized(t, root, map[string]string{"p": root + "/handlers/users.go"})
	if !strings.Contains(string(other), "<root>/handlers/users.go") {
		t.Errorf("unexpected normalization: %s", other)
	}
}
