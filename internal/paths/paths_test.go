package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "api")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	file := filepath.Join(nested, "routes.ts")
	if err := os.WriteFile(file, []byte("export {}"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := CanonicalizePath(file, root)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}
	if got != "src/api/routes.ts" {
		t.Errorf("CanonicalizePath = %q, want %q", got, "src/api/routes.ts")
	}

	missing, err := CanonicalizePath(filepath.Join(root, "not", "yet.go"), root)
	if err != nil {
		t.Fatalf("CanonicalizePath on missing file failed: %v", err)
	}
	if missing != "not/yet.go" {
		t.Errorf("CanonicalizePath(missing) = %q", missing)
	}
}

func TestIsWithinRepo(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"child", filepath.Join(root, "a.go"), true},
		{"root itself", root, true},
		{"parent", filepath.Dir(root), false},
		{"sibling via dotdot", filepath.Join(root, "..", "other"), false},
		{"dotdot prefixed name", filepath.Join(root, "..foo"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWithinRepo(tt.path, root); got != tt.want {
				t.Errorf("IsWithinRepo(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalizeSource(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/repo/", "/repo"},
		{"/repo///", "/repo"},
		{`C:\work\repo\`, "C:/work/repo"},
		{"https://github.com/o/r/", "https://github.com/o/r"},
		{"/", "/"},
		{"  ./local  ", "./local"},
	}

	for _, tt := range tests {
		if got := NormalizeSource(tt.in); got != tt.want {
			t.Errorf("NormalizeSource(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDepthAndFirstSegment(t *testing.T) {
	tests := []struct {
		path  string
		depth int
		first string
	}{
		{"main.go", 0, ""},
		{"src/index.ts", 1, "src"},
		{"a/b/c/d.go", 3, "a"},
		{`pkg\util\x.go`, 2, "pkg"},
		{"./cmd/app/main.go", 3, "cmd"},
	}

	for _, tt := range tests {
		if got := Depth(tt.path); got != tt.depth {
			t.Errorf("Depth(%q) = %d, want %d", tt.path, got, tt.depth)
		}
		if got := FirstSegment(tt.path); got != tt.first {
			t.Errorf("FirstSegment(%q) = %q, want %q", tt.path, got, tt.first)
		}
	}
}

func TestJoinRepoPath(t *testing.T) {
	got := JoinRepoPath("/repo", "src/api/x.go")
	want := filepath.Join("/repo", "src", "api", "x.go")
	if got != want {
		t.Errorf("JoinRepoPath = %q, want %q", got, want)
	}
}
