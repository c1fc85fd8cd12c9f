package source

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"archlens/internal/config"
	archerrors "archlens/internal/errors"
	"archlens/internal/slogutil"
)

func newTestResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	cfg := config.DefaultConfig().Source
	cfg.WorkDir = t.TempDir()
	return NewResolver(cfg, slogutil.NewDiscardLogger(), opts...)
}

func TestResolve_Local(t *testing.T) {
	dir := t.TempDir()
	r := newTestResolver(t)

	for _, id := range []string{dir, "file://" + dir, dir + "/"} {
		lease, err := r.Resolve(context.Background(), id)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", id, err)
		}
		if lease.Kind != KindLocal || lease.Path != filepath.Clean(dir) {
			t.Errorf("Resolve(%q) = %+v", id, lease)
		}
		lease.Release()
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("releasing a local lease must not remove the directory: %v", err)
		}
	}
}

func TestResolve_LocalErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := newTestResolver(t)

	for _, id := range []string{"", "   ", filepath.Join(t.TempDir(), "missing"), file} {
		_, err := r.Resolve(context.Background(), id)
		if !archerrors.Is(err, archerrors.SourceUnresolvable) {
			t.Errorf("Resolve(%q) error = %v, want SOURCE_UNRESOLVABLE", id, err)
		}
	}
}

func TestResolve_GitClone(t *testing.T) {
	var gotArgs []string
	fakeGit := func(ctx context.Context, args ...string) error {
		gotArgs = args
		target := args[len(args)-1]
		if err := os.MkdirAll(target, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(target, "main.go"), []byte("package main\n"), 0o644)
	}
	r := newTestResolver(t, WithGitRunner(fakeGit))

	lease, err := r.Resolve(context.Background(), "https://github.com/acme/widgets.git#v1.2.0")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if lease.Kind != KindGit || lease.Name != "widgets" {
		t.Errorf("unexpected lease: %+v", lease)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"clone", "--depth 1", "--branch v1.2.0", "https://github.com/acme/widgets.git"} {
		if !strings.Contains(joined, want) {
			t.Errorf("git args %q missing %q", joined, want)
		}
	}
	if _, err := os.Stat(filepath.Join(lease.Path, "main.go")); err != nil {
		t.Fatalf("cloned file missing: %v", err)
	}

	lease.Release()
	lease.Release()
	if _, err := os.Stat(lease.Path); !os.IsNotExist(err) {
		t.Errorf("Release should remove the clone, stat err = %v", err)
	}
}

func TestResolve_GitFailure(t *testing.T) {
	r := newTestResolver(t, WithGitRunner(func(context.Context, ...string) error {
		return errors.New("repository not found")
	}))
	_, err := r.Resolve(context.Background(), "git@github.com:acme/missing.git")
	if !archerrors.Is(err, archerrors.SourceUnresolvable) {
		t.Fatalf("expected SOURCE_UNRESOLVABLE, got %v", err)
	}
	entries, _ := os.ReadDir(r.cfg.WorkDir)
	if len(entries) != 0 {
		t.Errorf("failed clone should leave no temp dirs, found %d", len(entries))
	}
}

func TestRepoNameFromURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://github.com/acme/widgets.git", "widgets"},
		{"https://github.com/acme/widgets/", "widgets"},
		{"git@github.com:acme/widgets.git", "widgets"},
		{"ssh://git@host/team/tool", "tool"},
		{"https://example.com/dl/pkg-1.0.tar.gz", "pkg-1.0"},
	}
	for _, tt := range tests {
		if got := repoNameFromURL(tt.in); got != tt.want {
			t.Errorf("repoNameFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type tarEntry struct {
	name string
	body string
	dir  bool
}

func buildTarGz(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func serveBytes(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".tar.gz") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve_Archive(t *testing.T) {
	data := buildTarGz(t, []tarEntry{
		{name: "widgets-main/", dir: true},
		{name: "widgets-main/go.mod", body: "module example.com/widgets\n"},
		{name: "widgets-main/internal/core.go", body: "package internal\n"},
	})
	srv := serveBytes(t, data)
	r := newTestResolver(t, WithHTTPClient(srv.Client()))

	lease, err := r.Resolve(context.Background(), srv.URL+"/widgets/main.tar.gz")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	defer lease.Release()

	if lease.Kind != KindArchive || lease.Name != "widgets-main" {
		t.Errorf("unexpected lease: %+v", lease)
	}
	if _, err := os.Stat(filepath.Join(lease.Path, "internal", "core.go")); err != nil {
		t.Errorf("extracted file missing under the archive root: %v", err)
	}
}

func TestResolve_ArchiveRejectsTraversal(t *testing.T) {
	data := buildTarGz(t, []tarEntry{
		{name: "ok.txt", body: "fine"},
		{name: "../escape.txt", body: "evil"},
	})
	srv := serveBytes(t, data)
	r := newTestResolver(t, WithHTTPClient(srv.Client()))

	_, err := r.Resolve(context.Background(), srv.URL+"/evil.tar.gz")
	if !archerrors.Is(err, archerrors.SourceUnresolvable) {
		t.Fatalf("expected SOURCE_UNRESOLVABLE, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(r.cfg.WorkDir, "escape.txt")); !os.IsNotExist(statErr) {
		t.Error("traversal entry must not be written")
	}
}

func TestResolve_ArchiveTooLarge(t *testing.T) {
	data := buildTarGz(t, []tarEntry{{name: "big.txt", body: strings.Repeat("a", 4096)}})
	srv := serveBytes(t, data)
	r := newTestResolver(t, WithHTTPClient(srv.Client()))
	r.cfg.MaxArchiveBytes = 1024

	_, err := r.Resolve(context.Background(), srv.URL+"/big.tar.gz")
	if !errors.Is(err, ErrArchiveTooLarge) {
		t.Fatalf("expected ErrArchiveTooLarge, got %v", err)
	}
}

func TestResolve_ArchiveNotFound(t *testing.T) {
	srv := serveBytes(t, nil)
	r := newTestResolver(t, WithHTTPClient(srv.Client()))
	if _, err := r.Resolve(context.Background(), srv.URL+"/missing.tgz"); err == nil {
		t.Fatal("expected error for 404 archive")
	}
}

func TestSafeJoin(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"a/b.txt", false},
		{"/etc/passwd", false},
		{"../x", true},
		{`..\x`, true},
		{"a/../../x", true},
	}
	for _, tt := range tests {
		target, err := safeJoin(dest, tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("safeJoin(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && !strings.HasPrefix(target, dest) {
			t.Errorf("safeJoin(%q) = %q escapes %q", tt.name, target, dest)
		}
	}
}
