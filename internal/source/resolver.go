// Package source turns a source identifier (local directory, file:// URL, git
// remote or .tar.gz archive URL) into a local directory the scanner can walk.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"archlens/internal/config"
	archerrors "archlens/internal/errors"
)

// Kind is the resolved form of a source identifier
type Kind string

const (
	KindLocal   Kind = "local"
	KindGit     Kind = "git"
	KindArchive Kind = "archive"
)

// Lease is a resolved source. Release frees any temporary copy; it is safe to
// call more than once and a no-op for local directories.
type Lease struct {
	// Path is the local directory to analyze
	Path string
	// Name is a repository name hint derived from the identifier
	Name string
	// Kind records how the source was resolved
	Kind Kind

	once    sync.Once
	release func()
}

// Release frees the lease
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		if l.release != nil {
			l.release()
		}
	})
}

// GitRunner runs a git command. It is injectable in tests.
type GitRunner func(ctx context.Context, args ...string) error

func runGit(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Resolver resolves source identifiers
type Resolver struct {
	cfg        config.SourceConfig
	logger     *slog.Logger
	git        GitRunner
	httpClient *http.Client
}

// Option customizes a Resolver
type Option func(*Resolver)

// WithGitRunner replaces the git command runner
func WithGitRunner(run GitRunner) Option {
	return func(r *Resolver) { r.git = run }
}

// WithHTTPClient replaces the client used to download archives
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.httpClient = c }
}

// NewResolver creates a resolver
func NewResolver(cfg config.SourceConfig, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{cfg: cfg, logger: logger, git: runGit, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve turns id into a Lease. Failures are SOURCE_UNRESOLVABLE errors.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Lease, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, archerrors.New(archerrors.SourceUnresolvable, "empty source", nil)
	}

	var (
		lease *Lease
		err   error
	)
	switch {
	case strings.HasPrefix(id, "file://"):
		lease, err = r.resolveLocal(strings.TrimPrefix(id, "file://"))
	case isArchiveURL(id):
		lease, err = r.resolveArchive(ctx, id)
	case isGitURL(id):
		lease, err = r.resolveGit(ctx, id)
	default:
		lease, err = r.resolveLocal(id)
	}
	if err != nil {
		var archErr *archerrors.ArchError
		if errors.As(err, &archErr) {
			return nil, err
		}
		return nil, archerrors.New(archerrors.SourceUnresolvable, fmt.Sprintf("cannot resolve %q", id), err)
	}

	r.logger.Debug("Resolved source", "source", id, "kind", lease.Kind, "path", lease.Path)
	return lease, nil
}

func (r *Resolver) resolveLocal(p string) (*Lease, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}
	return &Lease{Path: abs, Name: filepath.Base(abs), Kind: KindLocal}, nil
}

// isArchiveURL matches http(s) URLs whose path ends in .tar.gz or .tgz.
func isArchiveURL(id string) bool {
	u, err := url.Parse(id)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	p := strings.ToLower(u.Path)
	return strings.HasSuffix(p, ".tar.gz") || strings.HasSuffix(p, ".tgz")
}

// isGitURL matches remote repository identifiers.
func isGitURL(id string) bool {
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}

// repoNameFromURL returns the last path segment without .git, archive suffixes or ref parts.
func repoNameFromURL(raw string) string {
	s := raw
	if strings.HasPrefix(s, "git@") {
		if idx := strings.Index(s, ":"); idx >= 0 {
			s = s[idx+1:]
		}
	} else if u, err := url.Parse(s); err == nil {
		s = u.Path
	}
	s = strings.Trim(s, "/")
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		s = s[idx+1:]
	}
	for _, suffix := range []string{".git", ".tar.gz", ".tgz"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return s
}

// tempDir creates a scratch directory under the configured work dir.
func (r *Resolver) tempDir(pattern string) (string, error) {
	if r.cfg.WorkDir != "" {
		if err := os.MkdirAll(r.cfg.WorkDir, 0o755); err != nil {
			return "", err
		}
	}
	return os.MkdirTemp(r.cfg.WorkDir, pattern)
}

func (r *Resolver) removeLater(dir string) func() {
	return func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("Failed to remove temporary source", "path", dir, "error", err.Error())
		}
	}
}
