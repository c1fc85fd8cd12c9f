// Package paths handles repo-relative path canonicalization and source key normalization.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Returns repo-relative path with forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := evalOrKeep(absolutePath)
	if err != nil {
		return "", err
	}
	rootResolved, err := evalOrKeep(repoRoot)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// evalOrKeep resolves symlinks, keeping paths that do not exist yet as-is.
func evalOrKeep(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return "", err
	}
	return resolved, nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// NormalizeSource produces the cache key for a source identifier:
// backslashes become slashes and trailing slashes are stripped.
func NormalizeSource(source string) string {
	key := NormalizePath(strings.TrimSpace(source))
	for len(key) > 1 && strings.HasSuffix(key, "/") {
		key = strings.TrimSuffix(key, "/")
	}
	return key
}

// JoinRepoPath joins a repo root with a canonical (slash separated) path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	parts := strings.Split(NormalizePath(canonicalPath), "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}

// Depth returns the number of directory levels above a slash separated file path.
// "main.go" has depth 0, "a/b/c.go" has depth 2.
func Depth(canonicalPath string) int {
	canonicalPath = strings.Trim(NormalizePath(canonicalPath), "/")
	if canonicalPath == "" {
		return 0
	}
	return strings.Count(canonicalPath, "/")
}

// FirstSegment returns the first component of a slash separated path, or "" for root-level files.
func FirstSegment(canonicalPath string) string {
	canonicalPath = strings.TrimPrefix(NormalizePath(canonicalPath), "./")
	idx := strings.Index(canonicalPath, "/")
	if idx <= 0 {
		return ""
	}
	return canonicalPath[:idx]
}
