package query

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	archerrors "archlens/internal/errors"
	"archlens/internal/paths"
)

const (
	// DefaultMaxFileBytes caps each returned file when the caller gives no limit
	DefaultMaxFileBytes = 100_000
	// MaxFilesPerRead bounds a single ReadFiles call
	MaxFilesPerRead = 20
)

// FileContent is one file read from an analyzed root
type FileContent struct {
	Path      string `json:"path"`
	Content   string `json:"content,omitempty"`
	Size      int64  `json:"size"`
	Truncated bool   `json:"truncated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReadFiles reads repo-relative files from the root an analysis ran on.
// A path escaping the root fails the whole call; a missing or unreadable file
// is reported on its own entry.
func (e *Engine) ReadFiles(analysisID string, files []string, maxBytes int) ([]FileContent, error) {
	entry, err := e.lookup(analysisID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, archerrors.NewInvalidParameterError("paths", "at least one path is required")
	}
	if len(files) > MaxFilesPerRead {
		return nil, archerrors.NewInvalidParameterError("paths", fmt.Sprintf("at most %d paths per call", MaxFilesPerRead))
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	root := entry.Value.RootPath
	if root == "" {
		return nil, archerrors.New(archerrors.InternalError, "analysis has no readable root", nil)
	}

	rels := make([]string, len(files))
	targets := make([]string, len(files))
	for i, p := range files {
		rel, err := cleanRelative(p)
		if err != nil {
			return nil, err
		}
		full := paths.JoinRepoPath(root, rel)
		if !paths.IsWithinRepo(full, root) {
			return nil, archerrors.New(archerrors.PathOutsideRepo, "path escapes the analyzed root: "+p, nil)
		}
		rels[i], targets[i] = rel, full
	}

	out := make([]FileContent, 0, len(rels))
	for i, rel := range rels {
		out = append(out, readOne(rel, targets[i], int64(maxBytes)))
	}
	e.logger.Debug("Read files", "analysisId", analysisID, "count", len(out))
	return out, nil
}

// cleanRelative normalizes a requested path and rejects absolute or parent-relative ones.
func cleanRelative(p string) (string, error) {
	p = paths.NormalizePath(strings.TrimSpace(p))
	if p == "" {
		return "", archerrors.NewInvalidParameterError("paths", "empty path")
	}
	if strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return "", archerrors.New(archerrors.PathOutsideRepo, "absolute paths are not allowed: "+p, nil)
	}
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", archerrors.New(archerrors.PathOutsideRepo, "path escapes the analyzed root: "+p, nil)
	}
	return cleaned, nil
}

func readOne(rel, full string, maxBytes int64) FileContent {
	fc := FileContent{Path: rel}
	info, err := os.Stat(full)
	if err != nil {
		fc.Error = "not found"
		return fc
	}
	if info.IsDir() {
		fc.Error = "is a directory"
		return fc
	}
	fc.Size = info.Size()

	f, err := os.Open(full)
	if err != nil {
		fc.Error = err.Error()
		return fc
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		fc.Error = err.Error()
		return fc
	}
	fc.Content = string(data)
	fc.Truncated = fc.Size > maxBytes
	return fc
}
