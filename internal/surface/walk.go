package surface

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// fileEntry is one file that survived the ignore rules.
type fileEntry struct {
	Path     string // repo-relative, slash separated
	Size     int64
	Ext      string
	Language string
}

// walker enumerates repository files.
type walker struct {
	root      string
	excludes  []string
	gitignore *ignore.GitIgnore
	logger    *slog.Logger
}

func newWalker(root string, opts Options, logger *slog.Logger) *walker {
	w := &walker{root: root, logger: logger}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			logger.Warn("Ignoring invalid exclude pattern", "pattern", pattern)
			continue
		}
		w.excludes = append(w.excludes, pattern)
	}
	if !opts.NoGitignore {
		w.gitignore = loadGitignore(root)
	}
	return w
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// excluded reports whether a relative path is matched by caller excludes or .gitignore.
func (w *walker) excluded(rel string, isDir bool) bool {
	for _, pattern := range w.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if isDir {
			// "dir/**" style patterns should prune the directory itself
			if ok, _ := doublestar.Match(pattern, rel+"/"); ok {
				return true
			}
		}
	}
	if w.gitignore != nil {
		candidate := rel
		if isDir {
			candidate += "/"
		}
		if w.gitignore.MatchesPath(candidate) {
			return true
		}
	}
	return false
}

// walk returns every non-ignored file sorted by path. Unreadable entries are skipped.
func (w *walker) walk(ctx context.Context) ([]fileEntry, error) {
	var files []fileEntry

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == w.root {
				return err
			}
			w.logger.Debug("Skipping unreadable entry", "path", path, "error", err.Error())
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == w.root {
			return nil
		}

		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if isIgnoredDir(name) || w.excluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 || !d.Type().IsRegular() {
			return nil
		}
		if isIgnoredFile(name) || w.excluded(rel, false) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			w.logger.Debug("Skipping file without stat", "path", rel, "error", infoErr.Error())
			return nil
		}

		files = append(files, fileEntry{
			Path:     rel,
			Size:     info.Size(),
			Ext:      filepath.Ext(name),
			Language: LanguageForPath(name),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
