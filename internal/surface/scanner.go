// Package surface implements the cheap first analysis phase: file enumeration,
// language breakdown, directory tree, module identification and complexity scoring.
package surface

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path"
	"sort"
	"strings"

	"archlens/internal/analysis"
	"archlens/internal/paths"
)

// Options controls a surface scan
type Options struct {
	// Exclude are doublestar globs matched against repo-relative paths
	Exclude []string
	// NoGitignore disables honoring the root .gitignore
	NoGitignore bool
	// NameHint is used as repository name when no manifest names it
	NameHint string
}

// Scanner runs surface scans
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a new surface scanner
func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// Scan enumerates the repository at root and produces its SurfaceReport.
// Only failure to stat or enumerate root is an error; unreadable entries are skipped.
func (s *Scanner) Scan(ctx context.Context, root string, opts Options) (*analysis.SurfaceReport, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	files, err := newWalker(root, opts, s.logger).walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate root: %w", err)
	}

	repoName := RepositoryName(root, opts.NameHint)

	decls, err := LoadDeclarations(root)
	if err != nil {
		s.logger.Warn("Ignoring module declarations", "file", ModulesDeclarationFile, "error", err.Error())
		decls = nil
	}

	var totalSize int64
	maxDepth := 0
	hasReadme := false
	for _, f := range files {
		totalSize += f.Size
		if d := paths.Depth(f.Path); d > maxDepth {
			maxDepth = d
		}
		if !strings.Contains(f.Path, "/") && strings.HasPrefix(strings.ToLower(f.Path), "readme") {
			hasReadme = true
		}
	}

	languages := languageBreakdown(files)
	modules := identifyModules(files, repoName, decls)

	avgSize := 0.0
	if len(files) > 0 {
		avgSize = float64(totalSize) / float64(len(files))
	}
	complexity := ComplexityScore(ComplexityInputs{
		FileCount:     len(files),
		ModuleCount:   len(modules),
		LanguageCount: len(languages),
		AvgFileSize:   avgSize,
		MaxPathDepth:  maxDepth,
	})

	report := &analysis.SurfaceReport{
		RepositoryMap: analysis.RepositoryMap{
			Name:            repoName,
			Languages:       languages,
			FileCount:       len(files),
			TotalSize:       totalSize,
			EstimatedTokens: int(math.Ceil(float64(totalSize) / 4)),
			EntryPoints:     detectEntryPoints(files),
			DirectoryTree:   BuildTree(repoName, files),
			HasReadme:       hasReadme,
		},
		Modules:            modules,
		Complexity:         complexity,
		EstimatedDurations: EstimateDurations(len(files), complexity),
	}

	s.logger.Debug("Surface scan complete",
		"root", root,
		"files", len(files),
		"modules", len(modules),
		"languages", len(languages),
		"complexity", complexity,
	)
	return report, nil
}

// languageBreakdown counts classified files per language; "other" files are excluded.
func languageBreakdown(files []fileEntry) []analysis.LanguageStat {
	counts := make(map[string]int)
	exts := make(map[string]map[string]bool)
	classified := 0

	for _, f := range files {
		if f.Language == LanguageOther {
			continue
		}
		classified++
		counts[f.Language]++
		if exts[f.Language] == nil {
			exts[f.Language] = make(map[string]bool)
		}
		exts[f.Language][strings.ToLower(path.Ext(f.Path))] = true
	}

	stats := make([]analysis.LanguageStat, 0, len(counts))
	for lang, n := range counts {
		extList := make([]string, 0, len(exts[lang]))
		for ext := range exts[lang] {
			extList = append(extList, ext)
		}
		sort.Strings(extList)
		stats = append(stats, analysis.LanguageStat{
			Language:   lang,
			FileCount:  n,
			Percentage: int(math.Round(100 * float64(n) / float64(classified))),
			Extensions: extList,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].FileCount != stats[j].FileCount {
			return stats[i].FileCount > stats[j].FileCount
		}
		return stats[i].Language < stats[j].Language
	})
	return stats
}

// DominantLanguage returns the language with the most files, or "" when none are classified.
func DominantLanguage(report *analysis.SurfaceReport) string {
	if report == nil || len(report.RepositoryMap.Languages) == 0 {
		return ""
	}
	return report.RepositoryMap.Languages[0].Language
}
