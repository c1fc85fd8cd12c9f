// Package structural extracts symbols, imports, exports and complexity metrics
// from a module's files using per-language heuristics. Extraction is best effort:
// unsupported or malformed content yields no symbols rather than an error.
package structural

import (
	"fmt"
	"log/slog"
	"strings"

	"archlens/internal/analysis"
	"archlens/internal/surface"
)

// FileContent is one loaded file of a module
type FileContent struct {
	Path    string
	Content string
}

// Extractor runs structural extraction
type Extractor struct {
	profiles map[string]*LanguageProfile
	logger   *slog.Logger
}

// NewExtractor creates an extractor with the default profiles
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{profiles: DefaultProfiles(), logger: logger}
}

// RegisterProfile adds or replaces the profile for a language
func (e *Extractor) RegisterProfile(p *LanguageProfile) {
	e.profiles[p.Language] = p
}

// Extract builds the structural report for one module. It returns nil when files is empty.
// A panic inside a profile is recovered into an error for this module only.
func (e *Extractor) Extract(module analysis.ModuleInfo, files []FileContent) (report *analysis.StructuralReport, err error) {
	if len(files) == 0 {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("extracting module %s: %v", module.Path, r)
		}
	}()

	report = &analysis.StructuralReport{
		ModulePath: module.Path,
		Symbols:    []analysis.Symbol{},
		Imports:    []analysis.ImportEdge{},
		Exports:    []string{},
	}

	var codeText strings.Builder
	exported := make(map[string]bool)
	addExport := func(name string) {
		if name != "" && !exported[name] {
			exported[name] = true
			report.Exports = append(report.Exports, name)
		}
	}

	for _, f := range files {
		lang := surface.LanguageForPath(f.Path)
		report.Complexity.LinesOfCode += LinesOfCode(f.Content)

		if surface.IsCodeLanguage(lang) {
			codeText.WriteString(f.Content)
			codeText.WriteByte('\n')
		}

		var symbols []analysis.Symbol
		switch lang {
		case surface.LanguageMarkdown:
			symbols = markdownSymbols(f.Path, f.Content)
		default:
			profile, ok := e.profiles[lang]
			if !ok {
				continue
			}
			symbols = extractDeclarations(profile, f.Path, f.Content)
			if profile.Imports != nil {
				report.Imports = append(report.Imports, profile.Imports(f.Path, f.Content)...)
			}
			if profile.ExportLists != nil {
				for _, name := range profile.ExportLists(f.Content) {
					addExport(name)
				}
			}
		}

		for _, s := range symbols {
			switch s.Kind {
			case analysis.SymbolFunction, analysis.SymbolMethod:
				report.Complexity.FunctionCount++
			case analysis.SymbolClass:
				report.Complexity.ClassCount++
			}
			if s.Exported {
				addExport(s.Name)
			}
		}
		report.Symbols = append(report.Symbols, symbols...)
	}

	report.Complexity.CyclomaticEstimate = CyclomaticEstimate(codeText.String())

	e.logger.Debug("Extracted module",
		"module", module.Path,
		"files", len(files),
		"symbols", len(report.Symbols),
		"imports", len(report.Imports),
	)
	return report, nil
}

// extractDeclarations applies a profile's declaration patterns line by line.
func extractDeclarations(profile *LanguageProfile, file, content string) []analysis.Symbol {
	var symbols []analysis.Symbol

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || hasAnyPrefix(trimmed, profile.CommentPrefixes) {
			continue
		}
		for _, d := range profile.Declarations {
			m := d.Pattern.FindStringSubmatch(line)
			if m == nil || len(m) < 2 || m[1] == "" {
				continue
			}
			name := m[1]
			if d.Loose && reservedNames[name] {
				continue
			}
			symbols = append(symbols, analysis.Symbol{
				Name:     name,
				Kind:     d.Kind,
				File:     file,
				Line:     i + 1,
				Exported: isExported(profile, d.Kind, name, line),
			})
			break
		}
	}
	return symbols
}

// isExported applies the export keyword, then the language convention, then the
// upper-case constant rule.
func isExported(profile *LanguageProfile, kind analysis.SymbolKind, name, line string) bool {
	if profile.ExportKeyword != nil && profile.ExportKeyword.MatchString(line) {
		return true
	}
	if profile.ExportedByConvention != nil && profile.ExportedByConvention(name, line) {
		return true
	}
	return kind == analysis.SymbolConstant && isUpperConstant(name)
}
