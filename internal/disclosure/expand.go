package disclosure

import (
	"errors"
	"slices"

	"archlens/internal/analysis"
)

var (
	// ErrSectionNotFound means no section with the requested id exists on the result.
	ErrSectionNotFound = errors.New("section not found")
	// ErrCannotExpand means the section exists but has nothing to expand.
	ErrCannotExpand = errors.New("section cannot be expanded")
	// ErrInvalidLevel means the expansion level is neither detail nor full.
	ErrInvalidLevel = errors.New("invalid expansion level")
)

// Expand returns a copy of the section with its Detail or Full payload filled in
// from the original reports. The result and the reports are left untouched.
func Expand(result *analysis.AnalysisResult, reports *analysis.Reports, sectionID string, level analysis.ExpansionLevel) (*analysis.ExpandableSection, error) {
	return ExpandWithLimits(result, reports, sectionID, level, DefaultLimits())
}

// ExpandWithLimits is Expand with explicit limits
func ExpandWithLimits(result *analysis.AnalysisResult, reports *analysis.Reports, sectionID string, level analysis.ExpansionLevel, limits Limits) (*analysis.ExpandableSection, error) {
	if level != analysis.LevelDetail && level != analysis.LevelFull {
		return nil, ErrInvalidLevel
	}

	idx := slices.IndexFunc(result.Sections, func(s analysis.ExpandableSection) bool {
		return s.ID == sectionID
	})
	if idx < 0 {
		return nil, ErrSectionNotFound
	}
	section := result.Sections[idx]
	if !section.CanExpand {
		return nil, ErrCannotExpand
	}

	full := level == analysis.LevelFull
	var payload *analysis.SectionPayload

	switch section.Type {
	case analysis.SectionModule:
		report := moduleReport(reports, sectionID)
		if report == nil {
			return nil, ErrCannotExpand
		}
		payload = &analysis.SectionPayload{Module: modulePayload(report, full, limits)}

	case analysis.SectionPattern:
		if reports.Semantic == nil {
			return nil, ErrCannotExpand
		}
		items, truncated := bounded(reports.Semantic.Patterns, full, limits.DetailItems)
		payload = &analysis.SectionPayload{Patterns: &analysis.PatternsPayload{Patterns: items, Truncated: truncated}}

	case analysis.SectionDataModel:
		if reports.Semantic == nil {
			return nil, ErrCannotExpand
		}
		items, truncated := bounded(reports.Semantic.DataModels, full, limits.DetailItems)
		payload = &analysis.SectionPayload{DataModels: &analysis.DataModelsPayload{DataModels: items, Truncated: truncated}}

	case analysis.SectionAPI:
		if reports.Semantic == nil {
			return nil, ErrCannotExpand
		}
		items, truncated := bounded(reports.Semantic.APIEndpoints, full, limits.DetailItems)
		payload = &analysis.SectionPayload{APIs: &analysis.APIPayload{Endpoints: items, Truncated: truncated}}

	default:
		return nil, ErrCannotExpand
	}

	if full {
		section.Full = payload
	} else {
		section.Detail = payload
	}
	return &section, nil
}

// moduleReport finds the structural report whose module maps to sectionID.
func moduleReport(reports *analysis.Reports, sectionID string) *analysis.StructuralReport {
	if reports == nil || reports.Surface == nil {
		return nil
	}
	for _, m := range reports.Surface.Modules {
		if SectionID(m.Path) != sectionID {
			continue
		}
		if r, ok := reports.StructuralFor(m.Path); ok {
			return r
		}
	}
	return nil
}

func modulePayload(r *analysis.StructuralReport, full bool, limits Limits) *analysis.ModulePayload {
	symbols, symbolsCut := bounded(r.Symbols, full, limits.DetailSymbols)
	imports, importsCut := bounded(r.Imports, full, limits.DetailImports)
	p := &analysis.ModulePayload{
		ModulePath: r.ModulePath,
		Symbols:    symbols,
		Imports:    imports,
		Complexity: r.Complexity,
		Truncated:  symbolsCut || importsCut,
	}
	if full {
		p.Exports = slices.Clone(r.Exports)
	}
	return p
}

// bounded copies items, keeping at most limit of them unless full is set.
func bounded[T any](items []T, full bool, limit int) ([]T, bool) {
	if !full && len(items) > limit {
		return slices.Clone(items[:limit]), true
	}
	out := slices.Clone(items)
	if out == nil {
		out = []T{}
	}
	return out, false
}
