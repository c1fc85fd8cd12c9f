// Package disclosure turns phase reports into the progressive-disclosure view of
// an analysis: a summary, expandable sections with declared cost, and a digest
// for the calling agent. Expansion re-derives payloads from the original
// reports and never mutates a built result.
package disclosure

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"archlens/internal/analysis"
	"archlens/internal/surface"
)

// Fixed ids of the semantic sections
const (
	PatternsSectionID   = "patterns_overview"
	DataModelsSectionID = "data_models"
	APISectionID        = "api_endpoints"
)

// ArchitectureUnknown is reported when neither the service nor the heuristics decide
const ArchitectureUnknown = "unknown"

// Output is everything Build derives from the reports
type Output struct {
	Summary  analysis.Summary
	Sections []analysis.ExpandableSection
	ForAgent analysis.ForAgent
}

// Build derives the summary, sections and agent digest. Surface must be set;
// structural and semantic may be empty.
func Build(reports *analysis.Reports) Output {
	return BuildWithLimits(reports, DefaultLimits())
}

// BuildWithLimits is Build with explicit limits
func BuildWithLimits(reports *analysis.Reports, limits Limits) Output {
	summary := buildSummary(reports, limits)
	sections := buildSections(reports, limits)
	return Output{
		Summary:  summary,
		Sections: sections,
		ForAgent: buildDigest(reports, summary, sections, limits),
	}
}

func buildSummary(reports *analysis.Reports, limits Limits) analysis.Summary {
	s := analysis.Summary{
		ArchitectureType: InferArchitecture(reports),
		PrimaryPatterns:  []string{},
		Complexity:       analysis.TierFor(reports.Surface.Complexity),
	}
	if reports.Semantic != nil {
		for _, p := range reports.Semantic.Patterns {
			if len(s.PrimaryPatterns) == limits.MaxPrimaryPatterns {
				break
			}
			if p.Confidence > limits.PrimaryPatternConfidence {
				s.PrimaryPatterns = append(s.PrimaryPatterns, p.Name)
			}
		}
	}
	return s
}

var (
	layeredModuleName   = regexp.MustCompile(`(?i)(^|[^a-z])(routes?|routers?|controllers?|apis?|handlers?)([^a-z]|$)`)
	componentModuleName = regexp.MustCompile(`(?i)(^|[^a-z])(components?|views?|pages?|ui|screens?|widgets?)([^a-z]|$)`)
)

// InferArchitecture returns the semantic architecture type when present and
// otherwise applies module-name heuristics.
func InferArchitecture(reports *analysis.Reports) string {
	if reports.Semantic != nil && reports.Semantic.ArchitectureType != "" {
		return reports.Semantic.ArchitectureType
	}

	frontend := surface.IsFrontendLanguage(surface.DominantLanguage(reports.Surface))
	component := false
	for _, m := range reports.Surface.Modules {
		if layeredModuleName.MatchString(m.Path) || layeredModuleName.MatchString(m.Name) {
			return "layered"
		}
		if frontend && (componentModuleName.MatchString(m.Path) || componentModuleName.MatchString(m.Name)) {
			component = true
		}
	}
	if component {
		return "component-based"
	}
	return ArchitectureUnknown
}

// SectionID derives the id of a module section from its path.
func SectionID(modulePath string) string {
	var b strings.Builder
	b.WriteString("module_")
	for _, r := range modulePath {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func buildSections(reports *analysis.Reports, limits Limits) []analysis.ExpandableSection {
	sections := []analysis.ExpandableSection{}

	for i, m := range reports.Surface.Modules {
		if i == limits.MaxModuleSections {
			break
		}
		section := analysis.ExpandableSection{
			ID:    SectionID(m.Path),
			Title: moduleTitle(m),
			Type:  analysis.SectionModule,
		}
		if r, ok := reports.StructuralFor(m.Path); ok {
			section.CanExpand = true
			section.Summary = fmt.Sprintf("%s module, %d files (%s): %d symbols, %d imports, %d exports, ~%d lines",
				m.Type, m.FileCount, languageLabel(m.PrimaryLanguage), len(r.Symbols), len(r.Imports), len(r.Exports), r.Complexity.LinesOfCode)
			section.ExpansionCost = analysis.ExpansionCost{
				Detail: costOf(firstN(r.Symbols, limits.DetailSymbols)),
				Full:   costOf(r),
			}
		} else {
			section.Summary = fmt.Sprintf("%s module, %d files (%s): not analyzed structurally",
				m.Type, m.FileCount, languageLabel(m.PrimaryLanguage))
		}
		sections = append(sections, section)
	}

	sem := reports.Semantic
	if sem == nil {
		return sections
	}

	if len(sem.Patterns) > 0 {
		names := make([]string, 0, 3)
		for _, p := range firstN(sem.Patterns, 3) {
			names = append(names, p.Name)
		}
		sections = append(sections, analysis.ExpandableSection{
			ID:        PatternsSectionID,
			Title:     "Detected patterns",
			Type:      analysis.SectionPattern,
			Summary:   fmt.Sprintf("%d patterns detected: %s", len(sem.Patterns), strings.Join(names, ", ")),
			CanExpand: true,
			ExpansionCost: analysis.ExpansionCost{
				Detail: costOf(firstN(sem.Patterns, limits.DetailItems)),
				Full:   costOf(sem.Patterns),
			},
		})
	}
	if len(sem.DataModels) > 0 {
		names := make([]string, 0, 3)
		for _, d := range firstN(sem.DataModels, 3) {
			names = append(names, d.Name)
		}
		sections = append(sections, analysis.ExpandableSection{
			ID:        DataModelsSectionID,
			Title:     "Data models",
			Type:      analysis.SectionDataModel,
			Summary:   fmt.Sprintf("%d data models: %s", len(sem.DataModels), strings.Join(names, ", ")),
			CanExpand: true,
			ExpansionCost: analysis.ExpansionCost{
				Detail: costOf(firstN(sem.DataModels, limits.DetailItems)),
				Full:   costOf(sem.DataModels),
			},
		})
	}
	if len(sem.APIEndpoints) > 0 {
		sections = append(sections, analysis.ExpandableSection{
			ID:        APISectionID,
			Title:     "API endpoints",
			Type:      analysis.SectionAPI,
			Summary:   fmt.Sprintf("%d endpoints", len(sem.APIEndpoints)),
			CanExpand: true,
			ExpansionCost: analysis.ExpansionCost{
				Detail: costOf(firstN(sem.APIEndpoints, limits.DetailItems)),
				Full:   costOf(sem.APIEndpoints),
			},
		})
	}
	return sections
}

func moduleTitle(m analysis.ModuleInfo) string {
	if m.Name == m.Path || m.Name == "" {
		return "Module " + m.Path
	}
	return fmt.Sprintf("Module %s (%s)", m.Name, m.Path)
}

func languageLabel(lang string) string {
	if lang == "" {
		return "no code"
	}
	return lang
}

func costOf(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return EstimateTokens(data)
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
