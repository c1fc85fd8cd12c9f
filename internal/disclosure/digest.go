package disclosure

import (
	"fmt"
	"strings"

	"archlens/internal/analysis"
)

const highComplexityFocus = 50

func buildDigest(reports *analysis.Reports, summary analysis.Summary, sections []analysis.ExpandableSection, limits Limits) analysis.ForAgent {
	return analysis.ForAgent{
		QuickSummary:       quickSummary(reports, summary),
		KeyInsights:        keyInsights(reports, summary),
		SuggestedNextSteps: nextSteps(reports, sections, limits),
	}
}

func quickSummary(reports *analysis.Reports, summary analysis.Summary) string {
	repo := reports.Surface.RepositoryMap
	var b strings.Builder

	fmt.Fprintf(&b, "%s is a %s-complexity repository with %d files in %d modules",
		repo.Name, summary.Complexity, repo.FileCount, len(reports.Surface.Modules))
	if summary.ArchitectureType != ArchitectureUnknown {
		fmt.Fprintf(&b, " following a %s architecture", summary.ArchitectureType)
	}
	b.WriteString(".")

	if len(summary.PrimaryPatterns) > 0 {
		fmt.Fprintf(&b, " Key patterns: %s.", strings.Join(firstN(summary.PrimaryPatterns, 3), ", "))
	}
	return b.String()
}

func keyInsights(reports *analysis.Reports, summary analysis.Summary) []string {
	insights := []string{}
	repo := reports.Surface.RepositoryMap

	if len(repo.Languages) > 1 {
		parts := make([]string, 0, 3)
		for _, l := range firstN(repo.Languages, 3) {
			parts = append(parts, fmt.Sprintf("%s %d%%", l.Language, l.Percentage))
		}
		insights = append(insights, fmt.Sprintf("Multi-language repository (%d languages): %s", len(repo.Languages), strings.Join(parts, ", ")))
	}
	if summary.Complexity == analysis.TierHigh {
		insights = append(insights, fmt.Sprintf("High complexity (score %d): analyze module by module", reports.Surface.Complexity))
	}
	if len(repo.EntryPoints) > 0 {
		insights = append(insights, "Entry points: "+strings.Join(firstN(repo.EntryPoints, 3), ", "))
	}
	if reports.Semantic != nil && len(reports.Semantic.Patterns) > 0 {
		names := make([]string, 0, 5)
		for _, p := range firstN(reports.Semantic.Patterns, 5) {
			names = append(names, p.Name)
		}
		insights = append(insights, "Detected patterns: "+strings.Join(names, ", "))
	}
	if reports.Semantic != nil {
		insights = append(insights, firstN(reports.Semantic.Insights, 3)...)
	}
	return insights
}

func nextSteps(reports *analysis.Reports, sections []analysis.ExpandableSection, limits Limits) []string {
	steps := []string{}

	var expandable []string
	hasPatterns := false
	for _, s := range sections {
		if s.ID == PatternsSectionID {
			hasPatterns = true
		}
		if s.CanExpand && len(expandable) < limits.MaxSuggestedSections {
			expandable = append(expandable, s.ID)
		}
	}

	if len(expandable) > 0 {
		steps = append(steps, "Expand sections for detail: "+strings.Join(expandable, ", "))
	}
	if !hasPatterns {
		steps = append(steps, "Enable semantic analysis (depth=deep) to detect patterns, data models and endpoints")
	}
	if reports.Surface.Complexity > highComplexityFocus {
		var core []string
		for _, m := range reports.Surface.Modules {
			if m.Type == analysis.ModuleCore && len(core) < 3 {
				core = append(core, m.Path)
			}
		}
		if len(core) > 0 {
			steps = append(steps, "Focus on core modules: "+strings.Join(core, ", "))
		} else {
			steps = append(steps, "Focus the analysis on core modules to stay within budget")
		}
	}
	return steps
}
