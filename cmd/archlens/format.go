package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"archlens/internal/analysis"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

// resolveFormat returns the requested format, or human on a terminal and JSON otherwise.
func resolveFormat(flag string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(flag)) {
	case "":
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return FormatHuman, nil
		}
		return FormatJSON, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatHuman:
		return FormatHuman, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (json, human, yaml)", flag)
	}
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp any, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp any) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML goes through JSON so field names match the JSON output.
func formatYAML(resp any) (string, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func formatHuman(resp any) (string, error) {
	switch v := resp.(type) {
	case *analysis.AnalysisResult:
		return formatResultHuman(v), nil
	case *analysis.ExpandableSection:
		return formatSectionHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatResultHuman(r *analysis.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s)\n", r.RepositoryMap.Name, r.Source)
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	fmt.Fprintf(&b, "Analysis:     %s\n", r.AnalysisID)
	fmt.Fprintf(&b, "Depth:        %s\n", r.Depth)
	fmt.Fprintf(&b, "Architecture: %s\n", r.Summary.ArchitectureType)
	fmt.Fprintf(&b, "Complexity:   %s\n", r.Summary.Complexity)
	fmt.Fprintf(&b, "Files:        %d (~%d tokens)\n", r.RepositoryMap.FileCount, r.RepositoryMap.EstimatedTokens)
	fmt.Fprintf(&b, "Token cost:   %d, %dms\n", r.TokenCost, r.DurationMs)

	if len(r.RepositoryMap.Languages) > 0 {
		b.WriteString("\nLanguages:\n")
		for _, l := range r.RepositoryMap.Languages {
			fmt.Fprintf(&b, "  %-14s %4d files  %3d%%\n", l.Language, l.FileCount, l.Percentage)
		}
	}
	if len(r.Summary.PrimaryPatterns) > 0 {
		fmt.Fprintf(&b, "\nPatterns: %s\n", strings.Join(r.Summary.PrimaryPatterns, ", "))
	}

	if len(r.Sections) > 0 {
		b.WriteString("\nSections:\n")
		for _, s := range r.Sections {
			marker := " "
			if s.CanExpand {
				marker = "+"
			}
			fmt.Fprintf(&b, "  %s %-32s %s (detail ~%d, full ~%d tokens)\n", marker, s.ID, s.Summary, s.ExpansionCost.Detail, s.ExpansionCost.Full)
		}
	}

	b.WriteString("\n" + r.ForAgent.QuickSummary + "\n")
	if len(r.ForAgent.KeyInsights) > 0 {
		b.WriteString("\nInsights:\n")
		for _, i := range r.ForAgent.KeyInsights {
			fmt.Fprintf(&b, "  - %s\n", i)
		}
	}
	if len(r.ForAgent.SuggestedNextSteps) > 0 {
		b.WriteString("\nNext steps:\n")
		for _, s := range r.ForAgent.SuggestedNextSteps {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}

	if len(r.Warnings) > 0 || len(r.PartialFailures) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", w)
		}
		for _, pf := range r.PartialFailures {
			if pf.Module != "" {
				fmt.Fprintf(&b, "  ! %s failed for %s: %s\n", pf.Layer, pf.Module, pf.Error)
			} else {
				fmt.Fprintf(&b, "  ! %s failed: %s\n", pf.Layer, pf.Error)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSectionHuman(s *analysis.ExpandableSection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", s.Title, s.ID)
	b.WriteString(strings.Repeat("-", 60) + "\n")

	payload := s.Full
	if payload == nil {
		payload = s.Detail
	}
	if payload == nil {
		b.WriteString(s.Summary)
		return b.String()
	}

	switch {
	case payload.Module != nil:
		m := payload.Module
		fmt.Fprintf(&b, "Complexity: cyclomatic %d, %d lines, %d functions, %d classes\n",
			m.Complexity.CyclomaticEstimate, m.Complexity.LinesOfCode, m.Complexity.FunctionCount, m.Complexity.ClassCount)
		b.WriteString("\nSymbols:\n")
		for _, sym := range m.Symbols {
			fmt.Fprintf(&b, "  %-10s %s  %s:%d\n", sym.Kind, sym.Name, sym.File, sym.Line)
		}
		if len(m.Imports) > 0 {
			b.WriteString("\nImports:\n")
			for _, imp := range m.Imports {
				fmt.Fprintf(&b, "  %s -> %s\n", imp.From, imp.To)
			}
		}
		if len(m.Exports) > 0 {
			fmt.Fprintf(&b, "\nExports: %s\n", strings.Join(m.Exports, ", "))
		}
	case payload.Patterns != nil:
		for _, p := range payload.Patterns.Patterns {
			fmt.Fprintf(&b, "  %s (%s, %.2f): %s\n", p.Name, p.Kind, p.Confidence, p.Description)
		}
	case payload.DataModels != nil:
		for _, dm := range payload.DataModels.DataModels {
			fmt.Fprintf(&b, "  %s {%s}\n", dm.Name, strings.Join(dm.Fields, ", "))
		}
	case payload.APIs != nil:
		for _, ep := range payload.APIs.Endpoints {
			fmt.Fprintf(&b, "  %-6s %s  %s\n", ep.Method, ep.Path, ep.Purpose)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
