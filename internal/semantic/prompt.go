package semantic

import (
	"encoding/json"
	"fmt"
	"strings"

	"archlens/internal/analysis"
)

const (
	maxPromptModules     = 20
	maxPromptSymbols     = 15
	maxPromptImports     = 15
	maxPromptLanguages   = 8
	maxPromptEntryPoints = 10
)

// PromptContext is the bounded digest of surface and structural output sent to the service.
type PromptContext struct {
	RepositoryName string         `json:"repositoryName"`
	FileCount      int            `json:"fileCount"`
	Complexity     int            `json:"complexity"`
	Languages      []string       `json:"languages"`
	EntryPoints    []string       `json:"entryPoints"`
	Modules        []ModuleDigest `json:"modules"`
}

// ModuleDigest summarizes one module for the prompt
type ModuleDigest struct {
	Path       string   `json:"path"`
	Type       string   `json:"type"`
	Language   string   `json:"language,omitempty"`
	FileCount  int      `json:"fileCount"`
	Symbols    []string `json:"symbols,omitempty"`
	Imports    []string `json:"imports,omitempty"`
	Exports    int      `json:"exports,omitempty"`
	Cyclomatic int      `json:"cyclomatic,omitempty"`
}

// NewPromptContext digests the reports, keeping the surface module order.
func NewPromptContext(surface *analysis.SurfaceReport, structural []analysis.StructuralReport) PromptContext {
	pc := PromptContext{Languages: []string{}, EntryPoints: []string{}, Modules: []ModuleDigest{}}
	if surface == nil {
		return pc
	}

	pc.RepositoryName = surface.RepositoryMap.Name
	pc.FileCount = surface.RepositoryMap.FileCount
	pc.Complexity = surface.Complexity
	for i, l := range surface.RepositoryMap.Languages {
		if i == maxPromptLanguages {
			break
		}
		pc.Languages = append(pc.Languages, fmt.Sprintf("%s (%d%%)", l.Language, l.Percentage))
	}
	pc.EntryPoints = append(pc.EntryPoints, firstN(surface.RepositoryMap.EntryPoints, maxPromptEntryPoints)...)

	reports := make(map[string]*analysis.StructuralReport, len(structural))
	for i := range structural {
		reports[structural[i].ModulePath] = &structural[i]
	}

	for i, m := range surface.Modules {
		if i == maxPromptModules {
			break
		}
		d := ModuleDigest{
			Path:      m.Path,
			Type:      string(m.Type),
			Language:  m.PrimaryLanguage,
			FileCount: m.FileCount,
		}
		if r, ok := reports[m.Path]; ok {
			for _, s := range r.Symbols {
				if len(d.Symbols) == maxPromptSymbols {
					break
				}
				d.Symbols = append(d.Symbols, string(s.Kind)+" "+s.Name)
			}
			seen := make(map[string]bool)
			for _, imp := range r.Imports {
				if len(d.Imports) == maxPromptImports {
					break
				}
				if !seen[imp.To] {
					seen[imp.To] = true
					d.Imports = append(d.Imports, imp.To)
				}
			}
			d.Exports = len(r.Exports)
			d.Cyclomatic = r.Complexity.CyclomaticEstimate
		}
		pc.Modules = append(pc.Modules, d)
	}
	return pc
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

const systemPrompt = `You are a software architecture analyst. You receive a JSON digest of a repository ` +
	`(languages, entry points, modules with their main symbols and imports) and answer with a single JSON object ` +
	`and nothing else.`

const responseShape = `{
  "architectureType": "string, e.g. layered, hexagonal, microservices, monolith, component-based, pipeline, library",
  "patterns": [{"name": "string", "kind": "architectural|design|anti-pattern", "confidence": 0.0, "locations": ["path"], "description": "string"}],
  "dataModels": [{"name": "string", "fields": ["string"], "relationships": ["string"]}],
  "apiEndpoints": [{"path": "string", "method": "GET|POST|PUT|PATCH|DELETE|RPC|CLI", "purpose": "string"}],
  "crossFileRelationships": [{"from": "path", "to": "path", "relationship": "string"}],
  "insights": ["string"]
}`

// BuildPrompt returns the system and user messages for a prompt context.
func BuildPrompt(pc PromptContext) (system, user string, err error) {
	in, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding prompt context: %w", err)
	}

	var b strings.Builder
	b.WriteString("Classify the architecture of this repository. Detect architectural and design patterns ")
	b.WriteString("and anti-patterns with a confidence between 0 and 1, infer the main data models and ")
	b.WriteString("externally visible endpoints, and list notable cross-file relationships.\n")
	b.WriteString("Only report what the digest supports. Use repository-relative paths for locations.\n\n")
	b.WriteString("Respond with JSON of this shape:\n")
	b.WriteString(responseShape)
	b.WriteString("\n\n[REPOSITORY DIGEST]\n")
	b.Write(in)
	return systemPrompt, b.String(), nil
}

// ParseReport decodes a service response into a SemanticReport. Code fences are
// tolerated, confidences are clamped and unknown pattern kinds fall back to design.
func ParseReport(text string) (*analysis.SemanticReport, error) {
	body := stripFences(strings.TrimSpace(text))
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var report analysis.SemanticReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("decoding semantic response: %w", err)
	}
	normalizeReport(&report)
	return &report, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

func normalizeReport(r *analysis.SemanticReport) {
	r.ArchitectureType = strings.TrimSpace(r.ArchitectureType)

	patterns := make([]analysis.Pattern, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			continue
		}
		switch p.Kind {
		case analysis.PatternArchitectural, analysis.PatternDesign, analysis.PatternAnti:
		default:
			p.Kind = analysis.PatternDesign
		}
		p.Confidence = min(max(p.Confidence, 0), 1)
		if p.Locations == nil {
			p.Locations = []string{}
		}
		patterns = append(patterns, p)
	}
	r.Patterns = patterns

	if r.DataModels == nil {
		r.DataModels = []analysis.DataModel{}
	}
	if r.APIEndpoints == nil {
		r.APIEndpoints = []analysis.APIEndpoint{}
	}
	if r.CrossFileRelationships == nil {
		r.CrossFileRelationships = []analysis.Relationship{}
	}
	if r.Insights == nil {
		r.Insights = []string{}
	}
}
