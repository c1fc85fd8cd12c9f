package query

import (
	"sort"
	"strings"

	"archlens/internal/analysis"
	"archlens/internal/disclosure"
	archerrors "archlens/internal/errors"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 200
)

// HitKind names what a search hit points at
type HitKind string

const (
	HitModule    HitKind = "module"
	HitSymbol    HitKind = "symbol"
	HitImport    HitKind = "import"
	HitPattern   HitKind = "pattern"
	HitDataModel HitKind = "data_model"
	HitEndpoint  HitKind = "endpoint"
)

// rank orders kinds when scores tie
func (k HitKind) rank() int {
	switch k {
	case HitModule:
		return 0
	case HitSymbol:
		return 1
	case HitPattern:
		return 2
	case HitDataModel:
		return 3
	case HitEndpoint:
		return 4
	default:
		return 5
	}
}

// Hit is one ranked search result
type Hit struct {
	Kind     HitKind `json:"kind"`
	Name     string  `json:"name"`
	Location string  `json:"location,omitempty"`
	Line     int     `json:"line,omitempty"`
	Score    float64 `json:"score"`

	// SectionID is the section to expand for more context
	SectionID string `json:"sectionId,omitempty"`
}

// SearchResult is the answer to Query
type SearchResult struct {
	AnalysisID string `json:"analysisId"`
	Query      string `json:"query"`
	Total      int    `json:"total"`
	Hits       []Hit  `json:"hits"`
	Truncated  bool   `json:"truncated,omitempty"`
}

// matchScore grades how well name matches the lowercase needle.
// Exact matches score 1, prefixes 0.8, substrings 0.6 and secondary text 0.3.
func matchScore(needle, name string, secondary ...string) float64 {
	n := strings.ToLower(name)
	switch {
	case n == needle:
		return 1.0
	case strings.HasPrefix(n, needle):
		return 0.8
	case strings.Contains(n, needle):
		return 0.6
	}
	for _, s := range secondary {
		if strings.Contains(strings.ToLower(s), needle) {
			return 0.3
		}
	}
	return 0
}

// Query searches the modules, symbols, imports and semantic findings of a
// cached analysis, case-insensitively, best matches first.
func (e *Engine) Query(analysisID, text string, limit int) (*SearchResult, error) {
	entry, err := e.lookup(analysisID)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil, archerrors.NewInvalidParameterError("query", "is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	hits := collectHits(&entry.Value.Reports, needle)
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Kind.rank() != hits[j].Kind.rank() {
			return hits[i].Kind.rank() < hits[j].Kind.rank()
		}
		return hits[i].Name < hits[j].Name
	})

	res := &SearchResult{AnalysisID: analysisID, Query: text, Total: len(hits), Hits: hits}
	if len(hits) > limit {
		res.Hits = hits[:limit]
		res.Truncated = true
	}
	return res, nil
}

func collectHits(reports *analysis.Reports, needle string) []Hit {
	hits := []Hit{}
	add := func(h Hit) {
		if h.Score > 0 {
			hits = append(hits, h)
		}
	}

	if reports.Surface != nil {
		for _, m := range reports.Surface.Modules {
			add(Hit{
				Kind:      HitModule,
				Name:      m.Name,
				Location:  m.Path,
				Score:     max(matchScore(needle, m.Name), matchScore(needle, m.Path)),
				SectionID: disclosure.SectionID(m.Path),
			})
		}
	}

	for _, r := range reports.Structural {
		section := disclosure.SectionID(r.ModulePath)
		for _, s := range r.Symbols {
			add(Hit{Kind: HitSymbol, Name: s.Name, Location: s.File, Line: s.Line, Score: matchScore(needle, s.Name), SectionID: section})
		}
		seen := make(map[string]bool)
		for _, imp := range r.Imports {
			if seen[imp.To] {
				continue
			}
			seen[imp.To] = true
			// Imports rank below declarations with the same text.
			add(Hit{Kind: HitImport, Name: imp.To, Location: imp.From, Score: matchScore(needle, imp.To) * 0.9, SectionID: section})
		}
	}

	if sem := reports.Semantic; sem != nil {
		for _, p := range sem.Patterns {
			add(Hit{Kind: HitPattern, Name: p.Name, Location: strings.Join(p.Locations, ", "),
				Score: matchScore(needle, p.Name, p.Description), SectionID: disclosure.PatternsSectionID})
		}
		for _, dm := range sem.DataModels {
			add(Hit{Kind: HitDataModel, Name: dm.Name,
				Score: matchScore(needle, dm.Name, dm.Fields...), SectionID: disclosure.DataModelsSectionID})
		}
		for _, ep := range sem.APIEndpoints {
			add(Hit{Kind: HitEndpoint, Name: strings.TrimSpace(ep.Method + " " + ep.Path),
				Score: max(matchScore(needle, ep.Path, ep.Purpose), matchScore(needle, ep.Method+" "+ep.Path)), SectionID: disclosure.APISectionID})
		}
	}
	return hits
}
