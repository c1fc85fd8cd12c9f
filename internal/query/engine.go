// Package query serves follow-up requests against cached analyses: section
// expansion, raw file reads from the analyzed root and ranked search.
package query

import (
	"errors"
	"log/slog"

	"archlens/internal/analysis"
	"archlens/internal/cache"
	"archlens/internal/disclosure"
	archerrors "archlens/internal/errors"
)

// Engine answers post-hoc requests from the result cache
type Engine struct {
	cache  *cache.ResultCache
	logger *slog.Logger
}

// NewEngine creates a query engine over c
func NewEngine(c *cache.ResultCache, logger *slog.Logger) *Engine {
	return &Engine{cache: c, logger: logger}
}

// lookup returns the live cache entry for an analysis id.
func (e *Engine) lookup(analysisID string) (*cache.Entry, error) {
	if analysisID == "" {
		return nil, archerrors.NewInvalidParameterError("analysisId", "is required")
	}
	entry, ok := e.cache.GetByAnalysisID(analysisID)
	if !ok {
		return nil, archerrors.NewAnalysisNotFoundError(analysisID)
	}
	return entry, nil
}

// Result returns the cached analysis result
func (e *Engine) Result(analysisID string) (*analysis.AnalysisResult, error) {
	entry, err := e.lookup(analysisID)
	if err != nil {
		return nil, err
	}
	return entry.Value.Result, nil
}

// Expand materializes one section of a cached analysis. The cached result is not modified.
func (e *Engine) Expand(analysisID, sectionID string, level analysis.ExpansionLevel) (*analysis.ExpandableSection, error) {
	entry, err := e.lookup(analysisID)
	if err != nil {
		return nil, err
	}

	section, err := disclosure.Expand(entry.Value.Result, &entry.Value.Reports, sectionID, level)
	switch {
	case err == nil:
		e.logger.Debug("Expanded section", "analysisId", analysisID, "section", sectionID, "level", level)
		return section, nil
	case errors.Is(err, disclosure.ErrSectionNotFound):
		return nil, archerrors.New(archerrors.SectionNotFound, "section not found: "+sectionID, err)
	case errors.Is(err, disclosure.ErrCannotExpand):
		return nil, archerrors.New(archerrors.CannotExpand, "section cannot be expanded: "+sectionID, err)
	case errors.Is(err, disclosure.ErrInvalidLevel):
		return nil, archerrors.NewInvalidParameterError("level", "must be detail or full")
	default:
		return nil, archerrors.New(archerrors.InternalError, "expanding section", err)
	}
}

// AnalysisInfo describes one live cached analysis
type AnalysisInfo struct {
	AnalysisID string         `json:"analysisId"`
	Source     string         `json:"source"`
	Depth      analysis.Depth `json:"depth"`
	CreatedAt  string         `json:"createdAt"`
	ExpiresAt  string         `json:"expiresAt"`
	Sections   int            `json:"sections"`
	TokenCost  int            `json:"tokenCost"`
}

// List returns the live analyses, oldest first.
func (e *Engine) List() []AnalysisInfo {
	entries := e.cache.List()
	out := make([]AnalysisInfo, 0, len(entries))
	for _, entry := range entries {
		r := entry.Value.Result
		out = append(out, AnalysisInfo{
			AnalysisID: r.AnalysisID,
			Source:     entry.Metadata.Source,
			Depth:      entry.Metadata.Depth,
			CreatedAt:  entry.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			ExpiresAt:  entry.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
			Sections:   len(r.Sections),
			TokenCost:  r.TokenCost,
		})
	}
	return out
}
