package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"archlens/internal/analysis"
	"archlens/internal/disclosure"
	"archlens/internal/envelope"
	"archlens/internal/orchestrator"
	"archlens/internal/query"
)

// Tool names
const (
	ToolAnalyze      = "analyze_repository"
	ToolExpand       = "expand_section"
	ToolReadFiles    = "read_files"
	ToolQuery        = "query_analysis"
	ToolListAnalyses = "list_analyses"
)

type toolDef struct {
	tool    mcpgo.Tool
	handler server.ToolHandlerFunc
}

func (s *Server) tools() []toolDef {
	return []toolDef{
		{
			tool: mcpgo.NewTool(ToolAnalyze,
				mcpgo.WithDescription("Analyze a repository's architecture. Returns a compact summary, expandable sections "+
					"and an agent digest; expand sections afterwards with expand_section using the returned analysisId."),
				mcpgo.WithString("source", mcpgo.Required(),
					mcpgo.Description("Local directory, file:// URL, git URL (optionally #ref) or .tar.gz URL")),
				mcpgo.WithString("depth", mcpgo.Enum("surface", "standard", "deep"),
					mcpgo.Description("surface: file scan only; standard: adds symbols and imports; deep: adds semantic analysis")),
				mcpgo.WithString("focus", mcpgo.Description("Restrict structural analysis to modules matching this path or name")),
				mcpgo.WithBoolean("include_semantics", mcpgo.Description("Run semantic analysis at standard depth")),
				mcpgo.WithNumber("token_budget", mcpgo.Description("Token budget for the whole analysis (default 100000)")),
				mcpgo.WithArray("exclude", mcpgo.Items(map[string]any{"type": "string"}),
					mcpgo.Description("Additional glob patterns to ignore, e.g. **/*.gen.go")),
				mcpgo.WithBoolean("reuse", mcpgo.Description("Return a live cached analysis of the same source and depth instead of re-analyzing")),
			),
			handler: s.handleAnalyze,
		},
		{
			tool: mcpgo.NewTool(ToolExpand,
				mcpgo.WithDescription("Expand one section of a previous analysis to detail (bounded) or full level."),
				mcpgo.WithString("analysis_id", mcpgo.Required(), mcpgo.Description("analysisId returned by analyze_repository")),
				mcpgo.WithString("section_id", mcpgo.Required(), mcpgo.Description("Section id, e.g. module_src or patterns_overview")),
				mcpgo.WithString("level", mcpgo.Enum("detail", "full"), mcpgo.Description("Expansion level (default detail)")),
			),
			handler: s.handleExpand,
		},
		{
			tool: mcpgo.NewTool(ToolReadFiles,
				mcpgo.WithDescription("Read files from the repository a previous analysis ran on. Paths are repository-relative."),
				mcpgo.WithString("analysis_id", mcpgo.Required(), mcpgo.Description("analysisId returned by analyze_repository")),
				mcpgo.WithArray("paths", mcpgo.Required(), mcpgo.Items(map[string]any{"type": "string"}),
					mcpgo.Description(fmt.Sprintf("Repository-relative file paths (at most %d)", query.MaxFilesPerRead))),
				mcpgo.WithNumber("max_bytes", mcpgo.Description("Per-file byte cap (default 100000)")),
			),
			handler: s.handleReadFiles,
		},
		{
			tool: mcpgo.NewTool(ToolQuery,
				mcpgo.WithDescription("Search a previous analysis for modules, symbols, imports, patterns, data models and endpoints."),
				mcpgo.WithString("analysis_id", mcpgo.Required(), mcpgo.Description("analysisId returned by analyze_repository")),
				mcpgo.WithString("query", mcpgo.Required(), mcpgo.Description("Case-insensitive search text")),
				mcpgo.WithNumber("limit", mcpgo.Description("Maximum hits (default 20, max 200)")),
			),
			handler: s.handleQuery,
		},
		{
			tool: mcpgo.NewTool(ToolListAnalyses,
				mcpgo.WithDescription("List the analyses still held in the cache."),
			),
			handler: s.handleList,
		},
	}
}

func (s *Server) handleAnalyze(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	areq := orchestrator.Request{
		Source:           req.GetString("source", ""),
		Depth:            analysis.Depth(req.GetString("depth", "")),
		Focus:            req.GetString("focus", ""),
		IncludeSemantics: req.GetBool("include_semantics", false),
		TokenBudget:      int(req.GetFloat("token_budget", 0)),
		Exclude:          stringSlice(req.GetArguments()["exclude"]),
	}

	if req.GetBool("reuse", false) {
		if entry, ok := s.cache.Get(areq.Source); ok && (areq.Depth == "" || entry.Metadata.Depth == areq.Depth) {
			s.logger.Debug("Serving cached analysis", "source", areq.Source, "analysisId", entry.Value.Result.AnalysisID)
			b := analyzeEnvelope(entry.Value.Result, &entry.Value.Reports)
			b.WithCache(true, entry.Value.Result.AnalysisID, entry.CreatedAt, s.now())
			return respond(b.Build())
		}
	}

	result, err := s.orch.Analyze(ctx, areq)
	if err != nil {
		return s.fail(ToolAnalyze, err)
	}

	var reports *analysis.Reports
	if entry, ok := s.cache.GetByAnalysisID(result.AnalysisID); ok {
		reports = &entry.Value.Reports
	}
	b := analyzeEnvelope(result, reports)
	b.WithCache(false, result.AnalysisID, result.Timestamp, s.now())
	return respond(b.Build())
}

// analyzeEnvelope wraps a result with its warnings, truncation and follow-ups.
func analyzeEnvelope(result *analysis.AnalysisResult, reports *analysis.Reports) *envelope.Builder {
	b := envelope.New().Data(result)
	b.Warnings("analysis", result.Warnings)
	for _, pf := range result.PartialFailures {
		msg := fmt.Sprintf("%s layer failed: %s", pf.Layer, pf.Error)
		if pf.Module != "" {
			msg = fmt.Sprintf("%s layer failed for %s: %s", pf.Layer, pf.Module, pf.Error)
		}
		b.Warnings("partial_failure", []string{msg})
	}

	if reports != nil && reports.Surface != nil {
		shown := 0
		for _, sec := range result.Sections {
			if sec.Type == analysis.SectionModule {
				shown++
			}
		}
		total := len(reports.Surface.Modules)
		b.WithTruncation(shown > 0 && total > shown, shown, total, "max-module-sections")
	}

	suggested := 0
	for _, sec := range result.Sections {
		if !sec.CanExpand || suggested == disclosure.DefaultLimits().MaxSuggestedSections {
			continue
		}
		b.Suggest(ToolExpand, "Expand "+sec.Title, map[string]any{
			"analysis_id": result.AnalysisID,
			"section_id":  sec.ID,
			"level":       string(analysis.LevelDetail),
		})
		suggested++
	}
	return b
}

func (s *Server) handleExpand(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	analysisID := req.GetString("analysis_id", "")
	sectionID := req.GetString("section_id", "")
	level := analysis.ExpansionLevel(req.GetString("level", string(analysis.LevelDetail)))

	section, err := s.engine.Expand(analysisID, sectionID, level)
	if err != nil {
		return s.fail(ToolExpand, err)
	}

	b := envelope.New().Data(section)
	if level == analysis.LevelDetail && payloadTruncated(section.Detail) {
		b.WithTruncation(true, 0, 0, "detail-limit")
		b.Suggest(ToolExpand, "Expand to full level for the complete lists", map[string]any{
			"analysis_id": analysisID,
			"section_id":  sectionID,
			"level":       string(analysis.LevelFull),
		})
	}
	return respond(b.Build())
}

func payloadTruncated(p *analysis.SectionPayload) bool {
	switch {
	case p == nil:
		return false
	case p.Module != nil:
		return p.Module.Truncated
	case p.Patterns != nil:
		return p.Patterns.Truncated
	case p.DataModels != nil:
		return p.DataModels.Truncated
	case p.APIs != nil:
		return p.APIs.Truncated
	}
	return false
}

func (s *Server) handleReadFiles(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	analysisID := req.GetString("analysis_id", "")
	files, err := s.engine.ReadFiles(analysisID, stringSlice(req.GetArguments()["paths"]), int(req.GetFloat("max_bytes", 0)))
	if err != nil {
		return s.fail(ToolReadFiles, err)
	}

	b := envelope.New().Data(files)
	for _, f := range files {
		if f.Error != "" {
			b.Warning(fmt.Sprintf("%s: %s", f.Path, f.Error))
		}
		if f.Truncated {
			b.Warning(fmt.Sprintf("%s: truncated to max_bytes", f.Path))
		}
	}
	return respond(b.Build())
}

func (s *Server) handleQuery(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	res, err := s.engine.Query(req.GetString("analysis_id", ""), req.GetString("query", ""), int(req.GetFloat("limit", 0)))
	if err != nil {
		return s.fail(ToolQuery, err)
	}
	b := envelope.New().Data(res).WithTruncation(res.Truncated, len(res.Hits), res.Total, "limit")
	return respond(b.Build())
}

func (s *Server) handleList(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return respond(envelope.New().Data(s.engine.List()).Build())
}

// stringSlice accepts a JSON array of strings or a comma separated string.
func stringSlice(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				out = append(out, strings.TrimSpace(str))
			}
		}
	case []string:
		for _, str := range t {
			if strings.TrimSpace(str) != "" {
				out = append(out, strings.TrimSpace(str))
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
