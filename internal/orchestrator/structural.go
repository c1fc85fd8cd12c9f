package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"archlens/internal/analysis"
	"archlens/internal/paths"
	"archlens/internal/structural"
	"archlens/internal/surface"
)

// maxModulesFor returns how many modules a budget admits, ceil(budget/TokensPerModule).
func maxModulesFor(budget int) int {
	if budget <= 0 {
		return 0
	}
	return (budget + TokensPerModule - 1) / TokensPerModule
}

// selectModules applies the focus filter and the budget cap.
func (o *Orchestrator) selectModules(logger *slog.Logger, modules []analysis.ModuleInfo, r *run) []analysis.ModuleInfo {
	selected := modules
	if focus := strings.TrimSpace(r.req.Focus); focus != "" {
		matched := filterByFocus(modules, focus)
		if len(matched) == 0 {
			r.warn("focus %q matched no module; analyzing all modules", focus)
		} else {
			selected = matched
		}
	}

	if limit := maxModulesFor(r.budget); len(selected) > limit {
		logger.Info("Truncating modules to fit the token budget", "modules", len(selected), "limit", limit)
		selected = selected[:limit]
	}
	return selected
}

func filterByFocus(modules []analysis.ModuleInfo, focus string) []analysis.ModuleInfo {
	f := strings.ToLower(focus)
	var out []analysis.ModuleInfo
	for _, m := range modules {
		p := strings.ToLower(m.Path)
		// "." is contained in every dotted focus such as a file name.
		reverse := m.Path != surface.RootModulePath && strings.Contains(f, p)
		if strings.Contains(p, f) || reverse || strings.EqualFold(m.Name, focus) {
			out = append(out, m)
		}
	}
	return out
}

// runStructural extracts the selected modules in sequential batches of
// concurrent extractions. The merged list keeps module order.
func (o *Orchestrator) runStructural(ctx context.Context, logger *slog.Logger, root string, surf *analysis.SurfaceReport, r *run) []analysis.StructuralReport {
	modules := o.selectModules(logger, surf.Modules, r)
	reports := make([]analysis.StructuralReport, 0, len(modules))

	for start := 0; start < len(modules); start += o.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			logger.Warn("Structural phase interrupted", "error", err.Error())
			r.fail(analysis.LayerStructural, "", err)
			return []analysis.StructuralReport{}
		}

		batch := modules[start:min(start+o.opts.BatchSize, len(modules))]
		slots := make([]*analysis.StructuralReport, len(batch))
		errs := make([]error, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, module := range batch {
			g.Go(func() error {
				slots[i], errs[i] = o.extractModule(gctx, root, module)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			logger.Warn("Structural phase interrupted", "error", err.Error())
			r.fail(analysis.LayerStructural, "", err)
			return []analysis.StructuralReport{}
		}

		for i, module := range batch {
			if errs[i] != nil {
				logger.Warn("Structural extraction failed", "module", module.Path, "error", errs[i].Error())
				r.fail(analysis.LayerStructural, module.Path, errs[i])
				continue
			}
			if slots[i] != nil {
				reports = append(reports, *slots[i])
			}
		}
		logger.Debug("Structural batch complete", "batch", start/o.opts.BatchSize, "modules", len(batch))
	}

	if data, err := json.Marshal(reports); err == nil {
		r.tokensUsed += len(data) / 4
	}
	return reports
}

// extractModule loads a module's files and runs the extractor, turning a
// panic into an error for this module only.
func (o *Orchestrator) extractModule(ctx context.Context, root string, module analysis.ModuleInfo) (report *analysis.StructuralReport, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			report, err = nil, fmt.Errorf("extraction panicked: %v", rec)
		}
	}()

	files, err := o.loadFiles(ctx, root, module.Files)
	if err != nil {
		return nil, err
	}
	return o.deps.Extractor.Extract(module, files)
}

// loadFiles reads up to MaxFilesPerModule files concurrently. Oversized,
// irregular and missing files are skipped before the cap is applied.
func (o *Orchestrator) loadFiles(ctx context.Context, root string, rel []string) ([]structural.FileContent, error) {
	eligible := make([]string, 0, min(len(rel), o.opts.MaxFilesPerModule))
	for _, p := range rel {
		if len(eligible) == o.opts.MaxFilesPerModule {
			break
		}
		info, err := os.Stat(paths.JoinRepoPath(root, p))
		if err != nil || !info.Mode().IsRegular() || info.Size() > o.opts.MaxFileBytes {
			continue
		}
		eligible = append(eligible, p)
	}
	rel = eligible
	slots := make([]*structural.FileContent, len(rel))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range rel {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(paths.JoinRepoPath(root, p))
			if err != nil {
				return nil
			}
			slots[i] = &structural.FileContent{Path: p, Content: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make([]structural.FileContent, 0, len(slots))
	for _, f := range slots {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}
