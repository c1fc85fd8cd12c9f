// Package orchestrator drives an analysis run through its phases
// (surface, structural, semantic, synthesis), tracks the token budget, records
// warnings and partial failures, and stores the finished result in the cache.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"archlens/internal/analysis"
	"archlens/internal/cache"
	"archlens/internal/config"
	"archlens/internal/disclosure"
	archerrors "archlens/internal/errors"
	"archlens/internal/semantic"
	"archlens/internal/slogutil"
	"archlens/internal/source"
	"archlens/internal/structural"
	"archlens/internal/surface"
	"archlens/internal/telemetry"
)

const (
	// TokensPerModule is the budget share that admits one module into the structural phase
	TokensPerModule = 50_000
	// MaxSemanticOutputTokens caps the semantic call's output
	MaxSemanticOutputTokens = 8192
)

// Phase is a pipeline state
type Phase string

const (
	PhaseSurface    Phase = "surface"
	PhaseStructural Phase = "structural"
	PhaseSemantic   Phase = "semantic"
	PhaseSynthesis  Phase = "synthesis"
	PhaseComplete   Phase = "complete"
)

// SourceResolver turns a source identifier into a local directory
type SourceResolver interface {
	Resolve(ctx context.Context, id string) (*source.Lease, error)
}

// SurfaceScanner produces the surface report
type SurfaceScanner interface {
	Scan(ctx context.Context, root string, opts surface.Options) (*analysis.SurfaceReport, error)
}

// StructuralExtractor produces one module's structural report
type StructuralExtractor interface {
	Extract(module analysis.ModuleInfo, files []structural.FileContent) (*analysis.StructuralReport, error)
}

// SemanticAnalyzer produces the semantic report
type SemanticAnalyzer interface {
	Analyze(ctx context.Context, surface *analysis.SurfaceReport, structural []analysis.StructuralReport, maxOutputTokens int) (*analysis.SemanticReport, semantic.Usage, error)
}

// Options tunes the pipeline
type Options struct {
	DefaultDepth      analysis.Depth
	TokenBudget       int
	BatchSize         int
	MaxFilesPerModule int
	MaxFileBytes      int64
	RespectGitignore  bool
	Exclude           []string
}

// DefaultOptions mirrors the default configuration
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

// OptionsFromConfig maps the analysis section of the configuration
func OptionsFromConfig(cfg *config.Config) Options {
	depth, ok := analysis.ParseDepth(cfg.Analysis.DefaultDepth)
	if !ok {
		depth = analysis.DepthStandard
	}
	return Options{
		DefaultDepth:      depth,
		TokenBudget:       cfg.Analysis.TokenBudget,
		BatchSize:         cfg.Analysis.BatchSize,
		MaxFilesPerModule: cfg.Analysis.MaxFilesPerModule,
		MaxFileBytes:      cfg.Analysis.MaxFileBytes,
		RespectGitignore:  cfg.Analysis.RespectGitignore,
		Exclude:           cfg.Analysis.Exclude,
	}
}

// Deps are the collaborators of an Orchestrator. Semantic and Metrics may be nil.
type Deps struct {
	Resolver  SourceResolver
	Scanner   SurfaceScanner
	Extractor StructuralExtractor
	Semantic  SemanticAnalyzer
	Cache     *cache.ResultCache
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// Orchestrator runs analyses. It is safe for concurrent use; each Analyze call
// owns its own run state and shares only the cache.
type Orchestrator struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// New creates an orchestrator, filling zero options from the defaults.
func New(deps Deps, opts Options) *Orchestrator {
	d := DefaultOptions()
	if opts.DefaultDepth == "" {
		opts.DefaultDepth = d.DefaultDepth
	}
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = d.TokenBudget
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = d.BatchSize
	}
	if opts.MaxFilesPerModule <= 0 {
		opts.MaxFilesPerModule = d.MaxFilesPerModule
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = d.MaxFileBytes
	}
	if deps.Cache == nil {
		deps.Cache = cache.New(cache.Options{})
	}
	if deps.Logger == nil {
		deps.Logger = slogutil.NewDiscardLogger()
	}
	return &Orchestrator{deps: deps, opts: opts, now: time.Now}
}

// Cache returns the result cache analyses are stored in
func (o *Orchestrator) Cache() *cache.ResultCache {
	return o.deps.Cache
}

// run is the per-request state. Only the orchestrating goroutine mutates it.
type run struct {
	id         string
	req        Request
	budget     int
	tokensUsed int
	warnings   []string
	failures   []analysis.PartialFailure
}

func (r *run) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *run) fail(layer analysis.Layer, module string, err error) {
	r.failures = append(r.failures, analysis.PartialFailure{Layer: layer, Module: module, Error: err.Error()})
}

// Analyze runs the pipeline for req. Only resolver, validation and surface
// failures are returned as errors; everything else degrades the result.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*analysis.AnalysisResult, error) {
	start := o.now()
	if req.Depth == "" {
		req.Depth = o.opts.DefaultDepth
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := &run{id: uuid.NewString(), req: req, budget: o.opts.TokenBudget}
	if req.TokenBudget > 0 {
		r.budget = req.TokenBudget
	}
	logger := o.deps.Logger.With(slogutil.AnalysisIDKey, r.id)
	logger.Info("Starting analysis", "source", req.Source, "depth", req.Depth, "budget", r.budget)

	lease, err := o.deps.Resolver.Resolve(ctx, req.Source)
	if err != nil {
		o.deps.Metrics.RecordAnalysis(string(req.Depth), "failed", 0)
		return nil, err
	}
	cached := false
	defer func() {
		if !cached {
			lease.Release()
		}
	}()

	o.enter(logger, PhaseSurface)
	phaseStart := o.now()
	surf, err := o.deps.Scanner.Scan(ctx, lease.Path, surface.Options{
		Exclude:     append(append([]string{}, o.opts.Exclude...), req.Exclude...),
		NoGitignore: !o.opts.RespectGitignore,
		NameHint:    lease.Name,
	})
	o.deps.Metrics.ObservePhase(string(PhaseSurface), o.now().Sub(phaseStart))
	if err != nil {
		o.deps.Metrics.RecordAnalysis(string(req.Depth), "failed", 0)
		var archErr *archerrors.ArchError
		if errors.As(err, &archErr) {
			return nil, err
		}
		return nil, archerrors.New(archerrors.ScanFailed, "surface scan failed", err)
	}

	r.tokensUsed = surf.RepositoryMap.EstimatedTokens
	if r.tokensUsed > r.budget {
		r.warn("repository is estimated at %d tokens, above the budget of %d; results are partial", r.tokensUsed, r.budget)
	}

	reports := analysis.Reports{Surface: surf}
	if req.Depth != analysis.DepthSurface {
		phaseStart = o.now()
		reports.Structural = o.runStructural(ctx, o.enter(logger, PhaseStructural), lease.Path, surf, r)
		o.deps.Metrics.ObservePhase(string(PhaseStructural), o.now().Sub(phaseStart))

		if req.wantsSemantics() {
			phaseStart = o.now()
			reports.Semantic = o.runSemantic(ctx, o.enter(logger, PhaseSemantic), &reports, r)
			o.deps.Metrics.ObservePhase(string(PhaseSemantic), o.now().Sub(phaseStart))
		}
	}

	o.enter(logger, PhaseSynthesis)
	phaseStart = o.now()
	built := disclosure.Build(&reports)
	if req.Depth == analysis.DepthSurface {
		built.Sections = []analysis.ExpandableSection{}
	}
	o.deps.Metrics.ObservePhase(string(PhaseSynthesis), o.now().Sub(phaseStart))

	result := &analysis.AnalysisResult{
		AnalysisID:      r.id,
		Timestamp:       start.UTC(),
		Source:          req.Source,
		Depth:           req.Depth,
		TokenCost:       r.tokensUsed,
		DurationMs:      o.now().Sub(start).Milliseconds(),
		RepositoryMap:   surf.RepositoryMap,
		Summary:         built.Summary,
		Sections:        built.Sections,
		ForAgent:        built.ForAgent,
		Warnings:        r.warnings,
		PartialFailures: r.failures,
	}

	o.deps.Cache.Set(req.Source, cache.Value{
		Result:   result,
		Reports:  reports,
		RootPath: lease.Path,
		Release:  lease.Release,
	}, req.Depth)
	cached = true

	outcome := "success"
	if len(r.failures) > 0 {
		outcome = "degraded"
	}
	for _, f := range r.failures {
		o.deps.Metrics.RecordPartialFailure(string(f.Layer))
	}
	o.deps.Metrics.RecordWarnings(len(r.warnings))
	o.deps.Metrics.RecordAnalysis(string(req.Depth), outcome, r.tokensUsed)

	o.enter(logger, PhaseComplete)
	logger.Info("Analysis complete",
		"modules", len(surf.Modules),
		"structural", len(reports.Structural),
		"semantic", reports.Semantic != nil,
		"tokens", r.tokensUsed,
		"warnings", len(r.warnings),
		"partialFailures", len(r.failures),
		"durationMs", result.DurationMs,
	)
	return result, nil
}

// enter logs the phase transition and returns a logger scoped to the phase.
func (o *Orchestrator) enter(logger *slog.Logger, phase Phase) *slog.Logger {
	plog := logger.With(slogutil.PhaseKey, string(phase))
	plog.Debug("Entering phase")
	return plog
}

// runSemantic calls the semantic layer with what is left of the budget.
func (o *Orchestrator) runSemantic(ctx context.Context, logger *slog.Logger, reports *analysis.Reports, r *run) *analysis.SemanticReport {
	if o.deps.Semantic == nil {
		r.fail(analysis.LayerSemantic, "", semantic.ErrNoCredential)
		return nil
	}

	maxTokens := min(MaxSemanticOutputTokens, r.budget-r.tokensUsed)
	report, usage, err := o.deps.Semantic.Analyze(ctx, reports.Surface, reports.Structural, maxTokens)
	r.tokensUsed += usage.Total()
	o.deps.Metrics.RecordSemanticTokens(usage.Total())
	if err != nil {
		logger.Warn("Semantic phase failed", "error", err.Error())
		r.fail(analysis.LayerSemantic, "", err)
		return nil
	}
	return report
}
