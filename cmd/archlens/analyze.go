package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"archlens/internal/analysis"
	"archlens/internal/orchestrator"
)

var (
	analyzeDepth    string
	analyzeFocus    string
	analyzeSemantic bool
	analyzeBudget   int
	analyzeExclude  []string
	analyzeFormat   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <source>",
	Short: "Analyze a repository's architecture",
	Long: `Analyze a repository and print its architecture summary.

The source may be a local directory, a file:// URL, a git URL (optionally
with #ref) or a .tar.gz archive URL.

Examples:
  archlens analyze .
  archlens analyze . --depth surface
  archlens analyze https://github.com/acme/widgets.git --focus api
  archlens analyze ./service --depth deep --budget 200000 --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	addAnalysisFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "", "Output format (json, human, yaml); default human on a terminal, json otherwise")
	rootCmd.AddCommand(analyzeCmd)
}

// addAnalysisFlags registers the flags shared by analyze and expand.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&analyzeDepth, "depth", "", "Analysis depth: surface, standard or deep (default from config)")
	cmd.Flags().StringVar(&analyzeFocus, "focus", "", "Restrict structural analysis to modules matching this path or name")
	cmd.Flags().BoolVar(&analyzeSemantic, "semantic", false, "Run semantic analysis at standard depth")
	cmd.Flags().IntVar(&analyzeBudget, "budget", 0, "Token budget (default from config)")
	cmd.Flags().StringSliceVar(&analyzeExclude, "exclude", nil, "Additional glob patterns to ignore (repeatable)")
}

func analysisRequest(src string) orchestrator.Request {
	return orchestrator.Request{
		Source:           src,
		Depth:            analysis.Depth(analyzeDepth),
		Focus:            analyzeFocus,
		IncludeSemantics: analyzeSemantic,
		TokenBudget:      analyzeBudget,
		Exclude:          analyzeExclude,
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := resolveFormat(analyzeFormat)
	if err != nil {
		return err
	}
	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(loaded.Config)

	ctx, cancel := newContext()
	defer cancel()

	orch, err := newOrchestrator(ctx, loaded.Config, logger, nil)
	if err != nil {
		return err
	}
	// Temporary clones are released when the cache is cleared.
	defer orch.Cache().Clear()

	result, err := orch.Analyze(ctx, analysisRequest(args[0]))
	if err != nil {
		return err
	}

	out, err := FormatResponse(result, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
