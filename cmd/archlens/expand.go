package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"archlens/internal/analysis"
	"archlens/internal/query"
)

var (
	expandLevel  string
	expandFormat string
)

var expandCmd = &cobra.Command{
	Use:   "expand <source> <section-id>",
	Short: "Analyze a repository and expand one section",
	Long: `Analyze a repository and print one expanded section.

The result cache lives in the process, so expand runs the analysis first and
expands the section from it. Use the MCP server to expand sections of a
previous analysis without re-running it.

Examples:
  archlens expand . module_internal
  archlens expand . module_src --level full
  archlens expand . patterns_overview --depth deep`,
	Args: cobra.ExactArgs(2),
	RunE: runExpand,
}

func init() {
	addAnalysisFlags(expandCmd)
	expandCmd.Flags().StringVar(&expandLevel, "level", string(analysis.LevelDetail), "Expansion level (detail, full)")
	expandCmd.Flags().StringVar(&expandFormat, "format", "", "Output format (json, human, yaml); default human on a terminal, json otherwise")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	format, err := resolveFormat(expandFormat)
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
	defer orch.Cache().Clear()

	result, err := orch.Analyze(ctx, analysisRequest(args[0]))
	if err != nil {
		return err
	}

	engine := query.NewEngine(orch.Cache(), logger)
	section, err := engine.Expand(result.AnalysisID, args[1], analysis.ExpansionLevel(expandLevel))
	if err != nil {
		return err
	}

	out, err := FormatResponse(section, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
