package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"archlens/internal/config"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file and ARCHLENS_*
environment overrides have been applied.

Examples:
  archlens config show
  archlens config show --format toml
  ARCHLENS_ANALYSIS_TOKENBUDGET=200000 archlens config show --format json`,
	RunE: runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables that override config keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range config.GetSupportedEnvVars() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (human, json, yaml, toml)")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig()
	if err != nil {
		return err
	}

	out, err := formatConfig(loaded, configFormat)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func formatConfig(loaded *config.LoadResult, format string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		return formatJSON(loaded.Config)
	case "yaml", "yml":
		return formatYAML(loaded.Config)
	case "toml":
		return formatTOML(loaded.Config)
	case "human", "":
		body, err := formatYAML(loaded.Config)
		if err != nil {
			return "", err
		}
		origin := "defaults"
		if !loaded.UsedDefaults {
			origin = loaded.ConfigPath
		}
		return "# source: " + origin + "\n" + body, nil
	default:
		return "", fmt.Errorf("unsupported format %q (human, json, yaml, toml)", format)
	}
}

// formatTOML goes through JSON so keys match the JSON and YAML output.
func formatTOML(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(integralNumbers(generic)); err != nil {
		return "", fmt.Errorf("failed to marshal TOML: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// integralNumbers turns whole float64 values back into int64 so TOML prints 5, not 5.0.
func integralNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = integralNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = integralNumbers(val)
		}
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	default:
		return v
	}
}
