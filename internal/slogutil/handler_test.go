package slogutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLineHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Phase complete", "phase", "surface", "files", 42)

	output := buf.String()
	for _, want := range []string{"[info] [surface] Phase complete | files=42"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLineHandler_QuotesSpaces(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("msg", "error", "no such file")

	if !strings.Contains(buf.String(), `error="no such file"`) {
		t.Errorf("expected quoted value, got: %s", buf.String())
	}
}

func TestLineHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("messages below warn should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Errorf("warn and error should be included, got: %s", output)
	}
}

func TestLineHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("analysisId", "a1").WithGroup("batch")

	logger.Info("Batch done", "index", 2)

	output := buf.String()
	if !strings.Contains(output, "[a1] Batch done") {
		t.Errorf("expected run tag, got: %s", output)
	}
	if !strings.Contains(output, "batch.index=2") {
		t.Errorf("expected grouped key, got: %s", output)
	}
}

func TestLineHandler_RunTag(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With(AnalysisIDKey, "3f2a9c1e-5b7d-4c1a-9e2f-0a1b2c3d4e5f")

	logger.Info("Analysis started", "source", "/repo")
	logger.With(PhaseKey, "structural").Info("Batch done", "batch", 1)
	logger.Info("Phase override", PhaseKey, "semantic")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	wants := []string{
		"[info] [3f2a9c1e] Analysis started | source=/repo",
		"[info] [3f2a9c1e structural] Batch done | batch=1",
		"[info] [3f2a9c1e semantic] Phase override",
	}
	for i, want := range wants {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
	if strings.Contains(buf.String(), "analysisId=") || strings.Contains(buf.String(), "phase=") {
		t.Errorf("run attributes should not repeat as key=value: %s", buf.String())
	}
	if strings.HasSuffix(lines[2], "|") {
		t.Errorf("a record with only run attributes should have no attribute separator: %q", lines[2])
	}
}

func TestLineHandler_GroupedRunKeysStayAttributes(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).WithGroup("job").Info("Queued", PhaseKey, "surface")

	if !strings.Contains(buf.String(), "] Queued | job.phase=surface") {
		t.Errorf("grouped phase should stay an attribute, got: %s", buf.String())
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "json", slog.LevelInfo).Info("hello", "k", "v")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["k"] != "v" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mcp.log")
	logger, f, err := NewFileLogger(path, "human", slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Info("written")
	_ = f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "written") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"off", Silent},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		expected  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{3, false, slog.LevelDebug},
		{0, true, Silent},
		{5, true, Silent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.expected {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.expected)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	logger.Error("error")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not enable error level")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		v    slog.Value
		want string
	}{
		{"plain", slog.StringValue("api"), "api"},
		{"empty", slog.StringValue(""), `""`},
		{"equals sign", slog.StringValue("a=b"), `"a=b"`},
		{"int", slog.IntValue(7), "7"},
		{"error", slog.AnyValue(errors.New("disk on fire")), `"disk on fire"`},
		{"group", slog.GroupValue(slog.Int("done", 2), slog.String("module", "api")), "{done=2 module=api}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.v); got != tt.want {
				t.Errorf("formatValue = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelInfo + 2, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError + 4, "error"},
	}
	for _, tt := range tests {
		if got := levelString(tt.level); got != tt.want {
			t.Errorf("levelString(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
