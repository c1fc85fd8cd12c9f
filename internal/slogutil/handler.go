// Package slogutil provides the slog handler and logger constructors used across archlens.
package slogutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Keys lifted out of the attribute list into the run tag.
const (
	AnalysisIDKey = "analysisId"
	PhaseKey      = "phase"
)

// shortIDLen keeps run tags readable; uuid prefixes of this length rarely collide in one log.
const shortIDLen = 8

// LineHandler writes one line per record, tagging lines that belong to an analysis run:
//
//	TIMESTAMP [level] [analysisId phase] Message | key=value key=value
//
// The run tag appears only when a top-level analysisId or phase attribute is present.
type LineHandler struct {
	w      io.Writer
	level  slog.Leveler
	run    runTag
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

// runTag is the analysis id and phase a logger is scoped to.
type runTag struct {
	id    string
	phase string
}

// absorb takes a top-level run attribute into the tag and reports whether it did.
func (t *runTag) absorb(a slog.Attr) bool {
	switch a.Key {
	case AnalysisIDKey:
		t.id = formatValue(a.Value)
	case PhaseKey:
		t.phase = formatValue(a.Value)
	default:
		return false
	}
	return true
}

func (t runTag) String() string {
	id := t.id
	if len(id) > shortIDLen {
		id = id[:shortIDLen]
	}
	switch {
	case id != "" && t.phase != "":
		return id + " " + t.phase
	case id != "":
		return id
	default:
		return t.phase
	}
}

// NewLineHandler creates a new line handler.
func NewLineHandler(w io.Writer, opts *slog.HandlerOptions) *LineHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &LineHandler{
		w:     w,
		level: level,
		mu:    &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	tag := h.run
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if len(h.groups) == 0 && tag.absorb(a) {
			return true
		}
		attrs = append(attrs, h.qualify(a))
		return true
	})

	var buf bytes.Buffer
	buf.WriteString(r.Time.UTC().Format(time.RFC3339))
	buf.WriteString(" [")
	buf.WriteString(levelString(r.Level))
	buf.WriteString("] ")
	if t := tag.String(); t != "" {
		buf.WriteString("[" + t + "] ")
	}
	buf.WriteString(r.Message)

	sep := " |"
	for _, a := range attrs {
		if a.Key == "" {
			continue
		}
		buf.WriteString(sep)
		sep = ""
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(a.Value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(clone.attrs, h.attrs)
	for _, a := range attrs {
		if len(h.groups) == 0 && clone.run.absorb(a) {
			continue
		}
		clone.attrs = append(clone.attrs, h.qualify(a))
	}
	return &clone
}

// WithGroup returns a new handler with the given group name added.
func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// qualify prefixes the attribute key with the open groups.
func (h *LineHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	return slog.Attr{Key: strings.Join(h.groups, ".") + "." + a.Key, Value: a.Value}
}

// levelNames buckets custom levels into the nearest standard name below them.
var levelNames = []struct {
	min  slog.Level
	name string
}{
	{slog.LevelError, "error"},
	{slog.LevelWarn, "warn"},
	{slog.LevelInfo, "info"},
}

func levelString(level slog.Level) string {
	for _, l := range levelNames {
		if level >= l.min {
			return l.name
		}
	}
	return "debug"
}

// formatValue renders a value for key=value output. Groups flatten to {k=v k=v}.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			parts = append(parts, a.Key+"="+formatValue(a.Value))
		}
		return "{" + strings.Join(parts, " ") + "}"
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=|") {
		return strconv.Quote(s)
	}
	return s
}
