package envelope

import "time"

// Builder constructs Response envelopes.
type Builder struct {
	resp *Response
}

// New creates a new envelope builder.
func New() *Builder {
	return &Builder{resp: &Response{SchemaVersion: CurrentSchemaVersion}}
}

// Data sets the tool-specific payload.
func (b *Builder) Data(data any) *Builder {
	b.resp.Data = data
	return b
}

func (b *Builder) meta() *Meta {
	if b.resp.Meta == nil {
		b.resp.Meta = &Meta{}
	}
	return b.resp.Meta
}

// WithTruncation records trimming. Nothing is recorded when truncated is false.
func (b *Builder) WithTruncation(truncated bool, shown, total int, reason string) *Builder {
	if !truncated {
		return b
	}
	b.meta().Truncation = &Truncation{IsTruncated: true, Shown: shown, Total: total, Reason: reason}
	return b
}

// WithCache records whether the payload came from a cached analysis created at createdAt.
func (b *Builder) WithCache(hit bool, analysisID string, createdAt, now time.Time) *Builder {
	info := &CacheInfo{Hit: hit, AnalysisID: analysisID}
	if hit && !createdAt.IsZero() {
		info.Age = now.Sub(createdAt).Truncate(time.Second).String()
	}
	b.meta().Cache = info
	return b
}

// Warning adds a warning message.
func (b *Builder) Warning(msg string) *Builder {
	b.resp.Warnings = append(b.resp.Warnings, Warning{Message: msg})
	return b
}

// Warnings adds several warning messages under one code.
func (b *Builder) Warnings(code string, msgs []string) *Builder {
	for _, m := range msgs {
		b.resp.Warnings = append(b.resp.Warnings, Warning{Code: code, Message: m})
	}
	return b
}

// Suggest adds a follow-up call.
func (b *Builder) Suggest(tool, reason string, params map[string]any) *Builder {
	b.resp.SuggestedNextCalls = append(b.resp.SuggestedNextCalls, SuggestedCall{Tool: tool, Params: params, Reason: reason})
	return b
}

// Build returns the envelope.
func (b *Builder) Build() *Response {
	return b.resp
}
