// Package envelope provides the response wrapper for MCP tool results.
// Every tool answer carries the same shape: data, optional truncation and cache
// metadata, warnings, a structured error and suggested follow-up calls.
package envelope

import (
	stderrors "errors"

	archerrors "archlens/internal/errors"
)

// CurrentSchemaVersion is the envelope schema version.
const CurrentSchemaVersion = "1.0"

// Truncation describes result trimming.
type Truncation struct {
	IsTruncated bool   `json:"isTruncated"`
	Shown       int    `json:"shown,omitempty"`
	Total       int    `json:"total,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// CacheInfo says whether the answer came from a cached analysis.
type CacheInfo struct {
	Hit        bool   `json:"hit"`
	AnalysisID string `json:"analysisId,omitempty"`
	Age        string `json:"age,omitempty"`
}

// Meta holds response metadata.
type Meta struct {
	Truncation *Truncation `json:"truncation,omitempty"`
	Cache      *CacheInfo  `json:"cache,omitempty"`
}

// SuggestedCall is a recommended follow-up tool call.
type SuggestedCall struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// Warning is a non-fatal issue.
type Warning struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ErrorInfo is the machine-readable form of a failed call.
type ErrorInfo struct {
	Code    archerrors.ErrorCode `json:"code"`
	Message string               `json:"message"`
}

// Response is the standard envelope.
type Response struct {
	SchemaVersion      string          `json:"schemaVersion"`
	Data               any             `json:"data"`
	Meta               *Meta           `json:"meta,omitempty"`
	Warnings           []Warning       `json:"warnings,omitempty"`
	Error              *ErrorInfo      `json:"error,omitempty"`
	SuggestedNextCalls []SuggestedCall `json:"suggestedNextCalls,omitempty"`
}

// FromError builds an error envelope. Drilldowns attached to an ArchError
// become suggested calls.
func FromError(err error) *Response {
	resp := &Response{SchemaVersion: CurrentSchemaVersion}
	var archErr *archerrors.ArchError
	if stderrors.As(err, &archErr) {
		msg := archErr.Message
		if cause := archErr.Unwrap(); cause != nil {
			msg += ": " + cause.Error()
		}
		resp.Error = &ErrorInfo{Code: archErr.Code, Message: msg}
		for _, d := range archErr.Drilldowns {
			resp.SuggestedNextCalls = append(resp.SuggestedNextCalls, SuggestedCall{Tool: d.Tool, Reason: d.Label})
		}
		return resp
	}
	resp.Error = &ErrorInfo{Code: archerrors.InternalError, Message: err.Error()}
	return resp
}
