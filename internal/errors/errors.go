package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// SourceUnresolvable indicates the source could not be turned into a local directory
	SourceUnresolvable ErrorCode = "SOURCE_UNRESOLVABLE"
	// ScanFailed indicates the surface scan could not enumerate the root
	ScanFailed ErrorCode = "SCAN_FAILED"
	// AnalysisNotFound indicates an unknown or expired analysis id
	AnalysisNotFound ErrorCode = "ANALYSIS_NOT_FOUND"
	// SectionNotFound indicates an unknown section id
	SectionNotFound ErrorCode = "SECTION_NOT_FOUND"
	// CannotExpand indicates the section exists but does not accept expansion
	CannotExpand ErrorCode = "CANNOT_EXPAND"
	// NoCredential indicates the semantic service has no credential configured
	NoCredential ErrorCode = "NO_CREDENTIAL"
	// ServiceFailure indicates the semantic service failed after retries
	ServiceFailure ErrorCode = "SERVICE_FAILURE"
	// InvalidParameter indicates a malformed request parameter
	InvalidParameter ErrorCode = "INVALID_PARAMETER"
	// PathOutsideRepo indicates a read request escaping the analyzed root
	PathOutsideRepo ErrorCode = "PATH_OUTSIDE_REPO"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Drilldown represents a suggested follow-up call
type Drilldown struct {
	Label string `json:"label"`
	Tool  string `json:"tool"`
}

// ArchError represents an archlens error with code, message, and suggestions
type ArchError struct {
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Drilldowns []Drilldown `json:"drilldowns,omitempty"`
	cause      error       // Underlying error (not exported to JSON)
}

// New creates a new ArchError
func New(code ErrorCode, message string, cause error) *ArchError {
	return &ArchError{
		Code:       code,
		Message:    message,
		cause:      cause,
		Drilldowns: GetDrilldowns(code),
	}
}

// Error implements the error interface
func (e *ArchError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ArchError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ArchError) WithDetails(details interface{}) *ArchError {
	e.Details = details
	return e
}

// NewAnalysisNotFoundError reports an unknown or expired analysis id.
func NewAnalysisNotFoundError(analysisID string) *ArchError {
	return New(AnalysisNotFound, fmt.Sprintf("analysis %q not found or expired", analysisID), nil)
}

// NewInvalidParameterError reports a bad request parameter.
func NewInvalidParameterError(param, reason string) *ArchError {
	return New(InvalidParameter, fmt.Sprintf("invalid parameter %q: %s", param, reason), nil)
}

// CodeOf returns the code of the first ArchError in err's chain, or InternalError.
func CodeOf(err error) ErrorCode {
	var archErr *ArchError
	if stderrors.As(err, &archErr) {
		return archErr.Code
	}
	return InternalError
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	var archErr *ArchError
	for err != nil {
		if !stderrors.As(err, &archErr) {
			return false
		}
		if archErr.Code == code {
			return true
		}
		err = archErr.cause
	}
	return false
}

// errorDrilldowns maps error codes to suggested follow-up calls
var errorDrilldowns = map[ErrorCode][]Drilldown{
	AnalysisNotFound: {
		{Label: "Re-run the analysis to obtain a fresh analysis id", Tool: "analyze_repository"},
		{Label: "List live analyses", Tool: "list_analyses"},
	},
	SectionNotFound: {
		{Label: "Inspect available section ids in the analysis result", Tool: "analyze_repository"},
	},
	NoCredential: {
		{Label: "Set OPENAI_API_KEY or GEMINI_API_KEY, or analyze with depth=standard", Tool: "analyze_repository"},
	},
}

// GetDrilldowns returns suggested follow-ups for an error code
func GetDrilldowns(code ErrorCode) []Drilldown {
	if d, ok := errorDrilldowns[code]; ok {
		return d
	}
	return nil
}
