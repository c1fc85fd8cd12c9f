package analysis

import "time"

// ComplexityTier is the coarse complexity label shown in summaries
type ComplexityTier string

const (
	TierLow    ComplexityTier = "low"
	TierMedium ComplexityTier = "medium"
	TierHigh   ComplexityTier = "high"
)

// TierFor maps a 0-100 surface complexity score to a tier
func TierFor(score int) ComplexityTier {
	switch {
	case score < 30:
		return TierLow
	case score > 70:
		return TierHigh
	default:
		return TierMedium
	}
}

// Summary is the derived top-level description
type Summary struct {
	ArchitectureType string         `json:"architectureType"`
	PrimaryPatterns  []string       `json:"primaryPatterns"`
	Complexity       ComplexityTier `json:"complexity"`
}

// SectionType tags an expandable section and its payload
type SectionType string

const (
	SectionModule    SectionType = "module"
	SectionPattern   SectionType = "pattern"
	SectionDataModel SectionType = "datamodel"
	SectionAPI       SectionType = "api"
	SectionCustom    SectionType = "custom"
)

// ExpansionLevel selects how much of a section to materialize
type ExpansionLevel string

const (
	LevelDetail ExpansionLevel = "detail"
	LevelFull   ExpansionLevel = "full"
)

// ExpansionCost is the estimated token cost of each expansion level
type ExpansionCost struct {
	Detail int `json:"detail"`
	Full   int `json:"full"`
}

// ModulePayload is the expansion of a module section
type ModulePayload struct {
	ModulePath string            `json:"modulePath"`
	Symbols    []Symbol          `json:"symbols"`
	Imports    []ImportEdge      `json:"imports"`
	Exports    []string          `json:"exports,omitempty"`
	Complexity ComplexityMetrics `json:"complexity"`
	Truncated  bool              `json:"truncated,omitempty"`
}

// PatternsPayload is the expansion of patterns_overview
type PatternsPayload struct {
	Patterns  []Pattern `json:"patterns"`
	Truncated bool      `json:"truncated,omitempty"`
}

// DataModelsPayload is the expansion of data_models
type DataModelsPayload struct {
	DataModels []DataModel `json:"dataModels"`
	Truncated  bool        `json:"truncated,omitempty"`
}

// APIPayload is the expansion of api_endpoints
type APIPayload struct {
	Endpoints []APIEndpoint `json:"endpoints"`
	Truncated bool          `json:"truncated,omitempty"`
}

// SectionPayload carries exactly one payload matching the section type.
type SectionPayload struct {
	Module     *ModulePayload     `json:"module,omitempty"`
	Patterns   *PatternsPayload   `json:"patterns,omitempty"`
	DataModels *DataModelsPayload `json:"dataModels,omitempty"`
	APIs       *APIPayload        `json:"apis,omitempty"`
}

// ExpandableSection is an independently expandable slice of a result
type ExpandableSection struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Type          SectionType     `json:"type"`
	Summary       string          `json:"summary"`
	CanExpand     bool            `json:"canExpand"`
	ExpansionCost ExpansionCost   `json:"expansionCost"`
	Detail        *SectionPayload `json:"detail,omitempty"`
	Full          *SectionPayload `json:"full,omitempty"`
}

// ForAgent is the agent-facing digest
type ForAgent struct {
	QuickSummary       string   `json:"quickSummary"`
	KeyInsights        []string `json:"keyInsights"`
	SuggestedNextSteps []string `json:"suggestedNextSteps"`
}

// Layer names the phase a partial failure came from
type Layer string

const (
	LayerStructural Layer = "structural"
	LayerSemantic   Layer = "semantic"
)

// PartialFailure is a degrading error recorded on the result
type PartialFailure struct {
	Layer  Layer  `json:"layer"`
	Module string `json:"module,omitempty"`
	Error  string `json:"error"`
}

// AnalysisResult is the externally visible artifact of an analysis run
type AnalysisResult struct {
	AnalysisID string    `json:"analysisId"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	Depth      Depth     `json:"depth"`
	TokenCost  int       `json:"tokenCost"`
	DurationMs int64     `json:"durationMs"`

	RepositoryMap   RepositoryMap       `json:"repositoryMap"`
	Summary         Summary             `json:"summary"`
	Sections        []ExpandableSection `json:"sections"`
	ForAgent        ForAgent            `json:"forAgent"`
	Warnings        []string            `json:"warnings,omitempty"`
	PartialFailures []PartialFailure    `json:"partialFailures,omitempty"`
}

// Reports bundles the raw phase outputs an AnalysisResult was derived from
type Reports struct {
	Surface    *SurfaceReport
	Structural []StructuralReport
	Semantic   *SemanticReport
}

// StructuralFor returns the structural report for a module path, if any
func (r *Reports) StructuralFor(modulePath string) (*StructuralReport, bool) {
	for i := range r.Structural {
		if r.Structural[i].ModulePath == modulePath {
			return &r.Structural[i], true
		}
	}
	return nil, false
}
