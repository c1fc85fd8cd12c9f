// Package analysis holds the data model shared by every analysis layer:
// the surface, structural and semantic reports and the AnalysisResult built from them.
package analysis

import "time"

// Depth selects which phases run
type Depth string

const (
	// DepthSurface runs the surface scanner only
	DepthSurface Depth = "surface"
	// DepthStandard adds structural extraction
	DepthStandard Depth = "standard"
	// DepthDeep adds the semantic layer
	DepthDeep Depth = "deep"
)

// ParseDepth converts a string to a Depth, reporting whether it was recognized
func ParseDepth(s string) (Depth, bool) {
	switch Depth(s) {
	case DepthSurface, DepthStandard, DepthDeep:
		return Depth(s), true
	case "":
		return DepthStandard, true
	default:
		return "", false
	}
}

// ModuleType classifies a top-level module
type ModuleType string

const (
	ModuleCore    ModuleType = "core"
	ModuleUtil    ModuleType = "util"
	ModuleTest    ModuleType = "test"
	ModuleConfig  ModuleType = "config"
	ModuleUnknown ModuleType = "unknown"
)

// Priority returns the sort rank of a module type (lower sorts first)
func (t ModuleType) Priority() int {
	switch t {
	case ModuleCore:
		return 0
	case ModuleUtil:
		return 1
	case ModuleConfig:
		return 2
	case ModuleUnknown:
		return 3
	case ModuleTest:
		return 4
	default:
		return 3
	}
}

// LanguageStat is one row of the language breakdown
type LanguageStat struct {
	Language   string   `json:"language"`
	FileCount  int      `json:"fileCount"`
	Percentage int      `json:"percentage"`
	Extensions []string `json:"extensions"`
}

// TreeNode is a node of the (collapsed) directory tree
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	IsDir    bool        `json:"isDir"`
	Size     int64       `json:"size,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// RepositoryMap is the cheap overview of a repository
type RepositoryMap struct {
	Name            string         `json:"name"`
	Languages       []LanguageStat `json:"languages"`
	FileCount       int            `json:"fileCount"`
	TotalSize       int64          `json:"totalSize"`
	EstimatedTokens int            `json:"estimatedTokens"`
	EntryPoints     []string       `json:"entryPoints"`
	DirectoryTree   *TreeNode      `json:"directoryTree"`
	HasReadme       bool           `json:"hasReadme"`
}

// ModuleInfo describes a candidate module found by the surface scan
type ModuleInfo struct {
	Path            string     `json:"path"`
	Name            string     `json:"name"`
	Type            ModuleType `json:"type"`
	FileCount       int        `json:"fileCount"`
	PrimaryLanguage string     `json:"primaryLanguage"`

	// Files are the repo-relative paths that survived the scan's ignore rules.
	Files []string `json:"-"`
}

// EstimatedDurations predicts the cost of the later phases
type EstimatedDurations struct {
	Structural time.Duration `json:"structural"`
	Semantic   time.Duration `json:"semantic"`
}

// SurfaceReport is produced once per analysis run by the surface scanner
type SurfaceReport struct {
	RepositoryMap      RepositoryMap      `json:"repositoryMap"`
	Modules            []ModuleInfo       `json:"modules"`
	Complexity         int                `json:"complexity"`
	EstimatedDurations EstimatedDurations `json:"estimatedDurations"`
}

// SymbolKind enumerates extracted symbol kinds
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolMethod    SymbolKind = "method"
	SymbolClass     SymbolKind = "class"
	SymbolInterface SymbolKind = "interface"
	SymbolType      SymbolKind = "type"
	SymbolConstant  SymbolKind = "constant"
	SymbolVariable  SymbolKind = "variable"
	SymbolHeading   SymbolKind = "heading"
	SymbolKey       SymbolKind = "key"
)

// Symbol is a heuristically extracted declaration
type Symbol struct {
	Name     string     `json:"name"`
	Kind     SymbolKind `json:"kind"`
	File     string     `json:"file"`
	Line     int        `json:"line"`
	Exported bool       `json:"exported"`
}

// ImportEdge is one import statement
type ImportEdge struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	ImportedNames []string `json:"importedNames,omitempty"`
	IsDefault     bool     `json:"isDefault,omitempty"`
	IsType        bool     `json:"isType,omitempty"`
}

// ComplexityMetrics are the per-module structural metrics
type ComplexityMetrics struct {
	CyclomaticEstimate int `json:"cyclomaticEstimate"`
	LinesOfCode        int `json:"linesOfCode"`
	FunctionCount      int `json:"functionCount"`
	ClassCount         int `json:"classCount"`
}

// StructuralReport is produced per analyzed module
type StructuralReport struct {
	ModulePath string            `json:"modulePath"`
	Symbols    []Symbol          `json:"symbols"`
	Imports    []ImportEdge      `json:"imports"`
	Exports    []string          `json:"exports"`
	Complexity ComplexityMetrics `json:"complexity"`
}

// PatternKind classifies a detected pattern
type PatternKind string

const (
	PatternArchitectural PatternKind = "architectural"
	PatternDesign        PatternKind = "design"
	PatternAnti          PatternKind = "anti-pattern"
)

// Pattern is a semantic pattern detection
type Pattern struct {
	Name        string      `json:"name"`
	Kind        PatternKind `json:"kind"`
	Confidence  float64     `json:"confidence"`
	Locations   []string    `json:"locations"`
	Description string      `json:"description"`
}

// DataModel is an inferred domain entity
type DataModel struct {
	Name          string   `json:"name"`
	Fields        []string `json:"fields"`
	Relationships []string `json:"relationships"`
}

// APIEndpoint is an inferred external endpoint
type APIEndpoint struct {
	Path    string `json:"path"`
	Method  string `json:"method"`
	Purpose string `json:"purpose"`
}

// Relationship links two files or modules
type Relationship struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Relationship string `json:"relationship"`
}

// SemanticReport is the optional service-backed layer
type SemanticReport struct {
	ArchitectureType       string         `json:"architectureType"`
	Patterns               []Pattern      `json:"patterns"`
	DataModels             []DataModel    `json:"dataModels"`
	APIEndpoints           []APIEndpoint  `json:"apiEndpoints"`
	CrossFileRelationships []Relationship `json:"crossFileRelationships"`
	Insights               []string       `json:"insights"`
}
