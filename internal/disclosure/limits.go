package disclosure

// Limits bounds what a result and its detail expansions contain
type Limits struct {
	// MaxModuleSections limits module sections, taken in surface module order
	MaxModuleSections int

	// DetailSymbols limits symbols in a module detail expansion
	DetailSymbols int

	// DetailImports limits imports in a module detail expansion
	DetailImports int

	// DetailItems limits patterns, data models and endpoints in a detail expansion
	DetailItems int

	// MaxPrimaryPatterns limits summary.primaryPatterns
	MaxPrimaryPatterns int

	// PrimaryPatternConfidence is the exclusive confidence threshold for primary patterns
	PrimaryPatternConfidence float64

	// MaxSuggestedSections limits the section ids named in next steps
	MaxSuggestedSections int
}

// DefaultLimits returns the limits used by Build and Expand
func DefaultLimits() Limits {
	return Limits{
		MaxModuleSections:        10,
		DetailSymbols:            20,
		DetailImports:            20,
		DetailItems:              10,
		MaxPrimaryPatterns:       5,
		PrimaryPatternConfidence: 0.7,
		MaxSuggestedSections:     3,
	}
}

// EstimateTokens approximates the token count of serialized content
func EstimateTokens(serialized []byte) int {
	return len(serialized) / 4
}
