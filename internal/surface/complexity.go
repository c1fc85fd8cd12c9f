package surface

import (
	"math"
	"time"

	"archlens/internal/analysis"
)

// ComplexityInputs are the factors of the surface complexity score.
type ComplexityInputs struct {
	FileCount     int
	ModuleCount   int
	LanguageCount int
	AvgFileSize   float64
	MaxPathDepth  int
}

// ComplexityScore computes the 0-100 score:
// min(30, files/100) + min(20, modules*2) + min(20, languages*4) + min(15, avgSize/1000) + min(15, maxDepth*2)
func ComplexityScore(in ComplexityInputs) int {
	score := math.Min(30, float64(in.FileCount)/100) +
		math.Min(20, float64(in.ModuleCount)*2) +
		math.Min(20, float64(in.LanguageCount)*4) +
		math.Min(15, in.AvgFileSize/1000) +
		math.Min(15, float64(in.MaxPathDepth)*2)

	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

const (
	structuralPerFile = 10 * time.Millisecond
	semanticBase      = 5 * time.Second
	semanticPerFile   = 20 * time.Millisecond
)

// EstimateDurations predicts structural and semantic phase durations.
func EstimateDurations(fileCount, complexity int) analysis.EstimatedDurations {
	factor := 1 + float64(complexity)/100
	return analysis.EstimatedDurations{
		Structural: time.Duration(float64(fileCount) * float64(structuralPerFile) * factor),
		Semantic:   semanticBase + time.Duration(float64(fileCount)*float64(semanticPerFile)*factor),
	}
}
