package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"archlens/internal/analysis"
	archerrors "archlens/internal/errors"
)

// Request describes one analysis run
type Request struct {
	// Source is a local path, file:// URL, git remote or .tar.gz URL
	Source string `json:"source" validate:"required,max=4096"`
	// Depth selects the phases; empty means the configured default
	Depth analysis.Depth `json:"depth,omitempty" validate:"omitempty,oneof=surface standard deep"`
	// Focus narrows the structural phase to matching modules
	Focus string `json:"focus,omitempty" validate:"max=512"`
	// IncludeSemantics runs the semantic layer at standard depth
	IncludeSemantics bool `json:"includeSemantics,omitempty"`
	// TokenBudget overrides the configured budget when positive
	TokenBudget int `json:"tokenBudget,omitempty" validate:"gte=0,lte=10000000"`
	// Exclude adds doublestar globs to the default ignore set
	Exclude []string `json:"exclude,omitempty" validate:"max=100,dive,required,max=512"`
}

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
}

// Validate checks the request, reporting the first invalid field as INVALID_PARAMETER.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return archerrors.NewInvalidParameterError("source", "is required")
	}
	err := requestValidate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return archerrors.NewInvalidParameterError(lowerFirst(fe.StructField()), describeTag(fe))
	}
	return archerrors.New(archerrors.InvalidParameter, "invalid request", err)
}

// wantsSemantics reports whether the semantic layer should run
func (r Request) wantsSemantics() bool {
	return r.Depth == analysis.DepthDeep || (r.Depth == analysis.DepthStandard && r.IncludeSemantics)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
