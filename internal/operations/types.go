package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StageIDClean    = "clean"
	StageIDEnrich   = "enrich"
	StageIDValidate = "validate"
	StageIDEnhance  = "enhance"
)

// Pipeline step names
const (
	StageNameClean    = "Data Cleaning"
	StageNameEnrich   = "Postal Code Enrichment"
	StageNameValidate = "Data Validation"
	StageNameEnhance  = "Price Derivation"
)

// StepFullPipeline requests every registered step in dependency order
const StepFullPipeline = "full_pipeline"

// Keys under which steps publish their results in the operation context
const (
	ContextKeyCleanStats    = "clean_stats"
	ContextKeyEnrichStats   = "enrich_stats"
	ContextKeyResolverStats = "resolver_stats"
	ContextKeyIssues        = "validation_issues"
	ContextKeyEnhancedRows  = "enhanced_rows"
	ContextKeyOutputs       = "outputs"
)

// ParamMaxRows overrides the configured enrichment bound for one run
const ParamMaxRows = "max_rows"

// Default timeouts
const (
	DefaultStageTimeout  = 5 * time.Minute
	DefaultEnrichTimeout = 30 * time.Minute
)

// OperationRequest represents a request to execute a pipeline run
type OperationRequest struct {
	ID         string         `json:"id"`
	Step       string         `json:"step,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// OperationResponse summarizes a finished run
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Results  map[string]any        `json:"results,omitempty"`
	Error    string                `json:"error,omitempty"`
}
