package operations

import (
	"context"
	"fmt"
	"log/slog"

	"fuelpipe/internal/dataprocessing"
	"fuelpipe/internal/exporter"
	"fuelpipe/internal/infrastructure"
	"fuelpipe/pkg/contracts/domain"
)

// stageBase carries what every pipeline step needs besides its identity
type stageBase struct {
	BaseStage
	logger  *slog.Logger
	options *StageOptions
	writer  *exporter.CSVWriter
}

func newStageBase(id, name, input string, deps []string, logger *slog.Logger, options *StageOptions) stageBase {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("step", id))
	return stageBase{
		BaseStage: NewBaseStage(id, name, input, deps),
		logger:    logger,
		options:   options,
		writer:    exporter.NewCSVWriter(options.Paths, logger),
	}
}

// inputTable reads the file written by the previous step in full
func (s *stageBase) inputTable() (*domain.Table, error) {
	table, err := exporter.ReadTable(s.Input())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Input(), err)
	}
	return table, nil
}

// recordOutput notes a written file on the step and on the run
func (s *stageBase) recordOutput(state *OperationState, key, path string) {
	if st := state.GetStage(s.ID()); st != nil {
		st.SetMetadata(key, path)
	}
	outputs, _ := state.GetContext(ContextKeyOutputs)
	files, _ := outputs.(map[string]string)
	if files == nil {
		files = make(map[string]string)
	}
	files[key] = path
	state.SetContext(ContextKeyOutputs, files)
}

// CleanStage removes duplicates and anomalies from the raw input
type CleanStage struct {
	stageBase
}

// NewCleanStage creates the cleaning step
func NewCleanStage(logger *slog.Logger, options *StageOptions) *CleanStage {
	return &CleanStage{
		stageBase: newStageBase(StageIDClean, StageNameClean, options.Paths.Input, nil, logger, options),
	}
}

// Execute reads the raw input file and writes the cleaned and anomaly files
func (c *CleanStage) Execute(ctx context.Context, state *OperationState) error {
	rows, err := exporter.ReadRows(c.Input())
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.Input(), err)
	}

	result := dataprocessing.NewCleaner(c.logger).Clean(rows)

	paths := c.options.Paths
	if err := c.writer.WriteTable(paths.Cleaned, result.Cleaned); err != nil {
		return fmt.Errorf("failed to write cleaned data: %w", err)
	}
	c.recordOutput(state, "cleaned", paths.Cleaned)

	if err := c.writer.WriteRaw(paths.Anomalies, result.Anomalies); err != nil {
		return fmt.Errorf("failed to write anomalies: %w", err)
	}
	c.recordOutput(state, "anomalies", paths.Anomalies)

	m := c.options.Metrics
	infrastructure.RecordRows(ctx, m, c.ID(), "cleaned", result.Stats.Cleaned)
	infrastructure.RecordRows(ctx, m, c.ID(), "duplicate", result.Stats.Duplicates)
	infrastructure.RecordRows(ctx, m, c.ID(), "anomaly", result.Stats.Anomalies)
	infrastructure.RecordRows(ctx, m, c.ID(), "malformed", result.Stats.Malformed)

	state.SetContext(ContextKeyCleanStats, result.Stats)
	return nil
}

// EnrichStage fills missing postal codes through the lookup service
type EnrichStage struct {
	stageBase
}

// NewEnrichStage creates the enrichment step
func NewEnrichStage(logger *slog.Logger, options *StageOptions) *EnrichStage {
	return &EnrichStage{
		stageBase: newStageBase(StageIDEnrich, StageNameEnrich, options.Paths.Cleaned,
			[]string{StageIDClean}, logger, options),
	}
}

// Execute enriches the cleaned data and writes the enriched file
func (e *EnrichStage) Execute(ctx context.Context, state *OperationState) error {
	if e.options.NewResolver == nil {
		return fmt.Errorf("no postal code resolver configured")
	}

	table, err := e.inputTable()
	if err != nil {
		return err
	}

	maxRows := e.options.MaxRows
	if v, ok := state.GetConfig(ParamMaxRows); ok {
		if n, ok := v.(int); ok {
			maxRows = n
		}
	}

	resolver := e.options.NewResolver()
	enriched, stats, err := dataprocessing.NewEnricher(resolver, e.logger).Enrich(ctx, table, maxRows)
	if err != nil {
		return err
	}

	if err := e.writer.WriteTable(e.options.Paths.Enriched, enriched); err != nil {
		return fmt.Errorf("failed to write enriched data: %w", err)
	}
	e.recordOutput(state, "enriched", e.options.Paths.Enriched)

	m := e.options.Metrics
	infrastructure.RecordRows(ctx, m, e.ID(), "updated", stats.Updated)
	infrastructure.RecordRows(ctx, m, e.ID(), "skipped", stats.Skipped)
	infrastructure.RecordRows(ctx, m, e.ID(), "passed_over", stats.PassedOver)
	if rs, ok := resolver.(resolverStats); ok {
		lookups := rs.Stats()
		infrastructure.RecordPostalLookups(ctx, m, "cache_hit", lookups.CacheHits)
		infrastructure.RecordPostalLookups(ctx, m, "resolved", lookups.Resolved)
		infrastructure.RecordPostalLookups(ctx, m, "failed", lookups.Failures)
		state.SetContext(ContextKeyResolverStats, lookups)
	}

	state.SetContext(ContextKeyEnrichStats, stats)
	return nil
}

// ValidateStage checks business rules and writes the issue report
type ValidateStage struct {
	stageBase
}

// NewValidateStage creates the validation step
func NewValidateStage(logger *slog.Logger, options *StageOptions) *ValidateStage {
	return &ValidateStage{
		stageBase: newStageBase(StageIDValidate, StageNameValidate, options.Paths.Enriched,
			[]string{StageIDEnrich}, logger, options),
	}
}

// Execute validates the enriched data. Issues never fail the step.
func (v *ValidateStage) Execute(ctx context.Context, state *OperationState) error {
	table, err := v.inputTable()
	if err != nil {
		return err
	}

	issues := dataprocessing.NewValidator(v.logger).Validate(table)

	report := v.options.Paths.ValidationReport
	if err := exporter.WriteValidationReport(report, issues); err != nil {
		return fmt.Errorf("failed to write validation report: %w", err)
	}
	v.recordOutput(state, "validation_report", report)

	for _, issue := range issues {
		infrastructure.RecordValidationIssue(ctx, v.options.Metrics, issue.Field)
	}
	if len(issues) > 0 {
		v.logger.WarnContext(ctx, "potential data issues found",
			slog.Int("issues", len(issues)),
			slog.String("report", report))
	}

	state.SetContext(ContextKeyIssues, issues)
	return nil
}

// EnhanceStage derives the price per gallon column
type EnhanceStage struct {
	stageBase
}

// NewEnhanceStage creates the derivation step. It reads the enriched file;
// validation does not change the data.
func NewEnhanceStage(logger *slog.Logger, options *StageOptions) *EnhanceStage {
	return &EnhanceStage{
		stageBase: newStageBase(StageIDEnhance, StageNameEnhance, options.Paths.Enriched,
			[]string{StageIDValidate}, logger, options),
	}
}

// Execute writes the enhanced file and, when enabled, its spreadsheet copy
func (e *EnhanceStage) Execute(ctx context.Context, state *OperationState) error {
	table, err := e.inputTable()
	if err != nil {
		return err
	}

	enhanced := dataprocessing.NewEnhancer(e.logger).Derive(table)

	paths := e.options.Paths
	if err := e.writer.WriteTable(paths.Enhanced, enhanced); err != nil {
		return fmt.Errorf("failed to write enhanced data: %w", err)
	}
	e.recordOutput(state, "enhanced", paths.Enhanced)

	if e.options.ExportXLSX {
		if err := exporter.WriteXLSX(paths.XLSX, enhanced, exporter.DefaultSheetName); err != nil {
			return fmt.Errorf("failed to write spreadsheet: %w", err)
		}
		e.recordOutput(state, "xlsx", paths.XLSX)
	}

	infrastructure.RecordRows(ctx, e.options.Metrics, e.ID(), "enhanced", enhanced.Len())

	state.SetContext(ContextKeyEnhancedRows, enhanced.Len())
	return nil
}

// StageFactory creates the four pipeline steps in run order
func StageFactory(logger *slog.Logger, options *StageOptions) []Step {
	return []Step{
		NewCleanStage(logger, options),
		NewEnrichStage(logger, options),
		NewValidateStage(logger, options),
		NewEnhanceStage(logger, options),
	}
}
