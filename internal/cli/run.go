package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"fuelpipe/internal/config"
	"fuelpipe/internal/infrastructure"
	"fuelpipe/internal/operations"
)

// Error codes reported in CLI responses
const (
	ErrCodeConfig    = "E001"
	ErrCodeInput     = "E002"
	ErrCodeStep      = "E003"
	ErrCodeCancelled = "E004"
)

// shutdownTimeout bounds the final metrics push and span flush
const shutdownTimeout = 10 * time.Second

// RunOptions holds flags that tune a single run
type RunOptions struct {
	MaxRows  int
	Endpoint string
	APIKey   string
	XLSX     bool
}

// stepCommand describes a command running one step
type stepCommand struct {
	id    string
	short string
}

var stepCommands = []stepCommand{
	{operations.StageIDClean, "Remove duplicates and non-fuel purchases"},
	{operations.StageIDEnrich, "Fill missing postal codes"},
	{operations.StageIDValidate, "Write the validation report"},
	{operations.StageIDEnhance, "Add the price per gallon column"},
}

// NewRunCommand creates the run command executing the whole pipeline.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	runOpts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline",
		Long: `Run clean, enrich, validate and enhance in order.

A failed step stops the run; steps after it are reported as pending.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, rootOpts, runOpts, "")
		},
	}
	addRunFlags(cmd, runOpts)
	return cmd
}

// NewStepCommand creates a command running a single step against the
// file left by the previous one.
func NewStepCommand(rootOpts *RootOptions, step stepCommand) *cobra.Command {
	runOpts := &RunOptions{MaxRows: -1}

	cmd := &cobra.Command{
		Use:           step.id,
		Short:         step.short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, rootOpts, runOpts, step.id)
		},
	}
	if step.id == operations.StageIDEnrich || step.id == operations.StageIDEnhance {
		addRunFlags(cmd, runOpts)
	}
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *RunOptions) {
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", -1, "rows visited by enrichment, 0 for all (default from config)")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "postal code lookup endpoint")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", "", "postal code lookup API key")
	cmd.Flags().BoolVar(&opts.XLSX, "xlsx", false, "also write the enhanced data as a spreadsheet")
}

// loadConfig reads the config file and environment, then applies flags
func loadConfig(rootOpts *RootOptions, runOpts *RunOptions) (*config.Config, error) {
	cfg, err := config.Load(rootOpts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if rootOpts.DataDir != "" {
		cfg.Paths.DataDir = rootOpts.DataDir
	}
	if rootOpts.Verbose {
		cfg.Logging.Level = "debug"
	}
	if runOpts.MaxRows >= 0 {
		cfg.Enrichment.MaxRows = runOpts.MaxRows
	}
	if runOpts.Endpoint != "" {
		cfg.Geocode.Endpoint = runOpts.Endpoint
	}
	if runOpts.APIKey != "" {
		cfg.Geocode.APIKey = runOpts.APIKey
	}
	if runOpts.XLSX {
		cfg.Export.XLSX = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func runPipeline(cmd *cobra.Command, rootOpts *RootOptions, runOpts *RunOptions, step string) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	cfg, err := loadConfig(rootOpts, runOpts)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	paths := cfg.ResolvePaths()
	if err := paths.EnsureDirectories(); err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to prepare directories", err)
	}

	logger, closeLog, err := infrastructure.NewLogger(cfg.Logging, paths, formatter.GetErrWriter())
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create logger", err)
	}
	defer closeLog()
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to initialize telemetry", err)
	}
	defer shutdownTelemetry(providers, logger)

	manager, err := operations.NewPipeline(cfg, paths, nil, logger, providers)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build pipeline", err)
	}

	formatter.VerboseLog("Data directory: %s", paths.DataDir)

	resp, err := manager.Execute(cmd.Context(), operations.OperationRequest{Step: step})
	if err == nil {
		return formatter.Success(NewRunSummary(resp))
	}

	var summary any
	if resp != nil {
		summary = NewRunSummary(resp)
	}

	code, errCode := classifyRunError(err)
	_ = formatter.Error(errCode, err.Error(), summary)
	return WrapExitError(code, "pipeline failed", err)
}

// classifyRunError maps a step failure to an exit code and a response code
func classifyRunError(err error) (int, string) {
	switch operations.GetErrorType(err) {
	case operations.ErrorTypeCancellation:
		return ExitInterrupted, ErrCodeCancelled
	case operations.ErrorTypeValidation, operations.ErrorTypeNotFound:
		return ExitCommandError, ErrCodeInput
	case operations.ErrorTypeFatal:
		return ExitCommandError, ErrCodeConfig
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted, ErrCodeCancelled
	}
	return ExitFailure, ErrCodeStep
}

func shutdownTelemetry(providers *infrastructure.OTelProviders, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := providers.Shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
	}
}
