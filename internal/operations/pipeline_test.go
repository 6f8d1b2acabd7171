package operations

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelpipe/internal/config"
	"fuelpipe/internal/dataprocessing"
	"fuelpipe/internal/exporter"
	"fuelpipe/internal/geocode"
	"fuelpipe/internal/shared/testutil"
	"fuelpipe/pkg/contracts/domain"
)

type pipelineEnv struct {
	cfg     *config.Config
	paths   *config.Paths
	calls   *int32
	manager *Manager
	logs    *testutil.BufferedSlogHandler
}

func setupPipeline(t *testing.T) *pipelineEnv {
	t.Helper()

	srv, calls := testutil.NewLookupServer(t)

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "Data")
	cfg.Geocode.Endpoint = srv.URL + "/api/v1/code/city"
	cfg.Geocode.APIKey = "test-key"
	cfg.Geocode.Timeout = 5 * time.Second
	paths := cfg.ResolvePaths()

	logger, logs := testutil.NewTestLogger(t)
	factory := GeocodeResolverFactory(cfg.Geocode, srv.Client(), logger)

	manager, err := NewPipeline(cfg, paths, factory, logger, nil)
	require.NoError(t, err)

	return &pipelineEnv{cfg: cfg, paths: paths, calls: calls, manager: manager, logs: logs}
}

func (e *pipelineEnv) writeInput(t *testing.T) {
	t.Helper()
	require.NoError(t, os.MkdirAll(e.paths.DataDir, 0755))
	require.NoError(t, os.WriteFile(e.paths.Input, []byte(testutil.FuelPurchaseCSV), 0644))
}

func mustReadTable(t *testing.T, path string) *domain.Table {
	t.Helper()
	table, err := exporter.ReadTable(path)
	require.NoError(t, err)
	return table
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestPipelineEndToEnd(t *testing.T) {
	env := setupPipeline(t)
	env.writeInput(t)

	resp, err := env.manager.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.NotEmpty(t, resp.ID)
	for _, id := range []string{StageIDClean, StageIDEnrich, StageIDValidate, StageIDEnhance} {
		require.Contains(t, resp.Steps, id)
		assert.Equal(t, StepStatusCompleted, resp.Steps[id].Status, id)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "cleanedData", readFile(t, env.paths.Cleaned))
	g.Assert(t, "dataAnomalies", readFile(t, env.paths.Anomalies))
	g.Assert(t, "enrichedData", readFile(t, env.paths.Enriched))
	g.Assert(t, "validation_issues", readFile(t, env.paths.ValidationReport))
	g.Assert(t, "enhancedData", readFile(t, env.paths.Enhanced))

	// Springfield, Columbus and Dayton once each; the second Columbus row is a cache hit
	assert.Equal(t, int32(3), atomic.LoadInt32(env.calls))
	assert.True(t, env.logs.ContainsAttr("operation_id", resp.ID))
}

func TestPipelinePublishesStepResults(t *testing.T) {
	env := setupPipeline(t)
	env.writeInput(t)

	ctx := context.Background()
	resp, err := env.manager.Execute(ctx, OperationRequest{ID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.ID)

	step := NewCleanStage(nil, &StageOptions{Paths: env.paths})
	state := NewOperationState("inspect")
	state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	require.NoError(t, step.Execute(ctx, state))

	v, ok := state.GetContext(ContextKeyCleanStats)
	require.True(t, ok)
	assert.Equal(t, dataprocessing.CleanStats{
		Input:      10,
		Duplicates: 1,
		Anomalies:  1,
		Malformed:  1,
		Cleaned:    7,
	}, v)

	outputs, ok := state.GetContext(ContextKeyOutputs)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"cleaned":   env.paths.Cleaned,
		"anomalies": env.paths.Anomalies,
	}, outputs)
}

func TestEnrichStageReportsStats(t *testing.T) {
	env := setupPipeline(t)
	env.writeInput(t)

	ctx := context.Background()
	_, err := env.manager.Execute(ctx, OperationRequest{Step: StageIDClean})
	require.NoError(t, err)

	options := &StageOptions{
		Paths:       env.paths,
		NewResolver: GeocodeResolverFactory(env.cfg.Geocode, nil, nil),
		MaxRows:     5,
	}
	step := NewEnrichStage(nil, options)
	state := NewOperationState("enrich-only")
	state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))

	require.NoError(t, step.Validate(state))
	require.NoError(t, step.Execute(ctx, state))

	v, ok := state.GetContext(ContextKeyEnrichStats)
	require.True(t, ok)
	assert.Equal(t, dataprocessing.EnrichStats{
		Visited:    5,
		Skipped:    1,
		Lookups:    4,
		Updated:    3,
		Unresolved: 1,
		PassedOver: 2,
	}, v)

	rs, ok := state.GetContext(ContextKeyResolverStats)
	require.True(t, ok)
	assert.Equal(t, geocode.Stats{CacheHits: 1, CacheMisses: 3, Requests: 3, Resolved: 2, Failures: 1}, rs)
	assert.Equal(t, env.paths.Enriched, state.GetStage(StageIDEnrich).Metadata["enriched"])
}

func TestPipelineSingleStepUsesPreviousOutput(t *testing.T) {
	env := setupPipeline(t)
	env.writeInput(t)
	ctx := context.Background()

	// enhance alone fails until an enriched file exists
	resp, err := env.manager.Execute(ctx, OperationRequest{Step: StageIDEnhance})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.NoFileExists(t, env.paths.Enhanced)

	for _, step := range []string{StageIDClean, StageIDEnrich, StageIDValidate, StageIDEnhance} {
		resp, err := env.manager.Execute(ctx, OperationRequest{Step: step})
		require.NoError(t, err, step)
		assert.Len(t, resp.Steps, 1)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "enhancedData", readFile(t, env.paths.Enhanced))
}

func TestPipelineMissingInput(t *testing.T) {
	env := setupPipeline(t)

	resp, err := env.manager.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Contains(t, err.Error(), env.paths.Input)
	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, StepStatusFailed, resp.Steps[StageIDClean].Status)
	assert.Equal(t, StepStatusPending, resp.Steps[StageIDEnrich].Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(env.calls))
}

func TestPipelineRerunOverEnrichedData(t *testing.T) {
	env := setupPipeline(t)
	env.writeInput(t)
	ctx := context.Background()

	_, err := env.manager.Execute(ctx, OperationRequest{})
	require.NoError(t, err)

	// feed the enriched output back through enrichment
	require.NoError(t, os.WriteFile(env.paths.Cleaned, readFile(t, env.paths.Enriched), 0644))
	_, err = env.manager.Execute(ctx, OperationRequest{Step: StageIDEnrich})
	require.NoError(t, err)

	table := mustReadTable(t, env.paths.Enriched)
	assert.Equal(t, []string{
		"Transaction Date", "Driver ID", "Full Address", "Fuel Type",
		"Gallons Purchased", "Gross Price", domain.ColumnZipCode,
	}, table.Header.Columns())
}

func TestPipelineExportsXLSX(t *testing.T) {
	env := setupPipeline(t)
	env.writeInput(t)
	env.cfg.Export.XLSX = true

	logger, _ := testutil.NewTestLogger(t)
	manager, err := NewPipeline(env.cfg, env.paths,
		GeocodeResolverFactory(env.cfg.Geocode, nil, logger), logger, nil)
	require.NoError(t, err)

	_, err = manager.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)

	table := mustReadTable(t, env.paths.XLSX)
	assert.Equal(t, 7, table.Len())
	assert.True(t, table.Header.Has(domain.ColumnPricePerGallon))
}

func TestPipelineCancelled(t *testing.T) {
	env := setupPipeline(t)
	env.writeInput(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := env.manager.Execute(ctx, OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OperationStatusCancelled, resp.Status)
	assert.NoFileExists(t, env.paths.Cleaned)
}

func TestPipelineMaxRowsParameter(t *testing.T) {
	env := setupPipeline(t)
	env.writeInput(t)

	resp, err := env.manager.Execute(context.Background(), OperationRequest{
		Parameters: map[string]any{ParamMaxRows: 0},
	})
	require.NoError(t, err)

	v, ok := resp.Results[ContextKeyEnrichStats]
	require.True(t, ok)
	stats := v.(dataprocessing.EnrichStats)
	assert.Equal(t, 7, stats.Visited)
	assert.Zero(t, stats.PassedOver)

	issues, ok := resp.Results[ContextKeyIssues]
	require.True(t, ok)
	assert.NotEmpty(t, issues)
}
