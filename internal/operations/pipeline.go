package operations

import (
	"fmt"
	"log/slog"
	"net/http"

	"fuelpipe/internal/config"
	"fuelpipe/internal/dataprocessing"
	"fuelpipe/internal/geocode"
	"fuelpipe/internal/infrastructure"
)

// GeocodeResolverFactory builds resolvers from configuration. Resolvers share
// client but each one has its own cache.
func GeocodeResolverFactory(cfg config.GeocodeConfig, client *http.Client, logger *slog.Logger) ResolverFactory {
	return func() dataprocessing.PostalCodeResolver {
		opts := []geocode.Option{geocode.WithLogger(logger)}
		if client != nil {
			opts = append(opts, geocode.WithHTTPClient(client))
		}
		return geocode.NewResolver(geocode.Config{
			Endpoint:          cfg.Endpoint,
			APIKey:            cfg.APIKey,
			Country:           cfg.Country,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}, opts...)
	}
}

// NewPipeline wires the four steps for cfg into a manager. A nil factory uses
// the configured lookup service; providers may be nil.
func NewPipeline(cfg *config.Config, paths *config.Paths, factory ResolverFactory,
	logger *slog.Logger, providers *infrastructure.OTelProviders) (*Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if paths == nil {
		paths = cfg.ResolvePaths()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if factory == nil {
		factory = GeocodeResolverFactory(cfg.Geocode, nil, logger)
	}

	tracer, err := NewOperationTracer(providers)
	if err != nil {
		return nil, err
	}

	options := &StageOptions{
		Paths:       paths,
		NewResolver: factory,
		MaxRows:     cfg.Enrichment.MaxRows,
		ExportXLSX:  cfg.Export.XLSX,
		Metrics:     tracer.Metrics(),
	}

	manager := NewManager(NewRegistry(), NewConfig(), logger, tracer)
	for _, step := range StageFactory(logger, options) {
		if err := manager.RegisterStage(step); err != nil {
			return nil, fmt.Errorf("failed to register step %s: %w", step.ID(), err)
		}
	}
	return manager, nil
}
