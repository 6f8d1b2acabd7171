package operations

import (
	"fuelpipe/internal/config"
	"fuelpipe/internal/dataprocessing"
	"fuelpipe/internal/geocode"
	"fuelpipe/internal/infrastructure"
)

// ResolverFactory returns a fresh resolver, so that every enrichment run
// starts with an empty cache
type ResolverFactory func() dataprocessing.PostalCodeResolver

// resolverStats is implemented by resolvers that count their lookups
type resolverStats interface {
	Stats() geocode.Stats
}

// StageOptions contains the dependencies shared by the pipeline steps
type StageOptions struct {
	Paths       *config.Paths
	NewResolver ResolverFactory
	MaxRows     int
	ExportXLSX  bool
	Metrics     *infrastructure.PipelineMetrics
}
