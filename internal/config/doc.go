// Package config provides configuration management for fuelpipe.
// It handles loading configuration from multiple sources, validation, and
// resolution of the file paths used by a pipeline run.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources, later sources winning:
//
//  1. Default values (Default)
//  2. A YAML file (fuelpipe.yaml or configs/fuelpipe.yaml, or --config)
//  3. Environment variables
//  4. Command line flags, applied by the cli package
//
// # Environment Variables
//
// All environment variables follow the pattern FUELPIPE_<SECTION>_<KEY>:
//
//	FUELPIPE_PATHS_DATA_DIR=Data
//	FUELPIPE_GEOCODE_API_KEY=...
//	FUELPIPE_ENRICHMENT_MAX_ROWS=5
//	FUELPIPE_LOGGING_LEVEL=debug
//
// # Validation
//
// Validate checks the struct tags with go-playground/validator: the lookup
// endpoint must be a URL, file names must be bare names, numeric limits must
// not be negative and enumerated settings must be one of their known values.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return err
//	}
//	paths := cfg.ResolvePaths()
//	if err := paths.EnsureDirectories(); err != nil {
//		return err
//	}
package config
