// Package dataprocessing holds the in-memory stages of the fuel purchase pipeline.
//
// Every stage is a function over a domain.Table and performs no file I/O:
//
//  1. Cleaner: drops exact duplicates, splits anomalous rows, normalizes Gross Price
//  2. Enricher: fills ZipCode from city and region via a PostalCodeResolver
//  3. Validator: reports field-level issues without touching the data
//  4. Enhancer: derives Price Per Gallon
//
// Numeric fields are parsed leniently. A value that cannot be parsed never aborts
// a stage; each stage documents what it does instead.
//
// Example:
//
//	result := dataprocessing.NewCleaner(logger).Clean(rows)
//	enriched, stats, err := dataprocessing.NewEnricher(resolver, logger).Enrich(ctx, result.Cleaned, 5)
//	issues := dataprocessing.NewValidator(logger).Validate(enriched)
//	enhanced := dataprocessing.NewEnhancer(logger).Derive(enriched)
package dataprocessing
