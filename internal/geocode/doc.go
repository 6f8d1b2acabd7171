// Package geocode extracts address components from free-text addresses and
// resolves a postal code for a (city, region) pair through an external lookup
// service.
//
// The extractors are pure functions:
//
//	addr := geocode.ParseAddress("123 Main St, Springfield, IL 62704")
//	// addr.PostalCode == "62704", addr.City == "Springfield", addr.Region == "IL"
//
// A Resolver caches every successful lookup for its lifetime, so each distinct
// pair reaches the service at most once per run:
//
//	resolver := geocode.NewResolver(geocode.Config{APIKey: key}, geocode.WithLogger(logger))
//	code, ok := resolver.Resolve(ctx, "Columbus", "OH")
//
// Transport failures, non-2xx responses and malformed payloads are logged and
// reported as "not found"; they never abort the caller.
package geocode
