package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the zipcodebase city lookup
	DefaultEndpoint = "https://app.zipcodebase.com/api/v1/code/city"

	// DefaultCountry is sent with every lookup
	DefaultCountry = "US"

	// TracerName names spans emitted by the resolver
	TracerName = "fuelpipe/geocode"

	maxResponseBytes = 1 << 20
)

var (
	// ErrMissingAPIKey is returned when no API key is configured; no request is made
	ErrMissingAPIKey = errors.New("postal code API key is not configured")

	// ErrNoPostalCode is returned when the response carries no usable postal code
	ErrNoPostalCode = errors.New("no postal code in response")
)

// StatusError reports a non-2xx response from the lookup service
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lookup service returned status %d", e.StatusCode)
}

// Config configures the lookup service. Endpoint and APIKey are opaque to the resolver.
type Config struct {
	Endpoint          string
	APIKey            string
	Country           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Stats counts what a resolver did during its lifetime
type Stats struct {
	CacheHits   int `json:"cache_hits"`
	CacheMisses int `json:"cache_misses"`
	Requests    int `json:"requests"`
	Resolved    int `json:"resolved"`
	Failures    int `json:"failures"`
}

// Resolver turns a (city, region) pair into a postal code, consulting its cache
// before calling the lookup service. Failures are logged and reported as not found.
type Resolver struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	cache   *Cache
	logger  *slog.Logger
	tracer  trace.Tracer
	stats   Stats
}

// Option customizes a Resolver
type Option func(*Resolver)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.client = client
		}
	}
}

// WithLogger sets the logger used for lookup diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver with an empty cache
func NewResolver(cfg Config, opts ...Option) *Resolver {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Country == "" {
		cfg.Country = DefaultCountry
	}

	r := &Resolver{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  NewCache(),
		logger: slog.Default(),
		tracer: otel.Tracer(TracerName),
	}
	if cfg.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "postal_code_resolver"))
	return r
}

// Resolve returns the postal code for city and region, or false when none could be found.
func (r *Resolver) Resolve(ctx context.Context, city, region string) (string, bool) {
	if code, ok := r.cache.Get(city, region); ok {
		r.stats.CacheHits++
		r.logger.DebugContext(ctx, "postal code served from cache",
			slog.String("city", city),
			slog.String("region", region),
			slog.String("postal_code", code))
		return code, true
	}
	r.stats.CacheMisses++

	code, err := r.lookup(ctx, city, region)
	if err != nil {
		r.stats.Failures++
		r.logger.WarnContext(ctx, "postal code lookup failed",
			slog.String("city", city),
			slog.String("region", region),
			slog.String("error", err.Error()))
		return "", false
	}

	r.cache.Set(city, region, code)
	r.stats.Resolved++
	r.logger.InfoContext(ctx, "postal code resolved",
		slog.String("city", city),
		slog.String("region", region),
		slog.String("postal_code", code))
	return code, true
}

// Stats returns a snapshot of the resolver counters
func (r *Resolver) Stats() Stats {
	return r.stats
}

func (r *Resolver) lookup(ctx context.Context, city, region string) (code string, err error) {
	ctx, span := r.tracer.Start(ctx, "geocode.lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("geocode.city", city),
			attribute.String("geocode.region", region),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("geocode.postal_code", code))
		}
		span.End()
	}()

	if r.config.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := r.newRequest(ctx, city, region)
	if err != nil {
		return "", err
	}

	r.stats.Requests++
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return parsePostalCode(body)
}

func (r *Resolver) newRequest(ctx context.Context, city, region string) (*http.Request, error) {
	u, err := url.Parse(r.config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", r.config.Endpoint, err)
	}
	q := u.Query()
	q.Set("city", city)
	q.Set("state_name", region)
	q.Set("country", r.config.Country)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", r.config.APIKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// lookupResponse accepts the shapes the service is known to return under "results":
// a list of objects with postal_code, a list of bare codes, or a map of query to list.
type lookupResponse struct {
	Results json.RawMessage `json:"results"`
}

func parsePostalCode(body []byte) (string, error) {
	var resp lookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(resp.Results, &list); err == nil {
		if code := firstPostalCode(list); code != "" {
			return code, nil
		}
		return "", ErrNoPostalCode
	}

	var byQuery map[string][]json.RawMessage
	if err := json.Unmarshal(resp.Results, &byQuery); err == nil {
		keys := make([]string, 0, len(byQuery))
		for k := range byQuery {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if code := firstPostalCode(byQuery[k]); code != "" {
				return code, nil
			}
		}
	}

	return "", ErrNoPostalCode
}

func firstPostalCode(results []json.RawMessage) string {
	for _, raw := range results {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entry); err == nil {
			if code := postalCodeValue(entry["postal_code"]); code != "" {
				return code
			}
			continue
		}

		var code string
		if err := json.Unmarshal(raw, &code); err == nil {
			if code = strings.TrimSpace(code); code != "" {
				return code
			}
		}
	}
	return ""
}

// postalCodeValue reads postal_code as a string or as a bare number.
func postalCodeValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var code string
	if err := json.Unmarshal(raw, &code); err == nil {
		return strings.TrimSpace(code)
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}
