package dataprocessing

import (
	"context"
	"log/slog"

	"fuelpipe/internal/geocode"
	"fuelpipe/pkg/contracts/domain"
)

// PostalCodeResolver looks up a postal code for a city and region.
// Implementations report failures as "not found" rather than errors.
type PostalCodeResolver interface {
	Resolve(ctx context.Context, city, region string) (string, bool)
}

// EnrichStats counts how the enrichment pass treated each row
type EnrichStats struct {
	Visited      int `json:"visited"`
	Skipped      int `json:"skipped"`
	Unresolvable int `json:"unresolvable"`
	Lookups      int `json:"lookups"`
	Updated      int `json:"updated"`
	Unresolved   int `json:"unresolved"`
	PassedOver   int `json:"passed_over"`
}

// Enricher fills the ZipCode column for rows whose address has no postal code
type Enricher struct {
	resolver PostalCodeResolver
	logger   *slog.Logger
}

// NewEnricher creates an enricher backed by resolver
func NewEnricher(resolver PostalCodeResolver, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		resolver: resolver,
		logger:   logger.With(slog.String("component", "enricher")),
	}
}

// Enrich returns a copy of table with ZipCode filled where it could be resolved.
//
// maxRows bounds the number of rows visited in file order, counting rows that are
// skipped because they already carry a postal code. Rows past the bound are kept
// unchanged. maxRows <= 0 visits every row. The ZipCode column is added to the
// header the first time a code is resolved. Only context cancellation is returned
// as an error.
func (e *Enricher) Enrich(ctx context.Context, table *domain.Table, maxRows int) (*domain.Table, EnrichStats, error) {
	var stats EnrichStats
	if table == nil {
		return domain.NewTable(nil), stats, nil
	}
	out := table.Clone()

	for i, record := range out.Records {
		if maxRows > 0 && stats.Visited >= maxRows {
			stats.PassedOver = out.Len() - i
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Visited++

		addr := geocode.ParseAddress(record[domain.ColumnFullAddress])
		if addr.HasPostalCode() || record[domain.ColumnZipCode] != "" {
			stats.Skipped++
			continue
		}
		if !addr.Resolvable() {
			stats.Unresolvable++
			e.logger.DebugContext(ctx, "address lacks city or region",
				slog.Int("row", i+2),
				slog.String("address", record[domain.ColumnFullAddress]))
			continue
		}

		stats.Lookups++
		code, ok := e.resolver.Resolve(ctx, addr.City, addr.Region)
		if !ok {
			stats.Unresolved++
			continue
		}

		out.Header.Ensure(domain.ColumnZipCode)
		record[domain.ColumnZipCode] = code
		stats.Updated++
	}

	e.logger.InfoContext(ctx, "enrichment complete",
		slog.Int("max_rows", maxRows),
		slog.Int("visited", stats.Visited),
		slog.Int("skipped", stats.Skipped),
		slog.Int("lookups", stats.Lookups),
		slog.Int("updated", stats.Updated),
		slog.Int("unresolved", stats.Unresolved),
		slog.Int("passed_over", stats.PassedOver))

	return out, stats, nil
}
