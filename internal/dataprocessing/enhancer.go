package dataprocessing

import (
	"log/slog"
	"math"

	"fuelpipe/pkg/contracts/domain"
)

// Derived values written when a price per gallon cannot be computed
const (
	PricePerGallonError       = "Error"
	PricePerGallonUnavailable = "N/A"
)

// Enhancer adds derived columns to a table
type Enhancer struct {
	logger *slog.Logger
}

// NewEnhancer creates an enhancer
func NewEnhancer(logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{logger: logger.With(slog.String("component", "enhancer"))}
}

// Derive returns a copy of table with a Price Per Gallon column
func (e *Enhancer) Derive(table *domain.Table) *domain.Table {
	if table == nil {
		table = domain.NewTable(nil)
	}
	out := table.Clone()
	out.Header.Ensure(domain.ColumnPricePerGallon)

	var errored, unavailable int
	for _, record := range out.Records {
		v := PricePerGallon(record)
		switch v {
		case PricePerGallonError:
			errored++
		case PricePerGallonUnavailable:
			unavailable++
		}
		record[domain.ColumnPricePerGallon] = v
	}

	e.logger.Info("derivation complete",
		slog.Int("rows", out.Len()),
		slog.Int("errors", errored),
		slog.Int("unavailable", unavailable))
	return out
}

// PricePerGallon computes gross price over gallons with two decimals.
// A missing column counts as zero; an unparsable value yields "Error" and
// zero gallons yields "N/A".
func PricePerGallon(r domain.Record) string {
	gross, err := parseNumber(numericField(r, domain.ColumnGrossPrice))
	if err != nil {
		return PricePerGallonError
	}
	gallons, err := parseNumber(numericField(r, domain.ColumnGallonsPurchased))
	if err != nil {
		return PricePerGallonError
	}
	if gallons == 0 {
		return PricePerGallonUnavailable
	}

	ppg := gross / gallons
	if math.IsNaN(ppg) || math.IsInf(ppg, 0) {
		return PricePerGallonUnavailable
	}
	return formatFixed2(ppg)
}
