package dataprocessing

import (
	"log/slog"
	"strconv"
	"strings"

	"fuelpipe/pkg/contracts/domain"
)

// anomalyMarker flags rows whose fuel type is not a fuel at all
const anomalyMarker = "pepsi"

// CleanStats counts what happened to every data row of the input
type CleanStats struct {
	Input      int `json:"input"`
	Duplicates int `json:"duplicates"`
	Anomalies  int `json:"anomalies"`
	Malformed  int `json:"malformed"`
	Cleaned    int `json:"cleaned"`
}

// CleanResult holds both outputs of a cleaning pass
type CleanResult struct {
	Cleaned   *domain.Table
	Anomalies *domain.RawTable
	Stats     CleanStats
}

// Cleaner removes exact duplicate rows, splits anomalous rows into their own
// table and normalizes Gross Price to two decimals.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner. A nil logger falls back to slog.Default.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With(slog.String("component", "cleaner"))}
}

// IsAnomaly reports whether a fuel type marks the row as anomalous
func IsAnomaly(fuelType string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(fuelType)), anomalyMarker)
}

// Clean processes rows as read from the input file; the first row is the header.
//
// Duplicates are recognized on the exact ordered tuple of raw values and are
// skipped silently. Anomalies keep their original fields. A row whose Gross Price
// cannot be parsed is dropped from both outputs; a row without that field is kept.
func (c *Cleaner) Clean(rows [][]string) CleanResult {
	if len(rows) == 0 {
		return CleanResult{
			Cleaned:   domain.NewTable(nil),
			Anomalies: &domain.RawTable{},
		}
	}

	header := rows[0]
	result := CleanResult{
		Cleaned:   domain.NewTable(header),
		Anomalies: &domain.RawTable{Header: append([]string(nil), header...)},
	}
	seen := make(map[string]struct{}, len(rows))

	for i, raw := range rows[1:] {
		result.Stats.Input++

		key := rowKey(raw)
		if _, dup := seen[key]; dup {
			result.Stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		record := domain.NewRecord(header, raw)

		if fuel, ok := record.Get(domain.ColumnFuelType); ok && fuel != "" && IsAnomaly(fuel) {
			result.Anomalies.Rows = append(result.Anomalies.Rows, append([]string(nil), raw...))
			result.Stats.Anomalies++
			continue
		}

		// rows too short to reach Gross Price are kept as they are
		if raw, ok := record.Get(domain.ColumnGrossPrice); ok {
			price, err := parseNumber(raw)
			if err != nil {
				result.Stats.Malformed++
				c.logger.Warn("dropping row with unparsable gross price",
					slog.Int("row", i+2),
					slog.String("value", raw))
				continue
			}
			record[domain.ColumnGrossPrice] = formatFixed2(price)
		}

		result.Cleaned.Append(record)
	}

	result.Stats.Cleaned = result.Cleaned.Len()
	c.logger.Info("cleaning complete",
		slog.Int("input_rows", result.Stats.Input),
		slog.Int("duplicates", result.Stats.Duplicates),
		slog.Int("anomalies", result.Stats.Anomalies),
		slog.Int("malformed", result.Stats.Malformed),
		slog.Int("cleaned_rows", result.Stats.Cleaned))

	return result
}

// rowKey length-prefixes every field so that ("a,b") and ("a","b") never collide
func rowKey(raw []string) string {
	var b strings.Builder
	for _, f := range raw {
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteByte(':')
		b.WriteString(f)
	}
	return b.String()
}
