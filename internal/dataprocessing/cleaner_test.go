package dataprocessing

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelpipe/internal/shared/testutil"
	"fuelpipe/pkg/contracts/domain"
)

var fuelHeader = []string{
	domain.ColumnTransactionDate,
	domain.ColumnDriverID,
	domain.ColumnFuelType,
	domain.ColumnGallonsPurchased,
	domain.ColumnGrossPrice,
	domain.ColumnFullAddress,
}

func TestCleanRemovesExactDuplicates(t *testing.T) {
	row := []string{"2025-04-01", "D100", "Diesel", "10", "35", "123 Main St, Springfield, IL 62704"}
	rows := [][]string{fuelHeader, row, row, {"2025-04-01", "D100", "Diesel", "10", "35.0", "123 Main St, Springfield, IL 62704"}}

	result := NewCleaner(nil).Clean(rows)

	require.Equal(t, 2, result.Cleaned.Len(), "only the identical tuple is a duplicate")
	assert.Equal(t, 1, result.Stats.Duplicates)
	assert.Equal(t, 0, result.Anomalies.Len())
	assert.Equal(t, [][]string{
		{"2025-04-01", "D100", "Diesel", "10", "35.00", "123 Main St, Springfield, IL 62704"},
		{"2025-04-01", "D100", "Diesel", "10", "35.00", "123 Main St, Springfield, IL 62704"},
	}, result.Cleaned.Rows())
}

func TestCleanRoutesAnomaliesWithRawValues(t *testing.T) {
	rows := [][]string{
		fuelHeader,
		{"2025-04-02", "D101", "  PEPSI Max ", "1", "2.5", "9 Elm St, Dayton, OH"},
		{"2025-04-02", "D102", "Regular", "1", "2.5", "9 Elm St, Dayton, OH"},
	}

	result := NewCleaner(nil).Clean(rows)

	assert.Equal(t, fuelHeader, result.Anomalies.Header)
	assert.Equal(t, [][]string{rows[1]}, result.Anomalies.Rows, "anomalies keep the unformatted price")
	require.Equal(t, 1, result.Cleaned.Len())
	assert.Equal(t, "D102", result.Cleaned.Records[0][domain.ColumnDriverID])
	assert.Equal(t, 1, result.Stats.Anomalies)
}

func TestCleanGrossPriceNormalization(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		want      string
		malformed bool
	}{
		{name: "integer", price: "3", want: "3.00"},
		{name: "rounding", price: "12.346", want: "12.35"},
		{name: "surrounding spaces", price: " 7.1 ", want: "7.10"},
		{name: "negative", price: "-4", want: "-4.00"},
		{name: "not a number", price: "abc", malformed: true},
		{name: "empty", price: "", malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			rows := [][]string{fuelHeader, {"2025-04-01", "D1", "Diesel", "1", tt.price, ""}}

			result := NewCleaner(logger).Clean(rows)

			if tt.malformed {
				assert.Equal(t, 0, result.Cleaned.Len())
				assert.Equal(t, 0, result.Anomalies.Len(), "malformed rows are in neither output")
				assert.Equal(t, 1, result.Stats.Malformed)
				assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 1)
				return
			}
			require.Equal(t, 1, result.Cleaned.Len())
			assert.Equal(t, tt.want, result.Cleaned.Records[0][domain.ColumnGrossPrice])
		})
	}
}

func TestCleanWithoutGrossPriceColumn(t *testing.T) {
	rows := [][]string{{"Driver ID", "Fuel Type"}, {"D1", "Diesel"}}

	result := NewCleaner(nil).Clean(rows)

	assert.Equal(t, [][]string{{"D1", "Diesel"}}, result.Cleaned.Rows())
}

func TestCleanPadsShortRows(t *testing.T) {
	rows := [][]string{fuelHeader, {"2025-04-01", "D1", "Diesel", "1", "5"}}

	result := NewCleaner(nil).Clean(rows)

	require.Equal(t, 1, result.Cleaned.Len())
	assert.Equal(t, []string{"2025-04-01", "D1", "Diesel", "1", "5.00", ""}, result.Cleaned.Rows()[0])
}

func TestCleanKeepsRowsWithoutGrossPriceField(t *testing.T) {
	rows := [][]string{fuelHeader, {"2025-04-01", "D1", "Diesel", "1"}}

	result := NewCleaner(nil).Clean(rows)

	require.Equal(t, 1, result.Cleaned.Len())
	assert.Zero(t, result.Stats.Malformed)
	assert.Equal(t, []string{"2025-04-01", "D1", "Diesel", "1", "", ""}, result.Cleaned.Rows()[0])
}

func TestCleanCountsRepeatedAnomalyOnce(t *testing.T) {
	pepsi := []string{"2025-04-01", "D2", "Pepsi Max", "1", "2.50", ""}
	rows := [][]string{fuelHeader, pepsi, pepsi, pepsi}

	result := NewCleaner(nil).Clean(rows)

	assert.Equal(t, 1, result.Anomalies.Len())
	assert.Equal(t, 1, result.Stats.Anomalies)
	assert.Equal(t, 2, result.Stats.Duplicates)
	assert.Zero(t, result.Cleaned.Len())
}

func TestCleanEmptyInput(t *testing.T) {
	result := NewCleaner(nil).Clean(nil)
	assert.Equal(t, 0, result.Cleaned.Len())
	assert.Equal(t, 0, result.Anomalies.Len())

	result = NewCleaner(nil).Clean([][]string{fuelHeader})
	assert.Equal(t, fuelHeader, result.Cleaned.Header.Columns())
	assert.Equal(t, fuelHeader, result.Anomalies.Header)
}

func TestCleanStatsAddUp(t *testing.T) {
	dup := []string{"2025-04-01", "D1", "Diesel", "1", "5", ""}
	rows := [][]string{
		fuelHeader,
		dup, dup,
		{"2025-04-01", "D2", "pepsi", "1", "5", ""},
		{"2025-04-01", "D3", "Diesel", "1", "x", ""},
		{"2025-04-01", "D4", "Diesel", "1", "9", ""},
	}

	s := NewCleaner(nil).Clean(rows).Stats

	assert.Equal(t, CleanStats{Input: 5, Duplicates: 1, Anomalies: 1, Malformed: 1, Cleaned: 2}, s)
	assert.Equal(t, s.Input, s.Duplicates+s.Anomalies+s.Malformed+s.Cleaned)
}

func TestIsAnomaly(t *testing.T) {
	assert.True(t, IsAnomaly("Pepsi"))
	assert.True(t, IsAnomaly(" diet PEPSI "))
	assert.False(t, IsAnomaly("Diesel"))
	assert.False(t, IsAnomaly(""))
}

func TestRowKeyDistinguishesFieldBoundaries(t *testing.T) {
	assert.NotEqual(t, rowKey([]string{"a,b"}), rowKey([]string{"a", "b"}))
	assert.NotEqual(t, rowKey([]string{"a"}), rowKey([]string{"a", ""}))
	assert.Equal(t, rowKey([]string{"a", "b"}), rowKey([]string{"a", "b"}))
}
