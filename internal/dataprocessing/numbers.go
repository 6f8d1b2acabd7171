package dataprocessing

import (
	"strconv"
	"strings"

	"fuelpipe/pkg/contracts/domain"
)

// parseNumber accepts surrounding whitespace; everything else must be a valid float
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func formatFixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// numericField returns the value of col, or "0" when the record does not carry the column
func numericField(r domain.Record, col string) string {
	if v, ok := r.Get(col); ok {
		return v
	}
	return "0"
}
