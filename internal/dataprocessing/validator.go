package dataprocessing

import (
	"fmt"
	"log/slog"
	"regexp"

	"fuelpipe/pkg/contracts/domain"
)

// Thresholds above which a value is reported as a potential outlier
const (
	GallonsOutlierThreshold    = 100.0
	GrossPriceOutlierThreshold = 1000.0
)

var (
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	driverIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// Validator applies field-level business rules. Findings are informational and
// never change the data.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a validator
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger.With(slog.String("component", "validator"))}
}

// Validate checks every record and returns the issues in encounter order.
// Row numbers are 1-based file lines, so the first data row is row 2.
func (v *Validator) Validate(table *domain.Table) []domain.Issue {
	var issues []domain.Issue
	if table == nil {
		return issues
	}

	for i, record := range table.Records {
		issues = append(issues, checkRecord(i+2, record)...)
	}

	v.logger.Info("validation complete",
		slog.Int("rows", table.Len()),
		slog.Int("issues", len(issues)))
	return issues
}

func checkRecord(row int, r domain.Record) []domain.Issue {
	var issues []domain.Issue
	add := func(field, value, format string) {
		issues = append(issues, domain.Issue{
			Row:         row,
			Field:       field,
			Value:       value,
			Description: fmt.Sprintf(format, field, value),
		})
	}

	if date := r[domain.ColumnTransactionDate]; date != "" && !datePattern.MatchString(date) {
		add(domain.ColumnTransactionDate, date, "invalid date format in '%s': '%s'")
	}

	gallonsRaw := numericField(r, domain.ColumnGallonsPurchased)
	if gallons, err := parseNumber(gallonsRaw); err != nil {
		add(domain.ColumnGallonsPurchased, gallonsRaw, "non-numeric value in '%s': '%s'")
	} else {
		if gallons < 0 {
			add(domain.ColumnGallonsPurchased, gallonsRaw, "negative value in '%s': '%s'")
		}
		if gallons > GallonsOutlierThreshold {
			add(domain.ColumnGallonsPurchased, gallonsRaw, "potential outlier in '%s': '%s'")
		}
	}

	if driver := r[domain.ColumnDriverID]; driver != "" && !driverIDPattern.MatchString(driver) {
		add(domain.ColumnDriverID, driver, "potential issue with format in '%s': '%s'")
	}

	grossRaw := numericField(r, domain.ColumnGrossPrice)
	if gross, err := parseNumber(grossRaw); err == nil && gross > GrossPriceOutlierThreshold {
		add(domain.ColumnGrossPrice, grossRaw, "potential outlier in '%s': '%s'")
	}

	return issues
}
