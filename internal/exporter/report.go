package exporter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fuelpipe/pkg/contracts/domain"
)

// Framing of the validation report
const (
	ReportIssuesHeader = "--- Potential Data Issues Found ---"
	ReportIssuesFooter = "-----------------------------------"
	ReportNoIssues     = "--- Data validation complete: No obvious issues found based on defined checks. ---"
)

// ReportLines renders issues between the header and footer lines, or the
// single no-issues line when there is nothing to report.
func ReportLines(issues []domain.Issue) []string {
	if len(issues) == 0 {
		return []string{ReportNoIssues}
	}
	lines := make([]string, 0, len(issues)+2)
	lines = append(lines, ReportIssuesHeader)
	for _, issue := range issues {
		lines = append(lines, issue.String())
	}
	return append(lines, ReportIssuesFooter)
}

// WriteReport writes the report lines to w, one per line
func WriteReport(w io.Writer, issues []domain.Issue) error {
	bw := bufio.NewWriter(w)
	for _, line := range ReportLines(issues) {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteValidationReport replaces the report file at path
func WriteValidationReport(path string, issues []domain.Issue) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteReport(file, issues); err != nil {
		file.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return file.Close()
}
