package exporter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fuelpipe/internal/config"
	"fuelpipe/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRows loads every row of a tabular file, header included.
// Files ending in .xlsx are read from their first sheet; anything else is CSV.
func ReadRows(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSXRows(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	rows, err := readCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// ReadTable loads a file and zips every data row with the header
func ReadTable(path string) (*domain.Table, error) {
	rows, err := ReadRows(path)
	if err != nil {
		return nil, err
	}
	return domain.TableFromRows(rows), nil
}

// readCSV tolerates ragged rows and stray quotes; a leading UTF-8 BOM is dropped
func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Bare file names are placed in
// the data directory of paths; paths may be nil.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file, replacing any previous content
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if err := writeRecords(file, options); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// WriteTable writes a table with its header in header order
func (w *CSVWriter) WriteTable(filePath string, table *domain.Table) error {
	if table == nil {
		table = domain.NewTable(nil)
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers: table.Header.Columns(),
		Records: table.Rows(),
	})
}

// WriteRaw writes rows exactly as they were read
func (w *CSVWriter) WriteRaw(filePath string, table *domain.RawTable) error {
	if table == nil {
		table = &domain.RawTable{}
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers: table.Header,
		Records: table.Rows,
	})
}

func writeRecords(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// resolvePath places bare file names in the data directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if w.paths == nil || filepath.IsAbs(filePath) || filepath.Base(filePath) != filePath {
		return filePath
	}
	return w.paths.GetDataPath(filePath)
}
