// Package exporter reads and writes the files exchanged between pipeline steps.
//
// It contains three groups of functions:
//
// Reading: ReadRows and ReadTable load a CSV file (ragged rows and a leading
// UTF-8 BOM are tolerated) or the first sheet of an .xlsx workbook.
//
// CSVWriter: writes tables with their header, creating the destination
// directory as needed. Bare file names are placed in the data directory.
//
// Reports: WriteValidationReport writes the framed list of validation issues;
// WriteXLSX writes the final dataset as a workbook.
//
// Example usage:
//
//	table, err := exporter.ReadTable(paths.Cleaned)
//	if err != nil {
//		return err
//	}
//	writer := exporter.NewCSVWriter(paths, logger)
//	err = writer.WriteTable(paths.Enriched, table)
package exporter
