package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"dataingest/internal/config"
)

// emptyRecord is how a record holding one empty field is written.
// csv.Writer would emit a blank line, which csv.Reader skips.
const emptyRecord = "\"\"\n"

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string

	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// WriteCSV writes data to filePath, truncating any existing file.
// The parent directory must exist.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.FilePerm)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if err := w.write(file, options); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

func (w *CSVWriter) write(out io.Writer, options WriteOptions) error {
	writer := csv.NewWriter(out)
	if options.Comma != 0 {
		writer.Comma = options.Comma
	}

	if len(options.Headers) > 0 {
		if err := writeRecord(out, writer, options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writeRecord(out, writer, record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}
	return nil
}

// writeRecord writes record through writer, quoting a lone empty field so it reads back as a row
func writeRecord(out io.Writer, writer *csv.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return writer.Write(record)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(out, emptyRecord)
	return err
}
