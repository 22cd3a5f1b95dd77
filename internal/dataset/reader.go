package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	apperrors "dataingest/internal/errors"
	"dataingest/internal/validation"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadOptions configures delimited text parsing
type ReadOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// Reader loads delimited text files into a Dataset
type Reader struct {
	logger    *slog.Logger
	validator *validation.FileValidator
	options   ReadOptions
}

// NewReader creates a new dataset reader
func NewReader(logger *slog.Logger, options ReadOptions) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Comma == 0 {
		options.Comma = ','
	}
	return &Reader{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
		options:   options,
	}
}

// Read loads the file at path. The first record is the header.
func (r *Reader) Read(ctx context.Context, path string) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Data read cancelled",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, apperrors.NewReadError(path, err)
	}

	if _, err := r.validator.ValidateInputFile(path); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.ErrorContext(ctx, "Data file not found",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil, apperrors.NewSourceNotFoundError(path, err)
		}
		r.logger.ErrorContext(ctx, "Unexpected error while opening the data file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, apperrors.NewReadError(path, err)
	}
	defer file.Close()

	ds, err := r.ReadFrom(ctx, file, path)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Data read",
		slog.String("path", path),
		slog.Int("rows", len(ds.Rows)),
		slog.Int("columns", len(ds.Columns)))

	return ds, nil
}

// ReadFrom parses delimited text from src. source names the input in errors and logs.
func (r *Reader) ReadFrom(ctx context.Context, src io.Reader, source string) (*Dataset, error) {
	br := bufio.NewReader(src)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = r.options.Comma

	header, err := cr.Read()
	if err == io.EOF {
		r.logger.ErrorContext(ctx, "Failed to parse the data file",
			slog.String("path", source),
			slog.String("error", "no header row"))
		return nil, apperrors.NewMalformedSourceError(source, fmt.Errorf("no header row"))
	}
	if err != nil {
		return nil, r.classify(ctx, source, err)
	}

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, r.classify(ctx, source, err)
		}
		rows = append(rows, record)
	}

	return New(header, rows), nil
}

// classify maps a csv error to MalformedSource or Read and logs it
func (r *Reader) classify(ctx context.Context, source string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		r.logger.ErrorContext(ctx, "Failed to parse the data file",
			slog.String("path", source),
			slog.Int("line", parseErr.Line),
			slog.String("error", err.Error()))
		return apperrors.NewMalformedSourceError(source, err).WithContext("line", parseErr.Line)
	}

	r.logger.ErrorContext(ctx, "Unexpected error while reading the data",
		slog.String("path", source),
		slog.String("error", err.Error()))
	return apperrors.NewReadError(source, err)
}
