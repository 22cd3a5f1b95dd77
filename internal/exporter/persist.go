package exporter

import (
	"context"
	"log/slog"
	"path/filepath"

	"dataingest/internal/config"
	"dataingest/internal/dataset"
	apperrors "dataingest/internal/errors"
	"dataingest/internal/validation"
)

// Persister writes a train/test partition to an output directory
type Persister struct {
	writer    *CSVWriter
	validator *validation.FileValidator
	logger    *slog.Logger
	comma     rune
}

// NewPersister creates a persister. A zero comma writes ','.
func NewPersister(logger *slog.Logger, comma rune) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		writer:    NewCSVWriter(logger),
		validator: validation.NewFileValidator(logger),
		logger:    logger,
		comma:     comma,
	}
}

// Save creates dir if needed and writes train.csv and test.csv into it,
// overwriting existing files. Each file has a header row and no index column.
func (p *Persister) Save(ctx context.Context, train, test *dataset.Dataset, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		p.logger.ErrorContext(ctx, "Error occurred while saving the data",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return "", apperrors.NewPersistError(dir, err)
	}

	if err := p.validator.ValidateOutputDirectory(dir); err != nil {
		return "", err
	}

	outputs := []struct {
		name string
		data *dataset.Dataset
	}{
		{config.TrainFileName, train},
		{config.TestFileName, test},
	}

	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := p.writeDataset(path, out.data); err != nil {
			p.logger.ErrorContext(ctx, "Error occurred while saving the data",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return "", apperrors.NewPersistError(path, err)
		}
		p.logger.DebugContext(ctx, "Data saved",
			slog.String("path", path),
			slog.Int("rows", out.data.Len()))
	}

	p.logger.InfoContext(ctx, "train and test data saved",
		slog.String("directory", dir))

	return config.MsgIngestionCompleted, nil
}

func (p *Persister) writeDataset(path string, ds *dataset.Dataset) error {
	if ds == nil {
		ds = &dataset.Dataset{}
	}
	return p.writer.WriteCSV(path, WriteOptions{
		Headers: ds.Columns,
		Records: ds.Rows,
		Comma:   p.comma,
	})
}
