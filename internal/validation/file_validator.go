package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"dataingest/internal/config"
	apperrors "dataingest/internal/errors"
)

// FileValidator checks the source file and output directory of an ingestion run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputFile checks that path exists and is a regular file.
// A missing path yields a SourceNotFound error; any other problem a Read error.
func (v *FileValidator) ValidateInputFile(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("Data file does not exist",
			slog.String("file", path))
		return nil, apperrors.NewSourceNotFoundError(path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat data file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, apperrors.NewReadError(path, err)
	}
	if info.IsDir() {
		v.logger.Error("Data path is a directory, not a file",
			slog.String("path", path))
		return nil, apperrors.NewReadError(path, fmt.Errorf("%s is a directory, not a file", path))
	}

	v.logger.Debug("Data file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return info, nil
}

// ValidateOutputDirectory ensures dir and its parents exist. It is a no-op for an existing directory.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, config.DirPerm); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewPersistError(dir, err)
	}

	v.logger.Debug("Output directory ready",
		slog.String("directory", dir))
	return nil
}
