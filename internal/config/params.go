package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "dataingest/internal/errors"
)

// Params holds the data ingestion parameters read from the params file
type Params struct {
	DataPath    string
	SavePath    string
	TestSize    float64
	RandomState int64
}

// paramsFile mirrors the on-disk layout. Pointers distinguish a missing key from a zero value.
type paramsFile struct {
	DataIngestion *ingestionSection `yaml:"data_ingestion" validate:"required"`
}

type ingestionSection struct {
	DataPath    string   `yaml:"data_path" validate:"required"`
	SavePath    string   `yaml:"save_path" validate:"required"`
	TestSize    *float64 `yaml:"test_size" validate:"required"`
	RandomState *int64   `yaml:"random_state" validate:"required"`
}

var paramsValidator = newParamsValidator()

func newParamsValidator() *validator.Validate {
	v := validator.New()

	// Report yaml key names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// LoadParams reads the data_ingestion section of the params file at path.
// Every failure is logged with the path before it is returned.
func LoadParams(path string, logger *slog.Logger) (Params, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Error("Params file not found",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return Params{}, apperrors.NewConfigNotFoundError(path, err)
		}
		logger.Error("Unexpected error while reading the params file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return Params{}, apperrors.NewConfigLoadError(path, "failed to read params file "+path, err)
	}

	var raw paramsFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		if _, ok := err.(*yaml.TypeError); ok {
			logger.Error("Params file has values of the wrong type",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return Params{}, apperrors.NewConfigLoadError(path, "invalid value types in "+path, err)
		}
		logger.Error("YAML error in params file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return Params{}, apperrors.NewConfigParseError(path, err)
	}

	if err := paramsValidator.Struct(raw); err != nil {
		missing := missingKeys(err)
		logger.Error("Params file is missing required keys",
			slog.String("path", path),
			slog.Any("missing", missing))
		return Params{}, apperrors.NewConfigLoadError(path,
			"missing required keys in "+path+": "+strings.Join(missing, ", "), err).
			WithContext("missing", missing)
	}

	params := Params{
		DataPath:    raw.DataIngestion.DataPath,
		SavePath:    raw.DataIngestion.SavePath,
		TestSize:    *raw.DataIngestion.TestSize,
		RandomState: *raw.DataIngestion.RandomState,
	}

	logger.Info("Params fetched",
		slog.String("path", path),
		slog.String("data_path", params.DataPath),
		slog.String("save_path", params.SavePath),
		slog.Float64("test_size", params.TestSize),
		slog.Int64("random_state", params.RandomState))

	return params, nil
}

// missingKeys lists the yaml keys named by validation failures
func missingKeys(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	keys := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		if strings.Contains(fe.Namespace(), ".data_ingestion.") {
			key = "data_ingestion." + key
		}
		keys = append(keys, key)
	}
	return keys
}
