package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds the ambient settings of a run. Pipeline parameters live in the params file.
type Settings struct {
	Logging   LoggingConfig   `envconfig:"LOGGING"`
	Telemetry TelemetryConfig `envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level   string `envconfig:"LEVEL" default:"debug"`
	Format  string `envconfig:"FORMAT" default:"json"`
	Dir     string `envconfig:"DIR" default:"logs"`
	Console bool   `envconfig:"CONSOLE" default:"true"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName   string `envconfig:"SERVICE_NAME" default:"dataingest"`
	TraceExporter string `envconfig:"TRACE_EXPORTER" default:"none"`
	MetricsFile   string `envconfig:"METRICS_FILE"`
}

// LoadSettings loads settings from INGEST_* environment variables
func LoadSettings() (*Settings, error) {
	var s Settings

	if err := envconfig.Process(EnvPrefix, &s); err != nil {
		return nil, fmt.Errorf("failed to load settings from env: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}

	return &s, nil
}

// validate validates the settings, normalizing values that have a safe fallback
func (s *Settings) validate() error {
	switch strings.ToLower(s.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", s.Logging.Level)
	}

	if f := strings.ToLower(s.Logging.Format); f != "json" && f != "text" {
		s.Logging.Format = "json"
	}

	if s.Logging.Dir == "" {
		s.Logging.Dir = DefaultLogsDir
	}

	switch s.Telemetry.TraceExporter {
	case TraceExporterNone, TraceExporterStdout, TraceExporterFile:
	default:
		return fmt.Errorf("unsupported trace exporter: %s", s.Telemetry.TraceExporter)
	}

	return nil
}

// TraceFilePath returns where the file trace exporter writes spans
func (s *Settings) TraceFilePath() string {
	return filepath.Join(s.Logging.Dir, TraceFileName)
}

// Default returns default settings
func Default() *Settings {
	return &Settings{
		Logging: LoggingConfig{
			Level:   "debug",
			Format:  "json",
			Dir:     DefaultLogsDir,
			Console: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			TraceExporter: TraceExporterNone,
		},
	}
}
