package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dataingest/internal/config"
)

var (
	// defaultRegistry holds the process-wide component loggers
	defaultRegistry   *LoggerRegistry
	defaultRegistryMu sync.Mutex
)

// contextKey is a type for context keys
type contextKey string

const (
	// RunIDContextKey is the key for storing the run ID in context
	RunIDContextKey contextKey = "run_id"
)

// LoggerRegistry hands out one logger per component. Each logger writes to the
// console and to <dir>/<component>.log. A component's handlers are attached once,
// however many times its logger is requested.
type LoggerRegistry struct {
	mu      sync.Mutex
	cfg     config.LoggingConfig
	console io.Writer
	loggers map[string]*slog.Logger
	files   map[string]*os.File
}

// NewLoggerRegistry creates a registry. A nil console with cfg.Console set means stdout.
func NewLoggerRegistry(cfg config.LoggingConfig, console io.Writer) *LoggerRegistry {
	if console == nil && cfg.Console {
		console = os.Stdout
	}
	if cfg.Dir == "" {
		cfg.Dir = config.DefaultLogsDir
	}
	return &LoggerRegistry{
		cfg:     cfg,
		console: console,
		loggers: make(map[string]*slog.Logger),
		files:   make(map[string]*os.File),
	}
}

// Logger returns the logger for component, creating it and its log file on first use
func (r *LoggerRegistry) Logger(component string) *slog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	if logger, ok := r.loggers[component]; ok {
		return logger
	}

	logger := r.createLogger(component)
	r.loggers[component] = logger
	return logger
}

// LogFilePath returns the log file used by component
func (r *LoggerRegistry) LogFilePath(component string) string {
	return filepath.Join(r.cfg.Dir, component+config.LogFileExt)
}

// createLogger builds a logger for component. Caller holds r.mu.
func (r *LoggerRegistry) createLogger(component string) *slog.Logger {
	var writers []io.Writer
	if r.console != nil {
		writers = append(writers, r.console)
	}

	path := r.LogFilePath(component)
	file, fileErr := openLogFile(path)
	if fileErr == nil {
		r.files[component] = file
		writers = append(writers, file)
	}

	var output io.Writer
	switch len(writers) {
	case 0:
		output = io.Discard
	case 1:
		output = writers[0]
	default:
		output = io.MultiWriter(writers...)
	}

	logger := slog.New(&traceHandler{Handler: newHandler(r.cfg, output)}).
		With(slog.String("component", component))

	if fileErr != nil {
		logger.Warn("Failed to open component log file, logging to console only",
			slog.String("path", path),
			slog.String("error", fileErr.Error()))
	}

	return logger
}

// Close closes every open log file. Loggers handed out earlier must not be used afterwards.
func (r *LoggerRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for component, file := range r.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close log file for %s: %w", component, err)
		}
	}
	r.files = make(map[string]*os.File)
	r.loggers = make(map[string]*slog.Logger)
	return firstErr
}

// newHandler creates the slog handler for the configured format
func newHandler(cfg config.LoggingConfig, output io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(cfg.Level),
	}

	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(output, opts)
	}
	return slog.NewJSONHandler(output, opts)
}

// traceHandler wraps a slog.Handler to automatically inject run_id from context
type traceHandler struct {
	slog.Handler
}

// Handle adds run_id to the record if present in context
func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if runID := RunIDFromContext(ctx); runID != "" {
		r.AddAttrs(slog.String("run_id", runID))
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs returns a new Handler with additional attributes
func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup returns a new Handler with the given group name
func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitializeLogging installs the process-wide registry.
// The first call wins; later calls return the registry already installed.
func InitializeLogging(cfg config.LoggingConfig) *LoggerRegistry {
	defaultRegistryMu.Lock()
	defer defaultRegistryMu.Unlock()

	if defaultRegistry == nil {
		defaultRegistry = NewLoggerRegistry(cfg, nil)
	}
	return defaultRegistry
}

// CloseLogging closes the process-wide registry's log files
func CloseLogging() error {
	defaultRegistryMu.Lock()
	defer defaultRegistryMu.Unlock()

	if defaultRegistry == nil {
		return nil
	}
	return defaultRegistry.Close()
}

// ResetLoggingForTesting drops the process-wide registry.
// This should only be called in tests.
func ResetLoggingForTesting() {
	CloseLogging()

	defaultRegistryMu.Lock()
	defaultRegistry = nil
	defaultRegistryMu.Unlock()
}

// openLogFile opens or creates a log file with proper permissions
func openLogFile(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, config.DirPerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.FilePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	return file, nil
}
