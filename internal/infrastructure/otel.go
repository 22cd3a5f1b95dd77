package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"dataingest/internal/config"
)

const (
	// InstrumentationName names the tracer and meter
	InstrumentationName = "dataingest"
)

// Telemetry holds the tracing and metrics providers for one run
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *PipelineMetrics

	registry    *promclient.Registry
	metricsFile string
	traceOut    io.Closer
	logger      *slog.Logger
}

// PipelineMetrics holds the instruments recorded by the pipeline
type PipelineMetrics struct {
	Runs         metric.Int64Counter
	Steps        metric.Int64Counter
	StepDuration metric.Float64Histogram
	Rows         metric.Int64Counter
}

// InitializeTelemetry sets up tracing and metrics from settings.
// Metrics are always collected in memory and written out on Shutdown when a metrics file is set.
func InitializeTelemetry(settings *config.Settings, logger *slog.Logger) (*Telemetry, error) {
	if settings == nil {
		settings = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(settings.Telemetry.ServiceName),
			semconv.ServiceVersion(config.AppVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t := &Telemetry{
		metricsFile: settings.Telemetry.MetricsFile,
		logger:      logger,
	}

	if err := t.initializeTracing(settings, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := t.initializeMetrics(res); err != nil {
		t.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.Debug("Telemetry initialized",
		slog.String("trace_exporter", settings.Telemetry.TraceExporter),
		slog.String("metrics_file", settings.Telemetry.MetricsFile))

	return t, nil
}

// initializeTracing sets up the tracer for the configured exporter
func (t *Telemetry) initializeTracing(settings *config.Settings, res *resource.Resource) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch settings.Telemetry.TraceExporter {
	case config.TraceExporterNone, "":
		t.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentationName)
		return nil
	case config.TraceExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case config.TraceExporterFile:
		f, openErr := openLogFile(settings.TraceFilePath())
		if openErr != nil {
			return openErr
		}
		t.traceOut = f
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(f))
	default:
		return fmt.Errorf("unsupported trace exporter: %s", settings.Telemetry.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	t.TracerProvider = tp
	t.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(config.AppVersion))
	return nil
}

// initializeMetrics sets up a meter backed by a private Prometheus registry
func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	t.registry = promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(t.registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.MeterProvider.Meter(InstrumentationName, metric.WithInstrumentationVersion(config.AppVersion))

	t.Metrics, err = CreatePipelineMetrics(t.Meter)
	return err
}

// CreatePipelineMetrics creates the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runs, err := meter.Int64Counter(
		"ingestion_runs",
		metric.WithDescription("Number of ingestion runs by outcome"),
	)
	if err != nil {
		return nil, err
	}

	steps, err := meter.Int64Counter(
		"ingestion_steps",
		metric.WithDescription("Number of pipeline steps executed by outcome"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"ingestion_step_duration",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Counter(
		"ingestion_rows",
		metric.WithDescription("Rows handled by dataset, train and test"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		Runs:         runs,
		Steps:        steps,
		StepDuration: stepDuration,
		Rows:         rows,
	}, nil
}

// RecordStep records the outcome and duration of a pipeline step
func (m *PipelineMetrics) RecordStep(ctx context.Context, stepID string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("status", statusOf(err)),
	)
	m.Steps.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRows records a row count for a dataset role (source, train or test)
func (m *PipelineMetrics) RecordRows(ctx context.Context, role string, n int) {
	if m == nil {
		return
	}
	m.Rows.Add(ctx, int64(n), metric.WithAttributes(attribute.String("dataset", role)))
}

// RecordRun records the outcome of a whole run
func (m *PipelineMetrics) RecordRun(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", statusOf(err))))
}

func statusOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown writes the metrics file, if one is configured, and flushes the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.metricsFile != "" && t.registry != nil {
		if err := writeMetricsFile(t.metricsFile, t.registry); err != nil {
			errs = append(errs, err)
		} else {
			t.logger.Debug("Metrics written", slog.String("path", t.metricsFile))
		}
	}

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if t.traceOut != nil {
		if err := t.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		t.traceOut = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %v", errs)
	}
	return nil
}

// writeMetricsFile dumps the registry in Prometheus text format
func writeMetricsFile(path string, registry *promclient.Registry) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	if err := promclient.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, config.DirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
