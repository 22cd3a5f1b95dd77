package operations

import (
	"context"
	"fmt"
	"log/slog"

	"dataingest/internal/config"
	"dataingest/internal/dataset"
	apperrors "dataingest/internal/errors"
	"dataingest/internal/exporter"
	"dataingest/internal/infrastructure"
	"dataingest/internal/partition"
)

// LoggerProvider hands out per-component loggers
type LoggerProvider interface {
	Logger(component string) *slog.Logger
}

// Pipeline runs its steps in order and stops at the first failure
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
	tracer *runTracer
}

// NewPipeline creates a pipeline over steps. telemetry may be nil.
func NewPipeline(logger *slog.Logger, telemetry *infrastructure.Telemetry, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		steps:  steps,
		logger: logger,
		tracer: newRunTracer(telemetry),
	}
}

// NewIngestionPipeline wires the load params, read, split and persist steps.
// Each component gets its own logger from loggers.
func NewIngestionPipeline(paramsPath string, loggers LoggerProvider, telemetry *infrastructure.Telemetry) *Pipeline {
	return NewPipeline(
		loggers.Logger(config.ComponentPipeline),
		telemetry,
		NewLoadParamsStep(paramsPath, loggers.Logger(config.ComponentConfigLoader)),
		NewReadStep(dataset.NewReader(loggers.Logger(config.ComponentReader), dataset.ReadOptions{})),
		NewSplitStep(partition.NewSplitter(loggers.Logger(config.ComponentPartitioner))),
		NewPersistStep(exporter.NewPersister(loggers.Logger(config.ComponentPersister), 0)),
	)
}

// Steps returns the steps in execution order
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Run executes every step in sequence. The error of a failed step is logged and
// returned unchanged. A panicking step fails the run with an Internal error.
// The returned state is never nil.
func (p *Pipeline) Run(ctx context.Context) (*State, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	state := NewState(infrastructure.RunIDFromContext(ctx))

	ctx, _ = p.tracer.traceRun(ctx, state.RunID, len(p.steps))
	state.Start()

	p.logger.InfoContext(ctx, "Data ingestion started",
		slog.Int("steps", len(p.steps)))

	err := p.runSteps(ctx, state)
	endSpan(ctx, err)
	p.tracer.metrics.RecordRun(ctx, err)

	if err != nil {
		state.Fail(err)
		p.logger.ErrorContext(ctx, "Error occurred in ingestion run",
			slog.String("kind", string(apperrors.KindOf(err))),
			slog.String("error", err.Error()),
			slog.Duration("duration", state.Duration()))
		return state, err
	}

	state.Complete()
	p.logSummary(ctx, state)
	return state, nil
}

func (p *Pipeline) runSteps(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.WarnContext(ctx, "Ingestion run cancelled",
				slog.String("step", step.ID()))
			return apperrors.NewInternalError("ingestion run cancelled before step "+step.ID(), err).
				WithContext("step", step.ID())
		}

		p.logger.DebugContext(ctx, "Executing step",
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(p.steps)))

		if err := p.executeStep(ctx, state, step, i+1); err != nil {
			return err
		}
	}
	return nil
}

// executeStep runs one step under its own span and turns a panic into an Internal error
func (p *Pipeline) executeStep(ctx context.Context, state *State, step Step, number int) (err error) {
	stepState := NewStepState(step.ID(), step.Name())
	state.SetStep(stepState)

	ctx, _ = p.tracer.traceStep(ctx, step, number)
	stepState.Start()

	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "Step panicked",
				slog.String("step", step.ID()),
				slog.Any("panic", r))
			err = apperrors.NewInternalError(fmt.Sprintf("step %s panicked", step.ID()), fmt.Errorf("%v", r)).
				WithContext("step", step.ID())
		}

		if err != nil {
			stepState.Fail(err)
		} else {
			stepState.Complete()
		}
		endSpan(ctx, err)
		p.tracer.metrics.RecordStep(ctx, step.ID(), stepState.Duration(), err)

		p.logger.DebugContext(ctx, "Step finished",
			slog.String("step", step.ID()),
			slog.String("status", string(stepState.GetStatus())),
			slog.Duration("duration", stepState.Duration()))
	}()

	return step.Execute(ctx, state)
}

func (p *Pipeline) logSummary(ctx context.Context, state *State) {
	attrs := []any{slog.Duration("duration", state.Duration())}

	if state.Dataset != nil {
		p.tracer.metrics.RecordRows(ctx, "source", state.Dataset.Len())
	}
	if state.Partition != nil {
		trainRows, trainCols := state.Partition.Train.Shape()
		testRows, testCols := state.Partition.Test.Shape()
		p.tracer.metrics.RecordRows(ctx, "train", trainRows)
		p.tracer.metrics.RecordRows(ctx, "test", testRows)

		p.logger.InfoContext(ctx, fmt.Sprintf("size of train (%d, %d) and test (%d, %d)", trainRows, trainCols, testRows, testCols),
			slog.Int("train_rows", trainRows),
			slog.Int("test_rows", testRows))
	}
	if state.Message != "" {
		attrs = append(attrs, slog.String("message", state.Message))
	}

	p.logger.InfoContext(ctx, "Data ingestion finished", attrs...)
}
