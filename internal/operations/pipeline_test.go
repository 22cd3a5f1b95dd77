package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataingest/internal/config"
	"dataingest/internal/dataset"
	apperrors "dataingest/internal/errors"
	"dataingest/internal/infrastructure"
	"dataingest/internal/shared/testutil"
)

// componentLoggers hands out loggers that share one capturing handler
type componentLoggers struct {
	logger *slog.Logger
}

func (c componentLoggers) Logger(component string) *slog.Logger {
	return c.logger.With(slog.String("component", component))
}

type fixture struct {
	dir        string
	paramsPath string
	dataPath   string
	savePath   string
}

func writeRawData(t *testing.T, dir string, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,feature,label\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%03d,%d.5,class_%d\n", i, i, i%3)
	}
	return testutil.WriteFile(t, dir, filepath.Join("data", "external", "raw.csv"), b.String())
}

func newFixture(t *testing.T, rows int) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		dataPath: writeRawData(t, dir, rows),
		savePath: filepath.Join(dir, "data", "raw"),
	}
	f.paramsPath = f.writeParams(t, fmt.Sprintf(`data_ingestion:
  data_path: %s
  save_path: %s
  test_size: 0.2
  random_state: 42
`, f.dataPath, f.savePath))
	return f
}

func (f fixture) writeParams(t *testing.T, content string) string {
	return testutil.WriteFile(t, f.dir, "params.yaml", content)
}

func newTestPipeline(t *testing.T, paramsPath string) (*Pipeline, *testutil.BufferedSlogHandler) {
	logger, handler := testutil.NewTestLogger(t)
	return NewIngestionPipeline(paramsPath, componentLoggers{logger}, nil), handler
}

func TestIngestionPipeline_Steps(t *testing.T) {
	pipeline, _ := newTestPipeline(t, "params.yaml")

	var ids []string
	for _, s := range pipeline.Steps() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{StepIDLoadParams, StepIDRead, StepIDSplit, StepIDPersist}, ids)
}

func TestIngestionPipeline_Run(t *testing.T) {
	f := newFixture(t, 100)
	pipeline, handler := newTestPipeline(t, f.paramsPath)

	state, err := pipeline.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, state.GetStatus())
	assert.Equal(t, config.MsgIngestionCompleted, state.Message)
	assert.NotEmpty(t, state.RunID)
	for _, id := range []string{StepIDLoadParams, StepIDRead, StepIDSplit, StepIDPersist} {
		require.NotNil(t, state.GetStep(id), id)
		assert.Equal(t, StepStatusCompleted, state.GetStep(id).GetStatus(), id)
	}

	reader := dataset.NewReader(nil, dataset.ReadOptions{})
	train, err := reader.Read(context.Background(), filepath.Join(f.savePath, config.TrainFileName))
	require.NoError(t, err)
	test, err := reader.Read(context.Background(), filepath.Join(f.savePath, config.TestFileName))
	require.NoError(t, err)

	assert.Equal(t, 80, train.Len())
	assert.Equal(t, 20, test.Len())
	assert.Equal(t, []string{"id", "feature", "label"}, train.Columns)

	// Together the outputs hold every source row exactly once
	seen := make(map[string]int)
	for _, rows := range [][][]string{train.Rows, test.Rows} {
		for _, row := range rows {
			seen[strings.Join(row, ",")]++
		}
	}
	assert.Len(t, seen, 100)
	for row, n := range seen {
		assert.Equal(t, 1, n, row)
	}

	testutil.AssertNoErrors(t, handler)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Params fetched")
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "raw data split into train and test data")
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "size of train (80, 3) and test (20, 3)")
	assert.True(t, handler.ContainsAttr("component", config.ComponentPersister))
	assert.True(t, handler.ContainsAttr("component", config.ComponentPipeline))
}

func TestIngestionPipeline_Run_Deterministic(t *testing.T) {
	f := newFixture(t, 50)
	pipeline, _ := newTestPipeline(t, f.paramsPath)

	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(f.savePath, config.TestFileName))
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(f.savePath, config.TestFileName))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestIngestionPipeline_Run_MissingSource(t *testing.T) {
	f := newFixture(t, 10)
	require.NoError(t, os.Remove(f.dataPath))
	pipeline, handler := newTestPipeline(t, f.paramsPath)

	state, err := pipeline.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSourceNotFound)
	assert.Equal(t, RunStatusFailed, state.GetStatus())
	assert.Equal(t, StepStatusFailed, state.GetStep(StepIDRead).GetStatus())
	assert.Nil(t, state.GetStep(StepIDSplit), "no step runs after a failure")
	assert.NoFileExists(t, filepath.Join(f.savePath, config.TrainFileName))
	assert.NoFileExists(t, filepath.Join(f.savePath, config.TestFileName))
	testutil.AssertLogContains(t, handler, slog.LevelError, "Error occurred in ingestion run")
}

func TestIngestionPipeline_Run_MissingKeyFailsBeforeDataIO(t *testing.T) {
	f := newFixture(t, 10)
	f.writeParams(t, fmt.Sprintf(`data_ingestion:
  data_path: %s
  save_path: %s
  test_size: 0.2
`, f.dataPath, f.savePath))
	pipeline, handler := newTestPipeline(t, f.paramsPath)

	state, err := pipeline.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfigLoad)
	assert.Contains(t, err.Error(), "random_state")
	assert.Nil(t, state.Dataset)
	assert.Nil(t, state.GetStep(StepIDRead))
	assert.False(t, handler.ContainsMessage("Data read"))
	assert.NoDirExists(t, f.savePath)
}

func TestIngestionPipeline_Run_ParamsNotFound(t *testing.T) {
	pipeline, _ := newTestPipeline(t, filepath.Join(t.TempDir(), "params.yaml"))

	_, err := pipeline.Run(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrConfigNotFound)
}

func TestIngestionPipeline_Run_CreatesSaveDirectory(t *testing.T) {
	f := newFixture(t, 10)
	nested := filepath.Join(f.dir, "out", "a", "b")
	f.writeParams(t, fmt.Sprintf(`data_ingestion:
  data_path: %s
  save_path: %s
  test_size: 0.3
  random_state: 1
`, f.dataPath, nested))
	pipeline, _ := newTestPipeline(t, f.paramsPath)

	_, err := pipeline.Run(context.Background())

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(nested, config.TrainFileName))
	assert.FileExists(t, filepath.Join(nested, config.TestFileName))
}

func TestIngestionPipeline_Run_InvalidTestSize(t *testing.T) {
	f := newFixture(t, 10)
	f.writeParams(t, fmt.Sprintf(`data_ingestion:
  data_path: %s
  save_path: %s
  test_size: 1.5
  random_state: 1
`, f.dataPath, f.savePath))
	pipeline, _ := newTestPipeline(t, f.paramsPath)

	_, err := pipeline.Run(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrSplit)
	assert.NoDirExists(t, f.savePath)
}

func TestIngestionPipeline_Run_WithTelemetry(t *testing.T) {
	f := newFixture(t, 20)
	settings := config.Default()
	settings.Logging.Dir = t.TempDir()
	settings.Telemetry.TraceExporter = config.TraceExporterFile
	settings.Telemetry.MetricsFile = filepath.Join(t.TempDir(), "ingest.prom")

	telemetry, err := infrastructure.InitializeTelemetry(settings, nil)
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	pipeline := NewIngestionPipeline(f.paramsPath, componentLoggers{logger}, telemetry)

	_, err = pipeline.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, telemetry.Shutdown(context.Background()))

	traces, err := os.ReadFile(settings.TraceFilePath())
	require.NoError(t, err)
	assert.Contains(t, string(traces), SpanRun)
	assert.Contains(t, string(traces), SpanStep+"."+StepIDSplit)

	metrics, err := os.ReadFile(settings.Telemetry.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `step="persist"`)
	assert.Contains(t, string(metrics), `dataset="test"`)
	assert.Contains(t, string(metrics), `status="success"`)
}

// stubStep runs fn as its body
type stubStep struct {
	BaseStep
	fn func(ctx context.Context, state *State) error
}

func newStubStep(id string, fn func(ctx context.Context, state *State) error) *stubStep {
	return &stubStep{BaseStep: NewBaseStep(id, id), fn: fn}
}

func (s *stubStep) Execute(ctx context.Context, state *State) error {
	return s.fn(ctx, state)
}

func TestPipeline_Run_ReturnsStepErrorUnchanged(t *testing.T) {
	stepErr := apperrors.NewReadError("raw.csv", errors.New("permission denied"))
	var ran []string
	pipeline := NewPipeline(nil, nil,
		newStubStep("first", func(context.Context, *State) error { ran = append(ran, "first"); return stepErr }),
		newStubStep("second", func(context.Context, *State) error { ran = append(ran, "second"); return nil }),
	)

	_, err := pipeline.Run(context.Background())

	assert.Same(t, stepErr, err)
	assert.Equal(t, []string{"first"}, ran)
}

func TestPipeline_Run_RecoversPanic(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	pipeline := NewPipeline(logger, nil,
		newStubStep("explode", func(context.Context, *State) error { panic("index out of range") }),
	)

	state, err := pipeline.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	assert.Contains(t, err.Error(), "index out of range")
	assert.Equal(t, StepStatusFailed, state.GetStep("explode").GetStatus())
	testutil.AssertLogContains(t, handler, slog.LevelError, "Step panicked")
}

func TestPipeline_Run_CancelledBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	secondRan := false
	pipeline := NewPipeline(nil, nil,
		newStubStep("first", func(context.Context, *State) error { cancel(); return nil }),
		newStubStep("second", func(context.Context, *State) error { secondRan = true; return nil }),
	)

	_, err := pipeline.Run(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, secondRan)
}

func TestPipeline_Run_RecordsStepDuration(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	pipeline := NewPipeline(logger, nil,
		newStubStep("wait", func(context.Context, *State) error { time.Sleep(5 * time.Millisecond); return nil }),
	)

	state, err := pipeline.Run(context.Background())

	require.NoError(t, err)
	assert.GreaterOrEqual(t, state.GetStep("wait").Duration(), 5*time.Millisecond)

	var found bool
	for _, r := range handler.GetRecordsByLevel(slog.LevelDebug) {
		if r.Message == "Step finished" {
			found = true
			assert.Equal(t, "wait", r.Attrs["step"])
			assert.Equal(t, string(StepStatusCompleted), r.Attrs["status"])
			assert.GreaterOrEqual(t, r.Attrs["duration"], 5*time.Millisecond)
		}
	}
	assert.True(t, found, "step completion should be logged")
}

func TestPipeline_Run_KeepsRunID(t *testing.T) {
	var seen string
	pipeline := NewPipeline(nil, nil,
		newStubStep("capture", func(ctx context.Context, _ *State) error {
			seen = infrastructure.RunIDFromContext(ctx)
			return nil
		}),
	)
	ctx := infrastructure.WithRunID(context.Background(), "run-123")

	state, err := pipeline.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, "run-123", state.RunID)
	assert.Equal(t, "run-123", seen)
}

func TestSteps_MissingInputs(t *testing.T) {
	tests := []struct {
		name  string
		step  Step
		state *State
	}{
		{name: "read without params", step: NewReadStep(dataset.NewReader(nil, dataset.ReadOptions{})), state: NewState("r")},
		{name: "persist without partition", step: NewPersistStep(nil), state: &State{Params: &config.Params{SavePath: "out"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Execute(context.Background(), tt.state)
			assert.ErrorIs(t, err, apperrors.ErrInternal)
		})
	}
}
