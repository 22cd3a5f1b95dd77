package operations

import (
	"context"
	"log/slog"

	"dataingest/internal/config"
	"dataingest/internal/dataset"
	apperrors "dataingest/internal/errors"
	"dataingest/internal/exporter"
	"dataingest/internal/partition"
)

// LoadParamsStep reads the data_ingestion section of the params file
type LoadParamsStep struct {
	BaseStep
	path   string
	logger *slog.Logger
}

// NewLoadParamsStep creates the step that loads params from path
func NewLoadParamsStep(path string, logger *slog.Logger) *LoadParamsStep {
	return &LoadParamsStep{
		BaseStep: NewBaseStep(StepIDLoadParams, StepNameLoadParams),
		path:     path,
		logger:   logger,
	}
}

// Execute implements Step
func (s *LoadParamsStep) Execute(ctx context.Context, state *State) error {
	params, err := config.LoadParams(s.path, s.logger)
	if err != nil {
		return err
	}
	state.Params = &params
	return nil
}

// ReadStep loads the source dataset named by the params
type ReadStep struct {
	BaseStep
	reader *dataset.Reader
}

// NewReadStep creates the read step
func NewReadStep(reader *dataset.Reader) *ReadStep {
	return &ReadStep{
		BaseStep: NewBaseStep(StepIDRead, StepNameRead),
		reader:   reader,
	}
}

// Execute implements Step
func (s *ReadStep) Execute(ctx context.Context, state *State) error {
	if state.Params == nil {
		return missingInput(s.ID(), "params")
	}
	ds, err := s.reader.Read(ctx, state.Params.DataPath)
	if err != nil {
		return err
	}
	state.Dataset = ds
	return nil
}

// SplitStep partitions the dataset into train and test subsets
type SplitStep struct {
	BaseStep
	splitter *partition.Splitter
}

// NewSplitStep creates the split step
func NewSplitStep(splitter *partition.Splitter) *SplitStep {
	return &SplitStep{
		BaseStep: NewBaseStep(StepIDSplit, StepNameSplit),
		splitter: splitter,
	}
}

// Execute implements Step
func (s *SplitStep) Execute(ctx context.Context, state *State) error {
	if state.Params == nil {
		return missingInput(s.ID(), "params")
	}
	p, err := s.splitter.Split(ctx, state.Dataset, partition.Options{
		TestSize:    state.Params.TestSize,
		RandomState: state.Params.RandomState,
	})
	if err != nil {
		return err
	}
	state.Partition = p
	return nil
}

// PersistStep writes the partition under the save path
type PersistStep struct {
	BaseStep
	persister *exporter.Persister
}

// NewPersistStep creates the persist step
func NewPersistStep(persister *exporter.Persister) *PersistStep {
	return &PersistStep{
		BaseStep:  NewBaseStep(StepIDPersist, StepNamePersist),
		persister: persister,
	}
}

// Execute implements Step
func (s *PersistStep) Execute(ctx context.Context, state *State) error {
	if state.Params == nil {
		return missingInput(s.ID(), "params")
	}
	if state.Partition == nil {
		return missingInput(s.ID(), "partition")
	}
	msg, err := s.persister.Save(ctx, state.Partition.Train, state.Partition.Test, state.Params.SavePath)
	if err != nil {
		return err
	}
	state.Message = msg
	return nil
}

// missingInput reports a step run without the output of an earlier step
func missingInput(stepID, input string) error {
	return apperrors.NewInternalError("step "+stepID+" ran without "+input, nil).
		WithContext("step", stepID)
}
