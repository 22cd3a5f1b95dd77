package operations

import (
	"sync"
	"time"

	"dataingest/internal/config"
	"dataingest/internal/dataset"
	"dataingest/internal/partition"
)

// RunStatus represents the overall status of an ingestion run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// State carries the outputs of each step to the next within one run.
// Nothing in it outlives the run.
type State struct {
	mu sync.RWMutex

	RunID     string
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time

	Params    *config.Params
	Dataset   *dataset.Dataset
	Partition *partition.Partition

	// Message is the confirmation returned by the persist step
	Message string

	Steps map[string]*StepState
	Error error
}

// NewState creates the state for a run
func NewState(runID string) *State {
	return &State{
		RunID:     runID,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
	}
}

// Start marks the run as running
func (s *State) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = RunStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *State) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (s *State) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusFailed
	s.Error = err
}

// GetStatus returns the run status
func (s *State) GetStatus() RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// SetStep records the state of a step
func (s *State) SetStep(step *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Steps[step.ID] = step
}

// GetStep returns the state of a step, or nil if it never started
func (s *State) GetStep(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Steps[id]
}

// Duration returns how long the run took, or has taken so far
func (s *State) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}
