package batch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// AllRunner drains every unprocessed domain.
type AllRunner interface {
	RunAll(ctx context.Context) (Summary, error)
}

// Scheduler starts background batch runs, one at a time.
type Scheduler struct {
	ctx    context.Context
	runner AllRunner

	mu        sync.Mutex
	state     State
	startedAt time.Time
	last      *Summary
	lastErr   error
	done      chan struct{}
}

// NewScheduler runs batches under ctx; cancelling it stops a running batch.
func NewScheduler(ctx context.Context, runner AllRunner) *Scheduler {
	return &Scheduler{ctx: ctx, runner: runner, state: StateIdle}
}

// Start begins a run in the background. It returns false when a run is
// already in progress.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		logrus.Info("batch already running")
		return false
	}
	s.state = StateRunning
	s.startedAt = time.Now()
	done := make(chan struct{})
	s.done = done

	go func() {
		defer close(done)
		summary, err := s.runner.RunAll(s.ctx)
		if err != nil {
			logrus.WithError(err).Error("batch run ended with error")
		}
		s.mu.Lock()
		s.state = StateIdle
		s.last = &summary
		s.lastErr = err
		s.mu.Unlock()
	}()
	return true
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot describes the scheduler for health reporting.
type Snapshot struct {
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Last      *Summary  `json:"last_summary,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, StartedAt: s.startedAt, Last: s.last}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// Wait blocks until the current run, if any, has finished.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
