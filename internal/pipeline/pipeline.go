// Package pipeline sequences the analysis stages as an explicit state
// machine. Each stage consumes and returns an immutable-by-convention State;
// the transition table decides whether a stage failure terminates the run or
// merely degrades it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"failsolver/internal/aggregate"
	"failsolver/internal/analyze"
	"failsolver/internal/execute"
	"failsolver/internal/locate"
	"failsolver/internal/logging"
	"failsolver/internal/render"
	"failsolver/internal/report"
)

// Status is the pipeline's progress marker.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusIngested    Status = "ingested"
	StatusLocated     Status = "located"
	StatusExecuted    Status = "executed"
	StatusCollected   Status = "collected"
	StatusAnalyzed    Status = "analyzed"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// progression is the canonical success path; the transition table must cover
// it exactly, in order.
var progression = []Status{
	StatusIngested,
	StatusLocated,
	StatusExecuted,
	StatusCollected,
	StatusAnalyzed,
	StatusCompleted,
}

// State accumulates the run's data. Pointer fields are nil until their
// producing stage has run; a nil field means "not available", never a zero
// value masquerading as data.
type State struct {
	Status      Status
	ReportPaths []string
	RepoPath    string
	TestName    string

	Merged      *report.Merged
	BuildSystem string // empty until detected; may stay empty
	Located     []locate.LocatedTest
	Execution   *execute.Result
	Comparison  *aggregate.Comparison
	Analysis    *analyze.Result
	Document    string

	// FailedStage and Err are set when a terminal stage failure ends the run.
	FailedStage string
	Err         error

	StartedAt time.Time
}

// NewState returns the initial state for one analysis run.
func NewState(reportPaths []string, repoPath, testName string) State {
	return State{
		Status:      StatusInitialized,
		ReportPaths: reportPaths,
		RepoPath:    repoPath,
		TestName:    testName,
		StartedAt:   time.Now(),
	}
}

// Stage is one step of the pipeline.
type Stage interface {
	Name() string
	Apply(ctx context.Context, s State) (State, error)
}

// ErrorPolicy decides what a stage failure does to the run.
type ErrorPolicy int

const (
	// Terminate ends the run with StatusError.
	Terminate ErrorPolicy = iota
	// Proceed records the failure and continues; partial results are still
	// valuable downstream.
	Proceed
)

// Transition binds a stage to its success status and error policy.
type Transition struct {
	Stage   Stage
	Success Status
	OnError ErrorPolicy
}

// Runner drives the transition table over one State.
type Runner struct {
	transitions []Transition
	logger      *slog.Logger
}

// NewRunner validates the transition table against the canonical progression
// and returns a runner. An out-of-order or incomplete table is a construction
// error, not a runtime surprise.
func NewRunner(transitions []Transition, logger *slog.Logger) (*Runner, error) {
	if len(transitions) != len(progression) {
		return nil, fmt.Errorf("pipeline: %d transitions, want %d", len(transitions), len(progression))
	}
	for i, tr := range transitions {
		if tr.Stage == nil {
			return nil, fmt.Errorf("pipeline: transition %d has no stage", i)
		}
		if tr.Success != progression[i] {
			return nil, fmt.Errorf("pipeline: transition %d leads to %q, want %q",
				i, tr.Success, progression[i])
		}
	}
	if logger == nil {
		logger = logging.New("pipeline")
	}
	return &Runner{transitions: transitions, logger: logger}, nil
}

// Run executes the pipeline to its terminal status. It never returns an
// error: failures are encoded in the final State (Status, FailedStage, Err)
// and the Document always explains what happened.
func (r *Runner) Run(ctx context.Context, s State) State {
	for _, tr := range r.transitions {
		name := tr.Stage.Name()
		r.logger.Debug("stage start", "stage", name, "status", s.Status)

		next, err := tr.Stage.Apply(ctx, s)
		if err != nil {
			if tr.OnError == Proceed {
				r.logger.Warn("stage degraded", "stage", name, "error", err)
				s = next
				s.Status = tr.Success
				continue
			}
			r.logger.Error("stage failed", "stage", name, "error", err)
			s = next
			s.Status = StatusError
			s.FailedStage = name
			s.Err = err
			if name != stageRender {
				// The error document still gets rendered so the failure is
				// explained, not just logged.
				if doc, rerr := render.Render(renderInput(s)); rerr == nil {
					s.Document = doc
				}
			}
			return s
		}
		s = next
		s.Status = tr.Success
		r.logger.Debug("stage done", "stage", name, "status", s.Status)
	}
	return s
}
