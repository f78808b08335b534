package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"failsolver/internal/aggregate"
	"failsolver/internal/analyze"
	"failsolver/internal/config"
	"failsolver/internal/execute"
	"failsolver/internal/locate"
	"failsolver/internal/logging"
	"failsolver/internal/render"
	"failsolver/internal/report"
)

const (
	stageIngest  = "ingest"
	stageLocate  = "locate"
	stageExecute = "execute"
	stageCollect = "collect"
	stageAnalyze = "analyze"
	stageRender  = "render"
)

// Deps are the collaborators the standard stage set needs.
type Deps struct {
	Config    config.Config
	Generator analyze.Generator
	Logger    *slog.Logger
}

// New wires the standard stage set into a validated runner.
func New(deps Deps) (*Runner, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.New("pipeline")
	}
	transitions := []Transition{
		{Stage: &ingestStage{logger: logger}, Success: StatusIngested, OnError: Terminate},
		{Stage: &locateStage{cfg: deps.Config, logger: logger}, Success: StatusLocated, OnError: Terminate},
		{Stage: &executeStage{cfg: deps.Config, logger: logger}, Success: StatusExecuted, OnError: Proceed},
		{Stage: &collectStage{}, Success: StatusCollected, OnError: Proceed},
		{Stage: &analyzeStage{gen: deps.Generator, logger: logger}, Success: StatusAnalyzed, OnError: Proceed},
		{Stage: &renderStage{}, Success: StatusCompleted, OnError: Terminate},
	}
	return NewRunner(transitions, logger)
}

// ingestStage parses and merges the XML reports. Without a parsed report
// there is nothing to analyze, so failure terminates the run.
type ingestStage struct {
	logger *slog.Logger
}

func (st *ingestStage) Name() string { return stageIngest }

func (st *ingestStage) Apply(_ context.Context, s State) (State, error) {
	if len(s.ReportPaths) == 0 {
		return s, fmt.Errorf("ingest: no report files given")
	}
	merged, err := report.Ingest(s.ReportPaths)
	if err != nil {
		return s, fmt.Errorf("ingest: %w", err)
	}
	s.Merged = merged
	st.logger.Info("reports ingested",
		"files", len(s.ReportPaths),
		"total", merged.Summary.Total,
		"failed", merged.Summary.Failed,
		"result", merged.Result)
	return s, nil
}

// locateStage maps failures to source files and detects the build system.
// An unreachable repository terminates the run; an undetected build system
// does not — it only disables local re-execution.
type locateStage struct {
	cfg    config.Config
	logger *slog.Logger
}

func (st *locateStage) Name() string { return stageLocate }

func (st *locateStage) Apply(_ context.Context, s State) (State, error) {
	locator, err := locate.New(s.RepoPath, st.cfg.Locate.SearchDirs, st.cfg.Locate.SourceExt, st.logger)
	if err != nil {
		return s, fmt.Errorf("locate: %w", err)
	}
	if s.Merged != nil {
		s.Located = locator.FindAll(s.Merged.Failures)
	}
	if system, ok := locate.DetectBuildSystem(s.RepoPath); ok {
		s.BuildSystem = system
	} else {
		st.logger.Warn("build system not detected", "repo", s.RepoPath)
	}
	st.logger.Info("tests located",
		"located", len(s.Located),
		"build_system", orNone(s.BuildSystem))
	return s, nil
}

// executeStage re-runs the located tests. Skipped entirely when no build
// system was detected; a failing run still flows forward because the failure
// itself is diagnostic signal.
type executeStage struct {
	cfg    config.Config
	logger *slog.Logger
}

func (st *executeStage) Name() string { return stageExecute }

func (st *executeStage) Apply(ctx context.Context, s State) (State, error) {
	if s.BuildSystem == "" {
		st.logger.Info("execution skipped", "reason", "no build system")
		return s, nil
	}
	executor := execute.New(s.RepoPath, s.BuildSystem, st.cfg.ExecTimeout(), st.logger)
	res := executor.Run(ctx, s.Located)
	s.Execution = res
	if res.Err != nil {
		return s, fmt.Errorf("execute: %w", res.Err)
	}
	return s, nil
}

// collectStage derives the comparison. Pure; cannot fail.
type collectStage struct{}

func (st *collectStage) Name() string { return stageCollect }

func (st *collectStage) Apply(_ context.Context, s State) (State, error) {
	c := aggregate.Compare(s.Merged, s.Execution, len(s.Located))
	s.Comparison = &c
	return s, nil
}

// analyzeStage asks the generator for a root cause. The synthesizer already
// degrades collaborator failures to a fallback result, so Apply never errors.
type analyzeStage struct {
	gen    analyze.Generator
	logger *slog.Logger
}

func (st *analyzeStage) Name() string { return stageAnalyze }

func (st *analyzeStage) Apply(ctx context.Context, s State) (State, error) {
	var comparison aggregate.Comparison
	if s.Comparison != nil {
		comparison = *s.Comparison
	}
	res := analyze.NewSynthesizer(st.gen, st.logger).Analyze(ctx, analyze.Input{
		ReportPaths: s.ReportPaths,
		TestName:    s.TestName,
		Merged:      s.Merged,
		Execution:   s.Execution,
		Comparison:  comparison,
	})
	s.Analysis = &res
	return s, nil
}

// renderStage produces the final document. A render failure still leaves a
// minimal document in the state; the run then ends in error.
type renderStage struct{}

func (st *renderStage) Name() string { return stageRender }

func (st *renderStage) Apply(_ context.Context, s State) (State, error) {
	doc, err := render.Render(renderInput(s))
	s.Document = doc
	if err != nil {
		return s, fmt.Errorf("render: %w", err)
	}
	return s, nil
}

func renderInput(s State) render.Input {
	in := render.Input{
		TestName:    s.TestName,
		ReportPaths: s.ReportPaths,
		BuildSystem: s.BuildSystem,
		Merged:      s.Merged,
		Execution:   s.Execution,
		Comparison:  s.Comparison,
		Analysis:    s.Analysis,
		GeneratedAt: s.StartedAt,
	}
	if s.Err != nil {
		// Stage errors already carry their stage name as the prefix.
		in.StageError = s.Err.Error()
	}
	return in
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
