package mcpserver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"failsolver/internal/analyze"
	"failsolver/internal/config"
	"failsolver/internal/store"
)

const junitXML = `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="calculator" tests="3" failures="1" errors="0" skipped="0" time="4.2">
  <testcase classname="com.acme.CalculatorTest" name="testAdd" time="1.4"/>
  <testcase classname="com.acme.CalculatorTest" name="testSub" time="1.4"/>
  <testcase classname="com.acme.CalculatorTest" name="testMul" time="1.4">
    <failure message="expected 5 got 3" type="AssertionError">stack</failure>
  </testcase>
</testsuite>`

func scaffold(t *testing.T) (reportPath, repoPath string) {
	t.Helper()
	dir := t.TempDir()
	reportPath = filepath.Join(dir, "TEST-calculator.xml")
	if err := os.WriteFile(reportPath, []byte(junitXML), 0o644); err != nil {
		t.Fatal(err)
	}
	repoPath = filepath.Join(dir, "repo")
	classPath := filepath.Join(repoPath, "src", "test", "java", "com", "acme")
	if err := os.MkdirAll(classPath, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(classPath, "CalculatorTest.java"), []byte("class CalculatorTest {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	return reportPath, repoPath
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	gen := analyze.GeneratorFunc(func(context.Context, string) (string, error) {
		return "Root Cause: stale fixture\nConfidence: 80%\nRecommendations:\n1. Regenerate it\n", nil
	})
	return NewServer(config.Default(), gen, st)
}

func TestAnalyzeFailureTool(t *testing.T) {
	reportPath, repoPath := scaffold(t)
	s := newTestServer(t)

	_, out, err := s.handleAnalyzeFailure(context.Background(), nil, analyzeFailureInput{
		ReportPaths: []string{reportPath},
		RepoPath:    repoPath,
		TestName:    "calculator",
	})
	if err != nil {
		t.Fatalf("analyze_failure: %v", err)
	}
	if out.Status != "completed" {
		t.Errorf("Status = %q, want completed (error=%q)", out.Status, out.Error)
	}
	if out.Result != "PARTIAL_FAILURE" {
		t.Errorf("Result = %q, want PARTIAL_FAILURE", out.Result)
	}
	if out.RootCause != "stale fixture" {
		t.Errorf("RootCause = %q", out.RootCause)
	}
	if out.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", out.Confidence)
	}
	if !strings.Contains(out.Document, "build system not detected") {
		t.Error("document missing build-system note")
	}
	if out.ID == 0 {
		t.Error("analysis was not persisted")
	}
}

func TestAnalyzeFailureValidation(t *testing.T) {
	s := newTestServer(t)
	if _, _, err := s.handleAnalyzeFailure(context.Background(), nil, analyzeFailureInput{RepoPath: "/r"}); err == nil {
		t.Error("missing report_paths accepted")
	}
	if _, _, err := s.handleAnalyzeFailure(context.Background(), nil, analyzeFailureInput{ReportPaths: []string{"a.xml"}}); err == nil {
		t.Error("missing repo_path accepted")
	}
}

func TestGetAndListAnalyses(t *testing.T) {
	reportPath, repoPath := scaffold(t)
	s := newTestServer(t)

	_, out, err := s.handleAnalyzeFailure(context.Background(), nil, analyzeFailureInput{
		ReportPaths: []string{reportPath},
		RepoPath:    repoPath,
	})
	if err != nil {
		t.Fatalf("analyze_failure: %v", err)
	}

	_, got, err := s.handleGetAnalysis(context.Background(), nil, getAnalysisInput{ID: out.ID})
	if err != nil {
		t.Fatalf("get_analysis: %v", err)
	}
	if got.Analysis == nil || got.Analysis.ID != out.ID {
		t.Errorf("get_analysis = %+v, want id %d", got.Analysis, out.ID)
	}
	if got.Analysis.Document == "" {
		t.Error("persisted analysis has no document")
	}

	_, list, err := s.handleListAnalyses(context.Background(), nil, listAnalysesInput{})
	if err != nil {
		t.Fatalf("list_analyses: %v", err)
	}
	if list.Total != 1 || len(list.Analyses) != 1 {
		t.Errorf("list_analyses = %d rows, want 1", list.Total)
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	s := newTestServer(t)
	_, _, err := s.handleGetAnalysis(context.Background(), nil, getAnalysisInput{ID: 999})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get_analysis(999) = %v, want ErrNotFound", err)
	}
}

func TestHistoryToolsWithoutStore(t *testing.T) {
	gen := analyze.GeneratorFunc(func(context.Context, string) (string, error) { return "", nil })
	s := NewServer(config.Default(), gen, nil)

	if _, _, err := s.handleGetAnalysis(context.Background(), nil, getAnalysisInput{ID: 1}); err == nil {
		t.Error("get_analysis without store accepted")
	}
	if _, _, err := s.handleListAnalyses(context.Background(), nil, listAnalysesInput{}); err == nil {
		t.Error("list_analyses without store accepted")
	}
}

func TestWatchParentStopsOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	s.WatchParent(ctx, cancel)
	cancel() // must not panic or leak; goroutine observes ctx.Done
}
