package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"failsolver/internal/analyze"
	"failsolver/internal/config"
	"failsolver/internal/execute"
)

const junitXML = `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="calculator" tests="3" failures="1" errors="0" skipped="0" time="4.2">
  <testcase classname="com.acme.CalculatorTest" name="testAdd" time="1.4"/>
  <testcase classname="com.acme.CalculatorTest" name="testSub" time="1.4"/>
  <testcase classname="com.acme.CalculatorTest" name="testMul" time="1.4">
    <failure message="expected 5 got 3" type="AssertionError">at com.acme.CalculatorTest.testMul(CalculatorTest.java:21)</failure>
  </testcase>
</testsuite>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// scaffold returns a report file and a repo tree holding the matching class.
func scaffold(t *testing.T, withClass, withPom bool) (reportPath, repoPath string) {
	t.Helper()
	dir := t.TempDir()
	reportPath = filepath.Join(dir, "TEST-calculator.xml")
	writeFile(t, reportPath, junitXML)
	repoPath = filepath.Join(dir, "repo")
	if withClass {
		writeFile(t, filepath.Join(repoPath, "src", "test", "java", "com", "acme", "CalculatorTest.java"),
			"public class CalculatorTest {}")
	} else if err := os.MkdirAll(repoPath, 0o755); err != nil {
		t.Fatal(err)
	}
	if withPom {
		writeFile(t, filepath.Join(repoPath, "pom.xml"), "<project/>")
	}
	return reportPath, repoPath
}

func cannedGenerator(response string) analyze.Generator {
	return analyze.GeneratorFunc(func(context.Context, string) (string, error) {
		return response, nil
	})
}

const cannedResponse = `Root Cause: The addition path truncates the second operand.
Confidence: 90%
Recommendations:
1. Fix the operand widening in Calculator.add
`

func newRunner(t *testing.T, gen analyze.Generator) *Runner {
	t.Helper()
	r, err := New(Deps{Config: config.Default(), Generator: gen})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestEndToEndBuildSystemAbsent(t *testing.T) {
	reportPath, repoPath := scaffold(t, true, false)
	r := newRunner(t, cannedGenerator(cannedResponse))

	final := r.Run(context.Background(), NewState([]string{reportPath}, repoPath, "calculator"))

	if final.Status != StatusCompleted {
		t.Fatalf("Status = %q, want %q (err=%v)", final.Status, StatusCompleted, final.Err)
	}
	if final.BuildSystem != "" {
		t.Errorf("BuildSystem = %q, want empty", final.BuildSystem)
	}
	if final.Execution != nil {
		t.Error("Execution ran without a build system")
	}
	c := final.Comparison
	if c == nil {
		t.Fatal("Comparison missing")
	}
	if !c.ReportFailed || c.LocalFailed {
		t.Errorf("comparison flags = (%v, %v), want (true, false)", c.ReportFailed, c.LocalFailed)
	}
	if c.Consistent {
		t.Error("Consistent = true, want false (report failed, local never ran)")
	}
	if len(final.Located) != 1 {
		t.Errorf("Located = %d tests, want 1", len(final.Located))
	}
	if !strings.Contains(final.Document, "build system not detected") {
		t.Error("document does not state that the build system was not detected")
	}
	if !strings.Contains(final.Document, "expected 5 got 3") {
		t.Error("document missing the failure message")
	}
	if final.Analysis == nil || !strings.Contains(final.Analysis.RootCause, "truncates") {
		t.Errorf("Analysis = %+v, want canned root cause", final.Analysis)
	}
}

func TestIngestFailureTerminatesWithDocument(t *testing.T) {
	_, repoPath := scaffold(t, false, false)
	r := newRunner(t, cannedGenerator(cannedResponse))

	final := r.Run(context.Background(), NewState([]string{"/nonexistent/report.xml"}, repoPath, ""))

	if final.Status != StatusError {
		t.Fatalf("Status = %q, want %q", final.Status, StatusError)
	}
	if final.FailedStage != stageIngest {
		t.Errorf("FailedStage = %q, want %q", final.FailedStage, stageIngest)
	}
	if final.Err == nil {
		t.Error("Err not set on terminal failure")
	}
	if !strings.Contains(final.Document, "FAILED") {
		t.Errorf("error document does not explain the failure:\n%s", final.Document)
	}
	if final.Analysis != nil {
		t.Error("Analysis ran after terminal ingest failure")
	}
}

func TestLocateFailureTerminates(t *testing.T) {
	reportPath, _ := scaffold(t, false, false)
	r := newRunner(t, cannedGenerator(cannedResponse))

	final := r.Run(context.Background(), NewState([]string{reportPath}, "/nonexistent/repo", ""))

	if final.Status != StatusError || final.FailedStage != stageLocate {
		t.Errorf("terminal state = (%q, %q), want (error, locate)", final.Status, final.FailedStage)
	}
	if final.Merged == nil {
		t.Error("Merged lost on locate failure")
	}
}

func TestExecuteFailureFlowsForward(t *testing.T) {
	// Build system present but the failing class is absent: nothing can be
	// located, so execution fails with ErrNoTests without spawning anything.
	reportPath, repoPath := scaffold(t, false, true)
	r := newRunner(t, cannedGenerator(cannedResponse))

	final := r.Run(context.Background(), NewState([]string{reportPath}, repoPath, ""))

	if final.Status != StatusCompleted {
		t.Fatalf("Status = %q, want %q (err=%v)", final.Status, StatusCompleted, final.Err)
	}
	if final.Execution == nil {
		t.Fatal("Execution missing")
	}
	if !errors.Is(final.Execution.Err, execute.ErrNoTests) {
		t.Errorf("Execution.Err = %v, want ErrNoTests", final.Execution.Err)
	}
	if !final.Comparison.LocalFailed {
		t.Error("LocalFailed = false, want true for failed execution")
	}
	if final.Comparison.UnmatchedFailures != 1 {
		t.Errorf("UnmatchedFailures = %d, want 1", final.Comparison.UnmatchedFailures)
	}
}

func TestGeneratorFailureStillCompletes(t *testing.T) {
	reportPath, repoPath := scaffold(t, true, false)
	gen := analyze.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("service unavailable")
	})
	r := newRunner(t, gen)

	final := r.Run(context.Background(), NewState([]string{reportPath}, repoPath, ""))

	if final.Status != StatusCompleted {
		t.Fatalf("Status = %q, want %q", final.Status, StatusCompleted)
	}
	if final.Analysis == nil || !strings.Contains(final.Analysis.RootCause, "service unavailable") {
		t.Errorf("Analysis = %+v, want fallback carrying the generator error", final.Analysis)
	}
	if final.Analysis.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", final.Analysis.Confidence)
	}
}

func TestNewRunnerRejectsBadTable(t *testing.T) {
	good, err := New(Deps{Config: config.Default(), Generator: cannedGenerator("")})
	if err != nil || good == nil {
		t.Fatalf("New: %v", err)
	}

	swapped := make([]Transition, len(good.transitions))
	copy(swapped, good.transitions)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	if _, err := NewRunner(swapped, nil); err == nil {
		t.Error("NewRunner accepted an out-of-order table")
	}

	if _, err := NewRunner(good.transitions[:3], nil); err == nil {
		t.Error("NewRunner accepted an incomplete table")
	}
}

func TestStateStatusProgressionOnSuccess(t *testing.T) {
	reportPath, repoPath := scaffold(t, true, false)
	r := newRunner(t, cannedGenerator(cannedResponse))

	s := NewState([]string{reportPath}, repoPath, "")
	if s.Status != StatusInitialized {
		t.Fatalf("initial Status = %q", s.Status)
	}
	final := r.Run(context.Background(), s)
	if final.Status != StatusCompleted {
		t.Errorf("final Status = %q, want %q", final.Status, StatusCompleted)
	}
}
