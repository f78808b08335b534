// Package render turns accumulated pipeline state, however partial, into the
// final analysis document. Rendering is total: every field has a default and
// a panic degrades to a minimal error document instead of escaping.
package render

import (
	"fmt"
	"strings"
	"time"

	"failsolver/internal/aggregate"
	"failsolver/internal/analyze"
	"failsolver/internal/execute"
	"failsolver/internal/format"
	"failsolver/internal/report"
)

const (
	maxDetailedFailures = 10
	maxExcerptLines     = 50
)

// Input carries whatever state the run accumulated. Nil pointers mean the
// producing stage never ran or failed.
type Input struct {
	TestName    string
	ReportPaths []string
	BuildSystem string // empty when no build system was detected
	Merged      *report.Merged
	Execution   *execute.Result
	Comparison  *aggregate.Comparison
	Analysis    *analyze.Result
	// StageError describes a terminal stage failure when the run could not
	// complete normally.
	StageError  string
	GeneratedAt time.Time
}

// Render produces the analysis document. On an internal panic it returns a
// minimal error document together with the error so the caller can mark the
// run failed instead of crashing.
func Render(in Input) (doc string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render report: %v", r)
			doc = minimalDocument(in, fmt.Sprint(r))
		}
	}()

	var b strings.Builder
	writeHeader(&b, in)
	writeReports(&b, in)
	writeStatistics(&b, in.Merged)
	writeFailures(&b, in.Merged)
	writeExecution(&b, in)
	writeComparison(&b, in.Comparison)
	writeAnalysis(&b, in.Analysis)
	writeErrorExcerpt(&b, in.Merged)
	return b.String(), nil
}

func writeHeader(b *strings.Builder, in Input) {
	b.WriteString("# Test Failure Analysis Report\n\n")
	if in.TestName != "" {
		fmt.Fprintf(b, "**Test:** %s\n", in.TestName)
	}
	ts := in.GeneratedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	fmt.Fprintf(b, "**Generated:** %s\n", ts.Format(time.RFC3339))
	if in.StageError != "" {
		fmt.Fprintf(b, "**Status:** FAILED — %s\n", in.StageError)
	}
	b.WriteString("\n")
}

func writeReports(b *strings.Builder, in Input) {
	b.WriteString("## Analyzed Reports\n\n")
	if len(in.ReportPaths) == 0 {
		b.WriteString("No report files were ingested.\n\n")
		return
	}
	for _, p := range in.ReportPaths {
		fmt.Fprintf(b, "- %s\n", p)
	}
	b.WriteString("\n")
}

func writeStatistics(b *strings.Builder, m *report.Merged) {
	b.WriteString("## Test Statistics\n\n")
	if m == nil {
		b.WriteString("No statistics available (ingestion did not complete).\n\n")
		return
	}
	tb := format.NewTable(format.Markdown)
	tb.Header("Metric", "Value")
	tb.Row("Result", string(m.Result))
	tb.Row("Formats", strings.Join(formatNames(m.Formats), ", "))
	tb.Row("Total Tests", m.Summary.Total)
	tb.Row("Passed", m.Summary.Passed)
	tb.Row("Failed", m.Summary.Failed)
	tb.Row("Errored", m.Summary.Errored)
	tb.Row("Skipped", m.Summary.Skipped)
	tb.Row("Duration", format.FmtSeconds(m.Summary.DurationSeconds))
	b.WriteString(tb.String())
	b.WriteString("\n\n")
}

func writeFailures(b *strings.Builder, m *report.Merged) {
	b.WriteString("## Failure Details\n\n")
	if m == nil || len(m.Failures) == 0 {
		b.WriteString("No failure records.\n\n")
		return
	}
	for i, f := range m.Failures {
		if i == maxDetailedFailures {
			fmt.Fprintf(b, "... and %d more failures\n", len(m.Failures)-maxDetailedFailures)
			break
		}
		fmt.Fprintf(b, "### %d. %s\n\n", i+1, f.FullyQualified)
		fmt.Fprintf(b, "- **Type:** %s\n", orDefault(f.ErrorType, "Failure"))
		if f.Message != "" {
			fmt.Fprintf(b, "- **Message:** %s\n", f.Message)
		}
		if f.StackTrace != "" {
			fmt.Fprintf(b, "\n```\n%s\n```\n", strings.TrimSpace(f.StackTrace))
		}
		b.WriteString("\n")
	}
	var flags []string
	if m.HasCompilationError() {
		flags = append(flags, "compilation error")
	}
	if m.HasTimeout() {
		flags = append(flags, "timeout")
	}
	if m.HasAssertionError() {
		flags = append(flags, "assertion error")
	}
	if len(flags) > 0 {
		fmt.Fprintf(b, "Detected failure categories: %s\n\n", strings.Join(flags, ", "))
	}
}

func writeExecution(b *strings.Builder, in Input) {
	b.WriteString("## Local Execution\n\n")
	if in.BuildSystem == "" {
		b.WriteString("build system not detected — tests were not re-executed locally.\n\n")
		return
	}
	x := in.Execution
	if x == nil {
		fmt.Fprintf(b, "Build system %s detected, but execution did not run.\n\n", in.BuildSystem)
		return
	}
	fmt.Fprintf(b, "- **Build System:** %s\n", in.BuildSystem)
	fmt.Fprintf(b, "- **Command:** `%s`\n", orDefault(x.CommandLine, "N/A"))
	fmt.Fprintf(b, "- **Exit Code:** %d\n", x.ExitCode)
	fmt.Fprintf(b, "- **Success:** %s\n", format.BoolMark(x.Success))
	if x.TimedOut {
		b.WriteString("- **Timed Out:** yes\n")
	}
	if x.Err != nil {
		fmt.Fprintf(b, "- **Error:** %s\n", x.Err)
	}
	if stderr := strings.TrimSpace(x.Stderr); stderr != "" {
		fmt.Fprintf(b, "\n```\n%s\n```\n", format.Truncate(stderr, 2000))
	}
	b.WriteString("\n")
}

func writeComparison(b *strings.Builder, c *aggregate.Comparison) {
	b.WriteString("## Comparison\n\n")
	if c == nil {
		b.WriteString("No comparison available.\n\n")
		return
	}
	fmt.Fprintf(b, "- **Report Failed:** %s\n", format.BoolMark(c.ReportFailed))
	fmt.Fprintf(b, "- **Local Execution Failed:** %s\n", format.BoolMark(c.LocalFailed))
	fmt.Fprintf(b, "- **Consistent:** %s\n", format.BoolMark(c.Consistent))
	fmt.Fprintf(b, "- **Reproducible:** %s\n", format.BoolMark(c.Reproducible))
	if c.UnmatchedFailures > 0 {
		fmt.Fprintf(b, "- **Unmatched Failures:** %d (not mapped to source files)\n", c.UnmatchedFailures)
	}
	b.WriteString("\n")
}

func writeAnalysis(b *strings.Builder, a *analyze.Result) {
	b.WriteString("## Root Cause\n\n")
	if a == nil {
		b.WriteString("No analysis was performed.\n\n")
		return
	}
	fmt.Fprintf(b, "%s\n\n", orDefault(a.RootCause, "Unable to determine root cause"))
	fmt.Fprintf(b, "**Confidence:** %s\n\n", format.FmtPercent(a.Confidence))
	b.WriteString("## Recommendations\n\n")
	if len(a.Recommendations) == 0 {
		b.WriteString("None.\n\n")
		return
	}
	for i, rec := range a.Recommendations {
		fmt.Fprintf(b, "%d. %s\n", i+1, rec)
	}
	b.WriteString("\n")
}

func writeErrorExcerpt(b *strings.Builder, m *report.Merged) {
	if m == nil || len(m.ErrorLines) == 0 {
		return
	}
	b.WriteString("## Error Excerpt\n\n```\n")
	lines := m.ErrorLines
	if len(lines) > maxExcerptLines {
		lines = lines[:maxExcerptLines]
	}
	b.WriteString(strings.Join(lines, "\n"))
	if len(m.ErrorLines) > maxExcerptLines {
		fmt.Fprintf(b, "\n... %d more lines", len(m.ErrorLines)-maxExcerptLines)
	}
	b.WriteString("\n```\n")
}

// minimalDocument is the fixed fallback emitted when normal rendering panics.
func minimalDocument(in Input, cause string) string {
	var b strings.Builder
	b.WriteString("# Test Failure Analysis Report\n\n")
	if in.TestName != "" {
		fmt.Fprintf(&b, "Test: %s\n", in.TestName)
	}
	fmt.Fprintf(&b, "Report generation failed: %s\n", cause)
	return b.String()
}

func formatNames(formats []report.Format) []string {
	if len(formats) == 0 {
		return []string{"unknown"}
	}
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
