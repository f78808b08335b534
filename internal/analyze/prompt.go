package analyze

import (
	"fmt"
	"strings"
	"text/template"

	"failsolver/internal/execute"
	"failsolver/internal/report"
)

// Caps keep the prompt bounded on pathological reports.
const (
	maxErrorLines = 20
	maxLocalLines = 10
	maxFailures   = 5
)

const promptTemplate = `You are an expert automation engineer analyzing test failures.
Identify the root cause and provide actionable recommendations.

Respond in exactly this format:

**Root Cause:**
[Detailed explanation of what is causing the failures]

**Confidence:** [X]%

**Recommendations:**
1. [First recommendation]
2. [Second recommendation]
3. [Third recommendation]

# Test Failure Analysis

## Test Information
- Reports: {{.Reports}}
- Test Name: {{.TestName}}
- Result: {{.Result}}
- Total Tests: {{.Total}}
- Failed Tests: {{.FailureCount}}

## Failure Details
{{.Failures}}

## Error Messages
{{.ErrorLines}}

## Local Execution Results
- Exit Code: {{.ExitCode}}
- Execution Success: {{.Success}}
- Command: {{.Command}}

### Local Errors
{{.LocalErrors}}

## Comparison Analysis
- Report Failure: {{.ReportFailed}}
- Local Execution Failed: {{.LocalFailed}}
- Consistent Failure: {{.Consistent}}
- Unmatched Failures: {{.Unmatched}}
`

var promptTmpl = template.Must(template.New("analysis").Parse(promptTemplate))

// BuildPrompt renders the analysis request from whatever state exists; every
// field has an explicit default so a partial state still yields a prompt.
func BuildPrompt(in Input) (string, error) {
	data := struct {
		Reports, TestName, Result string
		Total, FailureCount       int
		Failures, ErrorLines      string
		ExitCode                  string
		Success                   bool
		Command, LocalErrors      string
		ReportFailed, LocalFailed bool
		Consistent                bool
		Unmatched                 int
	}{
		Reports:     "N/A",
		TestName:    defaultStr(in.TestName, "N/A"),
		Result:      "UNKNOWN",
		Failures:    "No failure details captured",
		ErrorLines:  "No error messages captured",
		ExitCode:    "N/A",
		Command:     "N/A",
		LocalErrors: "No local errors",
	}

	if len(in.ReportPaths) > 0 {
		data.Reports = strings.Join(in.ReportPaths, ", ")
	}
	if m := in.Merged; m != nil {
		data.Result = string(m.Result)
		data.Total = m.Summary.Total
		data.FailureCount = m.FailureCount()
		data.Failures = formatFailures(m)
		if len(m.ErrorLines) > 0 {
			data.ErrorLines = strings.Join(head(m.ErrorLines, maxErrorLines), "\n")
		}
	}
	if x := in.Execution; x != nil {
		data.ExitCode = fmt.Sprintf("%d", x.ExitCode)
		data.Success = x.Success
		data.Command = defaultStr(x.CommandLine, "N/A")
		data.LocalErrors = formatLocalErrors(x)
	}
	data.ReportFailed = in.Comparison.ReportFailed
	data.LocalFailed = in.Comparison.LocalFailed
	data.Consistent = in.Comparison.Consistent
	data.Unmatched = in.Comparison.UnmatchedFailures

	var b strings.Builder
	if err := promptTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

func formatFailures(m *report.Merged) string {
	if len(m.Failures) == 0 {
		return "No failure details captured"
	}
	var b strings.Builder
	for i, f := range m.Failures {
		if i >= maxFailures {
			fmt.Fprintf(&b, "... and %d more failures\n", len(m.Failures)-maxFailures)
			break
		}
		fmt.Fprintf(&b, "- %s: %s", f.FullyQualified, defaultStr(f.ErrorType, "Failure"))
		if f.Message != "" {
			fmt.Fprintf(&b, " (%s)", f.Message)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLocalErrors(x *execute.Result) string {
	var lines []string
	for _, raw := range strings.Split(x.Stderr, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxLocalLines {
			break
		}
	}
	if len(lines) == 0 {
		return "No local errors"
	}
	return strings.Join(lines, "\n")
}

func head(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[:n]
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
