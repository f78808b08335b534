// Package report parses JUnit and TestNG XML test reports into a unified
// model and merges multiple reports from one run.
package report

import "strings"

// Format identifies the source XML dialect of a report file.
type Format string

const (
	FormatJUnit  Format = "junit"
	FormatTestNG Format = "testng"
)

// Result classifies the overall outcome of a run.
type Result string

const (
	ResultSuccess        Result = "SUCCESS"
	ResultFailure        Result = "FAILURE"
	ResultPartialFailure Result = "PARTIAL_FAILURE"
	ResultUnknown        Result = "UNKNOWN"
)

// Failure describes one failed or errored test case. Immutable once parsed.
type Failure struct {
	TestName        string
	ClassName       string
	FullyQualified  string
	ErrorType       string
	Message         string
	StackTrace      string
	MethodSignature string
}

// Summary holds the aggregate counts of one report file.
// Invariant for any valid summary: Passed+Failed+Errored+Skipped == Total.
type Summary struct {
	Total           int
	Passed          int
	Failed          int
	Errored         int
	Skipped         int
	DurationSeconds float64
	SourceFormat    Format
}

// Valid reports whether the count invariant holds.
func (s Summary) Valid() bool {
	return s.Passed+s.Failed+s.Errored+s.Skipped == s.Total
}

// Report is the parsed form of a single XML report file.
type Report struct {
	Path       string
	Summary    Summary
	Failures   []Failure
	ErrorLines []string
}

// Merged combines one or more Reports. Summary counts are field-wise sums;
// failure and error-line order follows input order.
type Merged struct {
	Summary    Summary
	Formats    []Format
	Failures   []Failure
	ErrorLines []string
	Result     Result
}

// FailureCount returns the number of failure records across all inputs.
func (m *Merged) FailureCount() int { return len(m.Failures) }

// HasCompilationError reports whether any failure's error type mentions a
// compilation error.
func (m *Merged) HasCompilationError() bool {
	for _, f := range m.Failures {
		if strings.Contains(f.ErrorType, "CompilationError") {
			return true
		}
	}
	return false
}

// HasTimeout reports whether any failure message mentions a timeout.
func (m *Merged) HasTimeout() bool {
	for _, f := range m.Failures {
		if strings.Contains(strings.ToLower(f.Message), "timeout") {
			return true
		}
	}
	return false
}

// HasAssertionError reports whether any failure's error type is assertion-like.
func (m *Merged) HasAssertionError() bool {
	for _, f := range m.Failures {
		if strings.Contains(f.ErrorType, "Assert") {
			return true
		}
	}
	return false
}
