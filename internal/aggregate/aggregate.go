// Package aggregate reconciles reported failure status with the local
// reproduction attempt. Pure functions only; no I/O, cannot fail.
package aggregate

import (
	"failsolver/internal/execute"
	"failsolver/internal/report"
)

// Comparison reconciles the report's verdict with the local re-run.
// When an upstream stage was skipped both flags stay false — the valid
// "unknown" state, not an error.
type Comparison struct {
	ReportFailed bool
	LocalFailed  bool
	Consistent   bool
	Reproducible bool
	// UnmatchedFailures counts failure records that could not be mapped to a
	// source file and therefore were not re-run.
	UnmatchedFailures int
}

// Compare derives the comparison from whatever ingestion and execution state
// exists. Either argument may be nil.
func Compare(merged *report.Merged, exec *execute.Result, locatedCount int) Comparison {
	var c Comparison
	if merged != nil {
		c.ReportFailed = merged.Summary.Failed > 0 || merged.Summary.Errored > 0
		if n := merged.FailureCount() - locatedCount; n > 0 {
			c.UnmatchedFailures = n
		}
	}
	if exec != nil {
		c.LocalFailed = !exec.Success
	}
	c.Consistent = c.ReportFailed == c.LocalFailed
	c.Reproducible = c.Consistent && c.ReportFailed
	return c
}
