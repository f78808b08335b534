package aggregate

import (
	"testing"

	"failsolver/internal/execute"
	"failsolver/internal/report"
)

func mergedWith(failed, errored int) *report.Merged {
	return &report.Merged{Summary: report.Summary{Failed: failed, Errored: errored}}
}

func TestConsistencyOverAllCombinations(t *testing.T) {
	tests := []struct {
		name             string
		reportFailed     bool
		localFailed      bool
		wantConsistent   bool
		wantReproducible bool
	}{
		{"both passed", false, false, true, false},
		{"report failed only", true, false, false, false},
		{"local failed only", false, true, false, false},
		{"both failed", true, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m *report.Merged
			if tt.reportFailed {
				m = mergedWith(1, 0)
			} else {
				m = mergedWith(0, 0)
			}
			exec := &execute.Result{Success: !tt.localFailed}

			c := Compare(m, exec, 0)
			if c.ReportFailed != tt.reportFailed || c.LocalFailed != tt.localFailed {
				t.Fatalf("flags = (%v, %v), want (%v, %v)",
					c.ReportFailed, c.LocalFailed, tt.reportFailed, tt.localFailed)
			}
			if c.Consistent != tt.wantConsistent {
				t.Errorf("Consistent = %v, want %v", c.Consistent, tt.wantConsistent)
			}
			if c.Reproducible != tt.wantReproducible {
				t.Errorf("Reproducible = %v, want %v", c.Reproducible, tt.wantReproducible)
			}
		})
	}
}

func TestErroredCountsAsReportFailure(t *testing.T) {
	c := Compare(mergedWith(0, 2), &execute.Result{Success: false}, 0)
	if !c.ReportFailed {
		t.Error("ReportFailed = false, want true when errored > 0")
	}
}

func TestUnknownWhenUpstreamSkipped(t *testing.T) {
	c := Compare(nil, nil, 0)
	if c.ReportFailed || c.LocalFailed {
		t.Errorf("flags = (%v, %v), want both false", c.ReportFailed, c.LocalFailed)
	}
	if !c.Consistent {
		t.Error("Consistent = false, want true (both unknown)")
	}
	if c.Reproducible {
		t.Error("Reproducible = true, want false")
	}
}

func TestUnmatchedFailureCount(t *testing.T) {
	m := &report.Merged{
		Summary:  report.Summary{Failed: 3},
		Failures: make([]report.Failure, 3),
	}
	c := Compare(m, nil, 1)
	if c.UnmatchedFailures != 2 {
		t.Errorf("UnmatchedFailures = %d, want 2", c.UnmatchedFailures)
	}
	if got := Compare(m, nil, 3).UnmatchedFailures; got != 0 {
		t.Errorf("UnmatchedFailures = %d, want 0", got)
	}
}
