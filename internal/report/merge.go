package report

// Merge combines reports into one summary. Counts are field-wise sums (order
// independent); failures and error lines concatenate in input order. Result
// is recomputed from the merged failed count against the merged total.
func Merge(reports []*Report) *Merged {
	m := &Merged{}
	for _, r := range reports {
		m.Summary.Total += r.Summary.Total
		m.Summary.Passed += r.Summary.Passed
		m.Summary.Failed += r.Summary.Failed
		m.Summary.Errored += r.Summary.Errored
		m.Summary.Skipped += r.Summary.Skipped
		m.Summary.DurationSeconds += r.Summary.DurationSeconds

		m.Failures = append(m.Failures, r.Failures...)
		m.ErrorLines = append(m.ErrorLines, r.ErrorLines...)

		if !containsFormat(m.Formats, r.Summary.SourceFormat) {
			m.Formats = append(m.Formats, r.Summary.SourceFormat)
		}
	}
	if len(m.Formats) == 1 {
		m.Summary.SourceFormat = m.Formats[0]
	}
	m.Result = classify(m.Summary.Failed, m.Summary.Total)
	return m
}

// Ingest parses every path and merges the results. Any malformed or
// unrecognized file aborts the whole ingestion.
func Ingest(paths []string) (*Merged, error) {
	reports := make([]*Report, 0, len(paths))
	for _, p := range paths {
		r, err := ParseFile(p)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return Merge(reports), nil
}

func classify(failed, total int) Result {
	switch {
	case failed == 0:
		return ResultSuccess
	case failed == total:
		return ResultFailure
	default:
		return ResultPartialFailure
	}
}

func containsFormat(list []Format, f Format) bool {
	for _, x := range list {
		if x == f {
			return true
		}
	}
	return false
}
