package report

import "fmt"

// FormatError indicates a well-formed XML document whose root element is
// neither a JUnit nor a TestNG report. Terminal for the pipeline.
type FormatError struct {
	Path string
	Root string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: unknown report format (root element %q)", e.Path, e.Root)
}

// IngestionError wraps an XML parser failure for a report file. Terminal for
// the pipeline.
type IngestionError struct {
	Path string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("%s: invalid XML: %v", e.Path, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
