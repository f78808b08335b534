// Package analyze builds the root-cause analysis request, hands it to a
// text-generation collaborator, and turns the free-text response into
// structured fields with deterministic fallbacks.
package analyze

import (
	"context"

	"failsolver/internal/aggregate"
	"failsolver/internal/execute"
	"failsolver/internal/report"
)

// Generator is the opaque text-generation collaborator: one prompt in, one
// response out. Implementations may fail on transport or auth; they must not
// stream or hold multi-turn state.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Input is the aggregated evidence the prompt is built from.
type Input struct {
	ReportPaths []string
	TestName    string
	Merged      *report.Merged
	Execution   *execute.Result
	Comparison  aggregate.Comparison
}

// Result is the structured analysis. Confidence is in [0,1].
type Result struct {
	RootCause       string
	Confidence      float64
	Recommendations []string
	RawResponse     string
}
