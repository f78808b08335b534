package analyze

import (
	"context"
	"log/slog"

	"failsolver/internal/logging"
)

// Synthesizer turns aggregated failure evidence into a structured root-cause
// analysis by way of a Generator.
type Synthesizer struct {
	gen    Generator
	logger *slog.Logger
}

func NewSynthesizer(gen Generator, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.New("analyze")
	}
	return &Synthesizer{gen: gen, logger: logger}
}

// Analyze builds the prompt, invokes the generator and parses the response.
// A generator failure degrades to a fallback result rather than an error so
// the surrounding run can still complete and report.
func (s *Synthesizer) Analyze(ctx context.Context, in Input) Result {
	prompt, err := BuildPrompt(in)
	if err != nil {
		s.logger.Error("prompt construction failed", "error", err)
		return fallback(err)
	}

	s.logger.Debug("requesting analysis", "prompt_bytes", len(prompt))
	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("generation failed", "error", err)
		return fallback(err)
	}

	res := ParseResponse(raw)
	s.logger.Info("analysis complete",
		"confidence", res.Confidence,
		"recommendations", len(res.Recommendations))
	return res
}

func fallback(err error) Result {
	return Result{
		RootCause:  "Analysis failed: " + err.Error(),
		Confidence: 0,
		Recommendations: []string{
			"Review the test failure details manually",
			"Check the error messages and stack traces in the report",
			"Re-run the failing tests locally to reproduce the issue",
		},
		RawResponse: "Error: " + err.Error(),
	}
}
