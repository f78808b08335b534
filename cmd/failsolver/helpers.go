package main

import (
	"context"
	"fmt"
	"os"

	"failsolver/internal/analyze"
	"failsolver/internal/config"
	"failsolver/internal/llm"
	"failsolver/internal/logging"
	"failsolver/internal/notify"
	"failsolver/internal/pipeline"
	"failsolver/internal/store"
)

// buildGenerator wires the configured chat-completions endpoint. When no
// endpoint is configured the returned generator fails on use, which the
// synthesizer degrades to its fallback analysis.
func buildGenerator(cfg config.Config) analyze.Generator {
	if cfg.LLM.BaseURL == "" {
		return analyze.GeneratorFunc(func(context.Context, string) (string, error) {
			return "", fmt.Errorf("no LLM endpoint configured (set llm.base_url)")
		})
	}
	token := ""
	if cfg.LLM.APIKeyPath != "" {
		if key, err := llm.ReadAPIKey(cfg.LLM.APIKeyPath); err == nil {
			token = key
		}
	}
	client, err := llm.New(cfg.LLM.BaseURL, token,
		llm.WithModel(cfg.LLM.Model),
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithLogger(logging.New("llm")))
	if err != nil {
		return analyze.GeneratorFunc(func(context.Context, string) (string, error) {
			return "", err
		})
	}
	return client
}

// runOne executes a full pipeline run and handles the side channels: the
// output file, the history store and the Slack notifier. The returned state
// is terminal.
func runOne(ctx context.Context, reportPaths []string, repoPath, testName, outputPath string) (pipeline.State, error) {
	runner, err := pipeline.New(pipeline.Deps{Config: cfg, Generator: buildGenerator(cfg)})
	if err != nil {
		return pipeline.State{}, err
	}
	final := runner.Run(ctx, pipeline.NewState(reportPaths, repoPath, testName))

	if outputPath != "" && final.Document != "" {
		if err := os.WriteFile(outputPath, []byte(final.Document), 0o644); err != nil {
			return final, fmt.Errorf("write report: %w", err)
		}
	}

	record := store.FromState(final)
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			logging.New("cli").Warn("history store unavailable", "error", err)
		} else {
			if _, err := st.Save(record); err != nil {
				logging.New("cli").Warn("persist analysis", "error", err)
			}
			st.Close()
		}
	}

	notifier := notify.New(cfg.Notify.SlackWebhookURL, nil, logging.New("notify"))
	if err := notifier.Send(ctx, record); err != nil {
		logging.New("cli").Warn("slack notification failed", "error", err)
	}
	return final, nil
}
