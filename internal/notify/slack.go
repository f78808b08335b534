// Package notify posts a short run summary to a Slack incoming webhook.
// An unset webhook URL disables notification entirely.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"failsolver/internal/format"
	"failsolver/internal/store"
)

// Notifier sends run summaries to one webhook URL.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// New returns a Notifier, or nil when webhookURL is empty (notification
// disabled). A nil Notifier is safe to call.
func New(webhookURL string, httpClient *http.Client, logger *slog.Logger) *Notifier {
	if webhookURL == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{webhookURL: webhookURL, httpClient: httpClient, logger: logger}
}

type slackMessage struct {
	Text string `json:"text"`
}

// Send posts the analysis summary. Safe on a nil receiver.
func (n *Notifier) Send(ctx context.Context, a *store.Analysis) error {
	if n == nil {
		return nil
	}
	payload, err := json.Marshal(slackMessage{Text: summaryText(a)})
	if err != nil {
		return fmt.Errorf("encode slack message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack webhook: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	n.logger.Info("slack notification sent", "status", a.Status)
	return nil
}

func summaryText(a *store.Analysis) string {
	var b strings.Builder
	name := a.TestName
	if name == "" {
		name = "test run"
	}
	fmt.Fprintf(&b, "*Failure analysis for %s* — %s\n", name, a.Status)
	fmt.Fprintf(&b, "Tests: %d total, %d failed, %d errored\n", a.Total, a.Failed, a.Errored)
	if a.BuildSystem != "" {
		fmt.Fprintf(&b, "Reproduced locally (%s): %s\n", a.BuildSystem, format.BoolMark(a.Reproducible))
	} else {
		b.WriteString("Local reproduction skipped: build system not detected\n")
	}
	if a.RootCause != "" {
		fmt.Fprintf(&b, "Root cause (%s): %s",
			format.FmtPercent(a.Confidence), format.Truncate(a.RootCause, 300))
	}
	return b.String()
}
