// Package notify implements the notify stage: it posts a run summary to a
// chat webhook. Delivery problems are logged and never fail the run.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/dataclean/internal/config"
	"github.com/JonMunkholm/dataclean/internal/json"
	"github.com/JonMunkholm/dataclean/internal/logging"
	"github.com/JonMunkholm/dataclean/internal/pipeline"
)

const defaultTimeout = 10 * time.Second

// NoStatsLine replaces the counts when the validate stage produced none.
const NoStatsLine = "No stats found from validate step (task may have failed or been skipped)"

// Client sends HTTP requests. *http.Client satisfies it.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier posts run summaries to a webhook.
type Notifier struct {
	url      string
	timeout  time.Duration
	client   Client
	bucket   string
	inputKey string
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithClient replaces the HTTP client used to reach the webhook.
func WithClient(c Client) Option {
	return func(n *Notifier) {
		n.client = c
	}
}

// New creates a notifier. An empty webhook URL disables delivery.
func New(cfg config.NotifyConfig, storageCfg config.StorageConfig, opts ...Option) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	n := &Notifier{
		url:      cfg.WebhookURL,
		timeout:  timeout,
		client:   &http.Client{},
		bucket:   storageCfg.Bucket,
		inputKey: storageCfg.InputKey,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name implements pipeline.Stage.
func (n *Notifier) Name() string { return pipeline.StageNotify }

// Run implements pipeline.Stage. It always returns nil.
func (n *Notifier) Run(ctx context.Context, h *pipeline.Handoff) error {
	logger := logging.WithFields(ctx, "stage", pipeline.StageNotify)
	if n.url == "" {
		logger.Info("webhook URL not set, skipping notify")
		return nil
	}

	status, err := n.Send(ctx, BuildMessage(n.bucket, n.inputKey, h))
	if err != nil {
		logger.Warn("notify failed", "error", err)
		return nil
	}
	logger.Info("notification sent", "status", status)
	return nil
}

// BuildMessage renders the run summary posted to the webhook.
func BuildMessage(bucket, inputKey string, h *pipeline.Handoff) string {
	var lines []string
	if h.Stats != nil {
		lines = append(lines,
			fmt.Sprintf("Clean rows: *%d* / Evaluated: *%d*", h.Stats.CleanRows, h.Stats.DataRows),
			fmt.Sprintf("Rejected rows: *%d*", h.Stats.RejectedRows),
		)
	} else {
		lines = append(lines, NoStatsLine)
	}
	if h.CleanedObject != "" {
		lines = append(lines, fmt.Sprintf("Cleaned file: `%s`", h.CleanedObject))
	}
	if h.RejectsObject != "" {
		lines = append(lines, fmt.Sprintf("Rejects report: `%s`", h.RejectsObject))
	}

	return "*CSV Validation Complete*\n" +
		fmt.Sprintf("Bucket: `%s`\n", bucket) +
		fmt.Sprintf("Input: `%s`\n", inputKey) +
		strings.Join(lines, "\n")
}

type payload struct {
	Text string `json:"text"`
}

// Send posts text to the webhook and returns the response status. Any
// response counts as delivered; only transport failures are errors.
func (n *Notifier) Send(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(payload{Text: text})
	if err != nil {
		return "", fmt.Errorf("encoding webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.Status, nil
}
