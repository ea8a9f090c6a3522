package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/netx"
)

// Reporter submits malicious verdicts to the scam report endpoint.
type Reporter struct {
	client *Client
}

func NewReporter(c *Client) *Reporter {
	return &Reporter{client: c}
}

func (r *Reporter) Report(ctx context.Context, rawURL string, warnings []models.Warning) error {
	data := make([]string, len(warnings))
	for i, w := range warnings {
		data[i] = string(w)
	}
	return r.client.post(ctx, "/api/report-scam", struct {
		URL  string   `json:"url"`
		Data []string `json:"data"`
	}{rawURL, data})
}

// SlackNotifier posts alert text to an incoming webhook.
type SlackNotifier struct {
	webhook string
	http    *http.Client
	logger  logging.Logger
}

func NewSlackNotifier(webhook string, h *http.Client, logger logging.Logger) *SlackNotifier {
	if h == nil {
		h = &http.Client{Timeout: common.DefaultOracleTimeout}
	}
	return &SlackNotifier{webhook: webhook, http: h, logger: logger}
}

// Alert is a no-op without a webhook. Slack answers "ok" on success; any
// other body is reported as an error.
func (s *SlackNotifier) Alert(ctx context.Context, text string) error {
	if s.webhook == "" {
		s.logger.Debug(ctx, "slack webhook not configured")
		return nil
	}
	body, err := netx.PostText(ctx, s.http, s.webhook, struct {
		Text string `json:"text"`
	}{text})
	if err != nil {
		return fmt.Errorf("slack alert: %w; body: %q", err, body)
	}
	if strings.TrimSpace(body) != "ok" {
		return fmt.Errorf("slack alert: %w; body: %q", common.ErrUnexpectedStatus, body)
	}
	return nil
}

// AlertText renders the Slack message for a malicious verdict.
func AlertText(rawURL string, warnings []models.Warning) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":rotating_light: Scam detected: %s", rawURL)
	for _, w := range warnings {
		fmt.Fprintf(&b, "\n• %s", w)
	}
	return b.String()
}
