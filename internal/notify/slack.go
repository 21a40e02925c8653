// Package notify posts best-effort run notifications to a Slack incoming webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

type Slack struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

// NewSlack returns a notifier. An empty webhook URL yields a notifier whose
// methods do nothing.
func NewSlack(webhookURL string, timeout time.Duration, logger *slog.Logger) *Slack {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (s *Slack) Configured() bool {
	return s != nil && s.webhookURL != ""
}

type DraftNotice struct {
	ArtistName  string
	ArtistEmail string
	DraftLink   string
	InThread    bool
}

// DraftReady announces a draft waiting for review. Delivery failures are logged only.
func (s *Slack) DraftReady(ctx context.Context, d DraftNotice) {
	if !s.Configured() {
		return
	}

	threadNote := " (new email)"
	if d.InThread {
		threadNote = " (reply in existing thread)"
	}

	s.post(ctx, payload{
		Text: fmt.Sprintf("Draft ready for %s", d.ArtistName),
		Blocks: []block{
			{Type: "header", Text: &text{Type: "plain_text", Text: "📧 New Email Draft Ready for Review", Emoji: true}},
			{Type: "section", Fields: []text{
				{Type: "mrkdwn", Text: "*Artist:*\n" + d.ArtistName},
				{Type: "mrkdwn", Text: "*Email:*\n" + d.ArtistEmail},
			}},
			{Type: "section", Text: &text{Type: "mrkdwn", Text: "*Type:* Follow-up email" + threadNote}},
			{Type: "actions", Elements: []element{{
				Type:  "button",
				Text:  text{Type: "plain_text", Text: "Open Draft in Gmail", Emoji: true},
				URL:   d.DraftLink,
				Style: "primary",
			}}},
		},
	})
}

// Error reports a failure. detail is optional.
func (s *Slack) Error(ctx context.Context, message, detail string) {
	if !s.Configured() {
		return
	}
	body := "⚠️ *Email Assistant Error*\n\n" + message
	if detail != "" {
		body += "\n\n_Context: " + detail + "_"
	}
	s.post(ctx, payload{Text: body})
}

func (s *Slack) post(ctx context.Context, p payload) {
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.ErrorContext(ctx, "encoding slack payload", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(data))
	if err != nil {
		s.logger.WarnContext(ctx, "building slack request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "slack notification failed", "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		s.logger.WarnContext(ctx, "slack notification rejected", "status", resp.StatusCode)
	}
}

type payload struct {
	Text   string  `json:"text,omitempty"`
	Blocks []block `json:"blocks,omitempty"`
}

type block struct {
	Type     string    `json:"type"`
	Text     *text     `json:"text,omitempty"`
	Fields   []text    `json:"fields,omitempty"`
	Elements []element `json:"elements,omitempty"`
}

type text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type element struct {
	Type  string `json:"type"`
	Text  text   `json:"text"`
	URL   string `json:"url,omitempty"`
	Style string `json:"style,omitempty"`
}
