package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var ErrNoWebhook = errors.New("slack webhook URL is not configured")

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts to a Slack incoming webhook.
type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

// Report is a finished retail run ready to share with the shop owner.
type Report struct {
	StoreType  string
	Location   string
	Summary    string
	Iterations int
	ToolCalls  int
}

// Text renders the report as Slack mrkdwn.
func (r Report) Text() string {
	var b strings.Builder
	b.WriteString("*ShelfSense taste gap report*")
	if r.StoreType != "" || r.Location != "" {
		b.WriteString("\n_")
		b.WriteString(strings.TrimSpace(strings.ReplaceAll(r.StoreType, "_", " ") + " in " + r.Location))
		b.WriteString("_")
	}
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(r.Summary))
	fmt.Fprintf(&b, "\n\n%d steps, %d tool calls", r.Iterations, r.ToolCalls)
	return b.String()
}

func (c *Client) PostReport(ctx context.Context, channel string, r Report) error {
	return c.PostMessage(ctx, channel, r.Text())
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	if c.webhookURL == "" {
		return ErrNoWebhook
	}

	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
		"mrkdwn":  true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("failed to post message: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}
