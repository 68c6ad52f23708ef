// Package email sends the weekly digest through the Postmark API.
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dvoss/choreboard/internal/model"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token and sender are set.
func (c *Client) Configured() bool {
	return c.serverToken != "" && c.fromEmail != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendDigest mails a summary of the week's completion stats.
func (c *Client) SendDigest(toEmail, weekRange string, stats *model.CompletionStats) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	subject := fmt.Sprintf("Chore digest for %s", weekRange)

	var text, html strings.Builder
	fmt.Fprintf(&text, "Week of %s\n\n", weekRange)
	fmt.Fprintf(&text, "Completions this week: %d\n", stats.CompletionsThisWeek)
	fmt.Fprintf(&text, "Active chores: %d\n", stats.TotalActiveChores)
	fmt.Fprintf(&text, "Completion rate: %.0f%%\n", stats.CompletionRate)

	fmt.Fprintf(&html, "<h2>Week of %s</h2>", weekRange)
	fmt.Fprintf(&html, "<p>Completions this week: <strong>%d</strong></p>", stats.CompletionsThisWeek)
	fmt.Fprintf(&html, "<p>Active chores: <strong>%d</strong></p>", stats.TotalActiveChores)
	fmt.Fprintf(&html, "<p>Completion rate: <strong>%.0f%%</strong></p>", stats.CompletionRate)

	if len(stats.TopUsers) > 0 {
		text.WriteString("\nLeaderboard:\n")
		html.WriteString("<h3>Leaderboard</h3><ol>")
		for _, u := range stats.TopUsers {
			fmt.Fprintf(&text, "  %s: %d\n", u.Name, u.Count)
			fmt.Fprintf(&html, "<li>%s: %d</li>", u.Name, u.Count)
		}
		html.WriteString("</ol>")
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: html.String(),
		TextBody: text.String(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
