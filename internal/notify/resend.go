package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultResendURL = "https://api.resend.com/emails"

// Resend sends reports as e-mails through the Resend HTTP API.
type Resend struct {
	apiKey string
	from   string
	to     []string
	url    string
	client *http.Client
}

func NewResend(apiKey, from string, to []string) *Resend {
	return &Resend{
		apiKey: apiKey,
		from:   from,
		to:     to,
		url:    defaultResendURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (n *Resend) Send(ctx context.Context, r Report) error {
	if n.apiKey == "" {
		return fmt.Errorf("resend: no API key configured")
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Issue report %s\nReceived: %s\n\n", r.ID, r.ReceivedAt.Format(time.RFC3339))
	text.WriteString("Visitor messages:\n")
	for _, e := range r.Excerpts {
		fmt.Fprintf(&text, "  - %s\n", e)
	}

	body, err := json.Marshal(resendPayload{
		From:    n.from,
		To:      n.to,
		Subject: "bspot chat: possible service issue (" + r.ID + ")",
		Text:    text.String(),
	})
	if err != nil {
		return fmt.Errorf("resend: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
