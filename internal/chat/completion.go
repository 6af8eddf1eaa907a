package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Sentinel errors the handler maps to caller-facing categories. The raw
// upstream response never leaves the server; it is logged and replaced with
// one of these.
var (
	ErrUpstreamRateLimited = errors.New("completion service rate limited")
	ErrUpstreamUnavailable = errors.New("completion service unavailable")
)

// CompletionClient talks to an OpenAI-style chat-completions endpoint.
type CompletionClient struct {
	baseURL  string
	apiKey   string
	model    string
	client   *http.Client
	outbound *rate.Limiter // process-wide throttle on the paid upstream
}

type CompletionConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	OutboundRPS float64
	Burst       int
}

func NewCompletionClient(cfg CompletionConfig) *CompletionClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.OutboundRPS <= 0 {
		cfg.OutboundRPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	return &CompletionClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout, Transport: newTransport()},
		outbound: rate.NewLimiter(rate.Limit(cfg.OutboundRPS), cfg.Burst),
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation (system prompt first) upstream and returns
// the assistant's reply text.
func (c *CompletionClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := c.outbound.Wait(ctx); err != nil {
		return "", fmt.Errorf("outbound throttle: %w", err)
	}

	turns := make([]Message, 0, len(messages)+1)
	turns = append(turns, Message{Role: RoleSystem, Content: systemPrompt})
	turns = append(turns, messages...)

	body, err := json.Marshal(completionRequest{Model: c.model, Messages: turns})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion call: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %s", ErrUpstreamRateLimited, readDetail(resp.Body))
	case http.StatusPaymentRequired:
		return "", fmt.Errorf("%w: %s", ErrUpstreamUnavailable, readDetail(resp.Body))
	default:
		return "", fmt.Errorf("completion status %d: %s", resp.StatusCode, readDetail(resp.Body))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.New("completion response had no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func readDetail(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
