package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/env"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/retry"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o-mini"

	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotConfigured is returned when no API key is set; callers can surface
// this as a clean "feature disabled" response instead of a provider failure.
var ErrNotConfigured = errors.New("ai: OPENAI_API_KEY is not configured")

// Message is a single chat-completions turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIError carries the upstream status so transient failures can be retried.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ai: provider returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
	retry      retry.Policy
}

// NewClientFromEnv builds a client from OPENAI_* environment variables.
func NewClientFromEnv() *Client {
	policy := retry.Default()
	policy.ShouldRetry = isRetryable
	return &Client{
		APIKey:  strings.TrimSpace(env.GetEnv("OPENAI_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("OPENAI_BASE_URL", defaultBaseURL), "/"),
		Model:   strings.TrimSpace(env.GetEnv("OPENAI_MODEL", defaultModel)),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: policy,
	}
}

// Enabled reports whether the client has credentials to call the provider.
func (c *Client) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation and returns the assistant's reply.
// Rate-limit and server errors are retried with backoff.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	if len(messages) == 0 {
		return "", errors.New("ai: no messages to complete")
	}

	var reply string
	err := c.retry.Do(func() error {
		var err error
		reply, err = c.complete(ctx, messages)
		return err
	})
	return reply, err
}

func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return "", err
	}

	endpoint := c.BaseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed chatResponse
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil && parsed.Error != nil {
			return "", &APIError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("ai: completion response invalid: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("ai: completion returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// GenerateCaption produces a short platform-appropriate caption for a post.
func (c *Client) GenerateCaption(ctx context.Context, platform, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", errors.New("ai: caption topic is empty")
	}
	messages := []Message{
		{
			Role: RoleSystem,
			Content: "You write short social media captions. Reply with the " +
				"caption text only, no quotation marks and no commentary.",
		},
		{
			Role:    RoleUser,
			Content: fmt.Sprintf("Write a caption for %s about: %s", platform, topic),
		},
	}
	return c.Complete(ctx, messages)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	// Transport-level failure, worth another attempt.
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || strings.Contains(err.Error(), "connection")
}
