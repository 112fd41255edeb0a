// Package llm is the OpenAI-compatible chat-completions client used for
// intent routing, response generation and transcript extraction.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/foremanhq/foreman/internal/metrics"
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Retry   RetryPolicy
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL      string
	apiKey       string
	defaultModel string
	retry        RetryPolicy
	httpClient   *http.Client
}

// ChatMessage is one message in a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request.
type Request struct {
	Model    string
	System   string
	Prompt   string
	Messages []ChatMessage // used instead of System/Prompt when set
}

// Response is the content of a chat completion.
type Response struct {
	Content    string
	Model      string
	TokensUsed int
}

// NewClient creates a client. BaseURL is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		defaultModel: cfg.Model,
		retry:        retry,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Complete sends a chat completion request, retrying transport-level
// failures per the client's retry policy.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	messages := req.Messages
	if len(messages) == 0 {
		if req.System != "" {
			messages = append(messages, ChatMessage{Role: "system", Content: req.System})
		}
		messages = append(messages, ChatMessage{Role: "user", Content: req.Prompt})
	}

	body, err := json.Marshal(apiRequest{Model: model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retry.Backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		start := time.Now()
		resp, err := c.do(ctx, body)
		metrics.LLMLatency.Observe(time.Since(start).Seconds())
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("chat completion failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) (*Response, error) {
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &Response{
		Content:    apiResp.Choices[0].Message.Content,
		Model:      apiResp.Model,
		TokensUsed: apiResp.Usage.TotalTokens,
	}, nil
}

type apiRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type apiResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
