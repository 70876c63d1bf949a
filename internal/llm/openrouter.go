package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

// openRouterClient talks to any OpenAI-compatible chat completion endpoint
// over plain HTTP. OpenRouter is the default target.
type openRouterClient struct {
	cfg        *Config
	httpClient *http.Client
	baseURL    string
}

func newOpenRouterClient(cfg *Config) *openRouterClient {
	return &openRouterClient{
		cfg:     cfg,
		baseURL: cfg.APIURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// chatMessage is one message in OpenAI wire format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error,omitempty"`
}

func (c *openRouterClient) Model() string {
	return c.cfg.Model
}

func (c *openRouterClient) Complete(ctx context.Context, req Request) (*Response, error) {
	payload := chatRequest{
		Model:       c.cfg.Model,
		MaxTokens:   pickInt(req.MaxTokens, c.cfg.MaxTokens),
		Temperature: pickFloat(req.Temperature, c.cfg.Temperature),
	}
	if req.SystemPrompt != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.UserMessage})

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(ErrParse, "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, NewError(ErrNetwork, "failed to create request", err)
	}
	for key, value := range c.cfg.GetHeaders() {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(ErrNetwork, "failed to read response body", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &Error{Kind: ErrRateLimit, Status: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: ErrProvider, Status: resp.StatusCode, Message: string(body)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, NewError(ErrParse, "failed to parse response", err)
	}
	if chatResp.Error != nil && chatResp.Error.Message != "" {
		return nil, &Error{Kind: ErrProvider, Status: resp.StatusCode, Message: chatResp.Error.Message}
	}
	if len(chatResp.Choices) == 0 {
		return nil, NewError(ErrParse, "no choices in response", nil)
	}

	return &Response{
		Content:          chatResp.Choices[0].Message.Content,
		Model:            chatResp.Model,
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
	}, nil
}

// classifyTransportError maps HTTP transport failures onto the typed error
// taxonomy: deadline and timeouts are retried differently from plain
// connectivity failures.
func classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return NewError(ErrTimeout, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(ErrTimeout, "request timed out", err)
	}
	return NewError(ErrNetwork, fmt.Sprintf("request failed: %v", err), err)
}

func pickInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func pickFloat(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}
