package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// anthropicClient adapts the Anthropic SDK to the Client interface.
type anthropicClient struct {
	cfg    *Config
	client *anthropic.Client
}

func newAnthropicClient(cfg *Config) *anthropicClient {
	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}),
	}
	if cfg.APIURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.APIURL))
	}
	return &anthropicClient{
		cfg:    cfg,
		client: anthropic.NewClient(cfg.APIKey, opts...),
	}
}

func (c *anthropicClient) Model() string {
	return c.cfg.Model
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	temperature := float32(pickFloat(req.Temperature, c.cfg.Temperature))
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.cfg.Model),
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(req.UserMessage),
		},
		System:      req.SystemPrompt,
		MaxTokens:   pickInt(req.MaxTokens, c.cfg.MaxTokens),
		Temperature: &temperature,
	})
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	content := resp.GetFirstContentText()
	if content == "" {
		return nil, NewError(ErrParse, "empty response content", nil)
	}

	return &Response{
		Content:          content,
		Model:            string(resp.Model),
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
	}, nil
}

func classifyAnthropicError(err error) *Error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsRateLimitErr() || apiErr.IsOverloadedErr() {
			return &Error{Kind: ErrRateLimit, Message: apiErr.Message, Cause: err}
		}
		return &Error{Kind: ErrProvider, Message: apiErr.Message, Cause: err}
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.StatusCode == http.StatusTooManyRequests {
			return &Error{Kind: ErrRateLimit, Status: reqErr.StatusCode, Message: err.Error(), Cause: err}
		}
		return &Error{Kind: ErrProvider, Status: reqErr.StatusCode, Message: err.Error(), Cause: err}
	}
	return classifyTransportError(err)
}
