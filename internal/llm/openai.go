package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openAIClient adapts the official OpenAI SDK to the Client interface.
type openAIClient struct {
	cfg    *Config
	client *openai.Client
}

func newOpenAIClient(cfg *Config) *openAIClient {
	sdkCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIURL != "" {
		sdkCfg.BaseURL = cfg.APIURL
	}
	sdkCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}
	return &openAIClient{
		cfg:    cfg,
		client: openai.NewClientWithConfig(sdkCfg),
	}
}

func (c *openAIClient) Model() string {
	return c.cfg.Model
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserMessage,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   pickInt(req.MaxTokens, c.cfg.MaxTokens),
		Temperature: float32(pickFloat(req.Temperature, c.cfg.Temperature)),
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewError(ErrParse, "no choices in response", nil)
	}

	return &Response{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &Error{Kind: ErrRateLimit, Status: apiErr.HTTPStatusCode, Message: apiErr.Message, Cause: err}
		case apiErr.HTTPStatusCode >= 400:
			return &Error{Kind: ErrProvider, Status: apiErr.HTTPStatusCode, Message: apiErr.Message, Cause: err}
		}
	}
	return classifyTransportError(err)
}
