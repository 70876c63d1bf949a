package llm

import (
	"context"
	"fmt"
)

// ErrorKind classifies a client failure. The recovery layer consumes these
// directly.
type ErrorKind int

const (
	ErrNetwork ErrorKind = iota
	ErrTimeout
	ErrRateLimit
	ErrProvider
	ErrParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrTimeout:
		return "timeout"
	case ErrRateLimit:
		return "rate_limit"
	case ErrProvider:
		return "provider"
	case ErrParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every client adapter.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("llm %s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("llm %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a typed client error.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Request is one completion request: a system instruction plus the payload.
type Request struct {
	SystemPrompt string
	UserMessage  string
	MaxTokens    int
	Temperature  float64
}

// Response is the raw completion text plus usage accounting.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client is the single capability interface over model providers. The core
// never branches on provider identity beyond reading configuration.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}
