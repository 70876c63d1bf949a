package recovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
)

// Kind is the fixed failure taxonomy. Every kind carries intrinsic
// retryability, a base backoff delay and a retry cap.
type Kind int

const (
	KindNetwork Kind = iota
	KindRateLimit
	KindTimeout
	KindInvalidResponse
	KindParseError
	KindValidationFailed
	KindProviderError
	KindConfigError
	KindResourceExhausted
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindInvalidResponse:
		return "invalid_response"
	case KindParseError:
		return "parse_error"
	case KindValidationFailed:
		return "validation_failed"
	case KindProviderError:
		return "provider_error"
	case KindConfigError:
		return "config_error"
	case KindResourceExhausted:
		return "resource_exhausted"
	default:
		return "unknown"
	}
}

type kindTraits struct {
	retryable  bool
	baseDelay  time.Duration
	maxRetries int
}

var traits = map[Kind]kindTraits{
	KindNetwork:           {retryable: true, baseDelay: 2 * time.Second, maxRetries: 3},
	KindRateLimit:         {retryable: true, baseDelay: 5 * time.Second, maxRetries: 5},
	KindTimeout:           {retryable: true, baseDelay: 2 * time.Second, maxRetries: 3},
	KindInvalidResponse:   {retryable: true, baseDelay: 1 * time.Second, maxRetries: 2},
	KindParseError:        {retryable: true, baseDelay: 1 * time.Second, maxRetries: 2},
	KindValidationFailed:  {retryable: false},
	KindProviderError:     {retryable: true, baseDelay: 3 * time.Second, maxRetries: 2},
	KindConfigError:       {retryable: false},
	KindResourceExhausted: {retryable: false},
	KindUnknown:           {retryable: true, baseDelay: 2 * time.Second, maxRetries: 1},
}

// Retryable reports the kind's intrinsic retryability.
func (k Kind) Retryable() bool {
	return traits[k].retryable
}

// BaseDelay is the first backoff delay for the kind.
func (k Kind) BaseDelay() time.Duration {
	return traits[k].baseDelay
}

// MaxRetries is the per-kind retry cap.
func (k Kind) MaxRetries() int {
	return traits[k].maxRetries
}

// Fatal reports whether the kind always aborts the run.
func (k Kind) Fatal() bool {
	return k == KindConfigError || k == KindResourceExhausted
}

// Error is a pipeline failure with an explicit kind, for failures that do
// not originate in the model client (configuration, resource budgets,
// validation).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a typed recovery error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Classify maps any error onto the taxonomy. Typed client errors map
// directly; context deadlines become timeouts; net errors become network
// failures; everything else is unknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var recErr *Error
	if errors.As(err, &recErr) {
		return recErr.Kind
	}

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		switch llmErr.Kind {
		case llm.ErrNetwork:
			return KindNetwork
		case llm.ErrTimeout:
			return KindTimeout
		case llm.ErrRateLimit:
			return KindRateLimit
		case llm.ErrProvider:
			return KindProviderError
		case llm.ErrParse:
			return KindParseError
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	return KindUnknown
}
