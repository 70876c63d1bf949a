package recovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "typed recovery error", err: NewError(KindConfigError, "bad config"), want: KindConfigError},
		{name: "wrapped recovery error", err: fmt.Errorf("run: %w", NewError(KindResourceExhausted, "budget")), want: KindResourceExhausted},
		{name: "llm network", err: llm.NewError(llm.ErrNetwork, "refused", nil), want: KindNetwork},
		{name: "llm rate limit", err: llm.NewError(llm.ErrRateLimit, "429", nil), want: KindRateLimit},
		{name: "llm timeout", err: llm.NewError(llm.ErrTimeout, "deadline", nil), want: KindTimeout},
		{name: "llm provider", err: llm.NewError(llm.ErrProvider, "500", nil), want: KindProviderError},
		{name: "llm parse", err: llm.NewError(llm.ErrParse, "garbage", nil), want: KindParseError},
		{name: "context deadline", err: context.DeadlineExceeded, want: KindTimeout},
		{name: "plain error", err: errors.New("something odd"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestKindTraits(t *testing.T) {
	assert.True(t, KindRateLimit.Retryable())
	assert.Equal(t, 5, KindRateLimit.MaxRetries())
	assert.False(t, KindConfigError.Retryable())
	assert.True(t, KindConfigError.Fatal())
	assert.True(t, KindResourceExhausted.Fatal())
	assert.False(t, KindValidationFailed.Fatal())
	assert.False(t, KindValidationFailed.Retryable())
}
