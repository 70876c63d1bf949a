package main

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/subtrans-pipeline/internal/config"
	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
)

// echoClient answers every request with translations for all ids up to n.
type echoClient struct {
	n     int
	calls int
}

func (c *echoClient) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	c.calls++
	parts := make([]string, 0, c.n)
	for id := 1; id <= c.n; id++ {
		parts = append(parts, fmt.Sprintf(`{"id":%d,"translated_text":"translated %d","confidence":0.9}`, id, id))
	}
	return &llm.Response{Content: `{"translations":[` + strings.Join(parts, ",") + `]}`}, nil
}

func (c *echoClient) Model() string { return "echo" }

func TestRunChunked_TranslatesAndValidates(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("BATCH_SIZE", "5")
	t.Setenv("DISPATCH_DELAY_MS", "0")
	cfg, err := config.New()
	require.NoError(t, err)

	inputs := make([]document.Input, 0, 12)
	for i := 0; i < 12; i++ {
		inputs = append(inputs, document.Input{
			ID:      i + 1,
			StartMs: int64(i * 2000),
			EndMs:   int64(i*2000 + 1500),
			Text:    fmt.Sprintf("line %d", i+1),
		})
	}
	doc, err := document.New(document.Metadata{}, inputs)
	require.NoError(t, err)

	client := &echoClient{n: 12}
	result := runChunked(context.Background(), cfg, client, "en", doc)

	require.True(t, result.Success())
	assert.Equal(t, 12, result.Stats.EntriesTranslated)
	assert.Equal(t, 12, doc.TranslatedCount())
	assert.Equal(t, "translated 7", doc.Entry(7).TranslatedText)
	assert.Equal(t, 3, client.calls) // ceil(12/5) chunks
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.Passed())
}
