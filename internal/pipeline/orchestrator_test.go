package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
	"github.com/MimeLyc/subtrans-pipeline/internal/recovery"
	"github.com/MimeLyc/subtrans-pipeline/internal/window"
)

// fullClient answers every request with translations for all ids up to n;
// the pass filters down to the requested batch. fail injects transport
// errors, garble unparsable response bodies.
type fullClient struct {
	n      int
	calls  int
	fail   func(call int) error
	garble func(call int) bool
}

func (c *fullClient) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	c.calls++
	if c.fail != nil {
		if err := c.fail(c.calls); err != nil {
			return nil, err
		}
	}
	if c.garble != nil && c.garble(c.calls) {
		return &llm.Response{Content: "no json here"}, nil
	}
	parts := make([]string, 0, c.n)
	for id := 1; id <= c.n; id++ {
		parts = append(parts, fmt.Sprintf(`{"id":%d,"translated_text":"translated %d","confidence":0.9}`, id, id))
	}
	return &llm.Response{
		Content: `{"translations":[` + strings.Join(parts, ",") + `]}`,
	}, nil
}

func (c *fullClient) Model() string { return "full" }

func pipelineDoc(t *testing.T, n int) *document.Document {
	t.Helper()
	inputs := make([]document.Input, 0, n)
	for i := 0; i < n; i++ {
		inputs = append(inputs, document.Input{
			ID:      i + 1,
			StartMs: int64(i * 2000),
			EndMs:   int64(i*2000 + 1500),
			Text:    fmt.Sprintf("line %d", i+1),
		})
	}
	doc, err := document.New(document.Metadata{}, inputs)
	require.NoError(t, err)
	return doc
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.DispatchDelay = 0
	cfg.Window.BatchSize = 5
	return cfg
}

func TestOrchestrator_Run_TranslatesWholeDocument(t *testing.T) {
	doc := pipelineDoc(t, 23)
	before := make([]document.Timecode, 0, doc.Len())
	for _, e := range doc.Entries {
		before = append(before, e.Timecode)
	}

	client := &fullClient{n: 23}
	orch, err := New(quietConfig(), []llm.Client{client})
	require.NoError(t, err)

	result := orch.Run(context.Background(), doc)
	require.True(t, result.Success())

	assert.Equal(t, 23, result.Stats.EntriesTranslated)
	assert.Equal(t, 5, result.Stats.BatchesAttempted) // ceil(23/5)
	assert.Equal(t, 23, doc.TranslatedCount())
	assert.Equal(t, "translated 7", doc.Entry(7).TranslatedText)

	// Entry count and timecodes survive bit-identical.
	require.Equal(t, 23, doc.Len())
	for i, e := range doc.Entries {
		assert.Equal(t, before[i], e.Timecode)
	}
	assert.True(t, result.Validation.Passed())
	assert.Equal(t, 1.0, result.Validation.QualityScore())
}

func TestOrchestrator_Run_ReportsProgress(t *testing.T) {
	doc := pipelineDoc(t, 10)
	var phases []string
	orch, err := New(quietConfig(), []llm.Client{&fullClient{n: 10}},
		WithProgress(func(p Progress) { phases = append(phases, p.Phase) }))
	require.NoError(t, err)

	orch.Run(context.Background(), doc)

	assert.Equal(t, "analysis", phases[0])
	assert.Contains(t, phases, "translation")
	assert.Equal(t, "validation", phases[len(phases)-1])
}

func TestOrchestrator_Run_DynamicSizingCapsBatches(t *testing.T) {
	doc := pipelineDoc(t, 20)
	cfg := quietConfig()
	cfg.Sizing = &window.SizingConfig{MinBatch: 2, MaxBatch: 2, TokenBudget: 10000, CharsPerToken: 4}

	var positions []int
	orch, err := New(cfg, []llm.Client{&fullClient{n: 20}},
		WithProgress(func(p Progress) {
			if p.Phase == "translation" {
				positions = append(positions, p.Position)
			}
		}))
	require.NoError(t, err)

	result := orch.Run(context.Background(), doc)
	require.True(t, result.Success())

	// The sizer caps every batch at MaxBatch even though the fixed window
	// size is larger.
	assert.Equal(t, 10, result.Stats.BatchesAttempted)
	assert.Equal(t, []int{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}, positions)
	assert.Equal(t, 20, doc.TranslatedCount())
}

func TestOrchestrator_Run_RestoresBatchSizeAfterSuccess(t *testing.T) {
	doc := pipelineDoc(t, 12)
	cfg := quietConfig()
	cfg.Window.BatchSize = 4
	cfg.MaxParseRetries = 0
	cfg.FallbackEnabled = false

	client := &fullClient{n: 12, garble: func(call int) bool { return call == 2 }}
	var positions []int
	orch, err := New(cfg, []llm.Client{client},
		WithSleep(func(time.Duration) {}),
		WithProgress(func(p Progress) {
			if p.Phase == "translation" {
				positions = append(positions, p.Position)
			}
		}))
	require.NoError(t, err)

	result := orch.Run(context.Background(), doc)
	require.True(t, result.Success())

	// The structural failure at position 4 halves the batch to 2; the
	// following success restores the configured size of 4.
	assert.Equal(t, []int{4, 6, 10, 12}, positions)
	assert.Equal(t, 5, result.Stats.BatchesAttempted)
	assert.Equal(t, 4, result.Stats.BatchesCompleted)
	assert.Equal(t, 1, result.Stats.Retries)
	assert.Equal(t, 12, doc.TranslatedCount())
}

func TestOrchestrator_Run_RetriesTransientFailure(t *testing.T) {
	doc := pipelineDoc(t, 5)
	client := &fullClient{n: 5, fail: func(call int) error {
		if call == 1 {
			return llm.NewError(llm.ErrRateLimit, "429", nil)
		}
		return nil
	}}

	var slept []time.Duration
	orch, err := New(quietConfig(), []llm.Client{client},
		WithSleep(func(d time.Duration) { slept = append(slept, d) }))
	require.NoError(t, err)

	result := orch.Run(context.Background(), doc)
	require.True(t, result.Success())
	assert.Equal(t, 1, result.Stats.Retries)
	assert.Equal(t, 5, doc.TranslatedCount())
	require.NotEmpty(t, slept)
	assert.Equal(t, recovery.KindRateLimit.BaseDelay(), slept[0])
}

func TestOrchestrator_Run_SwitchesProvider(t *testing.T) {
	doc := pipelineDoc(t, 5)
	broken := &fullClient{n: 5, fail: func(int) error {
		return llm.NewError(llm.ErrProvider, "500", nil)
	}}
	healthy := &fullClient{n: 5}

	orch, err := New(quietConfig(), []llm.Client{broken, healthy},
		WithSleep(func(time.Duration) {}))
	require.NoError(t, err)

	result := orch.Run(context.Background(), doc)
	require.True(t, result.Success())
	assert.Equal(t, 1, result.Stats.ProviderSwitches)
	assert.Equal(t, 5, doc.TranslatedCount())
	assert.Positive(t, healthy.calls)
}

func TestOrchestrator_Run_AbortsOnFatalError(t *testing.T) {
	doc := pipelineDoc(t, 5)
	client := &fullClient{n: 5, fail: func(int) error {
		return recovery.NewError(recovery.KindResourceExhausted, "budget spent")
	}}

	orch, err := New(quietConfig(), []llm.Client{client})
	require.NoError(t, err)

	result := orch.Run(context.Background(), doc)
	assert.False(t, result.Success())
	assert.Equal(t, 0, doc.TranslatedCount())
	// Untranslated entries still serialize with original text.
	out := doc.Output()
	require.Len(t, out, 5)
	assert.Equal(t, "line 1", out[0].Text)
}

func TestOrchestrator_Run_CancellationBetweenWindows(t *testing.T) {
	doc := pipelineDoc(t, 20)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	client := &fullClient{n: 20, fail: func(int) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return nil
	}}

	orch, err := New(quietConfig(), []llm.Client{client})
	require.NoError(t, err)

	result := orch.Run(ctx, doc)
	assert.False(t, result.Success())
	assert.ErrorIs(t, result.Err, context.Canceled)
	// The second batch completed before the cancellation took effect.
	assert.Equal(t, 10, doc.TranslatedCount())
}

func TestOrchestrator_New_RequiresClient(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)
}
