package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
	"github.com/MimeLyc/subtrans-pipeline/internal/translate"
)

func TestRunner_Run_ProcessesAllTasksInOrder(t *testing.T) {
	tasks := make([]Task, 4)
	for i := range tasks {
		tasks[i] = Task{ID: fmt.Sprintf("doc-%d", i), Document: pipelineDoc(t, 8)}
	}

	runner := NewRunner(func() (*Orchestrator, error) {
		return New(quietConfig(), []llm.Client{&fullClient{n: 8}})
	}, 2, 0)

	results := runner.Run(context.Background(), tasks)

	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("doc-%d", i), res.ID)
		require.NotNil(t, res.Result)
		assert.True(t, res.Result.Success())
		assert.Equal(t, 8, tasks[i].Document.TranslatedCount())
	}
	assert.Equal(t, 4, runner.Completed())
}

func TestRunner_Run_BuildFailureLandsInResult(t *testing.T) {
	tasks := []Task{{ID: "doc", Document: pipelineDoc(t, 3)}}

	runner := NewRunner(func() (*Orchestrator, error) {
		return nil, fmt.Errorf("no provider configured")
	}, 1, 0)

	results := runner.Run(context.Background(), tasks)
	require.Len(t, results, 1)
	assert.False(t, results[0].Result.Success())
}

func TestChunkedTranslator_PreservesOrder(t *testing.T) {
	doc := pipelineDoc(t, 17)

	chunked := NewChunkedTranslator(&fullClient{n: 17},
		translate.DefaultConfig("en", "es"), 5, 3, 0)

	applied, err := chunked.Translate(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 17, applied)

	for i, e := range doc.Entries {
		assert.Equal(t, fmt.Sprintf("translated %d", i+1), e.TranslatedText)
	}
}

func TestChunkedTranslator_ReportsFirstError(t *testing.T) {
	doc := pipelineDoc(t, 10)
	client := &fullClient{n: 10, fail: func(call int) error {
		return llm.NewError(llm.ErrProvider, "500", nil)
	}}

	applied, err := NewChunkedTranslator(client,
		translate.DefaultConfig("en", "es"), 5, 1, 0).Translate(context.Background(), doc)

	assert.Error(t, err)
	assert.Equal(t, 0, applied)
}
