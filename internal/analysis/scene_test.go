package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// docWithGaps builds a document whose inter-entry gaps are the given
// millisecond values.
func docWithGaps(t *testing.T, gaps []int64) *document.Document {
	t.Helper()
	inputs := []document.Input{{ID: 1, StartMs: 0, EndMs: 1000, Text: "line 1"}}
	cursor := int64(1000)
	for i, gap := range gaps {
		start := cursor + gap
		inputs = append(inputs, document.Input{
			ID:      i + 2,
			StartMs: start,
			EndMs:   start + 1000,
			Text:    "line",
		})
		cursor = start + 1000
	}
	doc, err := document.New(document.Metadata{}, inputs)
	require.NoError(t, err)
	return doc
}

func TestSceneDetector_BreaksOnGap(t *testing.T) {
	doc := docWithGaps(t, []int64{100, 100, 5000, 100})
	scenes := NewSceneDetector(SceneConfig{GapThresholdMs: 3000}).Detect(doc)

	require.Len(t, scenes, 2)
	assert.Equal(t, 1, scenes[0].StartEntryID)
	assert.Equal(t, 3, scenes[0].EndEntryID)
	assert.Equal(t, 4, scenes[1].StartEntryID)
	assert.Equal(t, 5, scenes[1].EndEntryID)
}

func TestSceneDetector_HigherThresholdNeverSplitsMore(t *testing.T) {
	doc := docWithGaps(t, []int64{500, 2500, 3500, 800, 4200, 100})

	low := NewSceneDetector(SceneConfig{GapThresholdMs: 2000}).Detect(doc)
	high := NewSceneDetector(SceneConfig{GapThresholdMs: 4000}).Detect(doc)

	assert.GreaterOrEqual(t, len(low), len(high))
}

func TestSceneDetector_CapsSceneLength(t *testing.T) {
	doc := docWithGaps(t, make([]int64, 9)) // 10 entries, no gaps
	scenes := NewSceneDetector(SceneConfig{GapThresholdMs: 3000, MaxSceneLength: 4}).Detect(doc)

	require.Len(t, scenes, 3)
	for _, scene := range scenes {
		assert.LessOrEqual(t, scene.Len(), 4)
	}
}

func TestSceneDetector_BreaksOnSpeakerChange(t *testing.T) {
	doc := docWithGaps(t, []int64{100, 100, 100})
	doc.Entries[0].Speaker = "SARAH"
	doc.Entries[1].Speaker = "SARAH"
	doc.Entries[2].Speaker = "MARCUS"
	doc.Entries[3].Speaker = "MARCUS"

	scenes := NewSceneDetector(SceneConfig{GapThresholdMs: 3000, UseSpeakers: true}).Detect(doc)
	require.Len(t, scenes, 2)
	assert.Equal(t, 2, scenes[0].EndEntryID)

	// Unlabeled entries never force a break.
	doc.Entries[2].Speaker = ""
	scenes = NewSceneDetector(SceneConfig{GapThresholdMs: 3000, UseSpeakers: true}).Detect(doc)
	assert.Len(t, scenes, 1)
}

func TestSceneDetector_Annotate_CoversAllEntries(t *testing.T) {
	doc := docWithGaps(t, []int64{100, 5000, 100, 5000})
	NewSceneDetector(DefaultSceneConfig()).Annotate(doc)

	require.NotEmpty(t, doc.Scenes)
	for _, e := range doc.Entries {
		assert.NotZero(t, e.SceneID, "entry %d has no scene", e.ID)
		scene, ok := doc.SceneOf(e.ID)
		require.True(t, ok)
		assert.Equal(t, e.SceneID, scene.ID)
	}
}
