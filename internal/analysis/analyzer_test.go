package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_Annotate(t *testing.T) {
	doc := docFromTexts(t, []string{
		"SARAH: the Council meets tonight",
		"SARAH: do not be late",
		"[thunder]",
		"MARCUS: I never am",
		"MARCUS: you know that",
	})

	report := NewAnalyzer(DefaultConfig()).Annotate(doc)

	assert.Equal(t, 5, report.Entries)
	assert.Equal(t, 2, report.Speakers)
	assert.Equal(t, 1, report.NonDialogue)
	assert.GreaterOrEqual(t, report.Scenes, 1)
	require.NotEmpty(t, doc.Scenes)
	assert.True(t, doc.Glossary.CharacterNames["SARAH"])
	assert.True(t, doc.Glossary.CharacterNames["MARCUS"])
}
