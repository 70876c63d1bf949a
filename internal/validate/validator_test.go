package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

func translatedDoc(t *testing.T, texts ...string) *document.Document {
	t.Helper()
	inputs := make([]document.Input, 0, len(texts))
	for i, text := range texts {
		inputs = append(inputs, document.Input{
			ID:      i + 1,
			StartMs: int64(i * 2000),
			EndMs:   int64(i*2000 + 1500),
			Text:    text,
		})
	}
	doc, err := document.New(document.Metadata{}, inputs)
	require.NoError(t, err)
	return doc
}

func TestValidator_CleanDocumentScoresOne(t *testing.T) {
	doc := translatedDoc(t, "hello there", "how are you")
	doc.Entry(1).TranslatedText = "hola amigo"
	doc.Entry(2).TranslatedText = "como estas"

	report := NewValidator(DefaultConfig(), nil).Validate(doc)

	assert.Empty(t, report.Issues)
	assert.Equal(t, 1.0, report.QualityScore())
	assert.True(t, report.Passed())
}

func TestValidator_EmptyTranslationFails(t *testing.T) {
	doc := translatedDoc(t, "hello there")

	report := NewValidator(DefaultConfig(), nil).Validate(doc)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindEmptyTranslation, report.Issues[0].Kind)
	assert.Equal(t, 1.0, report.Issues[0].Severity)
	assert.False(t, report.Passed())
	assert.Equal(t, 0.0, report.QualityScore())
}

func TestValidator_NonDialogueMayStayUntranslated(t *testing.T) {
	doc := translatedDoc(t, "[door slams]", "hello")
	doc.Entry(1).NonDialogue = true
	doc.Entry(2).TranslatedText = "hola"

	report := NewValidator(DefaultConfig(), nil).Validate(doc)
	assert.Empty(t, report.Issues)
}

func TestValidator_LengthRatio(t *testing.T) {
	doc := translatedDoc(t, "ten runes!")
	doc.Entry(1).TranslatedText = strings.Repeat("x", 40) // ratio 4.0

	report := NewValidator(DefaultConfig(), nil).Validate(doc)

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, KindLengthRatio, issue.Kind)
	// 0.2 + (4.0-2.5)/2.5 = 0.8
	assert.InDelta(t, 0.8, issue.Severity, 1e-9)
	assert.False(t, report.Passed())
}

func TestValidator_MissingFormatting(t *testing.T) {
	doc := translatedDoc(t, "<i>Whispered text</i>")
	doc.Entry(1).TranslatedText = "texto susurrado"

	report := NewValidator(DefaultConfig(), nil).Validate(doc)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindMissingFormatting, report.Issues[0].Kind)
	assert.Equal(t, document.TagItalic, report.Issues[0].Tag)
	assert.InDelta(t, 0.4, report.Issues[0].Severity, 1e-9)
	assert.True(t, report.Passed())
}

func TestValidator_GlossaryNameDropped(t *testing.T) {
	doc := translatedDoc(t, "Sarah is waiting")
	doc.Glossary.AddCharacterName("Sarah")
	doc.Entry(1).TranslatedText = "alguien espera"

	report := NewValidator(DefaultConfig(), nil).Validate(doc)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindGlossaryMismatch, report.Issues[0].Kind)
	assert.InDelta(t, 0.7, report.Issues[0].Severity, 1e-9)
}

func TestValidator_LowConfidence(t *testing.T) {
	doc := translatedDoc(t, "hello there")
	doc.Entry(1).TranslatedText = "hola amigo"
	doc.Entry(1).Confidence = 0.3

	report := NewValidator(DefaultConfig(), nil).Validate(doc)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindLowConfidence, report.Issues[0].Kind)
	assert.InDelta(t, 0.7, report.Issues[0].Severity, 1e-9)
}

func TestValidator_DivergenceSignalFloorsAtFailure(t *testing.T) {
	doc := translatedDoc(t, "hello there")
	doc.Entry(1).TranslatedText = "hola amigo"

	report := NewValidator(DefaultConfig(), func(document.Entry) float64 { return 0.5 }).Validate(doc)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindSemanticDivergence, report.Issues[0].Kind)
	assert.InDelta(t, 0.8, report.Issues[0].Severity, 1e-9)
	assert.False(t, report.Passed())
}

func TestReport_QualityScoreDecreasesMonotonically(t *testing.T) {
	r := &Report{EntriesValidated: 10}
	prev := r.QualityScore()
	for i := 0; i < 5; i++ {
		r.Issues = append(r.Issues, Issue{Severity: 0.5})
		score := r.QualityScore()
		assert.Less(t, score, prev)
		prev = score
	}
}

func TestReport_QualityScoreNeverNegative(t *testing.T) {
	r := &Report{EntriesValidated: 1, Issues: []Issue{{Severity: 1}, {Severity: 1}}}
	assert.Equal(t, 0.0, r.QualityScore())
}

func TestReport_IssuesFor(t *testing.T) {
	r := &Report{Issues: []Issue{
		{EntryID: 1, Kind: KindLengthRatio},
		{EntryID: 2, Kind: KindLowConfidence},
		{EntryID: 1, Kind: KindGlossaryMismatch},
	}}
	assert.Len(t, r.IssuesFor(1), 2)
	assert.Len(t, r.IssuesFor(3), 0)
}
