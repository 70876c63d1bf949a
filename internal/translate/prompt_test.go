package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/internal/window"
)

func TestSystemPrompt_NamesLanguagePair(t *testing.T) {
	prompt := systemPrompt("English", "Spanish")
	assert.Contains(t, prompt, "from English to Spanish")
	assert.Contains(t, prompt, "translations")
}

func TestUserPayload_Sections(t *testing.T) {
	doc, _ := testWindow(t, 12)
	doc.Entries[0].TranslatedText = "hecho"
	doc.Summary = "two strangers met on a train"
	doc.Glossary.AddCharacterName("Sarah")

	w := window.NewBuilder(window.Config{RecentCount: 2, BatchSize: 4, LookaheadCount: 2}, nil).Build(doc, 4)
	payload := userPayload(w, "en", "es")

	assert.Contains(t, payload, "=== STORY SO FAR ===")
	assert.Contains(t, payload, "two strangers met on a train")
	assert.Contains(t, payload, "=== BATCH (translate these) ===")
	assert.Contains(t, payload, `"id":5`)
	assert.Contains(t, payload, "=== UPCOMING DIALOGUE")
	// Sarah appears nowhere in the window text, so she is filtered out.
	assert.NotContains(t, payload, "Sarah")
}

func TestUserPayload_GlossaryFiltering(t *testing.T) {
	doc, _ := testWindow(t, 2)
	doc.Entries[0].Text = "Sarah waved."
	doc.Glossary.AddCharacterName("Sarah")
	doc.Glossary.AddCharacterName("Marcus")
	doc.Glossary.AddTerm(document.Term{Source: "warp drive", Target: "propulsor"})

	w := window.NewBuilder(window.Config{BatchSize: 2}, nil).Build(doc, 0)
	payload := userPayload(w, "en", "es")

	assert.Contains(t, payload, "Character (keep verbatim): Sarah")
	assert.NotContains(t, payload, "Marcus")
	assert.NotContains(t, payload, "warp drive")
}

func TestUserPayload_FlattensMultilineText(t *testing.T) {
	doc, _ := testWindow(t, 3)
	doc.Entries[0].Text = "two\nlines"
	doc.Entries[0].TranslatedText = "dos\nlineas"

	w := window.NewBuilder(window.Config{RecentCount: 2, BatchSize: 2}, nil).Build(doc, 1)
	payload := userPayload(w, "en", "es")
	assert.Contains(t, payload, "two | lines => dos | lineas")
}
