package translate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/internal/window"
)

// systemPrompt builds the fixed, language-parameterized system instruction.
func systemPrompt(sourceLang, targetLang string) string {
	var sb strings.Builder

	sb.WriteString("You are a professional subtitle translation expert specializing in cross-language media localization. ")
	sb.WriteString(fmt.Sprintf("Translate subtitle entries from %s to %s while preserving tone, register and narrative continuity.\n\n", sourceLang, targetLang))

	sb.WriteString("=== TRANSLATION GUIDELINES ===\n")
	sb.WriteString("1. Keep character names exactly as listed in the glossary; never translate them\n")
	sb.WriteString("2. Use the glossary term mappings consistently\n")
	sb.WriteString(fmt.Sprintf("3. Ensure %s flows naturally while preserving meaning\n", targetLang))
	sb.WriteString("4. Keep subtitle length appropriate for screen reading\n")
	sb.WriteString("5. Preserve markup tags such as <i></i>, <b></b> and {\\anN} in place\n")
	sb.WriteString("6. Translate every entry in the batch; context entries are informational only\n")

	sb.WriteString("\n=== OUTPUT FORMAT ===\n")
	sb.WriteString("Return ONLY a JSON object of the form:\n")
	sb.WriteString(`{"translations":[{"id":1,"translated_text":"...","confidence":0.95}],"glossary_updates":[{"source":"...","target":"..."}],"notes":""}` + "\n")
	sb.WriteString("Include one translations element per batch entry, keyed by its id.\n")
	sb.WriteString("Confidence is your own 0-1 estimate of translation quality.\n")
	sb.WriteString("Do not include any explanations outside the JSON object.\n")

	return sb.String()
}

// requestEntry is one batch line in the request payload.
type requestEntry struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// userPayload renders the context window into the structured request body:
// task, language pair, context block, batch entries and instructions.
func userPayload(w window.ContextWindow, sourceLang, targetLang string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== TASK ===\nTranslate the batch below from %s to %s (entries %d of %d total).\n",
		sourceLang, targetLang, len(w.CurrentBatch), w.Total))

	if w.HistorySummary != "" {
		sb.WriteString("\n=== STORY SO FAR ===\n")
		sb.WriteString(w.HistorySummary)
		sb.WriteString("\n")
	}

	glossary := relevantGlossary(w)
	if !glossary.IsEmpty() {
		sb.WriteString("\n=== GLOSSARY ===\n")
		for name := range glossary.CharacterNames {
			sb.WriteString(fmt.Sprintf("Character (keep verbatim): %s\n", name))
		}
		for _, term := range glossary.Terms {
			if term.Target != "" {
				sb.WriteString(fmt.Sprintf("Term: %q -> %q\n", term.Source, term.Target))
			} else {
				sb.WriteString(fmt.Sprintf("Term (translate consistently): %q\n", term.Source))
			}
		}
		for source, target := range glossary.TechnicalTerms {
			sb.WriteString(fmt.Sprintf("Technical: %q -> %q\n", source, target))
		}
	}

	if len(w.Recent) > 0 {
		sb.WriteString("\n=== PRECEDING DIALOGUE (already translated) ===\n")
		for _, e := range w.Recent {
			sb.WriteString(fmt.Sprintf("[%d] %s => %s\n", e.ID, flatten(e.Text), flatten(e.TranslatedText)))
		}
	}

	sb.WriteString("\n=== BATCH (translate these) ===\n")
	entries := make([]requestEntry, 0, len(w.CurrentBatch))
	for _, e := range w.CurrentBatch {
		entries = append(entries, requestEntry{ID: e.ID, Text: e.Text})
	}
	encoded, _ := json.Marshal(entries)
	sb.Write(encoded)
	sb.WriteString("\n")

	if len(w.Lookahead) > 0 {
		sb.WriteString("\n=== UPCOMING DIALOGUE (context only, do not translate) ===\n")
		for _, e := range w.Lookahead {
			sb.WriteString(fmt.Sprintf("[%d] %s\n", e.ID, flatten(e.Text)))
		}
	}

	sb.WriteString("\n=== INSTRUCTIONS ===\n")
	sb.WriteString("Respond with the JSON object described in the system prompt, nothing else.\n")

	return sb.String()
}

// relevantGlossary keeps only glossary items that appear in the window's
// text so the payload stays bounded.
func relevantGlossary(w window.ContextWindow) document.Glossary {
	texts := make([]string, 0, len(w.CurrentBatch)+len(w.Recent)+len(w.Lookahead))
	for _, e := range w.CurrentBatch {
		texts = append(texts, e.Text)
	}
	for _, e := range w.Recent {
		texts = append(texts, e.Text)
	}
	for _, e := range w.Lookahead {
		texts = append(texts, e.Text)
	}
	return w.Glossary.MatchIn(texts)
}

func flatten(text string) string {
	return strings.ReplaceAll(text, "\n", " | ")
}
