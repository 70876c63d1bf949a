package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// SummaryConfig controls the extractive history summary.
type SummaryConfig struct {
	// MaxWords bounds the summary length.
	MaxWords int
	// SnippetCount is how many evenly spaced dialogue snippets to include.
	SnippetCount int
	// TopNames is how many frequent character names to mention.
	TopNames int
}

// DefaultSummaryConfig returns the standard summary bounds.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		MaxWords:     120,
		SnippetCount: 5,
		TopNames:     5,
	}
}

// Summarizer produces a cheap extractive summary of the document so far:
// frequent names plus evenly spaced snippets, trimmed at a word boundary.
// It never issues a model call, which keeps summarization cost bounded.
type Summarizer struct {
	cfg SummaryConfig
}

// NewSummarizer creates a summarizer, applying defaults for zero values.
func NewSummarizer(cfg SummaryConfig) *Summarizer {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 120
	}
	if cfg.SnippetCount <= 0 {
		cfg.SnippetCount = 5
	}
	if cfg.TopNames <= 0 {
		cfg.TopNames = 5
	}
	return &Summarizer{cfg: cfg}
}

// Summarize condenses entries [0, upto) into a short history block.
func (s *Summarizer) Summarize(doc *document.Document, upto int) string {
	if upto > doc.Len() {
		upto = doc.Len()
	}
	if upto <= 0 {
		return ""
	}

	var sb strings.Builder

	if names := s.topNames(doc, upto); len(names) > 0 {
		sb.WriteString(fmt.Sprintf("Characters so far: %s. ", strings.Join(names, ", ")))
	}

	snippets := s.snippets(doc, upto)
	if len(snippets) > 0 {
		sb.WriteString("Key dialogue: ")
		sb.WriteString(strings.Join(snippets, " / "))
	}

	return trimAtWordBoundary(sb.String(), s.cfg.MaxWords)
}

// topNames counts character-name occurrences in the prefix and returns the
// most frequent ones.
func (s *Summarizer) topNames(doc *document.Document, upto int) []string {
	counts := make(map[string]int)
	for _, e := range doc.Entries[:upto] {
		for name := range doc.Glossary.CharacterNames {
			if strings.Contains(e.Text, name) {
				counts[name]++
			}
		}
		if e.Speaker != "" {
			counts[e.Speaker]++
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > s.cfg.TopNames {
		names = names[:s.cfg.TopNames]
	}
	return names
}

// snippets picks evenly spaced dialogue lines from the prefix.
func (s *Summarizer) snippets(doc *document.Document, upto int) []string {
	count := s.cfg.SnippetCount
	if count > upto {
		count = upto
	}
	step := upto / count
	if step < 1 {
		step = 1
	}

	var out []string
	for i := 0; i < upto && len(out) < count; i += step {
		e := doc.Entries[i]
		if e.NonDialogue {
			continue
		}
		text := document.StripMarkup(e.Text)
		text = strings.ReplaceAll(text, "\n", " ")
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

// trimAtWordBoundary cuts text to at most maxWords whole words, preferring
// to end at a sentence boundary when one falls inside the budget.
func trimAtWordBoundary(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.TrimSpace(text)
	}
	kept := words[:maxWords]

	// Prefer the last sentence end inside the budget.
	for i := len(kept) - 1; i > maxWords/2; i-- {
		if strings.HasSuffix(kept[i], ".") || strings.HasSuffix(kept[i], "?") || strings.HasSuffix(kept[i], "!") {
			return strings.Join(kept[:i+1], " ")
		}
	}
	return strings.Join(kept, " ") + "…"
}
