package translate

import (
	"context"
	"fmt"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
	"github.com/MimeLyc/subtrans-pipeline/internal/window"
	"github.com/MimeLyc/subtrans-pipeline/pkg/log"
)

// Config controls one translation pass.
type Config struct {
	SourceLanguage string
	TargetLanguage string
	// MaxParseRetries is how often an unparsable response is re-requested
	// before giving up on the batch.
	MaxParseRetries int
	// FallbackEnabled returns empty-text placeholders for every requested
	// id when retries are exhausted, instead of failing the batch. Callers
	// detect the emptiness and decide to skip or flag.
	FallbackEnabled bool
}

// DefaultConfig returns the standard pass settings for a language pair.
func DefaultConfig(sourceLang, targetLang string) Config {
	return Config{
		SourceLanguage:  sourceLang,
		TargetLanguage:  targetLang,
		MaxParseRetries: 2,
		FallbackEnabled: true,
	}
}

// Pass turns one context window into a model request and applies the
// structured response. Transport failures propagate as typed llm errors for
// the recovery layer; unparsable responses are retried here and may fall
// back to placeholders.
type Pass struct {
	client llm.Client
	cfg    Config
}

// NewPass creates a translation pass over the given client.
func NewPass(client llm.Client, cfg Config) *Pass {
	if cfg.MaxParseRetries < 0 {
		cfg.MaxParseRetries = 0
	}
	return &Pass{client: client, cfg: cfg}
}

// Client returns the underlying model client.
func (p *Pass) Client() llm.Client {
	return p.client
}

// TranslateWindow requests a translation for every id in the window's
// current batch. The result may be partial; IsComplete/MissingIDs expose
// silently omitted ids.
func (p *Pass) TranslateWindow(ctx context.Context, w window.ContextWindow) (*BatchResult, error) {
	if w.Done() {
		return nil, fmt.Errorf("window has an empty batch")
	}

	result := &BatchResult{
		Requested:    w.BatchIDs(),
		Translations: make(map[int]EntryTranslation),
	}

	req := llm.Request{
		SystemPrompt: systemPrompt(p.cfg.SourceLanguage, p.cfg.TargetLanguage),
		UserMessage:  userPayload(w, p.cfg.SourceLanguage, p.cfg.TargetLanguage),
	}

	var parseErr error
	for attempt := 0; attempt <= p.cfg.MaxParseRetries; attempt++ {
		if attempt > 0 {
			result.Retries++
			log.Warn("Re-requesting batch at position %d after unparsable response (attempt %d)", w.Position, attempt+1)
		}

		resp, err := p.client.Complete(ctx, req)
		if err != nil {
			// Transport and provider failures belong to the recovery
			// handler, not the parse-retry loop.
			return nil, err
		}

		parsed, err := parseResponse(resp.Content)
		if err != nil {
			parseErr = err
			continue
		}

		requested := make(map[int]bool, len(result.Requested))
		for _, id := range result.Requested {
			requested[id] = true
		}
		for _, t := range parsed.Translations {
			if requested[t.ID] {
				result.Translations[t.ID] = t
			}
		}
		result.GlossaryUpdates = parsed.GlossaryUpdates
		result.Notes = parsed.Notes
		return result, nil
	}

	if p.cfg.FallbackEnabled {
		log.Warn("Batch at position %d exhausted parse retries, returning placeholder translations", w.Position)
		for _, id := range result.Requested {
			result.Translations[id] = EntryTranslation{ID: id}
		}
		result.UsedFallback = true
		return result, nil
	}

	return nil, llm.NewError(llm.ErrParse, "batch response unparsable after retries", parseErr)
}

// Apply writes the batch result onto the document and returns how many
// entries received non-empty translations. Timing is never touched.
func (p *Pass) Apply(doc *document.Document, result *BatchResult) int {
	applied := 0
	for id, t := range result.Translations {
		entry := doc.Entry(id)
		if entry == nil || t.Text == "" {
			continue
		}
		entry.TranslatedText = t.Text
		entry.Confidence = t.Confidence
		applied++
	}
	return applied
}

// MergeGlossaryUpdates folds the model's terminology suggestions into the
// document glossary. Character names are never remapped.
func (p *Pass) MergeGlossaryUpdates(doc *document.Document, updates []GlossaryUpdate) int {
	merged := 0
	for _, u := range updates {
		if u.Source == "" || u.Target == "" {
			continue
		}
		if doc.Glossary.CharacterNames[u.Source] {
			continue
		}
		doc.Glossary.AddTerm(document.Term{
			Source:  u.Source,
			Target:  u.Target,
			Context: u.Context,
		})
		merged++
	}
	return merged
}
