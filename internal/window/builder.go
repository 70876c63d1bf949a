package window

import (
	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// Config bounds what is sent with one translation request.
type Config struct {
	// RecentCount is how many already-translated entries precede the batch.
	RecentCount int
	// BatchSize is how many entries one request must translate.
	BatchSize int
	// LookaheadCount is how many untranslated entries follow the batch,
	// included for context only.
	LookaheadCount int
	// EnableSummarization turns on the extractive history summary once the
	// position passes SummarizationThreshold.
	EnableSummarization bool
	// SummarizationThreshold is the position after which a summary is
	// requested when none is attached yet.
	SummarizationThreshold int
}

// DefaultConfig returns the standard window bounds.
func DefaultConfig() Config {
	return Config{
		RecentCount:            5,
		BatchSize:              10,
		LookaheadCount:         3,
		EnableSummarization:    true,
		SummarizationThreshold: 50,
	}
}

// ContextWindow is the bounded document slice for one request. CurrentBatch
// is the only obligation of the request; everything else is context. The
// glossary is a point-in-time snapshot.
type ContextWindow struct {
	HistorySummary     string
	Recent             []document.Entry
	CurrentBatch       []document.Entry
	Lookahead          []document.Entry
	Glossary           document.Glossary
	Position           int
	Total              int
	NeedsSummarization bool
}

// Done reports whether the window marks completion: an empty current batch
// means every entry before Position has been handled.
func (w ContextWindow) Done() bool {
	return len(w.CurrentBatch) == 0
}

// BatchIDs returns the entry ids the request must translate.
func (w ContextWindow) BatchIDs() []int {
	ids := make([]int, 0, len(w.CurrentBatch))
	for _, e := range w.CurrentBatch {
		ids = append(ids, e.ID)
	}
	return ids
}

// Builder assembles context windows for successive positions in a document.
type Builder struct {
	cfg   Config
	sizer *DynamicSizer
}

// NewBuilder creates a builder, applying defaults for zero values. A nil
// sizer means fixed batch sizes.
func NewBuilder(cfg Config, sizer *DynamicSizer) *Builder {
	if cfg.RecentCount < 0 {
		cfg.RecentCount = 0
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.LookaheadCount < 0 {
		cfg.LookaheadCount = 0
	}
	return &Builder{cfg: cfg, sizer: sizer}
}

// Build assembles the window at position pos (0-based). All ranges clip to
// document bounds: position 0 has no recent entries and the final window has
// no lookahead.
func (b *Builder) Build(doc *document.Document, pos int) ContextWindow {
	return b.BuildSized(doc, pos, b.SizeAt(doc, pos))
}

// SizeAt returns the batch size the builder would use at pos: the dynamic
// sizer's choice when one is configured, the fixed BatchSize otherwise.
func (b *Builder) SizeAt(doc *document.Document, pos int) int {
	if b.sizer != nil {
		return b.sizer.BatchSize(doc, pos)
	}
	return b.cfg.BatchSize
}

// BuildSized assembles the window at pos with an explicit batch size,
// letting error recovery shrink batches without reconfiguring the builder.
func (b *Builder) BuildSized(doc *document.Document, pos int, batchSize int) ContextWindow {
	if batchSize <= 0 {
		batchSize = b.cfg.BatchSize
	}
	total := doc.Len()
	if pos < 0 {
		pos = 0
	}

	batchEnd := pos + batchSize
	if batchEnd > total {
		batchEnd = total
	}

	recent := make([]document.Entry, 0, b.cfg.RecentCount)
	for _, e := range doc.EntriesIn(pos-b.cfg.RecentCount, pos) {
		if e.HasTranslation() {
			recent = append(recent, e)
		}
	}

	batch := append([]document.Entry(nil), doc.EntriesIn(pos, batchEnd)...)
	lookahead := append([]document.Entry(nil), doc.EntriesIn(batchEnd, batchEnd+b.cfg.LookaheadCount)...)

	needsSummary := b.cfg.EnableSummarization &&
		pos >= b.cfg.SummarizationThreshold &&
		doc.Summary == ""

	return ContextWindow{
		HistorySummary:     doc.Summary,
		Recent:             recent,
		CurrentBatch:       batch,
		Lookahead:          lookahead,
		Glossary:           doc.Glossary.Clone(),
		Position:           pos,
		Total:              total,
		NeedsSummarization: needsSummary,
	}
}
