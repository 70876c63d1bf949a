package window

import (
	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// SizingConfig controls token-budget driven batch sizing.
type SizingConfig struct {
	// MinBatch and MaxBatch clamp the computed size.
	MinBatch int
	MaxBatch int
	// TokenBudget bounds the estimated size of one batch payload.
	TokenBudget int
	// CharsPerToken is the fixed estimation heuristic.
	CharsPerToken float64
	// SceneLookaheadFactor allows extending past MaxBatch toward a scene
	// boundary, up to MaxBatch × factor entries.
	SceneLookaheadFactor float64
}

// DefaultSizingConfig returns the standard sizing bounds.
func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		MinBatch:             4,
		MaxBatch:             20,
		TokenBudget:          1500,
		CharsPerToken:        4.0,
		SceneLookaheadFactor: 1.25,
	}
}

// DynamicSizer computes a batch length from a token-estimate budget, then
// adjusts it so batches prefer ending exactly at a scene boundary. Short
// scenes are not split across requests unless the boundary is too far past
// the configured ceiling.
type DynamicSizer struct {
	cfg SizingConfig
}

// NewDynamicSizer creates a sizer, applying defaults for zero values.
func NewDynamicSizer(cfg SizingConfig) *DynamicSizer {
	def := DefaultSizingConfig()
	if cfg.MinBatch <= 0 {
		cfg.MinBatch = def.MinBatch
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = def.MaxBatch
	}
	if cfg.MaxBatch < cfg.MinBatch {
		cfg.MaxBatch = cfg.MinBatch
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = def.TokenBudget
	}
	if cfg.CharsPerToken <= 0 {
		cfg.CharsPerToken = def.CharsPerToken
	}
	if cfg.SceneLookaheadFactor < 1 {
		cfg.SceneLookaheadFactor = def.SceneLookaheadFactor
	}
	return &DynamicSizer{cfg: cfg}
}

// BatchSize returns the batch length for the window starting at pos.
func (s *DynamicSizer) BatchSize(doc *document.Document, pos int) int {
	size := s.budgetSize(doc, pos)
	return s.alignToScene(doc, pos, size)
}

// budgetSize accumulates entries until the token estimate exceeds the
// budget, clamped to [MinBatch, MaxBatch].
func (s *DynamicSizer) budgetSize(doc *document.Document, pos int) int {
	remaining := doc.Len() - pos
	if remaining <= 0 {
		return 0
	}

	tokens := 0
	size := 0
	for _, e := range doc.EntriesIn(pos, pos+s.cfg.MaxBatch) {
		tokens += s.estimateTokens(e.Text)
		if size > 0 && tokens > s.cfg.TokenBudget {
			break
		}
		size++
	}

	if size < s.cfg.MinBatch {
		size = s.cfg.MinBatch
	}
	if size > s.cfg.MaxBatch {
		size = s.cfg.MaxBatch
	}
	if size > remaining {
		size = remaining
	}
	return size
}

// alignToScene prefers ending exactly at the boundary of the scene that
// contains the batch's last entry: shrink to the boundary when that still
// meets MinBatch, extend to it when within the lookahead multiplier of
// MaxBatch, otherwise keep the complexity-based size.
func (s *DynamicSizer) alignToScene(doc *document.Document, pos, size int) int {
	if size <= 0 || len(doc.Scenes) == 0 {
		return size
	}

	lastID := doc.Entries[pos].ID + size - 1
	scene, ok := doc.SceneOf(lastID)
	if !ok {
		return size
	}

	sizeToBoundary := scene.EndEntryID - doc.Entries[pos].ID + 1
	if sizeToBoundary == size {
		return size
	}
	if sizeToBoundary >= s.cfg.MinBatch && sizeToBoundary <= s.cfg.MaxBatch {
		return sizeToBoundary
	}
	ceiling := int(float64(s.cfg.MaxBatch) * s.cfg.SceneLookaheadFactor)
	if sizeToBoundary > s.cfg.MaxBatch && sizeToBoundary <= ceiling {
		return sizeToBoundary
	}
	return size
}

func (s *DynamicSizer) estimateTokens(text string) int {
	n := int(float64(len(text)) / s.cfg.CharsPerToken)
	if n < 1 {
		n = 1
	}
	return n
}
