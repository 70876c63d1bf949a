package validate

import (
	"fmt"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// Kind identifies a class of translation defect.
type Kind int

const (
	KindEmptyTranslation Kind = iota
	KindLengthRatio
	KindMissingFormatting
	KindGlossaryMismatch
	KindLowConfidence
	KindSemanticDivergence
)

func (k Kind) String() string {
	switch k {
	case KindEmptyTranslation:
		return "empty_translation"
	case KindLengthRatio:
		return "length_ratio"
	case KindMissingFormatting:
		return "missing_formatting"
	case KindGlossaryMismatch:
		return "glossary_mismatch"
	case KindLowConfidence:
		return "low_confidence"
	case KindSemanticDivergence:
		return "semantic_divergence"
	default:
		return "unknown"
	}
}

// Issue is one detected defect on one entry. Severity is deterministic
// from the issue parameters and always falls in [0, 1].
type Issue struct {
	EntryID  int
	Kind     Kind
	Tag      document.FormatTag
	Severity float64
	Detail   string
}

func (i Issue) String() string {
	return fmt.Sprintf("entry %d: %s (severity %.2f): %s", i.EntryID, i.Kind, i.Severity, i.Detail)
}

// Severity formulas. Missing or empty translations are total defects;
// out-of-range lengths scale with the distance from the violated bound.

func emptySeverity() float64 {
	return 1.0
}

func lengthSeverity(ratio, minRatio, maxRatio float64) float64 {
	var distance float64
	switch {
	case ratio > maxRatio:
		distance = (ratio - maxRatio) / maxRatio
	case ratio < minRatio:
		distance = (minRatio - ratio) / minRatio
	default:
		return 0
	}
	return clampSeverity(0.2 + distance)
}

func formattingSeverity() float64 {
	return 0.4
}

func nameMismatchSeverity() float64 {
	return 0.7
}

func termMismatchSeverity() float64 {
	return 0.5
}

func confidenceSeverity(confidence float64) float64 {
	return clampSeverity(1 - confidence)
}

func divergenceSeverity(score float64) float64 {
	if score < 0.8 {
		score = 0.8
	}
	return clampSeverity(score)
}

func clampSeverity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
