package analysis

import (
	"regexp"
	"strings"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// SpeakerConfig controls speaker label recognition.
type SpeakerConfig struct {
	// MinRecurrence is how often a label must recur before it is treated
	// as a real speaker rather than stray capitalized text.
	MinRecurrence int
	// Propagate extends a recognized speaker to immediately-following
	// unlabeled dialogue entries.
	Propagate bool
	// PropagationGap bounds how many following entries a speaker may be
	// propagated across.
	PropagationGap int
}

// DefaultSpeakerConfig returns the standard recognition thresholds.
func DefaultSpeakerConfig() SpeakerConfig {
	return SpeakerConfig{
		MinRecurrence:  2,
		Propagate:      true,
		PropagationGap: 3,
	}
}

var (
	// speakerLabelPattern matches a leading "NAME:" label, optionally
	// bracketed, e.g. "JOHN:", "[Sarah]:", "(NARRATOR):".
	speakerLabelPattern = regexp.MustCompile(`^\s*[\[(]?\s*([A-Z][A-Za-z0-9 .'\-]{0,30}?)\s*[\])]?\s*:\s*(\S.*)$`)
	// nonDialoguePattern matches text that is entirely bracketed or
	// parenthesized, i.e. sound effects and stage directions.
	nonDialoguePattern = regexp.MustCompile(`^\s*(\[[^\]]*\]|\([^)]*\))\s*$`)
)

// SpeakerTracker annotates entries with recognized speakers and flags
// non-dialogue entries.
type SpeakerTracker struct {
	cfg SpeakerConfig
}

// NewSpeakerTracker creates a tracker, applying defaults for zero values.
func NewSpeakerTracker(cfg SpeakerConfig) *SpeakerTracker {
	if cfg.MinRecurrence <= 0 {
		cfg.MinRecurrence = 2
	}
	if cfg.PropagationGap <= 0 {
		cfg.PropagationGap = 3
	}
	return &SpeakerTracker{cfg: cfg}
}

// ExtractLabel returns the speaker label of text and the remaining
// dialogue, or ok=false when there is no label.
func ExtractLabel(text string) (name, rest string, ok bool) {
	m := speakerLabelPattern.FindStringSubmatch(firstLine(text))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), m[2], true
}

// IsNonDialogue reports whether text is bracket/paren-only, such as
// "[door slams]" or "(sighs)".
func IsNonDialogue(text string) bool {
	return nonDialoguePattern.MatchString(strings.TrimSpace(text))
}

// Track annotates the document's entries in place and returns the set of
// recognized speakers. A label counts as a speaker only after recurring at
// least MinRecurrence times.
func (t *SpeakerTracker) Track(doc *document.Document) map[string]int {
	counts := make(map[string]int)
	for _, e := range doc.Entries {
		if name, _, ok := ExtractLabel(e.Text); ok {
			counts[name]++
		}
	}

	recognized := make(map[string]int)
	for name, n := range counts {
		if n >= t.cfg.MinRecurrence {
			recognized[name] = n
		}
	}

	for i := range doc.Entries {
		e := &doc.Entries[i]
		e.NonDialogue = IsNonDialogue(e.Text)
		if name, _, ok := ExtractLabel(e.Text); ok {
			if _, known := recognized[name]; known {
				e.Speaker = name
			}
		}
	}

	if t.cfg.Propagate {
		t.propagate(doc)
	}
	return recognized
}

// propagate extends a recognized speaker to immediately-following unlabeled
// dialogue entries, within the configured gap bound.
func (t *SpeakerTracker) propagate(doc *document.Document) {
	for i := 0; i < len(doc.Entries); i++ {
		if doc.Entries[i].Speaker == "" {
			continue
		}
		// Only explicitly labeled entries seed propagation, so a
		// propagated speaker never chains past the gap bound.
		if _, _, labeled := ExtractLabel(doc.Entries[i].Text); !labeled {
			continue
		}
		speaker := doc.Entries[i].Speaker
		for j := i + 1; j <= i+t.cfg.PropagationGap && j < len(doc.Entries); j++ {
			next := &doc.Entries[j]
			if next.Speaker != "" || next.NonDialogue {
				break
			}
			if _, _, labeled := ExtractLabel(next.Text); labeled {
				break
			}
			next.Speaker = speaker
		}
	}
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
