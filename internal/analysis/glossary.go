package analysis

import (
	"regexp"
	"strings"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// GlossaryConfig controls term extraction.
type GlossaryConfig struct {
	// MinRecurrence is how often a candidate must recur before it is
	// promoted into the glossary.
	MinRecurrence int
}

// DefaultGlossaryConfig returns the standard extraction thresholds.
func DefaultGlossaryConfig() GlossaryConfig {
	return GlossaryConfig{MinRecurrence: 2}
}

var (
	// capitalizedRunPattern matches runs of capitalized words, the
	// candidate character and place names.
	capitalizedRunPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	// quotedPhrasePattern matches short quoted phrases, candidate terms.
	quotedPhrasePattern = regexp.MustCompile(`"([^"\n]{2,40})"`)
)

// glossaryStopWords are common capitalized words that are never names.
var glossaryStopWords = map[string]bool{
	"A": true, "An": true, "The": true, "I": true, "You": true, "He": true,
	"She": true, "It": true, "We": true, "They": true, "And": true,
	"But": true, "Or": true, "If": true, "So": true, "Not": true,
	"No": true, "Yes": true, "What": true, "Who": true, "When": true,
	"Where": true, "Why": true, "How": true, "This": true, "That": true,
	"These": true, "Those": true, "There": true, "Here": true,
	"Then": true, "Now": true, "Well": true, "Oh": true, "Hey": true,
	"Okay": true, "Ok": true, "Please": true, "Thanks": true,
	"Thank": true, "Sorry": true, "Mr": true, "Mrs": true, "Ms": true,
	"Dr": true, "Sir": true, "Madam": true, "Miss": true,
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
	"God": true, "Jesus": true, "Christmas": true,
}

// GlossaryExtractor scans the document for recurring capitalized-word runs
// and quoted phrases and promotes them into the glossary.
type GlossaryExtractor struct {
	cfg GlossaryConfig
}

// NewGlossaryExtractor creates an extractor, applying defaults for zero
// values.
func NewGlossaryExtractor(cfg GlossaryConfig) *GlossaryExtractor {
	if cfg.MinRecurrence <= 0 {
		cfg.MinRecurrence = 2
	}
	return &GlossaryExtractor{cfg: cfg}
}

// Extract builds a glossary from the document text. Speaker labels tracked
// earlier are included as character names directly; other candidates must
// recur at least MinRecurrence times.
func (x *GlossaryExtractor) Extract(doc *document.Document) document.Glossary {
	glossary := document.NewGlossary()

	nameCounts := make(map[string]int)
	termCounts := make(map[string]int)
	termContext := make(map[string]string)

	for _, e := range doc.Entries {
		if e.Speaker != "" {
			glossary.AddCharacterName(e.Speaker)
		}

		plain := document.StripMarkup(e.Text)
		for _, run := range capitalizedRunPattern.FindAllString(plain, -1) {
			if isStopRun(run) {
				continue
			}
			nameCounts[run]++
		}
		for _, m := range quotedPhrasePattern.FindAllStringSubmatch(plain, -1) {
			phrase := strings.TrimSpace(m[1])
			if phrase == "" {
				continue
			}
			termCounts[phrase]++
			if _, ok := termContext[phrase]; !ok {
				termContext[phrase] = plain
			}
		}
	}

	for name, n := range nameCounts {
		if n >= x.cfg.MinRecurrence {
			glossary.AddCharacterName(name)
		}
	}
	for phrase, n := range termCounts {
		if n >= x.cfg.MinRecurrence {
			glossary.AddTerm(document.Term{
				Source:  phrase,
				Context: termContext[phrase],
			})
		}
	}

	return glossary
}

// Annotate extracts the glossary and merges it into the document.
func (x *GlossaryExtractor) Annotate(doc *document.Document) document.Glossary {
	extracted := x.Extract(doc)
	doc.Glossary.Merge(extracted)
	return extracted
}

// isStopRun reports whether every word of the run is a stop word.
func isStopRun(run string) bool {
	for _, word := range strings.Fields(run) {
		if !glossaryStopWords[strings.TrimRight(word, ".")] {
			return false
		}
	}
	return true
}
