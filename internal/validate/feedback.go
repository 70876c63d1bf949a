package validate

import (
	"fmt"
	"unicode/utf8"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// FeedbackInstruction converts an issue into a corrective instruction
// suitable for a retry prompt, e.g. "translation is 140% longer than the
// original; shorten it".
func FeedbackInstruction(issue Issue, entry document.Entry, cfg Config) string {
	switch issue.Kind {
	case KindEmptyTranslation:
		return fmt.Sprintf("entry %d received no translation; provide one", entry.ID)
	case KindLengthRatio:
		origLen := utf8.RuneCountInString(entry.Text)
		if origLen == 0 {
			return fmt.Sprintf("entry %d translation length is out of range", entry.ID)
		}
		ratio := float64(utf8.RuneCountInString(entry.TranslatedText)) / float64(origLen)
		if ratio > cfg.MaxLengthRatio {
			return fmt.Sprintf("entry %d translation is %.0f%% longer than the original; shorten it to under %.0f%% of the original length",
				entry.ID, (ratio-1)*100, cfg.MaxLengthRatio*100)
		}
		return fmt.Sprintf("entry %d translation is only %.0f%% of the original length; expand it to at least %.0f%%",
			entry.ID, ratio*100, cfg.MinLengthRatio*100)
	case KindMissingFormatting:
		return fmt.Sprintf("entry %d must preserve its %s markup exactly as in the original", entry.ID, issue.Tag)
	case KindGlossaryMismatch:
		return fmt.Sprintf("entry %d must follow the glossary: %s", entry.ID, issue.Detail)
	case KindLowConfidence:
		return fmt.Sprintf("entry %d translation was low-confidence; retranslate it carefully", entry.ID)
	case KindSemanticDivergence:
		return fmt.Sprintf("entry %d translation diverges from the original meaning; retranslate it faithfully", entry.ID)
	default:
		return fmt.Sprintf("entry %d: %s", entry.ID, issue.Detail)
	}
}

// FeedbackInstructions renders corrective instructions for every issue in
// the report, in report order.
func FeedbackInstructions(doc *document.Document, report *Report, cfg Config) []string {
	out := make([]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		entry := doc.Entry(issue.EntryID)
		if entry == nil {
			continue
		}
		out = append(out, FeedbackInstruction(issue, *entry, cfg))
	}
	return out
}
