package validate

import (
	"fmt"
	"strings"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/pkg/log"
)

// Action records one automatic correction applied to an entry.
type Action struct {
	EntryID     int
	Kind        Kind
	Description string
}

// Outcome is the result of a repair pass: the actions taken, the issues
// the pass started from and the report after re-validation.
type Outcome struct {
	Actions []Action
	Before  *Report
	After   *Report
}

// Repairer attempts automatic correction of formatting and glossary
// issues. Other issue kinds are surfaced but never auto-repaired.
type Repairer struct {
	validator *Validator
}

// NewRepairer creates a repairer that re-validates with the given
// validator after applying corrections.
func NewRepairer(validator *Validator) *Repairer {
	return &Repairer{validator: validator}
}

// Repair walks the report's issues, rewrites translated text where a safe
// correction exists, then re-validates the touched entries. Both the raw
// issues and the actions taken are reported.
func (r *Repairer) Repair(doc *document.Document, report *Report) Outcome {
	outcome := Outcome{Before: report}
	touched := make(map[int]bool)

	for _, issue := range report.Issues {
		entry := doc.Entry(issue.EntryID)
		if entry == nil || !entry.HasTranslation() {
			continue
		}

		var action *Action
		switch issue.Kind {
		case KindMissingFormatting:
			action = r.repairFormatting(entry, issue)
		case KindGlossaryMismatch:
			action = r.repairGlossary(doc.Glossary, entry)
		}
		if action != nil {
			outcome.Actions = append(outcome.Actions, *action)
			touched[entry.ID] = true
		}
	}

	ids := make([]int, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	outcome.After = r.validator.ValidateEntries(doc, ids)

	if len(outcome.Actions) > 0 {
		log.Info("Repair pass applied %d corrections, %d issues remain on touched entries",
			len(outcome.Actions), len(outcome.After.Issues))
	}
	return outcome
}

// repairFormatting re-wraps the translation in a dropped tag, but only if
// the original was fully wrapped; partial placement is never guessed.
// Dropped position tags are re-prefixed from the original.
func (r *Repairer) repairFormatting(entry *document.Entry, issue Issue) *Action {
	switch issue.Tag {
	case document.TagPosition:
		prefix := document.PositionPrefix(entry.Text)
		if prefix == "" || strings.HasPrefix(entry.TranslatedText, prefix) {
			return nil
		}
		entry.TranslatedText = prefix + entry.TranslatedText
		return &Action{
			EntryID:     entry.ID,
			Kind:        KindMissingFormatting,
			Description: fmt.Sprintf("re-prefixed position tag %s", prefix),
		}
	case document.TagItalic, document.TagBold, document.TagUnderline:
		if !document.FullyWrapped(entry.Text, issue.Tag) {
			return nil
		}
		if document.HasTag(entry.TranslatedText, issue.Tag) {
			return nil
		}
		entry.TranslatedText = document.Wrap(entry.TranslatedText, issue.Tag)
		return &Action{
			EntryID:     entry.ID,
			Kind:        KindMissingFormatting,
			Description: fmt.Sprintf("re-wrapped translation in %s markup", issue.Tag),
		}
	default:
		return nil
	}
}

// repairGlossary substitutes untranslated source terms that survived into
// the translation with their recorded target rendering.
func (r *Repairer) repairGlossary(glossary document.Glossary, entry *document.Entry) *Action {
	for source, term := range glossary.Terms {
		if term.Target == "" || source == term.Target {
			continue
		}
		if strings.Contains(entry.TranslatedText, source) && !strings.Contains(entry.TranslatedText, term.Target) {
			entry.TranslatedText = strings.ReplaceAll(entry.TranslatedText, source, term.Target)
			return &Action{
				EntryID:     entry.ID,
				Kind:        KindGlossaryMismatch,
				Description: fmt.Sprintf("substituted %q with %q", source, term.Target),
			}
		}
	}
	return nil
}
