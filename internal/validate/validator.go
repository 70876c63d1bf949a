package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// failSeverity is the threshold above which an issue fails the document.
const failSeverity = 0.8

// Config controls validation thresholds.
type Config struct {
	// MinLengthRatio and MaxLengthRatio bound translated/original length.
	MinLengthRatio float64
	MaxLengthRatio float64
	// MinConfidence is the lowest acceptable model-reported confidence.
	// Confidence is self-reported, so this is a heuristic signal, not a
	// quality guarantee.
	MinConfidence float64
	// CheckFormatting and CheckGlossary toggle those validators.
	CheckFormatting bool
	CheckGlossary   bool
}

// DefaultConfig returns the standard validation thresholds.
func DefaultConfig() Config {
	return Config{
		MinLengthRatio:  0.3,
		MaxLengthRatio:  2.5,
		MinConfidence:   0.5,
		CheckFormatting: true,
		CheckGlossary:   true,
	}
}

// DivergenceFunc is an optional externally supplied semantic-divergence
// signal: it returns a score in [0,1] for an entry, 0 meaning no signal.
type DivergenceFunc func(entry document.Entry) float64

// Report aggregates the issues found over a document.
type Report struct {
	Issues           []Issue
	EntriesValidated int
}

// QualityScore is max(0, 1 − Σseverity/entries_validated). It is 1.0 with
// zero issues and strictly decreases as severity accumulates.
func (r *Report) QualityScore() float64 {
	if r.EntriesValidated == 0 {
		return 1.0
	}
	total := 0.0
	for _, issue := range r.Issues {
		total += issue.Severity
	}
	score := 1.0 - total/float64(r.EntriesValidated)
	if score < 0 {
		return 0
	}
	return score
}

// Passed reports whether no issue reaches the failure severity.
func (r *Report) Passed() bool {
	for _, issue := range r.Issues {
		if issue.Severity >= failSeverity {
			return false
		}
	}
	return true
}

// IssuesFor returns the issues recorded against one entry.
func (r *Report) IssuesFor(entryID int) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.EntryID == entryID {
			out = append(out, issue)
		}
	}
	return out
}

// Validator checks translated entries independently against the configured
// thresholds and the document glossary.
type Validator struct {
	cfg        Config
	divergence DivergenceFunc
}

// NewValidator creates a validator. divergence may be nil.
func NewValidator(cfg Config, divergence DivergenceFunc) *Validator {
	if cfg.MinLengthRatio <= 0 {
		cfg.MinLengthRatio = 0.3
	}
	if cfg.MaxLengthRatio <= cfg.MinLengthRatio {
		cfg.MaxLengthRatio = 2.5
	}
	return &Validator{cfg: cfg, divergence: divergence}
}

// Validate checks every entry of the document and returns the report.
// Entries without a translation are counted and flagged as empty.
func (v *Validator) Validate(doc *document.Document) *Report {
	report := &Report{}
	for i := range doc.Entries {
		report.EntriesValidated++
		report.Issues = append(report.Issues, v.validateEntry(doc, doc.Entries[i])...)
	}
	return report
}

// ValidateEntries checks only the entries with the given ids.
func (v *Validator) ValidateEntries(doc *document.Document, ids []int) *Report {
	report := &Report{}
	for _, id := range ids {
		entry := doc.Entry(id)
		if entry == nil {
			continue
		}
		report.EntriesValidated++
		report.Issues = append(report.Issues, v.validateEntry(doc, *entry)...)
	}
	return report
}

func (v *Validator) validateEntry(doc *document.Document, entry document.Entry) []Issue {
	if entry.NonDialogue && !entry.HasTranslation() {
		// Sound-effect entries may deliberately keep the original text.
		return nil
	}

	if !entry.HasTranslation() {
		return []Issue{{
			EntryID:  entry.ID,
			Kind:     KindEmptyTranslation,
			Severity: emptySeverity(),
			Detail:   "entry has no translation",
		}}
	}

	var issues []Issue
	issues = append(issues, v.checkLength(entry)...)
	if v.cfg.CheckFormatting {
		issues = append(issues, v.checkFormatting(entry)...)
	}
	if v.cfg.CheckGlossary {
		issues = append(issues, v.checkGlossary(doc.Glossary, entry)...)
	}
	issues = append(issues, v.checkConfidence(entry)...)
	issues = append(issues, v.checkDivergence(entry)...)
	return issues
}

func (v *Validator) checkLength(entry document.Entry) []Issue {
	origLen := utf8.RuneCountInString(entry.Text)
	if origLen == 0 {
		return nil
	}
	ratio := float64(utf8.RuneCountInString(entry.TranslatedText)) / float64(origLen)
	severity := lengthSeverity(ratio, v.cfg.MinLengthRatio, v.cfg.MaxLengthRatio)
	if severity == 0 {
		return nil
	}
	return []Issue{{
		EntryID:  entry.ID,
		Kind:     KindLengthRatio,
		Severity: severity,
		Detail:   fmt.Sprintf("length ratio %.2f outside [%.2f, %.2f]", ratio, v.cfg.MinLengthRatio, v.cfg.MaxLengthRatio),
	}}
}

func (v *Validator) checkFormatting(entry document.Entry) []Issue {
	var issues []Issue
	for _, tag := range entry.Tags {
		if !document.HasTag(entry.TranslatedText, tag) {
			issues = append(issues, Issue{
				EntryID:  entry.ID,
				Kind:     KindMissingFormatting,
				Tag:      tag,
				Severity: formattingSeverity(),
				Detail:   fmt.Sprintf("translation dropped %s markup", tag),
			})
		}
	}
	return issues
}

func (v *Validator) checkGlossary(glossary document.Glossary, entry document.Entry) []Issue {
	var issues []Issue
	for name := range glossary.CharacterNames {
		if strings.Contains(entry.Text, name) && !strings.Contains(entry.TranslatedText, name) {
			issues = append(issues, Issue{
				EntryID:  entry.ID,
				Kind:     KindGlossaryMismatch,
				Severity: nameMismatchSeverity(),
				Detail:   fmt.Sprintf("character name %q missing from translation", name),
			})
		}
	}
	for source, term := range glossary.Terms {
		if term.Target == "" {
			continue
		}
		if strings.Contains(entry.Text, source) && !strings.Contains(entry.TranslatedText, term.Target) {
			issues = append(issues, Issue{
				EntryID:  entry.ID,
				Kind:     KindGlossaryMismatch,
				Severity: termMismatchSeverity(),
				Detail:   fmt.Sprintf("term %q not rendered as %q", source, term.Target),
			})
		}
	}
	return issues
}

func (v *Validator) checkConfidence(entry document.Entry) []Issue {
	if v.cfg.MinConfidence <= 0 || entry.Confidence <= 0 {
		return nil
	}
	if entry.Confidence >= v.cfg.MinConfidence {
		return nil
	}
	return []Issue{{
		EntryID:  entry.ID,
		Kind:     KindLowConfidence,
		Severity: confidenceSeverity(entry.Confidence),
		Detail:   fmt.Sprintf("confidence %.2f below %.2f", entry.Confidence, v.cfg.MinConfidence),
	}}
}

func (v *Validator) checkDivergence(entry document.Entry) []Issue {
	if v.divergence == nil {
		return nil
	}
	score := v.divergence(entry)
	if score <= 0 {
		return nil
	}
	return []Issue{{
		EntryID:  entry.ID,
		Kind:     KindSemanticDivergence,
		Severity: divergenceSeverity(score),
		Detail:   fmt.Sprintf("semantic divergence signal %.2f", score),
	}}
}
