package analysis

import (
	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/pkg/log"
)

// Config bundles the settings for all analysis passes.
type Config struct {
	Scene    SceneConfig
	Speaker  SpeakerConfig
	Glossary GlossaryConfig
	Summary  SummaryConfig
}

// DefaultConfig returns the standard analysis settings.
func DefaultConfig() Config {
	return Config{
		Scene:    DefaultSceneConfig(),
		Speaker:  DefaultSpeakerConfig(),
		Glossary: DefaultGlossaryConfig(),
		Summary:  DefaultSummaryConfig(),
	}
}

// Report summarizes what analysis found in a document.
type Report struct {
	Entries        int
	Scenes         int
	Speakers       int
	NonDialogue    int
	CharacterNames int
	Terms          int
}

// Analyzer runs the analysis passes that annotate a document before
// translation: speaker tracking, scene detection and glossary extraction.
// Speakers come first because scene detection uses speaker identity.
type Analyzer struct {
	speakers *SpeakerTracker
	scenes   *SceneDetector
	glossary *GlossaryExtractor
}

// NewAnalyzer wires the analysis passes from one config.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{
		speakers: NewSpeakerTracker(cfg.Speaker),
		scenes:   NewSceneDetector(cfg.Scene),
		glossary: NewGlossaryExtractor(cfg.Glossary),
	}
}

// Annotate runs all passes over the document and returns a report.
// Annotation happens once, before translation; all passes are synchronous.
func (a *Analyzer) Annotate(doc *document.Document) Report {
	speakers := a.speakers.Track(doc)
	scenes := a.scenes.Annotate(doc)
	a.glossary.Annotate(doc)

	nonDialogue := 0
	for _, e := range doc.Entries {
		if e.NonDialogue {
			nonDialogue++
		}
	}

	report := Report{
		Entries:        doc.Len(),
		Scenes:         len(scenes),
		Speakers:       len(speakers),
		NonDialogue:    nonDialogue,
		CharacterNames: len(doc.Glossary.CharacterNames),
		Terms:          len(doc.Glossary.Terms),
	}
	log.Info("Analysis: %d entries, %d scenes, %d speakers, %d glossary names, %d terms",
		report.Entries, report.Scenes, report.Speakers, report.CharacterNames, report.Terms)
	return report
}
