package document

import "golang.org/x/text/language"

// Timecode is the immutable time span of one dialogue line.
// It is created once when the document is built and never mutated afterwards.
type Timecode struct {
	StartMs int64
	EndMs   int64
}

// Valid reports whether the span is well-formed.
func (t Timecode) Valid() bool {
	return t.StartMs >= 0 && t.EndMs > t.StartMs
}

// DurationMs returns the on-screen duration in milliseconds.
func (t Timecode) DurationMs() int64 {
	return t.EndMs - t.StartMs
}

// GapTo returns the silence between this span and the next one in milliseconds.
func (t Timecode) GapTo(next Timecode) int64 {
	return next.StartMs - t.EndMs
}

// Entry is one dialogue line and its translation lifecycle.
// ID and Timecode are fixed at construction; TranslatedText, Confidence,
// Speaker and SceneID are filled in by later passes. An empty TranslatedText
// means the entry has not been translated (or fell back to the original).
type Entry struct {
	ID             int
	Timecode       Timecode
	Text           string
	TranslatedText string
	Confidence     float64
	Speaker        string
	SceneID        int
	Tags           []FormatTag
	NonDialogue    bool
}

// HasTranslation reports whether a translation has been set.
func (e Entry) HasTranslation() bool {
	return e.TranslatedText != ""
}

// OutputText returns the translated text, falling back to the original.
func (e Entry) OutputText() string {
	if e.TranslatedText != "" {
		return e.TranslatedText
	}
	return e.Text
}

// Scene is a contiguous run of entries inferred to share narrative context.
// The entry range is inclusive on both ends.
type Scene struct {
	ID           int
	StartEntryID int
	EndEntryID   int
}

// Contains reports whether the entry id falls inside the scene range.
func (s Scene) Contains(entryID int) bool {
	return entryID >= s.StartEntryID && entryID <= s.EndEntryID
}

// Len returns the number of entries covered by the scene.
func (s Scene) Len() int {
	return s.EndEntryID - s.StartEntryID + 1
}

// Metadata describes the document as a whole.
type Metadata struct {
	Title          string
	SourceLanguage language.Tag
	TargetLanguage language.Tag
	Format         string
}

// Output is one line of the converted document, ready for serialization.
type Output struct {
	ID       int
	Timecode Timecode
	Text     string
}
