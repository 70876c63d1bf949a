package document

import (
	"fmt"
	"sort"
)

// Input is one raw dialogue line handed to the document builder.
type Input struct {
	ID      int
	StartMs int64
	EndMs   int64
	Text    string
}

// Document is the aggregate root for one translation run. Entries are
// ordered by id and their count is fixed at construction; analysis adds
// scenes, glossary and summary; translation and repair rewrite only
// TranslatedText and Confidence.
type Document struct {
	Metadata Metadata
	Entries  []Entry
	Scenes   []Scene
	Glossary Glossary
	Summary  string
}

// New builds a Document from an ordered list of raw lines. Entries are
// sorted by their incoming id and renumbered sequentially from 1, so ids
// are always contiguous regardless of gaps in the source numbering.
// Formatting tags are detected once here.
func New(meta Metadata, inputs []Input) (*Document, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("document requires at least one entry")
	}

	sorted := append([]Input(nil), inputs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	entries := make([]Entry, 0, len(sorted))
	for i, in := range sorted {
		tc := Timecode{StartMs: in.StartMs, EndMs: in.EndMs}
		if !tc.Valid() {
			return nil, fmt.Errorf("entry %d: invalid timecode %d-%d", in.ID, in.StartMs, in.EndMs)
		}
		entries = append(entries, Entry{
			ID:       i + 1,
			Timecode: tc,
			Text:     in.Text,
			Tags:     DetectTags(in.Text),
		})
	}

	return &Document{
		Metadata: meta,
		Entries:  entries,
		Glossary: NewGlossary(),
	}, nil
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.Entries)
}

// Entry returns a pointer to the entry with the given id, or nil.
// Ids are contiguous from 1, so this is a direct index.
func (d *Document) Entry(id int) *Entry {
	if id < 1 || id > len(d.Entries) {
		return nil
	}
	return &d.Entries[id-1]
}

// SceneOf returns the scene containing the entry id. The lookup is computed
// from the scene ranges each call; back-pointers are never stored.
func (d *Document) SceneOf(entryID int) (Scene, bool) {
	for _, scene := range d.Scenes {
		if scene.Contains(entryID) {
			return scene, true
		}
	}
	return Scene{}, false
}

// EntriesIn returns the entries in the half-open range [from, to) by
// position (0-based), clipped to document bounds.
func (d *Document) EntriesIn(from, to int) []Entry {
	if from < 0 {
		from = 0
	}
	if to > len(d.Entries) {
		to = len(d.Entries)
	}
	if from >= to {
		return nil
	}
	return d.Entries[from:to]
}

// TranslatedCount returns how many entries carry a translation.
func (d *Document) TranslatedCount() int {
	n := 0
	for _, e := range d.Entries {
		if e.HasTranslation() {
			n++
		}
	}
	return n
}

// Output converts the document for serialization: one line per entry in
// order, translated text where present, original text otherwise. No entry
// is ever dropped or reordered.
func (d *Document) Output() []Output {
	out := make([]Output, 0, len(d.Entries))
	for _, e := range d.Entries {
		out = append(out, Output{
			ID:       e.ID,
			Timecode: e.Timecode,
			Text:     e.OutputText(),
		})
	}
	return out
}
