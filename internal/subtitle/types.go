package subtitle

import (
	"time"

	"golang.org/x/text/language"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// Reader is the interface for reading subtitle files
type Reader interface {
	Read() (*File, error)
}

// Writer is the interface for writing subtitle files
type Writer interface {
	Write(path string, subtitle *File) error
}

// Line represents a single subtitle line
type Line struct {
	Index          int           // subtitle index
	StartTime      time.Duration // start time
	EndTime        time.Duration // end time
	Text           string        // subtitle text
	TranslatedText string        // translated text
}

// File represents a subtitle file
type File struct {
	Lines    []Line
	Language language.Tag
	Format   string // e.g. SRT
	Path     string
}

// ToDocument converts the file into the pipeline's document model.
func (f *File) ToDocument(title string, targetLang language.Tag) (*document.Document, error) {
	inputs := make([]document.Input, 0, len(f.Lines))
	for _, line := range f.Lines {
		inputs = append(inputs, document.Input{
			ID:      line.Index,
			StartMs: line.StartTime.Milliseconds(),
			EndMs:   line.EndTime.Milliseconds(),
			Text:    line.Text,
		})
	}
	return document.New(document.Metadata{
		Title:          title,
		SourceLanguage: f.Language,
		TargetLanguage: targetLang,
		Format:         f.Format,
	}, inputs)
}

// FromDocument converts pipeline output back into a writable file. Entry
// count and order are preserved; untranslated entries keep their original
// text.
func FromDocument(doc *document.Document) *File {
	lines := make([]Line, 0, doc.Len())
	for _, out := range doc.Output() {
		lines = append(lines, Line{
			Index:     out.ID,
			StartTime: time.Duration(out.Timecode.StartMs) * time.Millisecond,
			EndTime:   time.Duration(out.Timecode.EndMs) * time.Millisecond,
			Text:      out.Text,
		})
	}
	return &File{
		Lines:    lines,
		Language: doc.Metadata.TargetLanguage,
		Format:   doc.Metadata.Format,
	}
}
