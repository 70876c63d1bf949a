package service

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/MimeLyc/subtrans-pipeline/pkg/file"
)

// Candidate is one subtitle file eligible for translation.
type Candidate struct {
	Path       string
	BaseName   string
	SourceLang language.Tag
}

// OutputPath returns the sibling path the translated file is written to,
// e.g. "movie.srt" -> "movie.zh.srt".
func (c Candidate) OutputPath(target language.Tag) string {
	return file.ReplaceExt(c.Path, target.String()+".srt")
}

// baseName strips all extensions: "movie.eng.srt" -> "movie".
func baseName(path string) string {
	name := filepath.Base(path)
	if !strings.Contains(name, ".") {
		return name
	}
	return strings.Split(name, ".")[0]
}

// langSuffix extracts a language code embedded in the filename,
// e.g. "movie.eng.srt" -> "eng". Empty when the name carries none.
func langSuffix(path string) string {
	name := filepath.Base(path)
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-2]
}

// isTranslatedOutput reports whether the file already names the target
// language, so a previous run's output never re-enters the queue.
func isTranslatedOutput(path string, target language.Tag) bool {
	suffix := langSuffix(path)
	if suffix == "" {
		return false
	}
	tag, err := language.Parse(suffix)
	if err != nil {
		return false
	}
	return tag.String() == target.String()
}
