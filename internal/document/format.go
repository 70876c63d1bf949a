package document

import (
	"fmt"
	"regexp"
	"strings"
)

// FormatTag identifies a markup expectation recorded on an entry.
// Tags are detected once at construction and consumed by validation.
type FormatTag int

const (
	TagItalic FormatTag = iota
	TagBold
	TagUnderline
	TagPosition
	TagColor
)

func (t FormatTag) String() string {
	switch t {
	case TagItalic:
		return "italic"
	case TagBold:
		return "bold"
	case TagUnderline:
		return "underline"
	case TagPosition:
		return "position"
	case TagColor:
		return "color"
	default:
		return "unknown"
	}
}

var (
	italicPattern    = regexp.MustCompile(`(?s)<i>.*?</i>`)
	boldPattern      = regexp.MustCompile(`(?s)<b>.*?</b>`)
	underlinePattern = regexp.MustCompile(`(?s)<u>.*?</u>`)
	positionPattern  = regexp.MustCompile(`^\{\\an\d\}`)
	colorPattern     = regexp.MustCompile(`(?s)<font\s+color="[^"]*">.*?</font>`)

	inlineTagPattern = regexp.MustCompile(`</?[ibu]>`)
	fontTagPattern   = regexp.MustCompile(`<font\s+color="[^"]*">|</font>`)
)

var tagPatterns = map[FormatTag]*regexp.Regexp{
	TagItalic:    italicPattern,
	TagBold:      boldPattern,
	TagUnderline: underlinePattern,
	TagPosition:  positionPattern,
	TagColor:     colorPattern,
}

// DetectTags scans text for the fixed markup patterns and returns the tags
// present, in a stable order.
func DetectTags(text string) []FormatTag {
	var tags []FormatTag
	for _, tag := range []FormatTag{TagItalic, TagBold, TagUnderline, TagPosition, TagColor} {
		if tagPatterns[tag].MatchString(text) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// HasTag reports whether text carries the given markup.
func HasTag(text string, tag FormatTag) bool {
	return tagPatterns[tag].MatchString(text)
}

// FullyWrapped reports whether the whole text (ignoring a leading position
// tag) is enclosed in the markup for tag. Repair only re-wraps translations
// when this holds for the original, so it never guesses partial placement.
func FullyWrapped(text string, tag FormatTag) bool {
	body := strings.TrimSpace(positionPattern.ReplaceAllString(text, ""))
	switch tag {
	case TagItalic:
		return strings.HasPrefix(body, "<i>") && strings.HasSuffix(body, "</i>")
	case TagBold:
		return strings.HasPrefix(body, "<b>") && strings.HasSuffix(body, "</b>")
	case TagUnderline:
		return strings.HasPrefix(body, "<u>") && strings.HasSuffix(body, "</u>")
	case TagPosition:
		return positionPattern.MatchString(text)
	default:
		return false
	}
}

// Wrap encloses text in the markup for tag. Only italic, bold and underline
// can be re-applied this way; other tags are returned unchanged.
func Wrap(text string, tag FormatTag) string {
	switch tag {
	case TagItalic:
		return fmt.Sprintf("<i>%s</i>", text)
	case TagBold:
		return fmt.Sprintf("<b>%s</b>", text)
	case TagUnderline:
		return fmt.Sprintf("<u>%s</u>", text)
	default:
		return text
	}
}

// PositionPrefix returns the leading {\anN} tag of text, or "".
func PositionPrefix(text string) string {
	return positionPattern.FindString(text)
}

// StripMarkup removes all recognized markup, leaving plain dialogue.
func StripMarkup(text string) string {
	s := positionPattern.ReplaceAllString(text, "")
	s = inlineTagPattern.ReplaceAllString(s, "")
	s = fontTagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
