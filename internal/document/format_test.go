package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []FormatTag
	}{
		{name: "italic", text: "<i>Whispered text</i>", want: []FormatTag{TagItalic}},
		{name: "bold", text: "<b>LOUD</b>", want: []FormatTag{TagBold}},
		{name: "position prefix", text: `{\an8}Sign on the wall`, want: []FormatTag{TagPosition}},
		{name: "color", text: `<font color="#ff0000">red</font>`, want: []FormatTag{TagColor}},
		{name: "combined", text: `{\an8}<i>both</i>`, want: []FormatTag{TagItalic, TagPosition}},
		{name: "position mid-text ignored", text: `text {\an8} later`, want: nil},
		{name: "plain", text: "just dialogue", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTags(tt.text))
		})
	}
}

func TestFullyWrapped(t *testing.T) {
	assert.True(t, FullyWrapped("<i>all of it</i>", TagItalic))
	assert.True(t, FullyWrapped(`{\an8}<i>positioned</i>`, TagItalic))
	assert.False(t, FullyWrapped("<i>partly</i> wrapped", TagItalic))
	assert.False(t, FullyWrapped("no markup", TagItalic))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "<i>x</i>", Wrap("x", TagItalic))
	assert.Equal(t, "<b>x</b>", Wrap("x", TagBold))
	// Position and color cannot be re-applied by wrapping.
	assert.Equal(t, "x", Wrap("x", TagPosition))
}

func TestPositionPrefix(t *testing.T) {
	assert.Equal(t, `{\an8}`, PositionPrefix(`{\an8}top text`))
	assert.Equal(t, "", PositionPrefix("plain"))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "both", StripMarkup(`{\an8}<i>both</i>`))
	assert.Equal(t, "red", StripMarkup(`<font color="#ff0000">red</font>`))
}
