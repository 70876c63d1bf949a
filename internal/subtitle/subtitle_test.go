package subtitle

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
Hello there.

2
00:00:04,200 --> 00:00:06,000
How are you
doing today?

3
00:00:10,000 --> 00:00:12,000
Fine, thanks.
`

func TestParse_ReadsAllLines(t *testing.T) {
	file, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)
	require.Len(t, file.Lines, 3)

	first := file.Lines[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, time.Second, first.StartTime)
	assert.Equal(t, 3500*time.Millisecond, first.EndTime)
	assert.Equal(t, "Hello there.", first.Text)

	// Multi-line text is joined with newlines.
	assert.Equal(t, "How are you\ndoing today?", file.Lines[1].Text)
	assert.Equal(t, "SRT", file.Format)
}

func TestParse_InvalidTime(t *testing.T) {
	_, err := Parse(strings.NewReader("1\nnot a time line\ntext\n"))
	assert.Error(t, err)
}

func TestRenderParse_RoundTrip(t *testing.T) {
	original, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, original))

	reparsed, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, reparsed.Lines, len(original.Lines))
	for i := range original.Lines {
		assert.Equal(t, original.Lines[i].Index, reparsed.Lines[i].Index)
		assert.Equal(t, original.Lines[i].StartTime, reparsed.Lines[i].StartTime)
		assert.Equal(t, original.Lines[i].EndTime, reparsed.Lines[i].EndTime)
		assert.Equal(t, original.Lines[i].Text, reparsed.Lines[i].Text)
	}
}

func TestRender_PrefersTranslatedText(t *testing.T) {
	file := &File{Lines: []Line{
		{Index: 1, StartTime: time.Second, EndTime: 2 * time.Second, Text: "hello", TranslatedText: "hola"},
		{Index: 2, StartTime: 3 * time.Second, EndTime: 4 * time.Second, Text: "untranslated"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, file))

	out := buf.String()
	assert.Contains(t, out, "hola")
	assert.NotContains(t, out, "hello")
	assert.Contains(t, out, "untranslated")
}

func TestFormatDuration(t *testing.T) {
	d := time.Hour + 2*time.Minute + 16*time.Second + 612*time.Millisecond
	assert.Equal(t, "01:02:16,612", formatDuration(d))
	assert.Equal(t, "00:00:00,000", formatDuration(0))
}

func TestFile_ToDocument_RoundTrip(t *testing.T) {
	file, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)

	doc, err := file.ToDocument("sample", language.Spanish)
	require.NoError(t, err)
	require.Equal(t, 3, doc.Len())
	assert.Equal(t, int64(1000), doc.Entry(1).Timecode.StartMs)
	assert.Equal(t, language.Spanish, doc.Metadata.TargetLanguage)

	doc.Entry(1).TranslatedText = "Hola."
	back := FromDocument(doc)
	require.Len(t, back.Lines, 3)
	assert.Equal(t, "Hola.", back.Lines[0].Text)
	assert.Equal(t, "How are you\ndoing today?", back.Lines[1].Text)
	assert.Equal(t, time.Second, back.Lines[0].StartTime)
}

func TestDetectLanguage_PicksDominant(t *testing.T) {
	lines := []Line{
		{Text: "Hello there, my good friend!"},
		{Text: "こんにちは、世界!"},
		{Text: "こんにちは、友達!"},
	}
	assert.Equal(t, language.Japanese, detectLanguage(lines))
	assert.Equal(t, language.Und, detectLanguage(nil))
}
