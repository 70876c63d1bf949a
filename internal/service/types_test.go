package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestCandidate_OutputPath(t *testing.T) {
	c := Candidate{Path: "/media/show/episode1.srt"}
	assert.Equal(t, "/media/show/episode1.zh.srt", c.OutputPath(language.Chinese))

	c = Candidate{Path: "/media/show/episode1.eng.srt"}
	assert.Equal(t, "/media/show/episode1.eng.zh.srt", c.OutputPath(language.Chinese))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "movie", baseName("/media/movie.mkv"))
	assert.Equal(t, "movie", baseName("/media/movie.eng.srt"))
	assert.Equal(t, "noext", baseName("/media/noext"))
}

func TestLangSuffix(t *testing.T) {
	assert.Equal(t, "eng", langSuffix("/media/movie.eng.srt"))
	assert.Equal(t, "zh", langSuffix("movie.zh.srt"))
	assert.Equal(t, "", langSuffix("movie.srt"))
}

func TestIsTranslatedOutput(t *testing.T) {
	assert.True(t, isTranslatedOutput("movie.zh.srt", language.Chinese))
	assert.False(t, isTranslatedOutput("movie.eng.srt", language.Chinese))
	assert.False(t, isTranslatedOutput("movie.srt", language.Chinese))
	// Non-language middle segments are not mistaken for outputs.
	assert.False(t, isTranslatedOutput("movie.final.srt", language.Chinese))
}
