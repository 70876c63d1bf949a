package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlossary_Merge_OtherWinsOnCollision(t *testing.T) {
	g := NewGlossary()
	g.AddTerm(Term{Source: "the Council", Target: "old rendering"})
	g.AddCharacterName("Sarah")

	other := NewGlossary()
	other.AddTerm(Term{Source: "the Council", Target: "new rendering"})
	other.AddCharacterName("Marcus")

	g.Merge(other)

	require.Len(t, g.Terms, 1)
	assert.Equal(t, "new rendering", g.Terms["the Council"].Target)
	assert.True(t, g.CharacterNames["Sarah"])
	assert.True(t, g.CharacterNames["Marcus"])
}

func TestGlossary_Clone_IsIndependent(t *testing.T) {
	g := NewGlossary()
	g.AddCharacterName("Sarah")

	snapshot := g.Clone()
	g.AddCharacterName("Marcus")
	g.AddTerm(Term{Source: "warp drive", Target: "translated"})

	assert.Equal(t, 1, snapshot.Len())
	assert.False(t, snapshot.CharacterNames["Marcus"])
	assert.Equal(t, 3, g.Len())
}

func TestGlossary_MatchIn_FiltersByAppearance(t *testing.T) {
	g := NewGlossary()
	g.AddCharacterName("Sarah")
	g.AddCharacterName("Marcus")
	g.AddTerm(Term{Source: "warp drive", Target: "translated"})

	matched := g.MatchIn([]string{"Sarah fixed the warp drive.", "Nothing else."})

	assert.True(t, matched.CharacterNames["Sarah"])
	assert.False(t, matched.CharacterNames["Marcus"])
	assert.Contains(t, matched.Terms, "warp drive")
}

func TestGlossary_MatchIn_CaseSensitive(t *testing.T) {
	g := NewGlossary()
	g.AddCharacterName("Sarah")

	matched := g.MatchIn([]string{"sarah said hello"})
	assert.True(t, matched.IsEmpty())
}

func TestGlossary_AddIgnoresBlank(t *testing.T) {
	g := NewGlossary()
	g.AddCharacterName("   ")
	g.AddTerm(Term{Source: " ", Target: "x"})
	assert.True(t, g.IsEmpty())
}
