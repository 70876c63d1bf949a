package document

import "strings"

// Term maps a source-language term to its target-language rendering,
// with optional context about where it was seen.
type Term struct {
	Source  string
	Target  string
	Context string
}

// Glossary is the cross-entry terminology memory. Character names are kept
// verbatim in translations; terms and technical terms map source text to an
// agreed target rendering.
type Glossary struct {
	CharacterNames map[string]bool
	Terms          map[string]Term
	TechnicalTerms map[string]string
}

// NewGlossary returns an empty glossary.
func NewGlossary() Glossary {
	return Glossary{
		CharacterNames: make(map[string]bool),
		Terms:          make(map[string]Term),
		TechnicalTerms: make(map[string]string),
	}
}

// AddCharacterName records a character name.
func (g *Glossary) AddCharacterName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if g.CharacterNames == nil {
		g.CharacterNames = make(map[string]bool)
	}
	g.CharacterNames[name] = true
}

// AddTerm records or overwrites a term by its source text.
func (g *Glossary) AddTerm(t Term) {
	if strings.TrimSpace(t.Source) == "" {
		return
	}
	if g.Terms == nil {
		g.Terms = make(map[string]Term)
	}
	g.Terms[t.Source] = t
}

// Merge folds other into g. The result is the union of both; on key
// collision the value from other wins.
func (g *Glossary) Merge(other Glossary) {
	for name := range other.CharacterNames {
		g.AddCharacterName(name)
	}
	for source, term := range other.Terms {
		if g.Terms == nil {
			g.Terms = make(map[string]Term)
		}
		g.Terms[source] = term
	}
	for source, target := range other.TechnicalTerms {
		if g.TechnicalTerms == nil {
			g.TechnicalTerms = make(map[string]string)
		}
		g.TechnicalTerms[source] = target
	}
}

// Clone returns an independent copy. Context windows carry a point-in-time
// snapshot so concurrent readers never observe later merges.
func (g Glossary) Clone() Glossary {
	out := NewGlossary()
	for name := range g.CharacterNames {
		out.CharacterNames[name] = true
	}
	for source, term := range g.Terms {
		out.Terms[source] = term
	}
	for source, target := range g.TechnicalTerms {
		out.TechnicalTerms[source] = target
	}
	return out
}

// MatchIn filters the glossary down to names and terms that actually appear
// in the given texts. Matching is case-sensitive substring matching, which
// is correct for proper nouns.
func (g Glossary) MatchIn(texts []string) Glossary {
	out := NewGlossary()
	contains := func(needle string) bool {
		for _, text := range texts {
			if strings.Contains(text, needle) {
				return true
			}
		}
		return false
	}
	for name := range g.CharacterNames {
		if contains(name) {
			out.CharacterNames[name] = true
		}
	}
	for source, term := range g.Terms {
		if contains(source) {
			out.Terms[source] = term
		}
	}
	for source, target := range g.TechnicalTerms {
		if contains(source) {
			out.TechnicalTerms[source] = target
		}
	}
	return out
}

// IsEmpty reports whether the glossary holds nothing.
func (g Glossary) IsEmpty() bool {
	return len(g.CharacterNames) == 0 && len(g.Terms) == 0 && len(g.TechnicalTerms) == 0
}

// Len returns the total number of recorded names and terms.
func (g Glossary) Len() int {
	return len(g.CharacterNames) + len(g.Terms) + len(g.TechnicalTerms)
}
