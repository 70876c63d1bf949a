package translate

import "sort"

// EntryTranslation is one translated line as returned by the model.
type EntryTranslation struct {
	ID         int     `json:"id"`
	Text       string  `json:"translated_text"`
	Confidence float64 `json:"confidence"`
}

// GlossaryUpdate is a terminology suggestion piggybacked on a response.
type GlossaryUpdate struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Context string `json:"context,omitempty"`
}

// batchResponse is the structured payload expected from the model.
type batchResponse struct {
	Translations    []EntryTranslation `json:"translations"`
	GlossaryUpdates []GlossaryUpdate   `json:"glossary_updates,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

// BatchResult is the outcome of translating one context window. Even a
// nominally successful call can be partial: the model may silently omit
// ids, which IsComplete and MissingIDs expose.
type BatchResult struct {
	Requested       []int
	Translations    map[int]EntryTranslation
	GlossaryUpdates []GlossaryUpdate
	Notes           string
	Retries         int
	UsedFallback    bool
}

// IsComplete reports whether every requested id got a translation.
func (r *BatchResult) IsComplete() bool {
	return len(r.MissingIDs()) == 0
}

// MissingIDs returns the requested ids the model omitted, sorted.
func (r *BatchResult) MissingIDs() []int {
	var missing []int
	for _, id := range r.Requested {
		if _, ok := r.Translations[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Ints(missing)
	return missing
}
