package pipeline

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
	"github.com/MimeLyc/subtrans-pipeline/internal/translate"
	"github.com/MimeLyc/subtrans-pipeline/internal/window"
	"github.com/MimeLyc/subtrans-pipeline/pkg/log"
)

// ChunkedTranslator is the simpler non-windowed flow: the document is cut
// into independent chunks translated concurrently without recent-entry
// context. Terminology continuity is weaker than the windowed pipeline, so
// this flow trades quality for throughput on large backlogs.
type ChunkedTranslator struct {
	client    llm.Client
	cfg       translate.Config
	chunkSize int
	workers   int64
	delay     time.Duration
}

// NewChunkedTranslator creates the chunked flow with a bounded worker pool.
func NewChunkedTranslator(client llm.Client, cfg translate.Config, chunkSize, workers int, delay time.Duration) *ChunkedTranslator {
	if chunkSize < 1 {
		chunkSize = 20
	}
	if workers < 1 {
		workers = 1
	}
	return &ChunkedTranslator{
		client:    client,
		cfg:       cfg,
		chunkSize: chunkSize,
		workers:   int64(workers),
		delay:     delay,
	}
}

type chunkOutput struct {
	start        int
	translations map[int]translate.EntryTranslation
	err          error
}

// Translate processes all chunks and applies the assembled results to the
// document. Workers write only to their own output slot; assembly sorts by
// entry id so entry order and count are preserved regardless of completion
// order. Returns the number of translated entries and the first chunk error.
func (c *ChunkedTranslator) Translate(ctx context.Context, doc *document.Document) (int, error) {
	glossary := doc.Glossary.Clone()

	var chunks []window.ContextWindow
	for pos := 0; pos < doc.Len(); pos += c.chunkSize {
		end := pos + c.chunkSize
		if end > doc.Len() {
			end = doc.Len()
		}
		chunks = append(chunks, window.ContextWindow{
			CurrentBatch: append([]document.Entry(nil), doc.EntriesIn(pos, end)...),
			Glossary:     glossary,
			Position:     pos,
			Total:        doc.Len(),
		})
	}

	outputs := make([]chunkOutput, len(chunks))
	sem := semaphore.NewWeighted(c.workers)
	var wg sync.WaitGroup
	var progress atomic.Int64
	var lastDispatch time.Time
	var dispatchMu sync.Mutex

	for i, chunk := range chunks {
		if err := sem.Acquire(ctx, 1); err != nil {
			outputs[i] = chunkOutput{start: chunk.Position, err: err}
			continue
		}
		wg.Add(1)
		go func(slot int, chunk window.ContextWindow) {
			defer wg.Done()
			defer sem.Release(1)

			if c.delay > 0 {
				dispatchMu.Lock()
				wait := c.delay - time.Since(lastDispatch)
				if wait < 0 {
					wait = 0
				}
				lastDispatch = time.Now().Add(wait)
				dispatchMu.Unlock()
				time.Sleep(wait)
			}

			pass := translate.NewPass(c.client, c.cfg)
			res, err := pass.TranslateWindow(ctx, chunk)
			if err != nil {
				outputs[slot] = chunkOutput{start: chunk.Position, err: err}
				return
			}
			outputs[slot] = chunkOutput{start: chunk.Position, translations: res.Translations}
			done := progress.Add(1)
			log.Debug("Chunk %d/%d complete", done, len(chunks))
		}(i, chunk)
	}
	wg.Wait()

	// Assemble: gather every translation, sort by entry id, apply in order.
	type pair struct {
		id int
		t  translate.EntryTranslation
	}
	var pairs []pair
	var firstErr error
	for _, out := range outputs {
		if out.err != nil && firstErr == nil {
			firstErr = out.err
		}
		for id, t := range out.translations {
			pairs = append(pairs, pair{id: id, t: t})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	applied := 0
	for _, p := range pairs {
		entry := doc.Entry(p.id)
		if entry == nil || p.t.Text == "" {
			continue
		}
		entry.TranslatedText = p.t.Text
		entry.Confidence = p.t.Confidence
		applied++
	}
	return applied, firstErr
}
