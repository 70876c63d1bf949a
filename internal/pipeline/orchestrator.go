package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/MimeLyc/subtrans-pipeline/internal/analysis"
	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
	"github.com/MimeLyc/subtrans-pipeline/internal/recovery"
	"github.com/MimeLyc/subtrans-pipeline/internal/translate"
	"github.com/MimeLyc/subtrans-pipeline/internal/validate"
	"github.com/MimeLyc/subtrans-pipeline/internal/window"
	"github.com/MimeLyc/subtrans-pipeline/pkg/log"
)

// Config bundles the settings for one pipeline run.
type Config struct {
	Analysis analysis.Config
	Window   window.Config
	// Sizing enables dynamic batch sizing when non-nil.
	Sizing   *window.SizingConfig
	Validate validate.Config
	Strategy recovery.Strategy
	// AutoRepair runs the repair pass after validation.
	AutoRepair bool
	// RequestTimeout bounds each model request.
	RequestTimeout time.Duration
	// DispatchDelay is the shared pause between requests, respecting
	// provider rate limits.
	DispatchDelay time.Duration
	// MaxParseRetries and FallbackEnabled configure the translation pass.
	MaxParseRetries int
	FallbackEnabled bool
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		Analysis:        analysis.DefaultConfig(),
		Window:          window.DefaultConfig(),
		Validate:        validate.DefaultConfig(),
		Strategy:        recovery.DefaultStrategy(),
		AutoRepair:      true,
		RequestTimeout:  90 * time.Second,
		DispatchDelay:   500 * time.Millisecond,
		MaxParseRetries: 2,
		FallbackEnabled: true,
	}
}

// Progress is one progress callback payload.
type Progress struct {
	Phase      string
	Position   int
	Total      int
	Translated int
}

// ProgressFunc receives progress updates; it is the hook external
// checkpointing builds on.
type ProgressFunc func(Progress)

// Stats are the translation statistics of one run.
type Stats struct {
	BatchesAttempted  int
	BatchesCompleted  int
	EntriesTranslated int
	Retries           int
	Fallbacks         int
	ProviderSwitches  int
}

// Result is the produced artifact of one pipeline run.
type Result struct {
	Analysis   analysis.Report
	Stats      Stats
	Validation *validate.Report
	Repairs    []validate.Action
	Duration   time.Duration
	Err        error
}

// Success reports whether the run completed without a fatal error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Orchestrator sequences the three phases over a whole document:
// analysis, windowed translation and validation/repair. Windows are
// processed strictly in order because each window's recent context depends
// on prior results.
type Orchestrator struct {
	clients  []llm.Client
	cfg      Config
	analyzer *analysis.Analyzer
	summary  *analysis.Summarizer
	progress ProgressFunc
	sleep    func(time.Duration)
}

// Option customizes an orchestrator.
type Option func(*Orchestrator)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithSleep replaces the backoff sleeper, for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// New creates an orchestrator. Additional clients are fallback providers
// used when the recovery handler decides to switch.
func New(cfg Config, clients []llm.Client, opts ...Option) (*Orchestrator, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("at least one model client is required")
	}
	o := &Orchestrator{
		clients:  clients,
		cfg:      cfg,
		analyzer: analysis.NewAnalyzer(cfg.Analysis),
		summary:  analysis.NewSummarizer(cfg.Analysis.Summary),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes the pipeline over one document. The document is mutated in
// place; entry count and timecodes are never touched.
func (o *Orchestrator) Run(ctx context.Context, doc *document.Document) *Result {
	started := time.Now()
	result := &Result{}

	o.report(Progress{Phase: "analysis", Total: doc.Len()})
	result.Analysis = o.analyzer.Annotate(doc)

	if err := o.translatePhase(ctx, doc, result); err != nil {
		result.Err = err
	}

	o.report(Progress{Phase: "validation", Position: doc.Len(), Total: doc.Len(), Translated: doc.TranslatedCount()})
	o.validatePhase(doc, result)

	result.Duration = time.Since(started)
	log.Info("Pipeline finished in %s: %d/%d entries translated, quality %.2f",
		result.Duration.Round(time.Millisecond), result.Stats.EntriesTranslated, doc.Len(),
		result.Validation.QualityScore())
	return result
}

// translatePhase walks the document window by window.
func (o *Orchestrator) translatePhase(ctx context.Context, doc *document.Document, result *Result) error {
	var sizer *window.DynamicSizer
	if o.cfg.Sizing != nil {
		sizer = window.NewDynamicSizer(*o.cfg.Sizing)
	}
	builder := window.NewBuilder(o.cfg.Window, sizer)
	handler := recovery.NewHandler(o.cfg.Strategy, o.cfg.Window.BatchSize)

	passCfg := translate.Config{
		SourceLanguage:  languageName(doc.Metadata.SourceLanguage.String()),
		TargetLanguage:  languageName(doc.Metadata.TargetLanguage.String()),
		MaxParseRetries: o.cfg.MaxParseRetries,
		FallbackEnabled: o.cfg.FallbackEnabled,
	}
	clientIdx := 0
	pass := translate.NewPass(o.clients[clientIdx], passCfg)

	pos := 0
	for {
		// The only cross-batch cancellation point: between windows.
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline cancelled: %w", err)
		}

		w := o.buildWindow(builder, handler, doc, pos)
		if w.Done() {
			return nil
		}

		result.Stats.BatchesAttempted++
		res, err := o.translateWindow(ctx, pass, w)
		if err != nil {
			decision := handler.Decide(err)
			log.Warn("Batch at position %d failed (%s): %s -> %s", pos, decision.Kind, err, decision.Action)

			switch decision.Action {
			case recovery.ActionRetryBackoff:
				result.Stats.Retries++
				o.sleep(decision.Delay)
				continue
			case recovery.ActionReduceBatch:
				result.Stats.Retries++
				continue
			case recovery.ActionSwitchProvider:
				if clientIdx+1 < len(o.clients) {
					clientIdx++
					result.Stats.ProviderSwitches++
					pass = translate.NewPass(o.clients[clientIdx], passCfg)
					log.Warn("Switching provider to %s", o.clients[clientIdx].Model())
					continue
				}
				return fmt.Errorf("provider failed and no fallback provider remains: %w", err)
			case recovery.ActionFallbackOriginal:
				result.Stats.Fallbacks += len(w.CurrentBatch)
				pos += len(w.CurrentBatch)
				o.reportTranslate(doc, pos)
				continue
			case recovery.ActionSkipEntries, recovery.ActionContinuePartial:
				pos += len(w.CurrentBatch)
				o.reportTranslate(doc, pos)
				continue
			default:
				return fmt.Errorf("translation aborted at position %d: %w", pos, err)
			}
		}

		applied := pass.Apply(doc, res)
		pass.MergeGlossaryUpdates(doc, res.GlossaryUpdates)
		// A successful batch ends any reduced-batch stretch.
		handler.ResetBatchSize(o.cfg.Window.BatchSize)
		result.Stats.BatchesCompleted++
		result.Stats.EntriesTranslated += applied
		result.Stats.Retries += res.Retries
		if res.UsedFallback {
			result.Stats.Fallbacks += len(res.Requested)
		} else if missing := res.MissingIDs(); len(missing) > 0 {
			// Silently omitted ids stay untranslated; the validator
			// flags them and output falls back to the original text.
			log.Warn("Model omitted %d ids at position %d: %v", len(missing), pos, missing)
			result.Stats.Fallbacks += len(missing)
		}

		pos += len(w.CurrentBatch)
		o.reportTranslate(doc, pos)

		if o.cfg.DispatchDelay > 0 && pos < doc.Len() {
			o.sleep(o.cfg.DispatchDelay)
		}
	}
}

// buildWindow assembles the next window, attaching an extractive summary
// first when the position crossed the summarization threshold. The batch
// size is the dynamic sizer's choice, capped by any recovery reduction.
func (o *Orchestrator) buildWindow(builder *window.Builder, handler *recovery.Handler, doc *document.Document, pos int) window.ContextWindow {
	size := builder.SizeAt(doc, pos)
	if reduced := handler.BatchSize(); reduced < size {
		size = reduced
	}
	w := builder.BuildSized(doc, pos, size)
	if w.NeedsSummarization {
		doc.Summary = o.summary.Summarize(doc, pos)
		w = builder.BuildSized(doc, pos, size)
	}
	return w
}

// translateWindow runs one request under the per-request timeout.
func (o *Orchestrator) translateWindow(ctx context.Context, pass *translate.Pass, w window.ContextWindow) (*translate.BatchResult, error) {
	if o.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RequestTimeout)
		defer cancel()
	}
	return pass.TranslateWindow(ctx, w)
}

// validatePhase checks the whole document and optionally auto-repairs.
func (o *Orchestrator) validatePhase(doc *document.Document, result *Result) {
	validator := validate.NewValidator(o.cfg.Validate, nil)
	report := validator.Validate(doc)

	if o.cfg.AutoRepair && len(report.Issues) > 0 {
		repairer := validate.NewRepairer(validator)
		outcome := repairer.Repair(doc, report)
		result.Repairs = outcome.Actions
		// Re-validate the full document so the report reflects the
		// repaired state.
		report = validator.Validate(doc)
	}
	result.Validation = report
}

func (o *Orchestrator) reportTranslate(doc *document.Document, pos int) {
	o.report(Progress{
		Phase:      "translation",
		Position:   pos,
		Total:      doc.Len(),
		Translated: doc.TranslatedCount(),
	})
}

func (o *Orchestrator) report(p Progress) {
	if o.progress != nil {
		o.progress(p)
	}
}

// languageName widens a BCP-47 tag into something prompt-friendly.
func languageName(tag string) string {
	if tag == "" || tag == "und" {
		return "the source language"
	}
	return tag
}
