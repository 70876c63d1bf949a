package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/subtrans-pipeline/internal/analysis"
	"github.com/MimeLyc/subtrans-pipeline/internal/config"
	"github.com/MimeLyc/subtrans-pipeline/internal/document"
	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
	"github.com/MimeLyc/subtrans-pipeline/internal/pipeline"
	"github.com/MimeLyc/subtrans-pipeline/internal/service"
	"github.com/MimeLyc/subtrans-pipeline/internal/session"
	"github.com/MimeLyc/subtrans-pipeline/internal/subtitle"
	"github.com/MimeLyc/subtrans-pipeline/internal/translate"
	"github.com/MimeLyc/subtrans-pipeline/internal/validate"
	"github.com/MimeLyc/subtrans-pipeline/pkg/log"
)

func main() {
	inputPath := flag.String("file", "", "translate a single subtitle file and exit")
	outputPath := flag.String("output", "", "output path for -file mode (default: sibling with language suffix)")
	preview := flag.Bool("preview", false, "analyze the input and print the report without translating")
	chunked := flag.Bool("chunked", false, "use the parallel chunked flow instead of the windowed pipeline (-file mode)")
	serve := flag.Bool("serve", false, "run the cron watch service over MEDIA_DIRS")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))

	var store *session.Store
	if cfg.Session.DBPath != "" {
		store, err = session.NewStore(cfg.Session.DBPath)
		if err != nil {
			log.Fatal("Failed to open session store: %v", err)
		}
		defer store.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *preview:
		if *inputPath == "" {
			log.Fatal("-preview requires -file")
		}
		if err := runPreview(cfg, *inputPath); err != nil {
			log.Fatal("Preview failed: %v", err)
		}
	case *inputPath != "":
		if err := runFile(ctx, cfg, store, *inputPath, *outputPath, *chunked); err != nil {
			log.Fatal("Translation failed: %v", err)
		}
	case *serve:
		if err := runService(ctx, cfg, store); err != nil {
			log.Fatal("Service failed: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// runPreview analyzes a file and prints the report, making no model calls.
func runPreview(cfg *config.Config, path string) error {
	sub, err := subtitle.NewReader(path).Read()
	if err != nil {
		return err
	}
	doc, err := sub.ToDocument(path, cfg.Translate.TargetLanguage)
	if err != nil {
		return err
	}

	report := analysis.NewAnalyzer(analysis.DefaultConfig()).Annotate(doc)
	fmt.Printf("File:            %s\n", path)
	fmt.Printf("Language:        %s -> %s\n", sub.Language, cfg.Translate.TargetLanguage)
	fmt.Printf("Entries:         %d (%d non-dialogue)\n", report.Entries, report.NonDialogue)
	fmt.Printf("Scenes:          %d\n", report.Scenes)
	fmt.Printf("Speakers:        %d\n", report.Speakers)
	fmt.Printf("Character names: %v\n", report.CharacterNames)
	fmt.Printf("Glossary terms:  %d\n", report.Terms)
	return nil
}

// runFile translates one subtitle file, either through the windowed
// pipeline or the parallel chunked flow.
func runFile(ctx context.Context, cfg *config.Config, store *session.Store, inPath, outPath string, chunked bool) error {
	sub, err := subtitle.NewReader(inPath).Read()
	if err != nil {
		return err
	}
	doc, err := sub.ToDocument(inPath, cfg.Translate.TargetLanguage)
	if err != nil {
		return err
	}

	attempt, err := openAttempt(ctx, cfg, store, inPath, doc.Len(), sub.Language.String())
	if err != nil {
		return err
	}
	if attempt != nil && attempt.Status == session.StatusCompleted {
		log.Info("File already translated with these settings, nothing to do")
		return nil
	}

	clients, err := cfg.Clients()
	if err != nil {
		return err
	}

	var result *pipeline.Result
	if chunked {
		result = runChunked(ctx, cfg, clients[0], sub.Language.String(), doc)
	} else {
		opts := []pipeline.Option{pipeline.WithProgress(func(p pipeline.Progress) {
			log.Info("[%s] %d/%d entries (%d translated)", p.Phase, p.Position, p.Total, p.Translated)
			if store != nil && attempt != nil && p.Phase == "translation" {
				_ = store.UpdateProgress(ctx, attempt.ID, p.Translated)
			}
		})}

		orch, err := pipeline.New(cfg.PipelineConfig(), clients, opts...)
		if err != nil {
			return err
		}
		result = orch.Run(ctx, doc)
	}
	if store != nil && attempt != nil {
		if result.Success() {
			_ = store.MarkComplete(ctx, attempt.ID, result.Stats.EntriesTranslated)
		} else {
			_ = store.MarkFailed(ctx, attempt.ID, result.Err.Error())
		}
	}
	if !result.Success() {
		return result.Err
	}

	if outPath == "" {
		cand := service.Candidate{Path: inPath}
		outPath = cand.OutputPath(cfg.Translate.TargetLanguage)
	}
	out := subtitle.FromDocument(doc)
	out.Language = cfg.Translate.TargetLanguage
	if err := subtitle.NewWriter().Write(outPath, out); err != nil {
		return err
	}

	printReport(outPath, result)
	return nil
}

// runChunked translates the document chunk-parallel without window context,
// then validates so the report matches the windowed flow's shape. Faster on
// large backlogs at the cost of weaker terminology continuity.
func runChunked(ctx context.Context, cfg *config.Config, client llm.Client, sourceLang string, doc *document.Document) *pipeline.Result {
	started := time.Now()
	pcfg := cfg.PipelineConfig()

	ct := pipeline.NewChunkedTranslator(client, translate.Config{
		SourceLanguage:  sourceLang,
		TargetLanguage:  cfg.Translate.TargetLanguage.String(),
		MaxParseRetries: pcfg.MaxParseRetries,
		FallbackEnabled: pcfg.FallbackEnabled,
	}, cfg.Translate.BatchSize, cfg.Translate.Workers, cfg.Translate.DispatchDelay)

	applied, err := ct.Translate(ctx, doc)
	report := validate.NewValidator(pcfg.Validate, nil).Validate(doc)
	return &pipeline.Result{
		Stats:      pipeline.Stats{EntriesTranslated: applied},
		Validation: report,
		Duration:   time.Since(started),
		Err:        err,
	}
}

func printReport(outPath string, result *pipeline.Result) {
	fmt.Printf("Output:     %s\n", outPath)
	fmt.Printf("Duration:   %s\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Batches:    %d attempted, %d completed\n", result.Stats.BatchesAttempted, result.Stats.BatchesCompleted)
	fmt.Printf("Entries:    %d translated, %d fallbacks\n", result.Stats.EntriesTranslated, result.Stats.Fallbacks)
	fmt.Printf("Retries:    %d (%d provider switches)\n", result.Stats.Retries, result.Stats.ProviderSwitches)
	fmt.Printf("Quality:    %.2f (passed: %v)\n", result.Validation.QualityScore(), result.Validation.Passed())
	fmt.Printf("Repairs:    %d\n", len(result.Repairs))
	if issues := len(result.Validation.Issues); issues > 0 {
		fmt.Printf("Issues:     %d\n", issues)
		for _, issue := range result.Validation.Issues {
			fmt.Printf("  entry %d [%s, %.2f] %s\n", issue.EntryID, issue.Kind, issue.Severity, issue.Detail)
		}
	}
}

func openAttempt(ctx context.Context, cfg *config.Config, store *session.Store, path string, total int, sourceLang string) (*session.Attempt, error) {
	if store == nil {
		return nil, nil
	}
	hash, err := session.HashFile(path)
	if err != nil {
		return nil, err
	}
	key := session.Key{
		ContentHash: hash,
		SourceLang:  sourceLang,
		TargetLang:  cfg.Translate.TargetLanguage.String(),
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
	}
	existing, found, err := store.Resume(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		return existing, nil
	}
	return store.Create(ctx, key, total)
}

// runService schedules the watch service and blocks until interrupted.
func runService(ctx context.Context, cfg *config.Config, store *session.Store) error {
	if len(cfg.Watch.MediaDirs) == 0 {
		return fmt.Errorf("MEDIA_DIRS is required in service mode")
	}

	c := cron.New()
	svc := service.NewWatchService(cfg, c, store)
	if err := svc.Schedule(ctx); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	log.Info("Watch service started, scanning %v on %q", cfg.Watch.MediaDirs, cfg.Watch.CronExpr)
	<-ctx.Done()
	log.Info("Shutting down")
	return nil
}
