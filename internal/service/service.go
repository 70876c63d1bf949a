package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/subtrans-pipeline/internal/config"
	"github.com/MimeLyc/subtrans-pipeline/internal/pipeline"
	"github.com/MimeLyc/subtrans-pipeline/internal/session"
	"github.com/MimeLyc/subtrans-pipeline/internal/subtitle"
	"github.com/MimeLyc/subtrans-pipeline/pkg/file"
	"github.com/MimeLyc/subtrans-pipeline/pkg/icron"
	"github.com/MimeLyc/subtrans-pipeline/pkg/log"
)

// WatchService periodically scans the configured media directories for
// subtitle files lacking a target-language sibling and translates them.
type WatchService struct {
	cfg             *config.Config
	cron            *cron.Cron
	store           *session.Store
	lastTriggerTime time.Time
}

// NewWatchService creates a watch service. store may be nil, in which case
// attempts are not persisted.
func NewWatchService(cfg *config.Config, c *cron.Cron, store *session.Store) *WatchService {
	return &WatchService{
		cfg:   cfg,
		cron:  c,
		store: store,
	}
}

var singleflightGroup singleflight.Group

// Schedule registers the scan on the cron schedule. Overlapping triggers
// collapse into one run via singleflight.
func (s *WatchService) Schedule(ctx context.Context) error {
	log.Info("Scheduling watch service with expression %q", s.cfg.Watch.CronExpr)

	runFunc := func() {
		_, _, _ = singleflightGroup.Do("run", func() (any, error) {
			s.RunOnce(ctx)
			return nil, nil
		})
	}
	_, err := s.cron.AddFunc(s.cfg.Watch.CronExpr, runFunc)
	return err
}

// RunOnce scans every configured directory and translates what it finds.
func (s *WatchService) RunOnce(ctx context.Context) {
	for _, dir := range s.cfg.Watch.MediaDirs {
		log.Info("Scanning dir %s", dir)
		if err := s.runDir(ctx, dir); err != nil {
			log.Error("Failed to run in dir %s: %v", dir, err)
		}
	}
	s.lastTriggerTime = time.Now()
}

func (s *WatchService) runDir(ctx context.Context, dir string) error {
	candidates, err := s.findCandidates(dir)
	if err != nil {
		return err
	}
	log.Info("Found %d candidate subtitle files in dir %s", len(candidates), dir)
	if len(candidates) == 0 {
		return nil
	}

	clients, err := s.cfg.Clients()
	if err != nil {
		return fmt.Errorf("create model clients: %w", err)
	}
	pipeCfg := s.cfg.PipelineConfig()

	runner := pipeline.NewRunner(func() (*pipeline.Orchestrator, error) {
		return pipeline.New(pipeCfg, clients)
	}, s.cfg.Translate.Workers, s.cfg.Translate.DispatchDelay)

	tasks := make([]pipeline.Task, 0, len(candidates))
	files := make([]*subtitle.File, 0, len(candidates))
	attempts := make([]*session.Attempt, 0, len(candidates))
	kept := make([]Candidate, 0, len(candidates))

	for _, cand := range candidates {
		sub, err := subtitle.NewReader(cand.Path).Read()
		if err != nil {
			log.Error("Failed to read subtitle file %s: %v", cand.Path, err)
			continue
		}
		cand.SourceLang = sub.Language

		attempt, resumed, err := s.openAttempt(ctx, cand, len(sub.Lines))
		if err != nil {
			log.Error("Failed to record attempt for %s: %v", cand.Path, err)
		}
		if resumed {
			log.Info("Skipping %s: already translated", cand.Path)
			continue
		}

		doc, err := sub.ToDocument(cand.BaseName, s.cfg.Translate.TargetLanguage)
		if err != nil {
			log.Error("Failed to build document from %s: %v", cand.Path, err)
			continue
		}

		tasks = append(tasks, pipeline.Task{ID: cand.Path, Document: doc})
		files = append(files, sub)
		attempts = append(attempts, attempt)
		kept = append(kept, cand)
	}

	results := runner.Run(ctx, tasks)

	var firstErr error
	for i, res := range results {
		cand, sub, attempt := kept[i], files[i], attempts[i]
		if !res.Result.Success() {
			log.Error("Failed to translate %s: %v", cand.Path, res.Result.Err)
			s.closeAttempt(ctx, attempt, 0, res.Result.Err)
			if firstErr == nil {
				firstErr = res.Result.Err
			}
			continue
		}

		outPath := cand.OutputPath(s.cfg.Translate.TargetLanguage)
		if err := s.writeOutput(outPath, sub, tasks[i]); err != nil {
			log.Error("Failed to write %s: %v", outPath, err)
			s.closeAttempt(ctx, attempt, 0, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		log.Info("Translated %s -> %s (%d entries, quality %.2f)",
			cand.Path, outPath, res.Result.Stats.EntriesTranslated, res.Result.Validation.QualityScore())
		s.closeAttempt(ctx, attempt, res.Result.Stats.EntriesTranslated, nil)
	}
	return firstErr
}

// writeOutput copies translations back onto the subtitle lines and renders
// the target-language file next to the source.
func (s *WatchService) writeOutput(path string, sub *subtitle.File, task pipeline.Task) error {
	out := subtitle.FromDocument(task.Document)
	out.Path = path
	out.Language = s.cfg.Translate.TargetLanguage
	return subtitle.NewWriter().Write(path, out)
}

// findCandidates returns the subtitle files worth translating: recently
// modified, not already an output of a previous run, and without a
// target-language sibling on disk.
func (s *WatchService) findCandidates(dir string) ([]Candidate, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory %s does not exist", dir)
	}

	startTime, err := s.startTime()
	if err != nil {
		return nil, fmt.Errorf("resolve scan start time: %w", err)
	}
	log.Info("Searching for subtitle files modified after %v", startTime)

	recentFiles, err := file.FindRecentAfter(dir, startTime)
	if err != nil {
		return nil, fmt.Errorf("find recent files: %w", err)
	}

	target := s.cfg.Translate.TargetLanguage
	seen := make(map[string]bool)
	var candidates []Candidate

	for _, path := range recentFiles {
		if strings.ToLower(filepath.Ext(path)) != ".srt" {
			continue
		}
		if isTranslatedOutput(path, target) {
			continue
		}

		base := filepath.Join(filepath.Dir(path), baseName(path))
		if seen[base] {
			continue
		}
		seen[base] = true

		cand := Candidate{Path: path, BaseName: baseName(path)}
		if s.hasTargetSibling(cand) {
			log.Debug("Target subtitle already exists next to %s", path)
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// hasTargetSibling checks whether the translated output already exists.
func (s *WatchService) hasTargetSibling(cand Candidate) bool {
	_, err := os.Stat(cand.OutputPath(s.cfg.Translate.TargetLanguage))
	return err == nil
}

// openAttempt records the attempt start. resumed is true when a completed
// attempt for the same content and settings already exists.
func (s *WatchService) openAttempt(ctx context.Context, cand Candidate, total int) (*session.Attempt, bool, error) {
	if s.store == nil {
		return nil, false, nil
	}

	hash, err := session.HashFile(cand.Path)
	if err != nil {
		return nil, false, err
	}
	key := session.Key{
		ContentHash: hash,
		SourceLang:  cand.SourceLang.String(),
		TargetLang:  s.cfg.Translate.TargetLanguage.String(),
		Provider:    s.cfg.LLM.Provider,
		Model:       s.cfg.LLM.Model,
	}

	existing, found, err := s.store.Resume(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		if existing.Status == session.StatusCompleted {
			return existing, true, nil
		}
		return existing, false, nil
	}

	attempt, err := s.store.Create(ctx, key, total)
	return attempt, false, err
}

func (s *WatchService) closeAttempt(ctx context.Context, attempt *session.Attempt, translated int, cause error) {
	if s.store == nil || attempt == nil {
		return
	}
	var err error
	if cause != nil {
		err = s.store.MarkFailed(ctx, attempt.ID, cause.Error())
	} else {
		err = s.store.MarkComplete(ctx, attempt.ID, translated)
	}
	if err != nil {
		log.Error("Failed to update attempt %s: %v", attempt.ID, err)
	}
}

// startTime resolves the lower bound of the scan window. On the first run
// it falls back to the previous cron trigger, capped at a week back.
func (s *WatchService) startTime() (time.Time, error) {
	if !s.lastTriggerTime.IsZero() {
		return s.lastTriggerTime, nil
	}

	info, err := icron.GetTriggerInfo(s.cfg.Watch.CronExpr, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve cron schedule: %w", err)
	}
	if time.Now().Add(-24 * time.Hour).Before(info.Last) {
		return time.Now().Add(-24 * 7 * time.Hour), nil
	}
	return info.Last, nil
}
