package analysis

import (
	"github.com/MimeLyc/subtrans-pipeline/internal/document"
)

// SceneConfig controls scene partitioning.
type SceneConfig struct {
	// GapThresholdMs breaks a scene when the silence between two entries
	// reaches this many milliseconds.
	GapThresholdMs int64
	// MaxSceneLength caps how many entries a single scene may hold.
	MaxSceneLength int
	// UseSpeakers breaks a scene when the speaker changes, if speakers
	// have been tracked.
	UseSpeakers bool
}

// DefaultSceneConfig returns the standard thresholds.
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		GapThresholdMs: 3000,
		MaxSceneLength: 50,
		UseSpeakers:    true,
	}
}

// SceneDetector partitions a document into contiguous, non-overlapping
// scenes. Detection is read-only and idempotent.
type SceneDetector struct {
	cfg SceneConfig
}

// NewSceneDetector creates a detector with the given config, applying
// defaults for zero values.
func NewSceneDetector(cfg SceneConfig) *SceneDetector {
	if cfg.GapThresholdMs <= 0 {
		cfg.GapThresholdMs = 3000
	}
	if cfg.MaxSceneLength <= 0 {
		cfg.MaxSceneLength = 50
	}
	return &SceneDetector{cfg: cfg}
}

// Detect walks consecutive entry pairs and emits the scene partition.
// The scenes cover the full id range contiguously.
func (d *SceneDetector) Detect(doc *document.Document) []document.Scene {
	if doc.Len() == 0 {
		return nil
	}

	var scenes []document.Scene
	start := doc.Entries[0].ID
	length := 1

	for i := 1; i < len(doc.Entries); i++ {
		prev := doc.Entries[i-1]
		cur := doc.Entries[i]

		if d.shouldBreak(prev, cur, length) {
			scenes = append(scenes, document.Scene{
				ID:           len(scenes) + 1,
				StartEntryID: start,
				EndEntryID:   prev.ID,
			})
			start = cur.ID
			length = 1
			continue
		}
		length++
	}

	scenes = append(scenes, document.Scene{
		ID:           len(scenes) + 1,
		StartEntryID: start,
		EndEntryID:   doc.Entries[len(doc.Entries)-1].ID,
	})
	return scenes
}

// Annotate detects scenes and records them on the document, setting each
// entry's SceneID.
func (d *SceneDetector) Annotate(doc *document.Document) []document.Scene {
	scenes := d.Detect(doc)
	doc.Scenes = scenes
	for _, scene := range scenes {
		for id := scene.StartEntryID; id <= scene.EndEntryID; id++ {
			if e := doc.Entry(id); e != nil {
				e.SceneID = scene.ID
			}
		}
	}
	return scenes
}

func (d *SceneDetector) shouldBreak(prev, cur document.Entry, length int) bool {
	if prev.Timecode.GapTo(cur.Timecode) >= d.cfg.GapThresholdMs {
		return true
	}
	if length >= d.cfg.MaxSceneLength {
		return true
	}
	if d.cfg.UseSpeakers && prev.Speaker != "" && cur.Speaker != "" && prev.Speaker != cur.Speaker {
		return true
	}
	return false
}
