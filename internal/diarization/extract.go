package diarization

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"redub/internal/logging"
	"redub/internal/utterance"
)

// Track is one diarized turn as reported by an engine.
type Track struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Engine performs speaker diarization on an audio file.
type Engine interface {
	Name() string
	Diarize(ctx context.Context, audioPath string) ([]Track, error)
}

// Extractor converts engine output into ordered intervals.
type Extractor struct {
	engine Engine
	logger *slog.Logger
}

// NewExtractor wraps engine.
func NewExtractor(engine Engine, logger *slog.Logger) *Extractor {
	return &Extractor{engine: engine, logger: logging.NewComponentLogger(logger, "diarization")}
}

// Extract diarizes audioPath and returns intervals sorted by start time.
// Timestamps are copied verbatim; tracks with End <= Start are rejected.
func (x *Extractor) Extract(ctx context.Context, audioPath string) ([]utterance.Interval, error) {
	if x.engine == nil {
		return nil, fmt.Errorf("diarization: no engine configured")
	}
	tracks, err := x.engine.Diarize(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	intervals := make([]utterance.Interval, 0, len(tracks))
	for _, track := range tracks {
		interval := utterance.Interval{Start: track.Start, End: track.End, SpeakerID: track.Speaker}
		if err := interval.Validate(); err != nil {
			return nil, fmt.Errorf("diarization %s: %w", x.engine.Name(), err)
		}
		intervals = append(intervals, interval)
	}
	sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })

	speakers := make(map[string]struct{})
	for _, interval := range intervals {
		speakers[interval.SpeakerID] = struct{}{}
	}
	logging.WithContext(ctx, x.logger).Info("diarization complete",
		logging.String("engine", x.engine.Name()),
		logging.Int("utterance_count", len(intervals)),
		logging.Int("speaker_count", len(speakers)),
	)
	return intervals, nil
}
