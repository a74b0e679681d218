package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"redub/internal/logging"
	"redub/internal/media/codec"
	"redub/internal/media/pcm"
	"redub/internal/utterance"
)

// DefaultPrefix names chunk files when no prefix is configured.
const DefaultPrefix = "chunk"

// AudioCodec decodes and encodes audio files.
type AudioCodec interface {
	Decode(ctx context.Context, path string) (pcm.Buffer, error)
	Encode(ctx context.Context, path string, buf pcm.Buffer) error
}

// Chunker writes per-utterance audio chunks.
type Chunker struct {
	codec  AudioCodec
	logger *slog.Logger
}

// New constructs a chunker.
func New(audioCodec AudioCodec, logger *slog.Logger) *Chunker {
	return &Chunker{codec: audioCodec, logger: logging.NewComponentLogger(logger, "chunker")}
}

type span struct {
	start, end int
	interval   utterance.Interval
}

// Chunk cuts every interval out of audioPath into outputDir and returns one
// record per interval, in input order, with Path set.
func (c *Chunker) Chunk(ctx context.Context, intervals []utterance.Interval, audioPath, outputDir, prefix string) ([]utterance.Record, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("chunk: ensure output dir: %w", err)
	}
	source, err := c.codec.Decode(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("chunk: decode source: %w", err)
	}
	logger := logging.WithContext(ctx, c.logger)

	spans, err := c.plan(logger, source, intervals)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(audioPath)
	records := make([]utterance.Record, 0, len(spans))
	for _, sp := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(outputDir, utterance.FileName(prefix, sp.interval.Start, sp.interval.End, ext))
		if err := c.codec.Encode(ctx, path, source.Slice(sp.start, sp.end)); err != nil {
			return nil, fmt.Errorf("chunk: write %s: %w", filepath.Base(path), err)
		}
		record := utterance.FromInterval(sp.interval)
		record.Path = path
		records = append(records, record)
	}

	logger.Info("utterance chunks written",
		logging.Int("utterance_count", len(records)),
		logging.String("source", audioPath),
		logging.String("output_dir", outputDir),
	)
	return records, nil
}

// ChunkStore cuts every record in store and records the chunk paths.
func (c *Chunker) ChunkStore(ctx context.Context, store *utterance.Store, audioPath, outputDir, prefix string) error {
	records, err := c.Chunk(ctx, store.Intervals(), audioPath, outputDir, prefix)
	if err != nil {
		return err
	}
	for i, record := range records {
		if err := store.SetPath(i, record.Path); err != nil {
			return err
		}
	}
	return nil
}

// plan validates every interval against the source before any file is
// written. Ends past the track are clamped; starts at or past it fail.
func (c *Chunker) plan(logger *slog.Logger, source pcm.Buffer, intervals []utterance.Interval) ([]span, error) {
	duration := source.Seconds()
	frames := source.Frames()
	spans := make([]span, 0, len(intervals))
	for _, interval := range intervals {
		if err := interval.Validate(); err != nil {
			return nil, err
		}
		if interval.Start >= duration {
			return nil, &utterance.InvalidIntervalError{
				Start:  interval.Start,
				End:    interval.End,
				Reason: fmt.Sprintf("starts at or after the end of the %ss track", utterance.FormatSeconds(duration)),
			}
		}
		start := source.FrameAt(interval.Start)
		end := source.FrameAt(interval.End)
		if interval.End > duration {
			logging.WarnWithContext(logger, "utterance extends past end of track; clamping", "interval_clamped",
				logging.Float64("start", interval.Start),
				logging.Float64("end", interval.End),
				logging.Float64("track_seconds", duration),
				logging.String(logging.FieldErrorHint, "diarization reported a span beyond the audio length"),
				logging.String(logging.FieldImpact, "chunk is shorter than the reported interval"),
			)
			end = frames
		}
		if end > frames {
			end = frames
		}
		if end <= start {
			return nil, &utterance.InvalidIntervalError{Start: interval.Start, End: interval.End, Reason: "shorter than one sample frame"}
		}
		spans = append(spans, span{start: start, end: end, interval: interval})
	}
	return spans, nil
}
