package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"redub/internal/logging"
	"redub/internal/loudness"
	"redub/internal/media/codec"
	"redub/internal/media/pcm"
	"redub/internal/utterance"
)

// Output file stems.
const (
	MixStem    = "dubbed_mix"
	VocalsStem = "dubbed_vocals"
	AudioStem  = "dubbed_audio"
)

// AudioCodec decodes and encodes audio files.
type AudioCodec interface {
	Decode(ctx context.Context, path string) (pcm.Buffer, error)
	Encode(ctx context.Context, path string, buf pcm.Buffer) error
}

// Assembler reinserts dubbed audio at original timestamps.
type Assembler struct {
	codec    AudioCodec
	analyzer *loudness.Analyzer
	logger   *slog.Logger
}

// New constructs an assembler. A nil analyzer uses the default loudness
// tuning.
func New(audioCodec AudioCodec, analyzer *loudness.Analyzer, logger *slog.Logger) *Assembler {
	if analyzer == nil {
		analyzer = loudness.NewAnalyzer(loudness.DefaultThreshold, loudness.DefaultTargetPeak, audioCodec)
	}
	return &Assembler{
		codec:    audioCodec,
		analyzer: analyzer,
		logger:   logging.NewComponentLogger(logger, "assembly"),
	}
}

// Assemble overlays dubbed chunks onto the (normalized) background and writes
// dubbed_mix.<ext> into outputDir.
func (a *Assembler) Assemble(ctx context.Context, records []utterance.Record, backgroundPath, outputDir string) (string, error) {
	dubbed, err := eligible(records)
	if err != nil {
		return "", err
	}
	background, err := a.loadBackground(ctx, backgroundPath)
	if err != nil {
		return "", err
	}
	mixed, err := a.insert(ctx, background, dubbed)
	if err != nil {
		return "", err
	}
	return a.write(ctx, mixed, outputPath(outputDir, MixStem, backgroundPath))
}

// RenderVocals overlays dubbed chunks onto silence as long as the background
// and writes dubbed_vocals.<ext> into outputDir.
func (a *Assembler) RenderVocals(ctx context.Context, records []utterance.Record, backgroundPath, outputDir string) (string, error) {
	dubbed, err := eligible(records)
	if err != nil {
		return "", err
	}
	background, err := a.codec.Decode(ctx, backgroundPath)
	if err != nil {
		return "", fmt.Errorf("assembly: decode background: %w", err)
	}
	base := pcm.Silence(background.SampleRate, background.Channels, background.Frames())
	vocals, err := a.insert(ctx, base, dubbed)
	if err != nil {
		return "", err
	}
	return a.write(ctx, vocals, outputPath(outputDir, VocalsStem, backgroundPath))
}

// Merge sums the background (normalized when flagged) with a vocals track and
// writes dubbed_audio_<lang>.<ext> into outputDir. The result is as long as
// the longer input.
func (a *Assembler) Merge(ctx context.Context, backgroundPath, vocalsPath, outputDir, targetLanguage string) (string, error) {
	background, err := a.loadBackground(ctx, backgroundPath)
	if err != nil {
		return "", err
	}
	vocals, err := a.codec.Decode(ctx, vocalsPath)
	if err != nil {
		return "", fmt.Errorf("assembly: decode vocals: %w", err)
	}
	vocals, err = vocals.Conform(background.SampleRate, background.Channels)
	if err != nil {
		return "", fmt.Errorf("assembly: conform vocals: %w", err)
	}
	merged, err := pcm.Mix(background, vocals)
	if err != nil {
		return "", fmt.Errorf("assembly: merge: %w", err)
	}
	stem := AudioStem + "_" + LanguageSuffix(targetLanguage)
	return a.write(ctx, merged, outputPath(outputDir, stem, backgroundPath))
}

// LanguageSuffix renders a language tag for file names: en-US -> en_us.
func LanguageSuffix(tag string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), "-", "_")
}

func (a *Assembler) loadBackground(ctx context.Context, path string) (pcm.Buffer, error) {
	background, err := a.codec.Decode(ctx, path)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("assembly: decode background: %w", err)
	}
	result := a.analyzer.Analyze(background)
	gain := a.analyzer.Gain(result)
	logger := logging.WithContext(ctx, a.logger)
	if result.NeedsNormalization {
		background.ApplyGain(gain)
		logger.Info("background normalized",
			logging.Args(append(logging.DecisionAttrs("background_normalization", "applied", "peak above threshold"),
				logging.Float64("max_amplitude", result.MaxAmplitude),
				logging.Float64("gain", gain),
			)...)...)
	} else {
		logger.Debug("background left untouched",
			logging.Args(append(logging.DecisionAttrs("background_normalization", "skipped", "peak within threshold"),
				logging.Float64("max_amplitude", result.MaxAmplitude),
			)...)...)
	}
	return background, nil
}

func (a *Assembler) insert(ctx context.Context, base pcm.Buffer, dubbed []utterance.Record) (pcm.Buffer, error) {
	for _, record := range dubbed {
		if err := ctx.Err(); err != nil {
			return pcm.Buffer{}, err
		}
		chunk, err := a.codec.Decode(ctx, record.DubbedPath)
		if err != nil {
			return pcm.Buffer{}, fmt.Errorf("assembly: decode dubbed chunk %s: %w", filepath.Base(record.DubbedPath), err)
		}
		chunk, err = chunk.Conform(base.SampleRate, base.Channels)
		if err != nil {
			return pcm.Buffer{}, fmt.Errorf("assembly: conform dubbed chunk %s: %w", filepath.Base(record.DubbedPath), err)
		}
		base, err = base.Overlay(chunk, base.FrameAt(record.Start))
		if err != nil {
			return pcm.Buffer{}, fmt.Errorf("assembly: overlay %s: %w", filepath.Base(record.DubbedPath), err)
		}
	}
	return base, nil
}

func (a *Assembler) write(ctx context.Context, buf pcm.Buffer, path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("assembly: ensure output dir: %w", err)
	}
	if err := a.codec.Encode(ctx, path, buf); err != nil {
		return "", fmt.Errorf("assembly: write %s: %w", filepath.Base(path), err)
	}
	logging.WithContext(ctx, a.logger).Info("track written",
		logging.String("path", path),
		logging.Duration("track_duration", buf.Duration()),
	)
	return path, nil
}

// eligible returns the dubbed records in Start order, failing on any record
// marked for dubbing without audio.
func eligible(records []utterance.Record) ([]utterance.Record, error) {
	var out []utterance.Record
	for _, record := range records {
		if err := record.CheckDubbed(); err != nil {
			return nil, err
		}
		if record.ForDubbing {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func outputPath(dir, stem, like string) string {
	ext := filepath.Ext(like)
	if ext == "" {
		ext = ".wav"
	}
	return filepath.Join(dir, stem+ext)
}
