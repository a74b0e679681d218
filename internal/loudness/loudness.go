package loudness

import (
	"context"
	"fmt"

	"redub/internal/media/pcm"
)

// Default tuning values.
const (
	DefaultThreshold  = 0.1
	DefaultTargetPeak = 0.5
)

// Result describes a track's peak level.
type Result struct {
	// NeedsNormalization is true when MaxAmplitude exceeds the threshold.
	NeedsNormalization bool
	// MaxAmplitude is the peak absolute sample as a fraction of full scale.
	MaxAmplitude float64
}

// Decoder loads an audio file as PCM.
type Decoder interface {
	Decode(ctx context.Context, path string) (pcm.Buffer, error)
}

// Analyzer measures peak amplitude against a threshold.
type Analyzer struct {
	Threshold  float64
	TargetPeak float64
	decoder    Decoder
}

// NewAnalyzer returns an analyzer. Non-positive values fall back to the
// defaults.
func NewAnalyzer(threshold, targetPeak float64, decoder Decoder) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if targetPeak <= 0 {
		targetPeak = DefaultTargetPeak
	}
	return &Analyzer{Threshold: threshold, TargetPeak: targetPeak, decoder: decoder}
}

// Analyze inspects buf. Silence yields the zero Result.
func (a *Analyzer) Analyze(buf pcm.Buffer) Result {
	peak := buf.Peak()
	if peak == 0 {
		return Result{}
	}
	amplitude := float64(peak) / pcm.FullScale
	return Result{
		NeedsNormalization: amplitude > a.Threshold,
		MaxAmplitude:       amplitude,
	}
}

// AnalyzeFile decodes path and analyzes it.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (Result, error) {
	if a.decoder == nil {
		return Result{}, fmt.Errorf("loudness: no decoder configured")
	}
	buf, err := a.decoder.Decode(ctx, path)
	if err != nil {
		return Result{}, fmt.Errorf("loudness: decode %s: %w", path, err)
	}
	return a.Analyze(buf), nil
}

// Gain returns the linear factor that brings a flagged track's peak to
// TargetPeak, or 1 when no normalization is needed.
func (a *Analyzer) Gain(result Result) float64 {
	if !result.NeedsNormalization || result.MaxAmplitude <= 0 {
		return 1
	}
	return a.TargetPeak / result.MaxAmplitude
}
