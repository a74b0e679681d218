package loudness_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"redub/internal/loudness"
	"redub/internal/media/codec"
	"redub/internal/media/pcm"
)

func withPeak(peak int16) pcm.Buffer {
	buf := pcm.Silence(8000, 1, 800)
	buf.Samples[400] = peak
	return buf
}

func TestAnalyzeSilence(t *testing.T) {
	a := loudness.NewAnalyzer(0, 0, nil)
	result := a.Analyze(pcm.Silence(8000, 2, 8000))
	if result.NeedsNormalization || result.MaxAmplitude != 0 {
		t.Fatalf("expected (false, 0), got %+v", result)
	}
	if a.Gain(result) != 1 {
		t.Fatal("expected unity gain for silence")
	}
}

func TestAnalyzeFullScale(t *testing.T) {
	a := loudness.NewAnalyzer(0, 0, nil)
	result := a.Analyze(withPeak(math.MinInt16))
	if !result.NeedsNormalization || result.MaxAmplitude != 1.0 {
		t.Fatalf("expected (true, 1.0), got %+v", result)
	}
	if gain := a.Gain(result); gain != 0.5 {
		t.Fatalf("expected gain 0.5, got %v", gain)
	}
}

func TestThresholdBoundary(t *testing.T) {
	a := loudness.NewAnalyzer(0.25, 0.5, nil)
	at := a.Analyze(withPeak(8192))
	if at.NeedsNormalization {
		t.Fatalf("peak exactly at threshold must not be flagged: %+v", at)
	}
	above := a.Analyze(withPeak(8193))
	if !above.NeedsNormalization {
		t.Fatalf("peak above threshold must be flagged: %+v", above)
	}
	quiet := a.Analyze(withPeak(-100))
	if quiet.NeedsNormalization {
		t.Fatalf("quiet track must not be flagged: %+v", quiet)
	}
	if a.Gain(quiet) != 1 {
		t.Fatal("expected unity gain below threshold")
	}
}

func TestAnalyzeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "background.wav")
	if err := codec.WriteWAV(path, withPeak(16384)); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	a := loudness.NewAnalyzer(0.1, 0.5, codec.New(""))
	result, err := a.AnalyzeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("AnalyzeFile returned error: %v", err)
	}
	if result.MaxAmplitude != 0.5 || !result.NeedsNormalization {
		t.Fatalf("unexpected result: %+v", result)
	}
}
