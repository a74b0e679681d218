package pcm_test

import (
	"math"
	"testing"

	"redub/internal/media/pcm"
)

func ramp(frames int) pcm.Buffer {
	buf := pcm.Silence(1000, 1, frames)
	for i := range buf.Samples {
		buf.Samples[i] = int16(i + 1)
	}
	return buf
}

func TestSliceCopiesAndClamps(t *testing.T) {
	buf := ramp(10)
	part := buf.Slice(2, 5)
	if part.Frames() != 3 {
		t.Fatalf("expected 3 frames, got %d", part.Frames())
	}
	if part.Samples[0] != 3 || part.Samples[2] != 5 {
		t.Fatalf("unexpected slice contents: %v", part.Samples)
	}
	part.Samples[0] = 99
	if buf.Samples[2] != 3 {
		t.Fatal("slice must not alias the source buffer")
	}
	if tail := buf.Slice(8, 50); tail.Frames() != 2 {
		t.Fatalf("expected clamped slice of 2 frames, got %d", tail.Frames())
	}
}

func TestPeakHandlesMinimumSample(t *testing.T) {
	buf := pcm.Silence(8000, 1, 4)
	buf.Samples[1] = math.MinInt16
	buf.Samples[2] = 1200
	if got := buf.Peak(); got != pcm.FullScale {
		t.Fatalf("expected peak %d, got %d", pcm.FullScale, got)
	}
	if pcm.Silence(8000, 2, 10).Peak() != 0 {
		t.Fatal("expected zero peak for silence")
	}
}

func TestApplyGainSaturates(t *testing.T) {
	buf := pcm.Buffer{Samples: []int16{100, -100, 20000, -20000}, SampleRate: 8000, Channels: 1}
	buf.ApplyGain(2)
	want := []int16{200, -200, math.MaxInt16, math.MinInt16}
	for i := range want {
		if buf.Samples[i] != want[i] {
			t.Fatalf("sample %d: want %d, got %d", i, want[i], buf.Samples[i])
		}
	}
}

func TestOverlayExtendsAndSaturates(t *testing.T) {
	base := pcm.Buffer{Samples: []int16{30000, 10, 10}, SampleRate: 8000, Channels: 1}
	chunk := pcm.Buffer{Samples: []int16{10000, 5, 5, 5}, SampleRate: 8000, Channels: 1}

	out, err := base.Overlay(chunk, 0)
	if err != nil {
		t.Fatalf("Overlay returned error: %v", err)
	}
	if out.Frames() != 4 {
		t.Fatalf("expected output to grow to 4 frames, got %d", out.Frames())
	}
	if out.Samples[0] != math.MaxInt16 {
		t.Fatalf("expected saturation, got %d", out.Samples[0])
	}
	if out.Samples[1] != 15 || out.Samples[3] != 5 {
		t.Fatalf("unexpected sums: %v", out.Samples)
	}

	if _, err := base.Overlay(pcm.Buffer{SampleRate: 16000, Channels: 1}, 0); err == nil {
		t.Fatal("expected format mismatch error")
	}
}

func TestMixUsesLongerLength(t *testing.T) {
	short := pcm.Buffer{Samples: []int16{1, 1}, SampleRate: 8000, Channels: 1}
	long := pcm.Buffer{Samples: []int16{2, 2, 2, 2}, SampleRate: 8000, Channels: 1}
	out, err := pcm.Mix(short, long)
	if err != nil {
		t.Fatalf("Mix returned error: %v", err)
	}
	if out.Frames() != 4 || out.Samples[0] != 3 || out.Samples[3] != 2 {
		t.Fatalf("unexpected mix: %v", out.Samples)
	}
	if long.Samples[0] != 2 {
		t.Fatal("Mix must not modify its inputs")
	}
}

func TestRemixMonoStereo(t *testing.T) {
	mono := pcm.Buffer{Samples: []int16{4, -8}, SampleRate: 8000, Channels: 1}
	stereo := mono.Remix(2)
	if stereo.Frames() != 2 || stereo.Samples[0] != 4 || stereo.Samples[1] != 4 || stereo.Samples[3] != -8 {
		t.Fatalf("unexpected stereo remix: %v", stereo.Samples)
	}
	back := pcm.Buffer{Samples: []int16{10, 20, -4, 0}, SampleRate: 8000, Channels: 2}.Remix(1)
	if back.Samples[0] != 15 || back.Samples[1] != -2 {
		t.Fatalf("unexpected mono downmix: %v", back.Samples)
	}
}

func TestConformResamplesToExpectedLength(t *testing.T) {
	buf := pcm.Silence(16000, 1, 16000)
	for i := range buf.Samples {
		buf.Samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	out, err := buf.Conform(48000, 2)
	if err != nil {
		t.Fatalf("Conform returned error: %v", err)
	}
	if out.SampleRate != 48000 || out.Channels != 2 {
		t.Fatalf("unexpected layout: %d Hz %d ch", out.SampleRate, out.Channels)
	}
	if out.Frames() != 48000 {
		t.Fatalf("expected 48000 frames, got %d", out.Frames())
	}
	if out.Peak() == 0 {
		t.Fatal("expected resampled signal to carry energy")
	}
}

func TestFrameAtRounds(t *testing.T) {
	buf := pcm.Silence(44100, 1, 0)
	if got := buf.FrameAt(0.5); got != 22050 {
		t.Fatalf("expected 22050, got %d", got)
	}
	if got := buf.FrameAt(1.00001); got != 44100 {
		t.Fatalf("expected rounding to 44100, got %d", got)
	}
}
