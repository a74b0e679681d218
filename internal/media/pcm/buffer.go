package pcm

import (
	"fmt"
	"math"
	"time"
)

// FullScale is the magnitude of the most negative int16 sample.
const FullScale = 32768

// Buffer is interleaved signed 16-bit PCM audio.
type Buffer struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Silence returns a zeroed buffer holding frames frames.
func Silence(sampleRate, channels, frames int) Buffer {
	if frames < 0 {
		frames = 0
	}
	return Buffer{
		Samples:    make([]int16, frames*channels),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// Validate reports whether the buffer layout is coherent.
func (b Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("pcm: invalid sample rate %d", b.SampleRate)
	}
	if b.Channels <= 0 {
		return fmt.Errorf("pcm: invalid channel count %d", b.Channels)
	}
	if len(b.Samples)%b.Channels != 0 {
		return fmt.Errorf("pcm: %d samples is not a whole number of %d-channel frames", len(b.Samples), b.Channels)
	}
	return nil
}

// Frames returns the number of sample frames in the buffer.
func (b Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Seconds returns the buffer duration in seconds.
func (b Buffer) Seconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Duration returns the buffer duration.
func (b Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// FrameAt converts a timestamp in seconds to the nearest frame index.
func (b Buffer) FrameAt(seconds float64) int {
	return int(math.Round(seconds * float64(b.SampleRate)))
}

// Slice returns a copy of frames [start, end). Bounds are clamped to the
// buffer.
func (b Buffer) Slice(start, end int) Buffer {
	frames := b.Frames()
	start = clamp(start, 0, frames)
	end = clamp(end, start, frames)
	samples := make([]int16, (end-start)*b.Channels)
	copy(samples, b.Samples[start*b.Channels:end*b.Channels])
	return Buffer{Samples: samples, SampleRate: b.SampleRate, Channels: b.Channels}
}

// Clone returns a deep copy of the buffer.
func (b Buffer) Clone() Buffer {
	samples := make([]int16, len(b.Samples))
	copy(samples, b.Samples)
	return Buffer{Samples: samples, SampleRate: b.SampleRate, Channels: b.Channels}
}

// Peak returns the largest absolute sample value, in the range [0, FullScale].
func (b Buffer) Peak() int {
	peak := 0
	for _, sample := range b.Samples {
		v := int(sample)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// IsSilent reports whether every sample is zero.
func (b Buffer) IsSilent() bool {
	for _, sample := range b.Samples {
		if sample != 0 {
			return false
		}
	}
	return true
}

// ApplyGain scales every sample in place, saturating at the int16 bounds.
func (b Buffer) ApplyGain(gain float64) {
	if gain == 1 {
		return
	}
	for i, sample := range b.Samples {
		b.Samples[i] = saturate(math.Round(float64(sample) * gain))
	}
}

// Overlay adds src into b starting at frame offset and returns the result.
// The destination grows when src runs past its end; samples sum with int16
// saturation. Both buffers must share rate and channel layout.
func (b Buffer) Overlay(src Buffer, offset int) (Buffer, error) {
	if src.SampleRate != b.SampleRate || src.Channels != b.Channels {
		return b, fmt.Errorf("pcm: overlay format mismatch (%d Hz/%d ch onto %d Hz/%d ch)",
			src.SampleRate, src.Channels, b.SampleRate, b.Channels)
	}
	if offset < 0 {
		return b, fmt.Errorf("pcm: negative overlay offset %d", offset)
	}
	need := (offset + src.Frames()) * b.Channels
	if need > len(b.Samples) {
		grown := make([]int16, need)
		copy(grown, b.Samples)
		b.Samples = grown
	}
	base := offset * b.Channels
	for i, sample := range src.Samples {
		b.Samples[base+i] = saturate(float64(b.Samples[base+i]) + float64(sample))
	}
	return b, nil
}

// Mix sums two buffers of the same layout. The result is as long as the
// longer input.
func Mix(a, c Buffer) (Buffer, error) {
	if a.Frames() < c.Frames() {
		a, c = c, a
	}
	return a.Clone().Overlay(c, 0)
}

func saturate(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
