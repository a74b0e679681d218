package pcm

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Conform returns b converted to the requested sample rate and channel count.
// Channels are remixed first (mono is duplicated, wider layouts are averaged
// down), then the rate is converted.
func (b Buffer) Conform(sampleRate, channels int) (Buffer, error) {
	if err := b.Validate(); err != nil {
		return Buffer{}, err
	}
	if sampleRate <= 0 || channels <= 0 {
		return Buffer{}, fmt.Errorf("pcm: invalid conform target %d Hz/%d ch", sampleRate, channels)
	}
	out := b.Remix(channels)
	if out.SampleRate == sampleRate {
		return out, nil
	}
	return out.resample(sampleRate)
}

// Remix converts the channel layout without touching the sample rate.
func (b Buffer) Remix(channels int) Buffer {
	if b.Channels == channels {
		return b
	}
	frames := b.Frames()
	out := Buffer{Samples: make([]int16, frames*channels), SampleRate: b.SampleRate, Channels: channels}
	for f := 0; f < frames; f++ {
		in := b.Samples[f*b.Channels : (f+1)*b.Channels]
		switch {
		case b.Channels == 1:
			for c := 0; c < channels; c++ {
				out.Samples[f*channels+c] = in[0]
			}
		case channels == 1:
			sum := 0
			for _, s := range in {
				sum += int(s)
			}
			out.Samples[f] = int16(sum / len(in))
		default:
			for c := 0; c < channels; c++ {
				out.Samples[f*channels+c] = in[c%len(in)]
			}
		}
	}
	return out
}

func (b Buffer) resample(sampleRate int) (Buffer, error) {
	resampler, err := resampling.New(&resampling.Config{
		InputRate:  float64(b.SampleRate),
		OutputRate: float64(sampleRate),
		Channels:   b.Channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return Buffer{}, fmt.Errorf("pcm: create resampler: %w", err)
	}

	input := make([]float64, len(b.Samples))
	for i, sample := range b.Samples {
		input[i] = float64(sample) / FullScale
	}
	output, err := resampler.Process(input)
	if err != nil {
		return Buffer{}, fmt.Errorf("pcm: resample %d Hz -> %d Hz: %w", b.SampleRate, sampleRate, err)
	}

	// The converter buffers a filter tail; pad or trim to the exact length
	// implied by the rate ratio.
	frames := int(math.Round(float64(b.Frames()) * float64(sampleRate) / float64(b.SampleRate)))
	out := Buffer{Samples: make([]int16, frames*b.Channels), SampleRate: sampleRate, Channels: b.Channels}
	n := len(output)
	if n > len(out.Samples) {
		n = len(out.Samples)
	}
	for i := 0; i < n; i++ {
		out.Samples[i] = saturate(math.Round(output[i] * FullScale))
	}
	return out, nil
}
