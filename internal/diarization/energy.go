package diarization

import (
	"context"
	"fmt"
	"math"

	"redub/internal/media/pcm"
)

// EnergySpeaker labels every span found by the energy engine.
const EnergySpeaker = "SPEAKER_00"

// Energy engine defaults.
const (
	DefaultFrameMS         = 20
	DefaultEnergyThreshold = 0.02
	DefaultMinSilenceMS    = 500
	DefaultMinSpeechMS     = 250
)

// Decoder loads an audio file as PCM.
type Decoder interface {
	Decode(ctx context.Context, path string) (pcm.Buffer, error)
}

// EnergyConfig tunes the energy gate.
type EnergyConfig struct {
	// Threshold is the frame RMS, as a fraction of full scale, at or above
	// which a frame counts as speech.
	Threshold    float64
	FrameMS      int
	MinSilenceMS int
	MinSpeechMS  int
}

// Energy detects speech by frame RMS over decoded PCM.
type Energy struct {
	cfg     EnergyConfig
	decoder Decoder
}

// NewEnergy returns an energy engine. Zero config values use the defaults.
func NewEnergy(cfg EnergyConfig, decoder Decoder) *Energy {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultEnergyThreshold
	}
	if cfg.FrameMS <= 0 {
		cfg.FrameMS = DefaultFrameMS
	}
	if cfg.MinSilenceMS <= 0 {
		cfg.MinSilenceMS = DefaultMinSilenceMS
	}
	if cfg.MinSpeechMS <= 0 {
		cfg.MinSpeechMS = DefaultMinSpeechMS
	}
	return &Energy{cfg: cfg, decoder: decoder}
}

// Name identifies the engine.
func (e *Energy) Name() string { return "energy" }

// Diarize decodes audioPath and gates it.
func (e *Energy) Diarize(ctx context.Context, audioPath string) ([]Track, error) {
	buf, err := e.decoder.Decode(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("energy diarization: decode %s: %w", audioPath, err)
	}
	return e.Segment(buf), nil
}

// Segment returns the speech spans in buf.
func (e *Energy) Segment(buf pcm.Buffer) []Track {
	mono := buf.Remix(1)
	if mono.SampleRate <= 0 {
		return nil
	}
	frame := mono.SampleRate * e.cfg.FrameMS / 1000
	if frame <= 0 {
		frame = 1
	}
	frameSec := float64(frame) / float64(mono.SampleRate)
	duration := mono.Seconds()

	var spans [][2]float64
	open := -1.0
	for i := 0; i*frame < len(mono.Samples); i++ {
		end := min((i+1)*frame, len(mono.Samples))
		voiced := frameRMS(mono.Samples[i*frame:end]) >= e.cfg.Threshold
		start := float64(i) * frameSec
		switch {
		case voiced && open < 0:
			open = start
		case !voiced && open >= 0:
			spans = append(spans, [2]float64{open, start})
			open = -1
		}
	}
	if open >= 0 {
		spans = append(spans, [2]float64{open, duration})
	}

	spans = mergeGaps(spans, float64(e.cfg.MinSilenceMS)/1000)
	minSpeech := float64(e.cfg.MinSpeechMS) / 1000
	tracks := make([]Track, 0, len(spans))
	for _, span := range spans {
		if span[1]-span[0] < minSpeech {
			continue
		}
		tracks = append(tracks, Track{Start: span[0], End: math.Min(span[1], duration), Speaker: EnergySpeaker})
	}
	return tracks
}

func frameRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		x := float64(s) / pcm.FullScale
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func mergeGaps(spans [][2]float64, maxGap float64) [][2]float64 {
	if len(spans) == 0 {
		return spans
	}
	out := [][2]float64{spans[0]}
	for _, span := range spans[1:] {
		last := &out[len(out)-1]
		if span[0]-last[1] < maxGap {
			last[1] = span[1]
			continue
		}
		out = append(out, span)
	}
	return out
}
