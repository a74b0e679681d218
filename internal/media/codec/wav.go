package codec

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"redub/internal/media/pcm"
)

// ReadWAV decodes a PCM WAV file. 16, 24 and 32-bit sources are narrowed to
// 16-bit samples.
func ReadWAV(path string) (pcm.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return pcm.Buffer{}, &UnsupportedFormatError{Path: path, Format: "wav", Reason: "not a valid PCM wav file"}
	}
	intBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("read wav pcm: %w", err)
	}

	shift := 0
	switch depth := int(decoder.BitDepth); depth {
	case 16:
	case 24:
		shift = 8
	case 32:
		shift = 16
	default:
		return pcm.Buffer{}, &UnsupportedFormatError{Path: path, Format: "wav", Reason: fmt.Sprintf("%d-bit samples", depth)}
	}

	samples := make([]int16, len(intBuf.Data))
	for i, v := range intBuf.Data {
		samples[i] = int16(v >> shift)
	}
	buf := pcm.Buffer{
		Samples:    samples,
		SampleRate: intBuf.Format.SampleRate,
		Channels:   intBuf.Format.NumChannels,
	}
	if err := buf.Validate(); err != nil {
		return pcm.Buffer{}, fmt.Errorf("read wav %s: %w", path, err)
	}
	return buf, nil
}

// WriteWAV writes buf as a 16-bit PCM WAV file, replacing any existing file.
func WriteWAV(path string, buf pcm.Buffer) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	encoder := wav.NewEncoder(file, buf.SampleRate, 16, buf.Channels, 1)
	data := make([]int, len(buf.Samples))
	for i, sample := range buf.Samples {
		data[i] = int(sample)
	}
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: buf.Channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(intBuf); err != nil {
		_ = file.Close()
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}
