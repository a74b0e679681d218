package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"redub/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int               `json:"index"`
	CodecName  string            `json:"codec_name"`
	CodecType  string            `json:"codec_type"`
	Duration   string            `json:"duration"`
	SampleRate string            `json:"sample_rate"`
	Channels   int               `json:"channels"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Tags       map[string]string `json:"tags"`
}

// Language returns the stream's language tag, if any.
func (s Stream) Language() string {
	return strings.TrimSpace(s.Tags["language"])
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Runner executes ffprobe and returns its stdout.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Prober inspects media files.
type Prober struct {
	binary string
	runner Runner
}

// New returns a Prober for binary (defaults to "ffprobe").
func New(binary string) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary, runner: defaultRunner}
}

// WithRunner sets a custom runner (for testing).
func (p *Prober) WithRunner(runner Runner) {
	p.runner = runner
}

// Inspect executes ffprobe against path and decodes the JSON response.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	output, err := p.runner(ctx, p.binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", path, err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "probe", "parse ffprobe output", path, err)
	}
	return result, nil
}

// ValidateVideo checks that path is an MP4 container with video and audio.
// Failures are tagged ErrValidation.
func (p *Prober) ValidateVideo(ctx context.Context, path string) (Result, error) {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "probe", "validate video", "not a readable media file", err)
	}
	if !result.IsMP4() {
		return Result{}, services.Wrap(services.ErrValidation, "probe", "validate video", fmt.Sprintf("container %q is not mp4", result.Format.FormatName), nil)
	}
	if result.VideoStreamCount() == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "probe", "validate video", "no video stream", nil)
	}
	if result.AudioStreamCount() == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "probe", "validate video", "no audio stream", nil)
	}
	return result, nil
}

// IsMP4 reports whether ffprobe identified an ISO base media container.
func (r Result) IsMP4() bool {
	for _, name := range strings.Split(r.Format.FormatName, ",") {
		if strings.TrimSpace(name) == "mp4" {
			return true
		}
	}
	return false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return len(r.streamsOfType("video"))
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return len(r.streamsOfType("audio"))
}

// FirstAudioStream returns the first audio stream.
func (r Result) FirstAudioStream() (Stream, bool) {
	streams := r.streamsOfType("audio")
	if len(streams) == 0 {
		return Stream{}, false
	}
	return streams[0], true
}

// DurationSeconds returns the container duration in seconds, 0 when absent,
// or NaN when ffprobe reported something unparsable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

func (r Result) streamsOfType(codecType string) []Stream {
	var out []Stream
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			out = append(out, stream)
		}
	}
	return out
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

func defaultRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return output, nil
}
