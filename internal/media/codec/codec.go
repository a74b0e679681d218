package codec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"redub/internal/media/pcm"
)

// FFmpegCommand is the default ffmpeg executable.
const FFmpegCommand = "ffmpeg"

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

var transcoded = map[string]string{
	"mp3":  "libmp3lame",
	"flac": "flac",
	"ogg":  "libvorbis",
	"opus": "libopus",
	"m4a":  "aac",
	"aac":  "aac",
}

// Codec reads and writes audio files.
type Codec struct {
	ffmpegBinary  string
	commandRunner CommandRunner
}

// New returns a codec that shells out to ffmpegBinary for compressed formats.
func New(ffmpegBinary string) *Codec {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Codec{ffmpegBinary: ffmpegBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Codec) WithCommandRunner(runner CommandRunner) {
	c.commandRunner = runner
}

// Format returns the lower-cased extension of path without the dot.
func Format(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Supported reports whether the codec can handle files with path's extension.
func Supported(path string) bool {
	format := Format(path)
	if format == "wav" {
		return true
	}
	_, ok := transcoded[format]
	return ok
}

// Decode reads path into memory as 16-bit PCM.
func (c *Codec) Decode(ctx context.Context, path string) (pcm.Buffer, error) {
	format := Format(path)
	if format == "wav" {
		return ReadWAV(path)
	}
	if _, ok := transcoded[format]; !ok {
		return pcm.Buffer{}, &UnsupportedFormatError{Path: path, Format: format}
	}

	tmp, cleanup, err := tempWAV(filepath.Dir(path))
	if err != nil {
		return pcm.Buffer{}, err
	}
	defer cleanup()

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", path, "-vn", "-c:a", "pcm_s16le", tmp}
	if err := c.run(ctx, c.ffmpegBinary, args...); err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return ReadWAV(tmp)
}

// Encode writes buf to path in the format implied by its extension.
func (c *Codec) Encode(ctx context.Context, path string, buf pcm.Buffer) error {
	format := Format(path)
	if format == "wav" {
		return WriteWAV(path, buf)
	}
	encoder, ok := transcoded[format]
	if !ok {
		return &UnsupportedFormatError{Path: path, Format: format}
	}

	tmp, cleanup, err := tempWAV(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer cleanup()

	if err := WriteWAV(tmp, buf); err != nil {
		return err
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", tmp, "-c:a", encoder, path}
	if err := c.run(ctx, c.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

func (c *Codec) run(ctx context.Context, name string, args ...string) error {
	if c.commandRunner != nil {
		return c.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func tempWAV(dir string) (string, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("ensure temp dir: %w", err)
	}
	file, err := os.CreateTemp(dir, ".redub-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("create temp wav: %w", err)
	}
	name := file.Name()
	_ = file.Close()
	return name, func() { _ = os.Remove(name) }, nil
}
