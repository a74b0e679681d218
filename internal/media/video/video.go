package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	langpkg "redub/internal/language"
	"redub/internal/logging"
	"redub/internal/services"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Subtitle is an SRT file to embed.
type Subtitle struct {
	Path     string
	Language string
	Title    string
}

// RemuxRequest describes the inputs of a remux.
type RemuxRequest struct {
	VideoPath string
	AudioPath string
	// Language tags the dubbed audio track and names the output file.
	Language  string
	OutputDir string
	Subtitles []Subtitle
}

// Muxer wraps ffmpeg for audio extraction and remuxing.
type Muxer struct {
	ffmpeg string
	logger *slog.Logger
	run    CommandRunner
}

// NewMuxer constructs a Muxer.
func NewMuxer(ffmpegBinary string, logger *slog.Logger) *Muxer {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Muxer{
		ffmpeg: ffmpegBinary,
		logger: logging.NewComponentLogger(logger, "video"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r CommandRunner) {
	if r != nil {
		m.run = r
	}
}

// ExtractAudio writes the first audio stream of videoPath to
// <outputDir>/<name>.mp3.
func (m *Muxer) ExtractAudio(ctx context.Context, videoPath, outputDir string) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", services.Wrap(services.ErrValidation, "extract audio", "stat video", videoPath, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("extract audio: ensure output dir: %w", err)
	}
	output := filepath.Join(outputDir, stem(videoPath)+".mp3")
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-map", "0:a:0",
		"-vn",
		"-c:a", "libmp3lame", "-q:a", "2",
		output,
	}
	if err := m.run(ctx, m.ffmpeg, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "extract audio", "ffmpeg", filepath.Base(videoPath), err)
	}
	if _, err := os.Stat(output); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "extract audio", "ffmpeg", "no audio produced", err)
	}
	m.logger.Info("audio extracted", logging.String("audio_path", output))
	return output, nil
}

// Remux writes <OutputDir>/<name>.<Language>.mp4 and returns its path.
func (m *Muxer) Remux(ctx context.Context, req RemuxRequest) (string, error) {
	for _, path := range []string{req.VideoPath, req.AudioPath} {
		if _, err := os.Stat(path); err != nil {
			return "", services.Wrap(services.ErrValidation, "remux", "stat input", path, err)
		}
	}
	for _, sub := range req.Subtitles {
		if _, err := os.Stat(sub.Path); err != nil {
			return "", services.Wrap(services.ErrValidation, "remux", "stat subtitle", sub.Path, err)
		}
	}
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(req.VideoPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("remux: ensure output dir: %w", err)
	}

	name := stem(req.VideoPath)
	if lang := langpkg.ToISO2(req.Language); lang != "" {
		name += "." + lang
	}
	output := filepath.Join(outputDir, name+".mp4")
	tmpPath := filepath.Join(outputDir, ".remux-"+name+".tmp")

	m.logger.Debug("executing ffmpeg remux",
		logging.String("video_path", req.VideoPath),
		logging.String("audio_path", req.AudioPath),
		logging.Int("subtitle_count", len(req.Subtitles)),
	)
	if err := m.run(ctx, m.ffmpeg, buildRemuxArgs(req, tmpPath)...); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrExternalTool, "remux", "ffmpeg", filepath.Base(req.VideoPath), err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "remux", "ffmpeg", "no output produced", err)
	}
	if err := os.Rename(tmpPath, output); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("remux: replace output: %w", err)
	}
	m.logger.Info("dubbed video written",
		logging.String(logging.FieldEventType, "remux_complete"),
		logging.String("output_path", output),
		logging.Int("subtitles", len(req.Subtitles)),
	)
	return output, nil
}

func buildRemuxArgs(req RemuxRequest, outputPath string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", req.VideoPath, "-i", req.AudioPath}
	for _, sub := range req.Subtitles {
		args = append(args, "-i", sub.Path)
	}
	args = append(args, "-map", "0:v:0", "-map", "1:a:0")
	for i := range req.Subtitles {
		args = append(args, "-map", strconv.Itoa(i+2)+":0")
	}
	args = append(args, "-c:v", "copy", "-c:a", "aac", "-b:a", "192k")
	if lang := langpkg.ToISO3(req.Language); lang != "und" {
		args = append(args, "-metadata:s:a:0", "language="+lang)
	}
	if len(req.Subtitles) > 0 {
		args = append(args, "-c:s", "mov_text")
	}
	for i, sub := range req.Subtitles {
		index := strconv.Itoa(i)
		args = append(args, "-metadata:s:s:"+index, "language="+langpkg.ToISO3(sub.Language))
		if sub.Title != "" {
			args = append(args, "-metadata:s:s:"+index, "title="+sub.Title)
		}
	}
	return append(args, "-movflags", "+faststart", "-f", "mp4", outputPath)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
