package separation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"redub/internal/logging"
	"redub/internal/services"
)

// Demucs defaults.
const (
	DefaultModel = "htdemucs"
	UVXCommand   = "uvx"
	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"

	vocalsStem     = "vocals.wav"
	backgroundStem = "no_vocals.wav"
)

// Config captures Demucs runtime settings.
type Config struct {
	Model       string
	CUDAEnabled bool
}

// Result names the separated stems.
type Result struct {
	Vocals     string
	Background string
}

// Separator runs Demucs two-stem separation.
type Separator struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// New returns a Separator.
func New(cfg Config, logger *slog.Logger) *Separator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Separator{cfg: cfg, logger: logging.NewComponentLogger(logger, "separation")}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Separator) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Separate splits audioPath into vocals and background stems under outputDir.
// Demucs writes <outputDir>/<model>/<name>/{vocals,no_vocals}.wav.
func (s *Separator) Separate(ctx context.Context, audioPath, outputDir string) (Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "separation", "demucs", "input audio missing", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("separation: ensure output dir: %w", err)
	}

	started := time.Now()
	if err := s.run(ctx, UVXCommand, s.buildArgs(audioPath, outputDir)...); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "separation", "demucs", filepath.Base(audioPath), err)
	}

	name := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	stemDir := filepath.Join(outputDir, s.cfg.Model, name)
	result := Result{
		Vocals:     filepath.Join(stemDir, vocalsStem),
		Background: filepath.Join(stemDir, backgroundStem),
	}
	for _, path := range []string{result.Vocals, result.Background} {
		if _, err := os.Stat(path); err != nil {
			return Result{}, services.Wrap(services.ErrExternalTool, "separation", "demucs", "expected stem not produced", err)
		}
	}
	s.logger.Info("audio separated",
		logging.String("vocals", result.Vocals),
		logging.String("background", result.Background),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (s *Separator) buildArgs(audioPath, outputDir string) []string {
	args := make([]string, 0, 16)
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	device := "cpu"
	if s.cfg.CUDAEnabled {
		device = "cuda"
	}
	return append(args,
		"demucs",
		"--two-stems", "vocals",
		"-n", s.cfg.Model,
		"-d", device,
		"-o", outputDir,
		audioPath,
	)
}

func (s *Separator) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(lastLines(string(output), 5)))
	}
	return nil
}

func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
