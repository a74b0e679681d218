package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "redub/internal/language"
	"redub/internal/services"
)

// WhisperX invocation settings.
const (
	DefaultModel      = "large-v3"
	Command           = "uvx"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"
)

// Config captures runtime settings for WhisperX transcription.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote"; the latter needs HFToken.
	VADMethod string
	HFToken   string
}

// CommandRunner executes a command with extra environment and returns its
// combined output.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

// TranscribeResult is the outcome for one chunk.
type TranscribeResult struct {
	Text string
	// Language is the ISO 639-1 code WhisperX reported, or the requested one.
	Language string
	JSONPath string
}

// Service transcribes chunks one at a time through uvx.
type Service struct {
	cfg Config
	run CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.VADMethod == "" {
		cfg.VADMethod = VADMethodSilero
	}
	return &Service{cfg: cfg, run: runCommand}
}

// WithCommandRunner replaces process execution, mainly for tests.
func (s *Service) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		s.run = runner
	}
}

// Model returns the configured model name.
func (s *Service) Model() string { return s.cfg.Model }

// Transcribe writes <chunk>.json into outputDir and returns its text. An
// empty language asks WhisperX to detect it.
func (s *Service) Transcribe(ctx context.Context, chunkPath, outputDir, language string) (TranscribeResult, error) {
	if chunkPath == "" {
		return TranscribeResult{}, services.Wrap(services.ErrValidation, "transcription", "whisperx", "chunk path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(chunkPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return TranscribeResult{}, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	// torch >= 2.6 defaults torch.load to weights_only, which the WhisperX
	// alignment and VAD checkpoints do not load under.
	env := []string{"TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1"}
	if output, err := s.run(ctx, env, Command, s.args(chunkPath, outputDir, language)...); err != nil {
		return TranscribeResult{}, services.Wrap(services.ErrExternalTool, "transcription", "whisperx",
			filepath.Base(chunkPath), fmt.Errorf("%w: %s", err, lastLine(string(output))))
	}

	jsonPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(chunkPath), filepath.Ext(chunkPath))+".json")
	doc, err := readTranscript(jsonPath)
	if err != nil {
		return TranscribeResult{}, services.Wrap(services.ErrExternalTool, "transcription", "read whisperx output", filepath.Base(jsonPath), err)
	}
	result := TranscribeResult{Text: doc.text(), Language: langpkg.ToISO2(doc.Language), JSONPath: jsonPath}
	if result.Language == "" {
		result.Language = langpkg.ToISO2(language)
	}
	return result, nil
}

func (s *Service) args(chunkPath, outputDir, language string) []string {
	var args []string
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	args = append(args,
		"whisperx", chunkPath,
		"--model", s.cfg.Model,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--batch_size", "4",
		"--chunk_size", "15",
		"--beam_size", "5",
		"--temperature", "0.0",
		"--vad_method", s.cfg.VADMethod,
	)
	if s.cfg.VADMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}
	if s.cfg.CUDAEnabled {
		return append(args, "--device", "cuda")
	}
	return append(args, "--device", "cpu", "--compute_type", "float32")
}

type transcript struct {
	Language string `json:"language"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

func (t transcript) text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func readTranscript(path string) (transcript, error) {
	var doc transcript
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse whisperx json: %w", err)
	}
	return doc, nil
}

func runCommand(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
