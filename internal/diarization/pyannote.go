package diarization

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"redub/internal/services"
)

// Pyannote defaults.
const (
	DefaultPyannoteModel = "pyannote/speaker-diarization-3.1"
	UVXCommand           = "uvx"
	CUDAIndexURL         = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL         = "https://pypi.org/simple"
)

// pyannoteScript runs the diarization pipeline and prints the speaker turns
// as JSON. Audio is loaded through torchaudio so pyannote never touches
// torchcodec.
const pyannoteScript = `#!/usr/bin/env python3
import argparse
import json
import os
import sys
import warnings

warnings.filterwarnings("ignore", message=".*torchcodec.*")

import torch
import torchaudio
from pyannote.audio import Pipeline


def load_audio(path, sample_rate=16000):
    waveform, sr = torchaudio.load(path)
    if sr != sample_rate:
        waveform = torchaudio.transforms.Resample(sr, sample_rate)(waveform)
    if waveform.shape[0] > 1:
        waveform = waveform.mean(dim=0, keepdim=True)
    return {"waveform": waveform, "sample_rate": sample_rate}


def main():
    parser = argparse.ArgumentParser()
    parser.add_argument("--audio", required=True)
    parser.add_argument("--model", required=True)
    parser.add_argument("--device", default="cpu")
    args = parser.parse_args()
    try:
        token = os.environ.get("HF_TOKEN", "")
        pipeline = Pipeline.from_pretrained(args.model, token=token)
        pipeline.to(torch.device(args.device))
        result = pipeline(load_audio(args.audio))
        annotation = result.speaker_diarization if hasattr(result, "speaker_diarization") else result
        segments = [
            {"start": float(turn.start), "end": float(turn.end), "speaker": str(speaker)}
            for turn, _, speaker in annotation.itertracks(yield_label=True)
        ]
        print(json.dumps({"segments": segments}))
    except Exception as e:
        print(json.dumps({"error": str(e)}), file=sys.stderr)
        sys.exit(1)


if __name__ == "__main__":
    main()
`

// CommandRunner executes name with args and extra environment, returning
// stdout. Failures should carry stderr in the error.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

// PyannoteConfig configures the pyannote engine.
type PyannoteConfig struct {
	Model       string
	HFToken     string
	CUDAEnabled bool
	// WorkDir receives the generated script.
	WorkDir string
}

// Pyannote diarizes audio with pyannote.audio via uvx.
type Pyannote struct {
	cfg           PyannoteConfig
	commandRunner CommandRunner
}

type pyannoteOutput struct {
	Segments []Track `json:"segments"`
	Error    string  `json:"error,omitempty"`
}

// NewPyannote returns a pyannote engine.
func NewPyannote(cfg PyannoteConfig) *Pyannote {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultPyannoteModel
	}
	return &Pyannote{cfg: cfg, commandRunner: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *Pyannote) WithCommandRunner(runner CommandRunner) {
	p.commandRunner = runner
}

// Name identifies the engine.
func (p *Pyannote) Name() string { return "pyannote" }

// Diarize runs the pyannote pipeline over audioPath.
func (p *Pyannote) Diarize(ctx context.Context, audioPath string) ([]Track, error) {
	token := strings.TrimSpace(p.cfg.HFToken)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "diarization", "pyannote", "a Hugging Face token is required (set HF_TOKEN or --hugging-face-token)", nil)
	}
	workDir := p.cfg.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("pyannote: ensure work dir: %w", err)
	}
	scriptPath := filepath.Join(workDir, "diarize.py")
	if err := os.WriteFile(scriptPath, []byte(pyannoteScript), 0o644); err != nil {
		return nil, fmt.Errorf("pyannote: write script: %w", err)
	}
	defer os.Remove(scriptPath)

	env := []string{"HF_TOKEN=" + token}
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	stdout, err := p.commandRunner(ctx, env, UVXCommand, p.buildArgs(scriptPath, audioPath)...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "diarization", "pyannote", pyannoteHint(err), err)
	}

	var out pyannoteOutput
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &out); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "diarization", "parse pyannote output", "", err)
	}
	if out.Error != "" {
		return nil, services.Wrap(services.ErrExternalTool, "diarization", "pyannote", out.Error, nil)
	}
	return out.Segments, nil
}

func (p *Pyannote) buildArgs(scriptPath, audioPath string) []string {
	args := []string{
		"--quiet",
		"--with", "pyannote.audio",
		"--with", "torchaudio",
		"--with", "soundfile",
		"--with", "omegaconf",
	}
	device := "cpu"
	if p.cfg.CUDAEnabled {
		device = "cuda"
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	}
	return append(args, "python", scriptPath,
		"--audio", audioPath,
		"--model", p.cfg.Model,
		"--device", device,
	)
}

func pyannoteHint(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "GatedRepoError") || strings.Contains(msg, "401") {
		return "Hugging Face model access denied; accept the terms at https://hf.co/pyannote/speaker-diarization-3.1 and retry"
	}
	return "diarization script failed"
}

func runCommand(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var payload pyannoteOutput
		if json.Unmarshal(stderr.Bytes(), &payload) == nil && payload.Error != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, payload.Error)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, lastLine(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
