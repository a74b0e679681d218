package tts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"redub/internal/services"
)

// UVXCommand launches edge-tts.
const UVXCommand = "uvx"

// CommandRunner runs a command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Edge synthesizes speech with Microsoft Edge's online voices via edge-tts.
type Edge struct {
	commandRunner CommandRunner
}

// NewEdge returns an edge-tts provider.
func NewEdge() *Edge {
	return &Edge{commandRunner: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Edge) WithCommandRunner(runner CommandRunner) {
	e.commandRunner = runner
}

// Name identifies the provider.
func (e *Edge) Name() string { return "edge" }

// OutputExt is the format edge-tts writes.
func (e *Edge) OutputExt() string { return "mp3" }

// Voices lists edge-tts voices.
func (e *Edge) Voices(ctx context.Context) ([]Voice, error) {
	out, err := e.commandRunner(ctx, UVXCommand, "edge-tts", "--list-voices")
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "tts", "edge-tts list voices", "", err)
	}
	return parseEdgeVoices(out), nil
}

// Synthesize writes text to outputPath as mp3.
func (e *Edge) Synthesize(ctx context.Context, text string, voice Voice, outputPath string) error {
	if _, err := e.commandRunner(ctx, UVXCommand, "edge-tts",
		"--voice", voice.ID,
		"--text", text,
		"--write-media", outputPath,
	); err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "edge-tts", voice.ID, err)
	}
	return nil
}

// parseEdgeVoices accepts both the "Name: x / Gender: y" listing and the
// tabular listing printed by newer edge-tts releases.
func parseEdgeVoices(out []byte) []Voice {
	var voices []Voice
	var current Voice
	flush := func() {
		if current.ID != "" {
			current.Locale = localeFromVoiceID(current.ID)
			voices = append(voices, current)
		}
		current = Voice{}
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "Name:"):
			flush()
			current.ID = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		case strings.HasPrefix(line, "ShortName:"):
			current.ID = strings.TrimSpace(strings.TrimPrefix(line, "ShortName:"))
		case strings.HasPrefix(line, "Gender:"):
			current.Gender = strings.TrimSpace(strings.TrimPrefix(line, "Gender:"))
		case strings.HasPrefix(line, "Name ") || strings.HasPrefix(line, "---"):
		case strings.Contains(line, ":"):
		default:
			fields := strings.Fields(line)
			if len(fields) >= 2 && strings.Count(fields[0], "-") >= 2 {
				flush()
				current = Voice{ID: fields[0], Gender: fields[1]}
				flush()
			}
		}
	}
	flush()
	return voices
}

// localeFromVoiceID turns "en-US-AriaNeural" into "en-US".
func localeFromVoiceID(id string) string {
	parts := strings.Split(id, "-")
	if len(parts) < 3 {
		return id
	}
	return strings.Join(parts[:len(parts)-1], "-")
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
