package tts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"redub/internal/services"
)

// CLIConfig describes a local command-line synthesizer.
//
//	{
//	  "command": ["piper", "--model", "{voice}", "--output_file", "{output}", "--text", "{text}"],
//	  "output_format": "wav",
//	  "voices": [{"id": "es_ES-davefx-medium.onnx", "locale": "es-ES", "gender": "Male"}]
//	}
type CLIConfig struct {
	Command      []string `json:"command"`
	OutputFormat string   `json:"output_format"`
	Voices       []Voice  `json:"voices"`
}

// LoadCLIConfig reads and validates a CLI synthesizer config file.
func LoadCLIConfig(path string) (CLIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CLIConfig{}, services.Wrap(services.ErrConfiguration, "tts", "load cli config", path, err)
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, services.Wrap(services.ErrConfiguration, "tts", "parse cli config", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return CLIConfig{}, services.Wrap(services.ErrConfiguration, "tts", "validate cli config", path, err)
	}
	return cfg, nil
}

// Validate checks the command template and voice catalogue.
func (c CLIConfig) Validate() error {
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return errors.New("command must name an executable")
	}
	hasOutput := false
	for _, arg := range c.Command {
		if strings.Contains(arg, "{output}") {
			hasOutput = true
		}
	}
	if !hasOutput {
		return errors.New("command must contain an {output} placeholder")
	}
	if len(c.Voices) == 0 {
		return errors.New("at least one voice is required")
	}
	for i, voice := range c.Voices {
		if voice.ID == "" || voice.Locale == "" {
			return fmt.Errorf("voice %d needs id and locale", i)
		}
	}
	return nil
}

// CLI synthesizes speech by running a configured command.
type CLI struct {
	config        CLIConfig
	commandRunner CommandRunner
}

// NewCLI returns a provider for cfg.
func NewCLI(cfg CLIConfig) *CLI {
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "wav"
	}
	return &CLI{config: cfg, commandRunner: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *CLI) WithCommandRunner(runner CommandRunner) {
	c.commandRunner = runner
}

// Name identifies the provider.
func (c *CLI) Name() string { return "cli" }

// OutputExt is the configured output format.
func (c *CLI) OutputExt() string { return strings.TrimPrefix(c.config.OutputFormat, ".") }

// Voices returns the configured catalogue.
func (c *CLI) Voices(context.Context) ([]Voice, error) {
	return append([]Voice(nil), c.config.Voices...), nil
}

// Synthesize runs the command template with placeholders substituted.
func (c *CLI) Synthesize(ctx context.Context, text string, voice Voice, outputPath string) error {
	replacer := strings.NewReplacer("{text}", text, "{voice}", voice.ID, "{output}", outputPath)
	args := make([]string, len(c.config.Command))
	for i, arg := range c.config.Command {
		args[i] = replacer.Replace(arg)
	}
	if _, err := c.commandRunner(ctx, args[0], args[1:]...); err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "cli synthesize", voice.ID, err)
	}
	if _, err := os.Stat(outputPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "cli synthesize", "command produced no output", err)
	}
	return nil
}
