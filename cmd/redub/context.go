package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/services"
)

// skipConfigAnnotation marks commands that must run without a loadable
// configuration file.
const skipConfigAnnotation = "skipConfigLoad"

// commandContext carries the persistent flags and the lazily loaded config
// shared by every subcommand.
type commandContext struct {
	configPath string
	logLevel   string

	once sync.Once
	cfg  *config.Config
	err  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		c.cfg, c.err = c.load()
	})
	return c.cfg, c.err
}

func (c *commandContext) load() (*config.Config, error) {
	cfg, _, _, err := config.Load(strings.TrimSpace(c.configPath))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "load", "invalid configuration", err)
	}
	if level := strings.ToLower(strings.TrimSpace(c.logLevel)); level != "" {
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "config", "log level", "invalid --log-level", err)
		}
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func skipsConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
