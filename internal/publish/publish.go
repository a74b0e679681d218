package publish

import (
	"context"
	"log/slog"

	"redub/internal/config"
)

// Publisher delivers files and returns their destinations.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, files []string) ([]string, error)
}

// New returns the publisher configured in cfg, or nil when publishing is
// disabled.
func New(cfg *config.Config, logger *slog.Logger) Publisher {
	switch cfg.Publish.Target {
	case config.PublishLocal:
		return NewLocal(cfg.Paths.LibraryDir, logger)
	case config.PublishS3:
		return NewS3(NewS3Client(cfg.Publish), cfg.Publish.Bucket, cfg.Publish.Prefix, logger)
	default:
		return nil
	}
}
