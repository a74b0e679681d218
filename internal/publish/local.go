package publish

import (
	"context"
	"log/slog"
	"path/filepath"

	"redub/internal/fileutil"
	"redub/internal/logging"
	"redub/internal/services"
)

// Local copies files into a library directory.
type Local struct {
	dir    string
	logger *slog.Logger
}

// NewLocal returns a Local publisher for dir.
func NewLocal(dir string, logger *slog.Logger) *Local {
	return &Local{dir: dir, logger: logging.NewComponentLogger(logger, "publish")}
}

// Name identifies the publisher.
func (l *Local) Name() string { return "local" }

// Publish copies each file into the library directory.
func (l *Local) Publish(ctx context.Context, files []string) ([]string, error) {
	if l.dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "local", "library directory not configured", nil)
	}
	logger := logging.WithContext(ctx, l.logger)
	destinations := make([]string, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return destinations, err
		}
		dst := filepath.Join(l.dir, filepath.Base(file))
		sum, err := fileutil.CopyFileVerified(file, dst)
		if err != nil {
			return destinations, services.Wrap(services.ErrTransient, "publish", "local copy", filepath.Base(file), err)
		}
		logger.Info("artifact published",
			logging.String("destination", dst),
			logging.String("sha256", sum),
		)
		destinations = append(destinations, dst)
	}
	return destinations, nil
}
