package dubbing

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"redub/internal/services"
)

// LockFileName guards an output directory against concurrent runs.
const LockFileName = ".redub.lock"

func lockDir(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output directory: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "dubbing", "lock output directory",
			fmt.Sprintf("another run is using %s", dir), nil)
	}
	return lock, nil
}
