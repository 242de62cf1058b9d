package compose

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/traitmix/pkg/errors"
)

// Clean removes dir and everything below it. Removing a missing directory
// is not an error. The filesystem root and the working directory are
// refused.
func Clean(dir string) error {
	if err := errors.ValidatePath(dir); err != nil {
		return err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", dir)
	}
	if wd, err := os.Getwd(); err == nil && abs == wd {
		return errors.New(errors.ErrCodeInvalidPath, "refusing to remove the working directory")
	}
	if abs == filepath.Dir(abs) {
		return errors.New(errors.ErrCodeInvalidPath, "refusing to remove %s", abs)
	}
	if err := os.RemoveAll(abs); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "remove %s", abs)
	}
	return nil
}

// Reset removes dir and creates it again empty.
func Reset(dir string) error {
	if err := Clean(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", dir)
	}
	return nil
}
