package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirWritable returns a check that creates and removes a probe file in dir.
func DirWritable(dir string) CheckFunc {
	return func(ctx context.Context) error {
		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			return fmt.Errorf("directory %s not writable: %w", filepath.Clean(dir), err)
		}
		name := f.Name()
		_ = f.Close()
		return os.Remove(name)
	}
}

// Condition returns a check that fails with msg when ok reports false.
func Condition(ok func() bool, msg string) CheckFunc {
	return func(ctx context.Context) error {
		if !ok() {
			return errors.New(msg)
		}
		return nil
	}
}
