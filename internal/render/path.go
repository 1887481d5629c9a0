package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrPermission is returned when an output directory is not writable.
var ErrPermission = errors.New("no permission to write")

// CheckDir verifies that dir exists, is a directory and accepts new files.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("path %s not exists: %w", dir, os.ErrNotExist)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, "rss_temp_*.tmp")
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: %s: %w", ErrPermission, dir, err)
		}
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(filepath.Clean(name))
}
