package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the canonical runtime folder layout under the DB path.
type Paths struct {
	Store string
	State string
	Tmp   string
}

// EnsureStateDirs ensures the runtime folder layout exists under the
// provided DB path. It rejects symlinks and permissive modes, and checks
// that each directory is writable by the process.
func EnsureStateDirs(dbPath string) (Paths, error) {
	p := Paths{
		Store: filepath.Join(dbPath, "store"),
		State: filepath.Join(dbPath, "state"),
		Tmp:   filepath.Join(dbPath, "state", "tmp"),
	}

	for _, dir := range []string{p.Store, p.Tmp} {
		if err := os.MkdirAll(filepath.Dir(dir), 0o700); err != nil {
			return Paths{}, fmt.Errorf("cannot create parent for %s: %w", dir, err)
		}

		// if path exists, reject symlinks and non-directories
		if fi, err := os.Lstat(dir); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return Paths{}, fmt.Errorf("path is a symlink: %s", dir)
			}
			if !fi.IsDir() {
				return Paths{}, fmt.Errorf("path exists and is not a directory: %s", dir)
			}
			if fi.Mode().Perm()&0o022 != 0 {
				return Paths{}, fmt.Errorf("path has permissive mode (group/other write): %s", dir)
			}
		}

		if err := os.MkdirAll(dir, 0o700); err != nil {
			return Paths{}, fmt.Errorf("cannot create path %s: %w", dir, err)
		}

		// writability check: create and remove a temp file
		tmp, err := os.CreateTemp(dir, ".validate-*")
		if err != nil {
			return Paths{}, fmt.Errorf("path not writable: %s: %w", dir, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	return p, nil
}
