// Package fileutil provides request-scoped temporary storage whose release
// is guaranteed on every exit path.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// WorkDir is a scoped temporary directory for one capture request. Release
// is idempotent, so callers can defer it unconditionally and still schedule
// a delayed release for concurrent readers.
type WorkDir struct {
	path string
	once sync.Once
}

// NewWorkDir creates a fresh temporary directory. Concurrent requests never
// share one.
func NewWorkDir(prefix string) (*WorkDir, error) {
	path, err := os.MkdirTemp("", prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	return &WorkDir{path: path}, nil
}

// Path returns the directory path.
func (w *WorkDir) Path() string {
	return w.path
}

// Join returns a path within the directory. Separators in name are dropped
// so a crafted name cannot escape the directory.
func (w *WorkDir) Join(name string) string {
	return filepath.Join(w.path, filepath.Base(strings.TrimSpace(name)))
}

// Release removes the directory and everything in it. Safe to call more
// than once; later calls are no-ops.
func (w *WorkDir) Release() {
	w.once.Do(func() {
		_ = os.RemoveAll(w.path)
	})
}

// ReleaseAfter schedules an unconditional release after the grace delay,
// giving concurrent readers time to finish. A zero delay releases now.
func (w *WorkDir) ReleaseAfter(grace time.Duration) {
	if grace <= 0 {
		w.Release()
		return
	}
	time.AfterFunc(grace, w.Release)
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
