package engine

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/stsarena/arena/internal/isolation"
)

// WriteBlocker reports whether writes to the live save path must be
// rejected. Satisfied by *isolation.Manager.
type WriteBlocker interface {
	WriteBlocked() bool
}

// GuardedSaveWriter is the single choke point for writes to the live save
// path. The host engine's save hook is redirected through it; while an arena
// session holds the save, every write is rejected with
// isolation.ErrWriteBlocked instead of reaching disk.
type GuardedSaveWriter struct {
	path    string
	blocker WriteBlocker
	log     *zap.Logger
}

// NewGuardedSaveWriter creates a writer for the save file at path.
func NewGuardedSaveWriter(path string, blocker WriteBlocker, log *zap.Logger) *GuardedSaveWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &GuardedSaveWriter{path: path, blocker: blocker, log: log}
}

// Path returns the live save path the writer guards.
func (w *GuardedSaveWriter) Path() string { return w.path }

// Write persists data to the live save path, unless a session holds the
// write block. A rejected write is session-fatal, not process-fatal: the
// caller reports it and tears the session down, but the process continues.
func (w *GuardedSaveWriter) Write(data []byte) error {
	if w.blocker.WriteBlocked() {
		w.log.Warn("rejected save write during active arena session",
			zap.String("path", w.path),
			zap.Int("bytes", len(data)))
		return fmt.Errorf("write %s: %w", w.path, isolation.ErrWriteBlocked)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write save file: %w", err)
	}
	return nil
}
