// Package isolation guards the player's real save file while an arena
// session is active. The live save is moved (not copied) to a backup path
// before a session and moved back after it; a durable marker file records
// the move so an interrupted process can be recovered on the next launch.
package isolation

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Suffixes appended to the live save path.
const (
	BackupSuffix = ".arena_backup"
	MarkerSuffix = ".arena_active"
)

// ErrWriteBlocked is returned when something attempts to write the live save
// path while a session holds it.
var ErrWriteBlocked = errors.New("live save is write-blocked by an active arena session")

// IsolationError wraps a failure to establish or tear down save isolation.
// A session must refuse to start on one rather than risk the real save.
type IsolationError struct {
	Op  string
	Err error
}

func (e *IsolationError) Error() string {
	return fmt.Sprintf("save isolation %s: %v", e.Op, e.Err)
}

func (e *IsolationError) Unwrap() error { return e.Err }

// Manager backs up the real save before a session, blocks writes during it,
// and restores it after. All methods run on the host engine's update
// goroutine; the marker file is the only cross-process state.
type Manager struct {
	savePath   string
	backupPath string
	marker     *MarkerFile
	log        *zap.Logger

	active      bool
	backupTaken bool
	sessionID   string
}

// NewManager creates a Manager for the save file at savePath.
func NewManager(savePath string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		savePath:   savePath,
		backupPath: savePath + BackupSuffix,
		marker:     NewMarkerFile(savePath + MarkerSuffix),
		log:        log,
	}
}

// Begin moves the real save out of the way and records the move durably.
// On any failure the real save is left untouched and an IsolationError is
// returned; the caller must not start a session.
func (m *Manager) Begin(sessionID string) error {
	if m.active {
		return &IsolationError{Op: "begin", Err: fmt.Errorf("session %s already holds the save", m.sessionID)}
	}

	// A marker with no in-memory session means a previous process died
	// mid-session and recovery has not run. Restore before starting.
	if m.marker.Exists() {
		m.log.Warn("stale isolation marker found before begin, recovering",
			zap.String("save_path", m.savePath))
		if err := m.RecoverOnStartup(); err != nil {
			return &IsolationError{Op: "begin", Err: err}
		}
	}

	// Marker first: if the process dies between the marker write and the
	// move, recovery sees the marker, finds no backup, and cleans up.
	err := m.marker.Write(Marker{
		SessionID:  sessionID,
		BackupPath: m.backupPath,
		StartedAt:  time.Now().UTC(),
	})
	if err != nil {
		return &IsolationError{Op: "begin", Err: fmt.Errorf("write marker: %w", err)}
	}

	backupTaken := false
	if _, statErr := os.Stat(m.savePath); statErr == nil {
		if err := os.Rename(m.savePath, m.backupPath); err != nil {
			_ = m.marker.Remove()
			return &IsolationError{Op: "begin", Err: fmt.Errorf("move save to backup: %w", err)}
		}
		backupTaken = true
	}

	m.active = true
	m.backupTaken = backupTaken
	m.sessionID = sessionID
	m.log.Info("save isolation active",
		zap.String("session_id", sessionID),
		zap.Bool("backup_taken", backupTaken))
	return nil
}

// End restores the real save and releases the write block. Safe no-op when
// Begin was never called.
func (m *Manager) End() error {
	if !m.active {
		return nil
	}

	if m.backupTaken {
		if err := os.Rename(m.backupPath, m.savePath); err != nil {
			return &IsolationError{Op: "end", Err: fmt.Errorf("restore backup: %w", err)}
		}
	} else {
		// No original save existed; drop anything written at the live path
		// during the session.
		if err := os.Remove(m.savePath); err != nil && !os.IsNotExist(err) {
			return &IsolationError{Op: "end", Err: fmt.Errorf("remove session save: %w", err)}
		}
	}

	if err := m.marker.Remove(); err != nil && !os.IsNotExist(err) {
		return &IsolationError{Op: "end", Err: fmt.Errorf("remove marker: %w", err)}
	}

	m.log.Info("save isolation released", zap.String("session_id", m.sessionID))
	m.active = false
	m.backupTaken = false
	m.sessionID = ""
	return nil
}

// WriteBlocked reports whether writes to the live save path must be
// rejected. The host-engine adapter consults this before any save write.
func (m *Manager) WriteBlocked() bool {
	return m.active
}

// SessionID returns the id of the session holding the save, if any.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// RecoverOnStartup cleans up after a process that died mid-session. Run once
// at startup, before any session can begin: a marker with no in-memory
// session means the backup (if one was taken) must be restored
// unconditionally and the marker removed.
func (m *Manager) RecoverOnStartup() error {
	if !m.marker.Exists() {
		// Defensive: a stray backup without a marker should not linger.
		if _, err := os.Stat(m.backupPath); err == nil {
			m.log.Warn("stray backup without marker, removing",
				zap.String("backup_path", m.backupPath))
			_ = os.Remove(m.backupPath)
		}
		return nil
	}

	marker, err := m.marker.Read()
	if err != nil {
		m.log.Error("unreadable isolation marker", zap.Error(err))
	} else {
		m.log.Warn("recovering interrupted arena session",
			zap.String("session_id", marker.SessionID),
			zap.Time("started_at", marker.StartedAt))
	}

	if _, statErr := os.Stat(m.backupPath); statErr == nil {
		if err := os.Rename(m.backupPath, m.savePath); err != nil {
			return &IsolationError{Op: "recover", Err: fmt.Errorf("restore backup: %w", err)}
		}
		m.log.Info("restored real save from backup", zap.String("save_path", m.savePath))
	} else {
		// No backup means no original save existed; any live file is a
		// leftover session save.
		if err := os.Remove(m.savePath); err != nil && !os.IsNotExist(err) {
			return &IsolationError{Op: "recover", Err: fmt.Errorf("remove session save: %w", err)}
		}
	}

	if err := m.marker.Remove(); err != nil && !os.IsNotExist(err) {
		return &IsolationError{Op: "recover", Err: fmt.Errorf("remove marker: %w", err)}
	}
	return nil
}
