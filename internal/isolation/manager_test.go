package isolation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	savePath := filepath.Join(t.TempDir(), "IRONCLAD.autosave")
	return NewManager(savePath, nil), savePath
}

func TestBeginMovesSaveAndWritesMarker(t *testing.T) {
	m, savePath := newTestManager(t)
	original := []byte("real run in progress")
	require.NoError(t, os.WriteFile(savePath, original, 0o644))

	require.NoError(t, m.Begin("sess-1"))

	// Moved, not copied: the live path must be gone.
	_, err := os.Stat(savePath)
	assert.True(t, os.IsNotExist(err))

	backup, err := os.ReadFile(savePath + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	marker, err := NewMarkerFile(savePath + MarkerSuffix).Read()
	require.NoError(t, err)
	assert.Equal(t, "sess-1", marker.SessionID)
	assert.Equal(t, savePath+BackupSuffix, marker.BackupPath)

	assert.True(t, m.WriteBlocked())
	assert.Equal(t, "sess-1", m.SessionID())
}

func TestEndRestoresExactBytes(t *testing.T) {
	m, savePath := newTestManager(t)
	original := []byte{0x00, 0x01, 0xff, 0x42, 0x00}
	require.NoError(t, os.WriteFile(savePath, original, 0o644))

	require.NoError(t, m.Begin("sess-1"))
	// Simulate a stray write slipping past the guard during the session.
	require.NoError(t, os.WriteFile(savePath, []byte("arena junk"), 0o644))
	require.NoError(t, m.End())

	restored, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Equal(t, original, restored)

	assert.False(t, m.WriteBlocked())
	assert.False(t, NewMarkerFile(savePath+MarkerSuffix).Exists())
	_, err = os.Stat(savePath + BackupSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestBeginWithoutExistingSave(t *testing.T) {
	m, savePath := newTestManager(t)

	require.NoError(t, m.Begin("sess-1"))
	assert.True(t, m.WriteBlocked())

	// A session save appears at the live path; End must remove it since
	// there was nothing to restore.
	require.NoError(t, os.WriteFile(savePath, []byte("session save"), 0o644))
	require.NoError(t, m.End())

	_, err := os.Stat(savePath)
	assert.True(t, os.IsNotExist(err))
}

func TestEndIsNoopWhenInactive(t *testing.T) {
	m, savePath := newTestManager(t)
	require.NoError(t, os.WriteFile(savePath, []byte("untouched"), 0o644))

	require.NoError(t, m.End())
	require.NoError(t, m.End())

	data, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("untouched"), data)
}

func TestBeginWhileActiveFails(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Begin("sess-1"))

	err := m.Begin("sess-2")
	require.Error(t, err)
	var isoErr *IsolationError
	assert.ErrorAs(t, err, &isoErr)
	assert.Equal(t, "sess-1", m.SessionID())
}

func TestRecoverOnStartupRestoresBackup(t *testing.T) {
	m, savePath := newTestManager(t)
	original := []byte("pre-crash save")
	require.NoError(t, os.WriteFile(savePath, original, 0o644))
	require.NoError(t, m.Begin("sess-crash"))

	// New process: fresh manager over the same paths, marker still on disk.
	m2 := NewManager(savePath, nil)
	require.NoError(t, m2.RecoverOnStartup())

	restored, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
	assert.False(t, NewMarkerFile(savePath+MarkerSuffix).Exists())
}

func TestRecoverOnStartupNoBackup(t *testing.T) {
	m, savePath := newTestManager(t)
	require.NoError(t, m.Begin("sess-crash"))
	// Session wrote a save of its own before the crash.
	require.NoError(t, os.WriteFile(savePath, []byte("session save"), 0o644))

	m2 := NewManager(savePath, nil)
	require.NoError(t, m2.RecoverOnStartup())

	_, err := os.Stat(savePath)
	assert.True(t, os.IsNotExist(err))
	assert.False(t, NewMarkerFile(savePath+MarkerSuffix).Exists())
}

func TestRecoverOnStartupNothingToDo(t *testing.T) {
	m, savePath := newTestManager(t)
	require.NoError(t, os.WriteFile(savePath, []byte("normal save"), 0o644))

	require.NoError(t, m.RecoverOnStartup())

	data, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("normal save"), data)
}

func TestBeginRecoversStaleMarker(t *testing.T) {
	m, savePath := newTestManager(t)
	original := []byte("interrupted run")
	require.NoError(t, os.WriteFile(savePath, original, 0o644))
	require.NoError(t, m.Begin("sess-old"))

	// Same paths, new process, recovery never ran; Begin handles it.
	m2 := NewManager(savePath, nil)
	require.NoError(t, m2.Begin("sess-new"))

	backup, err := os.ReadFile(savePath + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, original, backup)
	assert.Equal(t, "sess-new", m2.SessionID())

	require.NoError(t, m2.End())
	restored, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}
