package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stsarena/arena/internal/isolation"
)

type fakeBlocker struct{ blocked bool }

func (f *fakeBlocker) WriteBlocked() bool { return f.blocked }

func TestGuardedWriterPassesThroughWhenUnblocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.autosave")
	w := NewGuardedSaveWriter(path, &fakeBlocker{}, nil)

	require.NoError(t, w.Write([]byte("save data")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("save data"), data)
}

func TestGuardedWriterRejectsWhileBlocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.autosave")
	w := NewGuardedSaveWriter(path, &fakeBlocker{blocked: true}, nil)

	err := w.Write([]byte("must not land"))
	require.Error(t, err)
	assert.ErrorIs(t, err, isolation.ErrWriteBlocked)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGuardedWriterWithLiveManager(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "save.autosave")
	original := []byte("pre-session")
	require.NoError(t, os.WriteFile(savePath, original, 0o644))

	mgr := isolation.NewManager(savePath, nil)
	w := NewGuardedSaveWriter(savePath, mgr, nil)

	require.NoError(t, mgr.Begin("sess-1"))
	assert.ErrorIs(t, w.Write([]byte("arena state")), isolation.ErrWriteBlocked)
	require.NoError(t, mgr.End())

	data, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	require.NoError(t, w.Write([]byte("post-session")))
}
