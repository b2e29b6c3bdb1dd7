package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitEvent(t *testing.T, fw *FileWatcher) bool {
	t.Helper()
	select {
	case _, ok := <-fw.Events():
		return ok
	case <-time.After(2 * time.Second):
		return false
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NPI_Tracking.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	assert.True(t, waitEvent(t, fw))
}

func TestWatcherSeesRenameOverTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NPI_Tracking.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	defer fw.Close()

	tmp := filepath.Join(dir, ".tmp-book.xlsx")
	require.NoError(t, os.WriteFile(tmp, []byte("v2"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case ev := <-fw.Events():
		assert.Equal(t, path, ev.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("no event after rename")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "NPI_Tracking.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$NPI_Tracking.xlsx"), []byte("lock"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case ev := <-fw.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCloseClosesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NPI_Tracking.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	_, ok := <-fw.Events()
	assert.False(t, ok)
}

func TestNewFileWatcherMissingDirectory(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing", "book.xlsx"))
	assert.Error(t, err)
}
