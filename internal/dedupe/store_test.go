package dedupe

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Origamihase/wien-oepnv/internal/filemanager"
)

func newTestStore(t *testing.T, path string) *StateStore {
	t.Helper()
	store, err := NewStateStore(path, filemanager.FileLockConfig{
		Timeout:  time.Second,
		Stale:    time.Minute,
		PollBase: time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestStateStore_ObserveIsIdempotent(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "state.json"))

	first := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	later := first.Add(3 * time.Hour)

	got := store.Observe("key-1", first)
	assert.Equal(t, first, got)

	got = store.Observe("key-1", later)
	assert.Equal(t, first, got, "re-observing must keep the original first-seen time")
	assert.Equal(t, 1, store.Len())
}

func TestStateStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	store := newTestStore(t, path)
	store.Observe("key-1", now)
	store.Observe("key-2", now.Add(time.Minute))
	require.NoError(t, store.Save())

	reloaded := newTestStore(t, path)
	assert.Equal(t, 2, reloaded.Len())
	assert.Equal(t, now, reloaded.Observe("key-1", now.Add(48*time.Hour)))
}

func TestStateStore_SaveSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := newTestStore(t, path)

	require.NoError(t, store.Save())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "an untouched store writes nothing")
}

func TestStateStore_Prune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := newTestStore(t, path)

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	store.Observe("old", now.Add(-10*24*time.Hour))
	store.Observe("fresh", now.Add(-2*24*time.Hour))

	removed := store.Prune(7, now)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	// Pruning again with the same reference time removes nothing more.
	assert.Zero(t, store.Prune(7, now))

	// Retention disabled keeps everything.
	assert.Zero(t, store.Prune(0, now))
}

func TestStateStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))

	store := newTestStore(t, path)
	assert.Zero(t, store.Len())
}

func TestStateStore_FileShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := newTestStore(t, path)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	store.Observe("key-1", now)
	require.NoError(t, store.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk map[string]struct {
		FirstSeen time.Time `json:"first_seen"`
	}
	require.NoError(t, json.Unmarshal(data, &onDisk))
	require.Contains(t, onDisk, "key-1")
	assert.Equal(t, now, onDisk["key-1"].FirstSeen)
}
