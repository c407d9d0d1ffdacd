package dedupe

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/filemanager"
	"github.com/rs/zerolog"
)

// StateEntry records when a key was first observed. Entries are created on
// first observation and never modified afterwards; they only leave the store
// through pruning.
type StateEntry struct {
	FirstSeen time.Time `json:"first_seen"`
}

// StateStore persists {key: {"first_seen": ...}} as JSON. All mutation
// happens in memory; Save writes the whole map under the file lock with an
// atomic rename, so overlapping process invocations cannot tear the file.
type StateStore struct {
	path    string
	lock    *filemanager.FileLock
	entries map[string]StateEntry
	dirty   bool
	logger  zerolog.Logger
}

// NewStateStore creates a store backed by path and loads any existing state.
// A missing file starts empty; a corrupt file is logged and starts empty
// rather than aborting the run.
func NewStateStore(path string, lockCfg filemanager.FileLockConfig, logger zerolog.Logger) (*StateStore, error) {
	store := &StateStore{
		path:    path,
		lock:    filemanager.NewFileLock(path+".lock", lockCfg, logger),
		entries: make(map[string]StateEntry),
		logger:  logger.With().Str("component", "StateStore").Str("file", path).Logger(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("failed to read state file '%s': %w", path, err)
	}

	if err := json.Unmarshal(data, &store.entries); err != nil {
		store.logger.Warn().Err(err).Msg("State file is corrupt, starting empty")
		store.entries = make(map[string]StateEntry)
	}
	return store, nil
}

// Observe returns the first-seen time for key, inserting now when the key is
// new. A repeated call with the same key always returns the original time.
func (s *StateStore) Observe(key string, now time.Time) time.Time {
	if entry, ok := s.entries[key]; ok {
		return entry.FirstSeen
	}
	s.entries[key] = StateEntry{FirstSeen: now.UTC()}
	s.dirty = true
	return now.UTC()
}

// Prune drops entries whose first-seen time is older than the retention
// window. Calling it again with the same now is a no-op.
func (s *StateStore) Prune(retentionDays int, now time.Time) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := now.Add(-time.Duration(retentionDays) * 24 * time.Hour)

	removed := 0
	for key, entry := range s.entries {
		if entry.FirstSeen.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	if removed > 0 {
		s.dirty = true
		s.logger.Debug().Int("removed", removed).Msg("Pruned stale state entries")
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *StateStore) Len() int {
	return len(s.entries)
}

// Save persists the store when it changed since load. It takes the exclusive
// file lock for the write so a concurrent invocation cannot interleave.
func (s *StateStore) Save() error {
	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := s.lock.Acquire(); err != nil {
		return err
	}
	defer s.lock.Release()

	if err := filemanager.WriteFileAtomic(s.path, data); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
