package filemanager

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// FileLock is a create-exclusive lock file guarding a persisted counter.
// Acquisition polls with exponential backoff; a lock older than the staleness
// threshold is assumed to belong to a crashed run and is broken. The design
// expects at most one concurrent run, so breaking is a rare degraded case,
// not the normal path.
type FileLock struct {
	path     string
	timeout  time.Duration
	stale    time.Duration
	pollBase time.Duration
	logger   zerolog.Logger
}

// FileLockConfig holds lock acquisition parameters.
type FileLockConfig struct {
	Timeout  time.Duration
	Stale    time.Duration
	PollBase time.Duration
}

// DefaultFileLockConfig returns default lock parameters.
func DefaultFileLockConfig() FileLockConfig {
	return FileLockConfig{
		Timeout:  10 * time.Second,
		Stale:    60 * time.Second,
		PollBase: 25 * time.Millisecond,
	}
}

// NewFileLock creates a lock for path (the lock file itself, not the file it
// protects).
func NewFileLock(path string, cfg FileLockConfig, logger zerolog.Logger) *FileLock {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Stale <= 0 {
		cfg.Stale = 60 * time.Second
	}
	if cfg.PollBase <= 0 {
		cfg.PollBase = 25 * time.Millisecond
	}
	return &FileLock{
		path:     path,
		timeout:  cfg.Timeout,
		stale:    cfg.Stale,
		pollBase: cfg.PollBase,
		logger:   logger.With().Str("component", "FileLock").Logger(),
	}
}

// Acquire takes the lock, waiting up to the configured timeout.
func (l *FileLock) Acquire() error {
	deadline := time.Now().Add(l.timeout)
	backoff := l.pollBase

	for {
		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, _ = fmt.Fprintf(file, "%d\n", os.Getpid())
			return file.Close()
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lock file '%s': %w", l.path, err)
		}

		if l.breakIfStale() {
			continue
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out acquiring lock '%s'", l.path)
		}

		time.Sleep(backoff)
		backoff *= 2
		if backoff > time.Second {
			backoff = time.Second
		}
	}
}

// breakIfStale removes the lock file when its mtime is past the staleness
// threshold. Returns true when the lock was (probably) broken and another
// acquisition attempt is worthwhile.
func (l *FileLock) breakIfStale() bool {
	info, err := os.Stat(l.path)
	if err != nil {
		// Holder released between our open and stat.
		return os.IsNotExist(err)
	}
	if time.Since(info.ModTime()) < l.stale {
		return false
	}

	l.logger.Warn().Str("lock", l.path).Msg("Breaking stale lock")
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return false
	}
	return true
}

// Release drops the lock. Releasing a lock that was broken by another
// process is harmless.
func (l *FileLock) Release() {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		l.logger.Warn().Err(err).Str("lock", l.path).Msg("Failed to remove lock file")
	}
}
