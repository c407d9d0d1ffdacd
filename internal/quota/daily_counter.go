package quota

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/filemanager"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// ErrBudgetExhausted is returned by Consume when today's budget is already
// spent. It marks a refusal, not a counter failure.
var ErrBudgetExhausted = errors.New("daily budget exhausted")

// counterFile is the on-disk shape: {"date": "YYYY-MM-DD", "count": N}.
type counterFile struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DailyCounter is a persisted per-provider request counter for one calendar
// day in the provider's local time zone. Callers persist the increment
// BEFORE interpreting the network response, so a crash mid-request can only
// over-count, never under-count.
type DailyCounter struct {
	path     string
	lock     *filemanager.FileLock
	location *time.Location
	logger   zerolog.Logger
}

// NewDailyCounter creates a counter stored at path, locked by path+".lock".
// location is the provider-local time zone used for day boundaries.
func NewDailyCounter(path string, location *time.Location, lockCfg filemanager.FileLockConfig, logger zerolog.Logger) *DailyCounter {
	if location == nil {
		location = time.Local
	}
	return &DailyCounter{
		path:     path,
		lock:     filemanager.NewFileLock(path+".lock", lockCfg, logger),
		location: location,
		logger:   logger.With().Str("component", "DailyCounter").Str("file", path).Logger(),
	}
}

// Load reads the persisted date and count without taking the lock. A missing
// or corrupt file reads as zero.
func (c *DailyCounter) Load() (string, int, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, nil
		}
		return "", 0, fmt.Errorf("failed to read counter file '%s': %w", c.path, err)
	}

	var state counterFile
	if err := json.Unmarshal(data, &state); err != nil {
		c.logger.Warn().Err(err).Msg("Counter file is corrupt, treating as empty")
		return "", 0, nil
	}
	return state.Date, state.Count, nil
}

// Remaining returns how many requests of budget are left today. A zero or
// negative budget means unlimited.
func (c *DailyCounter) Remaining(budget int, now time.Time) (int, error) {
	if budget <= 0 {
		return int(^uint(0) >> 1), nil
	}
	date, count, err := c.Load()
	if err != nil {
		return 0, err
	}
	if date != now.In(c.location).Format(dateLayout) {
		return budget, nil
	}
	remaining := budget - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Save increments the counter under the exclusive lock and returns the new
// count. The count resets when the stored date differs from today in the
// provider-local time zone.
func (c *DailyCounter) Save(now time.Time) (int, error) {
	if err := c.lock.Acquire(); err != nil {
		return 0, err
	}
	defer c.lock.Release()

	return c.incrementLocked(0, now)
}

// Consume increments today's count unless the budget is already spent. The
// check and the increment happen under the same lock, so two racing callers
// can never both take the last remaining unit. A zero or negative budget
// means unlimited; a refusal returns ErrBudgetExhausted with the counter
// untouched.
func (c *DailyCounter) Consume(budget int, now time.Time) (int, error) {
	if err := c.lock.Acquire(); err != nil {
		return 0, err
	}
	defer c.lock.Release()

	return c.incrementLocked(budget, now)
}

// incrementLocked performs the date-reset-then-increment cycle. The caller
// holds the lock.
func (c *DailyCounter) incrementLocked(budget int, now time.Time) (int, error) {
	date, count, err := c.Load()
	if err != nil {
		return 0, err
	}

	today := now.In(c.location).Format(dateLayout)
	if date != today {
		count = 0
	}
	if budget > 0 && count >= budget {
		return count, ErrBudgetExhausted
	}
	count++

	data, err := json.Marshal(counterFile{Date: today, Count: count})
	if err != nil {
		return 0, fmt.Errorf("failed to encode counter state: %w", err)
	}
	if err := filemanager.WriteFileAtomic(c.path, data); err != nil {
		return 0, err
	}
	return count, nil
}
