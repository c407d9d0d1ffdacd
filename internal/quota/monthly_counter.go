package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/filemanager"
	"github.com/rs/zerolog"
)

const monthLayout = "2006-01"

// monthlyFile is the on-disk shape:
// {"month": "YYYY-MM", "counts": {"<kind>": N, ...}, "total": N}.
type monthlyFile struct {
	Month  string         `json:"month"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// MonthlyCounter tracks several named sub-budgets (one per operation kind)
// plus a combined total in a single file, reset on month change. It follows
// the same lock and atomic-rename discipline as DailyCounter.
type MonthlyCounter struct {
	path     string
	lock     *filemanager.FileLock
	location *time.Location
	logger   zerolog.Logger
}

// NewMonthlyCounter creates a monthly multi-counter stored at path.
func NewMonthlyCounter(path string, location *time.Location, lockCfg filemanager.FileLockConfig, logger zerolog.Logger) *MonthlyCounter {
	if location == nil {
		location = time.Local
	}
	return &MonthlyCounter{
		path:     path,
		lock:     filemanager.NewFileLock(path+".lock", lockCfg, logger),
		location: location,
		logger:   logger.With().Str("component", "MonthlyCounter").Str("file", path).Logger(),
	}
}

// Load reads the persisted month, per-kind counts and total without taking
// the lock. A missing or corrupt file reads as empty.
func (c *MonthlyCounter) Load() (string, map[string]int, int, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", map[string]int{}, 0, nil
		}
		return "", nil, 0, fmt.Errorf("failed to read counter file '%s': %w", c.path, err)
	}

	var state monthlyFile
	if err := json.Unmarshal(data, &state); err != nil {
		c.logger.Warn().Err(err).Msg("Counter file is corrupt, treating as empty")
		return "", map[string]int{}, 0, nil
	}
	if state.Counts == nil {
		state.Counts = map[string]int{}
	}
	return state.Month, state.Counts, state.Total, nil
}

// Save increments the counter for kind under the exclusive lock and returns
// the new per-kind count and the new combined total.
func (c *MonthlyCounter) Save(kind string, now time.Time) (int, int, error) {
	if err := c.lock.Acquire(); err != nil {
		return 0, 0, err
	}
	defer c.lock.Release()

	month, counts, total, err := c.Load()
	if err != nil {
		return 0, 0, err
	}

	thisMonth := now.In(c.location).Format(monthLayout)
	if month != thisMonth {
		counts = map[string]int{}
		total = 0
	}
	counts[kind]++
	total++

	data, err := json.Marshal(monthlyFile{Month: thisMonth, Counts: counts, Total: total})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to encode counter state: %w", err)
	}
	if err := filemanager.WriteFileAtomic(c.path, data); err != nil {
		return 0, 0, err
	}
	return counts[kind], total, nil
}
