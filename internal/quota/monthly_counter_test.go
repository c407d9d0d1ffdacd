package quota

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) error {
	t.Helper()
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestMonthlyCounter_TracksKindsAndTotal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monthly.json")
	counter := NewMonthlyCounter(path, vienna(t), testLockConfig(), zerolog.Nop())
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	kindCount, total, err := counter.Save("geocode", now)
	require.NoError(t, err)
	assert.Equal(t, 1, kindCount)
	assert.Equal(t, 1, total)

	kindCount, total, err = counter.Save("geocode", now)
	require.NoError(t, err)
	assert.Equal(t, 2, kindCount)
	assert.Equal(t, 2, total)

	kindCount, total, err = counter.Save("routing", now)
	require.NoError(t, err)
	assert.Equal(t, 1, kindCount, "kinds count independently")
	assert.Equal(t, 3, total, "the total spans all kinds")

	month, counts, storedTotal, err := counter.Load()
	require.NoError(t, err)
	assert.Equal(t, "2026-08", month)
	assert.Equal(t, map[string]int{"geocode": 2, "routing": 1}, counts)
	assert.Equal(t, 3, storedTotal)
}

func TestMonthlyCounter_ResetsOnNewMonth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monthly.json")
	counter := NewMonthlyCounter(path, vienna(t), testLockConfig(), zerolog.Nop())

	august := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, _, err := counter.Save("geocode", august)
		require.NoError(t, err)
	}

	september := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	kindCount, total, err := counter.Save("geocode", september)
	require.NoError(t, err)
	assert.Equal(t, 1, kindCount)
	assert.Equal(t, 1, total)

	month, _, _, err := counter.Load()
	require.NoError(t, err)
	assert.Equal(t, "2026-09", month)
}

func TestMonthlyCounter_CorruptFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monthly.json")
	require.NoError(t, writeTestFile(t, path, "][banana"))

	counter := NewMonthlyCounter(path, vienna(t), testLockConfig(), zerolog.Nop())
	month, counts, total, err := counter.Load()
	require.NoError(t, err)
	assert.Empty(t, month)
	assert.Empty(t, counts)
	assert.Zero(t, total)
}
