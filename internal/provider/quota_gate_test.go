package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Origamihase/wien-oepnv/internal/config"
	"github.com/Origamihase/wien-oepnv/internal/filemanager"
	"github.com/Origamihase/wien-oepnv/internal/httpclient"
	"github.com/Origamihase/wien-oepnv/internal/models"
)

func testLockCfg() filemanager.FileLockConfig {
	return filemanager.FileLockConfig{
		Timeout:  time.Second,
		Stale:    time.Minute,
		PollBase: time.Millisecond,
	}
}

func TestQuotaGate_EnforcesDailyBudget(t *testing.T) {
	quotaDir := t.TempDir()
	inner := &stubProvider{name: "wl", events: []models.Event{stubEvent("wl", "one")}}
	decl := config.ProviderDeclaration{Name: "wl", DailyBudget: 2}

	gate := NewQuotaGate(inner, quotaDir, decl, testLockCfg(), zerolog.Nop())

	for i := 0; i < 2; i++ {
		events, err := gate.Fetch(context.Background())
		require.NoError(t, err)
		assert.Len(t, events, 1)
	}

	_, err := gate.Fetch(context.Background())
	require.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, 2, inner.calls, "the refused fetch must not reach the provider")
}

func TestQuotaGate_CountsBeforeFetching(t *testing.T) {
	quotaDir := t.TempDir()
	inner := &stubProvider{name: "wl", panics: true}
	decl := config.ProviderDeclaration{Name: "wl", DailyBudget: 5}

	gate := NewQuotaGate(inner, quotaDir, decl, testLockCfg(), zerolog.Nop())

	assert.Panics(t, func() { _, _ = gate.Fetch(context.Background()) })

	// The crashed attempt still consumed budget.
	data, err := os.ReadFile(filepath.Join(quotaDir, "wl_request_count.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"count":1`)
}

func TestQuotaGate_FeedsMonthlyLedger(t *testing.T) {
	quotaDir := t.TempDir()

	wl := NewQuotaGate(&stubProvider{name: "wl"}, quotaDir,
		config.ProviderDeclaration{Name: "wl", DailyBudget: 10}, testLockCfg(), zerolog.Nop())
	oebb := NewQuotaGate(&stubProvider{name: "oebb"}, quotaDir,
		config.ProviderDeclaration{Name: "oebb", DailyBudget: 10}, testLockCfg(), zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := wl.Fetch(context.Background())
		require.NoError(t, err)
	}
	_, err := oebb.Fetch(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(quotaDir, "monthly_request_count.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"wl":2`)
	assert.Contains(t, string(data), `"oebb":1`)
	assert.Contains(t, string(data), `"total":3`)
}

func TestQuotaGate_ExhaustionPersistsAcrossInstances(t *testing.T) {
	quotaDir := t.TempDir()
	decl := config.ProviderDeclaration{Name: "wl", DailyBudget: 1}

	first := NewQuotaGate(&stubProvider{name: "wl"}, quotaDir, decl, testLockCfg(), zerolog.Nop())
	_, err := first.Fetch(context.Background())
	require.NoError(t, err)

	second := NewQuotaGate(&stubProvider{name: "wl"}, quotaDir, decl, testLockCfg(), zerolog.Nop())
	_, err = second.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrQuotaExhausted, "the budget lives in the file, not the process")
}

func testDeps(t *testing.T) Dependencies {
	t.Helper()
	fetcher, err := httpclient.NewSecureFetcherBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)
	return Dependencies{
		Fetcher:  fetcher,
		QuotaDir: t.TempDir(),
		LockCfg:  testLockCfg(),
		Logger:   zerolog.Nop(),
	}
}

func TestRegistry_SkipsBadDeclarations(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	deps := testDeps(t)

	registry.BuildFromDeclarations([]config.ProviderDeclaration{
		{Name: "wl", Type: "wienerlinien", Enabled: true, URL: "https://www.wienerlinien.at/ogd_realtime/trafficInfoList"},
		{Name: "mystery", Type: "no-such-type", Enabled: true},
		{Name: "broken-cache", Type: "cache", Enabled: true}, // cache needs a file path
	}, deps)

	regs := registry.Registrations()
	require.Len(t, regs, 1, "bad declarations are skipped, not fatal")
	assert.Equal(t, "wl", regs[0].Provider.Name())
}

func TestRegistry_RejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	require.NoError(t, registry.Register(Registration{Provider: &stubProvider{name: "x"}}))
	err := registry.Register(Registration{Provider: &stubProvider{name: "x"}})
	assert.Error(t, err)
}

func TestRegistry_WrapsBudgetedProviders(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	deps := testDeps(t)

	registry.BuildFromDeclarations([]config.ProviderDeclaration{
		{Name: "wl", Type: "wienerlinien", Enabled: true, DailyBudget: 3,
			URL: "https://www.wienerlinien.at/ogd_realtime/trafficInfoList"},
	}, deps)

	regs := registry.Registrations()
	require.Len(t, regs, 1)
	_, gated := regs[0].Provider.(*QuotaGate)
	assert.True(t, gated)
}
