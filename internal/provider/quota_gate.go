package provider

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/config"
	"github.com/Origamihase/wien-oepnv/internal/filemanager"
	"github.com/Origamihase/wien-oepnv/internal/models"
	"github.com/Origamihase/wien-oepnv/internal/quota"
	"github.com/rs/zerolog"
)

// QuotaGate wraps a provider with a persisted daily request counter. The
// increment is persisted BEFORE the wrapped fetch runs, so a crash
// mid-request can never under-count; once the budget is exhausted the fetch
// is refused without any network activity.
type QuotaGate struct {
	inner    Provider
	counter  *quota.DailyCounter
	monthly  *quota.MonthlyCounter
	budget   int
	location *time.Location
	logger   zerolog.Logger
}

// NewQuotaGate creates a quota-gated view of p using a counter file named
// after the provider inside quotaDir.
func NewQuotaGate(p Provider, quotaDir string, decl config.ProviderDeclaration, lockCfg filemanager.FileLockConfig, logger zerolog.Logger) *QuotaGate {
	location := providerTimezone(decl)
	counterPath := filepath.Join(quotaDir, decl.Name+"_request_count.json")
	monthlyPath := filepath.Join(quotaDir, "monthly_request_count.json")
	return &QuotaGate{
		inner:    p,
		counter:  quota.NewDailyCounter(counterPath, location, lockCfg, logger),
		monthly:  quota.NewMonthlyCounter(monthlyPath, location, lockCfg, logger),
		budget:   decl.DailyBudget,
		location: location,
		logger:   logger.With().Str("component", "QuotaGate").Str("provider", p.Name()).Logger(),
	}
}

// Name returns the wrapped provider's name.
func (g *QuotaGate) Name() string {
	return g.inner.Name()
}

// Fetch consumes one unit of today's budget and delegates. ErrQuotaExhausted
// is returned, with no side effects, when nothing is left. The check and the
// increment are a single locked operation, so concurrent callers cannot
// overshoot the budget.
func (g *QuotaGate) Fetch(ctx context.Context) ([]models.Event, error) {
	now := time.Now()

	count, err := g.counter.Consume(g.budget, now)
	if errors.Is(err, quota.ErrBudgetExhausted) {
		g.logger.Info().Int("budget", g.budget).Msg("Daily budget exhausted, skipping fetch")
		return nil, ErrQuotaExhausted
	}
	if err != nil {
		return nil, err
	}
	g.logger.Debug().Int("count", count).Int("budget", g.budget).Msg("Request counted against daily budget")

	// The monthly ledger is bookkeeping across all gated providers; a write
	// failure there must not cost us the fetch itself.
	if _, _, err := g.monthly.Save(g.inner.Name(), now); err != nil {
		g.logger.Warn().Err(err).Msg("Failed to update monthly request ledger")
	}

	return g.inner.Fetch(ctx)
}
