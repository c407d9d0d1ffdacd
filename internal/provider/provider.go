package provider

import (
	"context"
	"errors"

	"github.com/Origamihase/wien-oepnv/internal/models"
)

// ErrQuotaExhausted is returned by a quota-gated provider when the daily
// budget is spent. It is a deliberate skip, not a failure: the orchestrator
// maps it to the "capped" status and no network call is made.
var ErrQuotaExhausted = errors.New("daily request quota exhausted")

// Provider is an independent upstream data source. Fetch returns plain
// structured records; it may fail, in which case the orchestrator records an
// error report for this provider and the run continues.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Event, error)
}

// Registration binds a provider to its run-time toggles. Cached providers
// only read local files and run inline; everything else goes through the
// worker pool.
type Registration struct {
	Provider Provider
	Enabled  bool
	Cached   bool
}
