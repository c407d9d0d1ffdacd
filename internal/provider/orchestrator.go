package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/config"
	"github.com/Origamihase/wien-oepnv/internal/httpclient"
	"github.com/Origamihase/wien-oepnv/internal/models"
	"github.com/rs/zerolog"
)

// ErrRunFailed marks a run where every enabled network provider failed.
// Partial failure is normal operation; only a total blackout is an error.
var ErrRunFailed = errors.New("all enabled network providers failed")

// Orchestrator runs every registered provider with isolation: a provider's
// failure, timeout or panic is downgraded to its report entry and never
// reaches a sibling. Cached providers run inline; network providers run on a
// fixed-size worker pool that is fully drained before results are merged.
type Orchestrator struct {
	registry *Registry
	config   config.ProviderConfig
	logger   zerolog.Logger
}

// NewOrchestrator creates a new orchestrator over the registry.
func NewOrchestrator(registry *Registry, cfg config.ProviderConfig, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		config:   cfg,
		logger:   logger.With().Str("component", "Orchestrator").Logger(),
	}
}

// RunResult carries everything one run gathered.
type RunResult struct {
	Events  []models.Event
	Reports []models.ProviderReport
}

type providerJob struct {
	index int
	reg   Registration
}

// Run executes all providers and always returns whatever was gathered.
// The returned error is ErrRunFailed only on total failure.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	runTimeout := time.Duration(o.config.RunTimeoutSecs) * time.Second
	if runTimeout <= 0 {
		runTimeout = 2 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	regs := o.registry.Registrations()
	reports := make([]models.ProviderReport, len(regs))
	eventsByProvider := make([][]models.Event, len(regs))

	var networkJobs []providerJob
	for i, reg := range regs {
		if !reg.Enabled {
			reports[i] = models.ProviderReport{
				Name:    reg.Provider.Name(),
				Enabled: false,
				Status:  models.ProviderStatusDisabled,
			}
			continue
		}
		if reg.Cached {
			eventsByProvider[i], reports[i] = o.runProvider(runCtx, reg)
			continue
		}
		reports[i] = models.ProviderReport{
			Name:    reg.Provider.Name(),
			Enabled: true,
			Status:  models.ProviderStatusPending,
		}
		networkJobs = append(networkJobs, providerJob{index: i, reg: reg})
	}

	o.runPool(runCtx, networkJobs, eventsByProvider, reports)

	result := &RunResult{Reports: reports}
	for _, events := range eventsByProvider {
		result.Events = append(result.Events, events...)
	}

	for _, report := range reports {
		o.logger.Info().
			Str("provider", report.Name).
			Str("status", string(report.Status)).
			Int("items", report.Items).
			Dur("duration", report.Duration).
			Str("detail", report.Detail).
			Msg("Provider finished")
	}

	if o.isTotalFailure(regs, reports) {
		return result, ErrRunFailed
	}
	return result, nil
}

// runPool drains jobs through a fixed worker pool. The pool is fully joined
// before this returns, so no provider's network activity outlives the run.
func (o *Orchestrator) runPool(ctx context.Context, jobs []providerJob, eventsByProvider [][]models.Event, reports []models.ProviderReport) {
	if len(jobs) == 0 {
		return
	}

	workers := o.config.MaxConcurrent
	if workers <= 0 {
		workers = 4
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobChan := make(chan providerJob, len(jobs))
	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				events, report := o.runProvider(ctx, job.reg)
				mu.Lock()
				eventsByProvider[job.index] = events
				reports[job.index] = report
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

// runProvider executes one provider under its own timeout and converts any
// outcome, including a panic, into a terminal report.
func (o *Orchestrator) runProvider(ctx context.Context, reg Registration) (events []models.Event, report models.ProviderReport) {
	name := reg.Provider.Name()
	report = models.ProviderReport{
		Name:    name,
		Enabled: true,
		Status:  models.ProviderStatusRunning,
	}

	providerTimeout := time.Duration(o.config.ProviderTimeoutSecs) * time.Second
	if providerTimeout <= 0 {
		providerTimeout = 30 * time.Second
	}
	providerCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	started := time.Now()
	defer func() {
		report.Duration = time.Since(started)
		if r := recover(); r != nil {
			report.Status = models.ProviderStatusError
			report.Detail = httpclient.SanitizeErrorMessage(fmt.Sprintf("panic: %v", r))
			events = nil
			o.logger.Error().Str("provider", name).Str("detail", report.Detail).Msg("Provider panicked")
		}
	}()

	fetched, err := reg.Provider.Fetch(providerCtx)
	switch {
	case errors.Is(err, ErrQuotaExhausted):
		report.Status = models.ProviderStatusCapped
		report.Detail = "daily budget exhausted"
	case err != nil:
		report.Status = models.ProviderStatusError
		report.Detail = httpclient.SanitizeErrorMessage(err.Error())
	case len(fetched) == 0:
		report.Status = models.ProviderStatusEmpty
	default:
		report.Status = models.ProviderStatusOK
		report.Items = len(fetched)
		events = fetched
	}
	return events, report
}

// isTotalFailure reports whether at least one network provider was enabled
// and none of them produced a success.
func (o *Orchestrator) isTotalFailure(regs []Registration, reports []models.ProviderReport) bool {
	enabledNetwork := 0
	successes := 0
	for i, reg := range regs {
		if !reg.Enabled || reg.Cached {
			continue
		}
		enabledNetwork++
		switch reports[i].Status {
		case models.ProviderStatusOK, models.ProviderStatusEmpty:
			successes++
		}
	}
	return enabledNetwork > 0 && successes == 0
}
