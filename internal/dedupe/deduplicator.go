package dedupe

import (
	"time"

	"github.com/Origamihase/wien-oepnv/internal/models"
	"github.com/rs/zerolog"
)

// Deduplicator collapses duplicate records, stamps stable first-seen times
// from the state store and suppresses redundant aggregate records.
type Deduplicator struct {
	store  *StateStore
	logger zerolog.Logger
}

// NewDeduplicator creates a new deduplicator over the given state store.
func NewDeduplicator(store *StateStore, logger zerolog.Logger) *Deduplicator {
	return &Deduplicator{
		store:  store,
		logger: logger.With().Str("component", "Deduplicator").Logger(),
	}
}

// Process deduplicates events by content fingerprint, keeps the first
// occurrence of each, drops aggregates that are fully covered by individual
// records and fills Event.FirstSeen from the state store. Input order is
// preserved for the survivors.
func (d *Deduplicator) Process(events []models.Event, now time.Time) []models.Event {
	seen := make(map[string]struct{}, len(events))
	unique := make([]models.Event, 0, len(events))

	for _, event := range events {
		key := DedupeKey(&event)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, event)
	}

	result := SuppressAggregates(unique)

	for i := range result {
		result[i].FirstSeen = d.store.Observe(Identity(&result[i]), now)
	}

	d.logger.Info().
		Int("input", len(events)).
		Int("unique", len(unique)).
		Int("emitted", len(result)).
		Msg("Deduplication complete")
	return result
}

// SuppressAggregates removes every aggregate event whose constituent
// single-station events are all individually present, preferring the more
// precise individual records.
func SuppressAggregates(events []models.Event) []models.Event {
	singles := make(map[singleKey]struct{})
	for _, event := range events {
		if len(event.Stations) == 1 {
			singles[singleKey{event.Category, event.Stations[0]}] = struct{}{}
		}
	}
	if len(singles) == 0 {
		return events
	}

	result := make([]models.Event, 0, len(events))
	for _, event := range events {
		if event.IsAggregate() && aggregateCovered(&event, singles) {
			continue
		}
		result = append(result, event)
	}
	return result
}

// singleKey identifies a single-station event within one run.
type singleKey struct {
	category string
	station  string
}

func aggregateCovered(event *models.Event, singles map[singleKey]struct{}) bool {
	for _, station := range event.Stations {
		if _, ok := singles[singleKey{event.Category, station}]; !ok {
			return false
		}
	}
	return true
}
