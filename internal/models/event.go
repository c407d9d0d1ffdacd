package models

import "time"

// Event is the provider-agnostic disruption record produced by every
// provider and consumed by the deduplicator and the downstream feed writer.
type Event struct {
	Provider    string     `json:"provider"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Link        string     `json:"link,omitempty"`
	Lines       []string   `json:"lines,omitempty"`
	Stations    []string   `json:"stations,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`

	// FirstSeen is filled in by the state store after deduplication and is
	// used as the stable publication timestamp across runs.
	FirstSeen time.Time `json:"first_seen,omitempty"`
}

// IsAggregate reports whether the event bundles several stations into a
// single record. Aggregates are suppressed when every constituent station
// is also covered by its own single-station event.
func (e *Event) IsAggregate() bool {
	return len(e.Stations) > 1
}
