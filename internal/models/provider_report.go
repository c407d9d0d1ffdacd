package models

import "time"

// ProviderStatus is the terminal (or transient) state of one provider
// within a single run.
type ProviderStatus string

const (
	ProviderStatusPending  ProviderStatus = "pending"
	ProviderStatusRunning  ProviderStatus = "running"
	ProviderStatusOK       ProviderStatus = "ok"
	ProviderStatusEmpty    ProviderStatus = "empty"
	ProviderStatusError    ProviderStatus = "error"
	ProviderStatusDisabled ProviderStatus = "disabled"
	ProviderStatusCapped   ProviderStatus = "capped"
)

// IsTerminal reports whether the status will not change again within the run.
func (s ProviderStatus) IsTerminal() bool {
	switch s {
	case ProviderStatusOK, ProviderStatusEmpty, ProviderStatusError, ProviderStatusDisabled, ProviderStatusCapped:
		return true
	}
	return false
}

// ProviderReport records the outcome of one provider in one run. Exactly one
// report is produced per registered provider; Detail never contains
// credentials or unsanitized upstream URLs.
type ProviderReport struct {
	Name     string         `json:"name"`
	Enabled  bool           `json:"enabled"`
	Status   ProviderStatus `json:"status"`
	Items    int            `json:"items"`
	Detail   string         `json:"detail,omitempty"`
	Duration time.Duration  `json:"duration"`
}
