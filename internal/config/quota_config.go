package config

// QuotaConfig defines where persisted request counters live and how stale
// locks on them are handled.
type QuotaConfig struct {
	Dir                string `json:"dir,omitempty" yaml:"dir,omitempty"`
	LockTimeoutSecs    int    `json:"lock_timeout_secs,omitempty" yaml:"lock_timeout_secs,omitempty" validate:"omitempty,min=1"`
	LockStaleSecs      int    `json:"lock_stale_secs,omitempty" yaml:"lock_stale_secs,omitempty" validate:"omitempty,min=1"`
	LockPollBaseMillis int    `json:"lock_poll_base_millis,omitempty" yaml:"lock_poll_base_millis,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultQuotaConfig creates default quota configuration
func NewDefaultQuotaConfig() QuotaConfig {
	return QuotaConfig{
		Dir:                "data/quota",
		LockTimeoutSecs:    10,
		LockStaleSecs:      60,
		LockPollBaseMillis: 25,
	}
}
