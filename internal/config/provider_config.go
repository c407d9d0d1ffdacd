package config

// ProviderDeclaration declares one upstream provider. Declarations come from
// the configuration file; an invalid declaration is logged and skipped, it
// never aborts the run.
type ProviderDeclaration struct {
	Name          string  `json:"name" yaml:"name" validate:"required"`
	Type          string  `json:"type" yaml:"type" validate:"required"`
	Enabled       bool    `json:"enabled" yaml:"enabled"`
	URL           string  `json:"url,omitempty" yaml:"url,omitempty"`
	APIKeyEnv     string  `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	DailyBudget   int     `json:"daily_budget,omitempty" yaml:"daily_budget,omitempty" validate:"omitempty,min=0"`
	RatePerSecond float64 `json:"rate_per_second,omitempty" yaml:"rate_per_second,omitempty" validate:"omitempty,gt=0"`
	Timezone      string  `json:"timezone,omitempty" yaml:"timezone,omitempty"`

	// Cached marks a provider whose Fetch only reads local cache files and
	// therefore runs inline instead of on the worker pool.
	Cached bool `json:"cached,omitempty" yaml:"cached,omitempty"`
}

// ProviderConfig defines orchestration limits and the declared provider set.
type ProviderConfig struct {
	RunTimeoutSecs      int                   `json:"run_timeout_secs,omitempty" yaml:"run_timeout_secs,omitempty" validate:"omitempty,min=1"`
	ProviderTimeoutSecs int                   `json:"provider_timeout_secs,omitempty" yaml:"provider_timeout_secs,omitempty" validate:"omitempty,min=1"`
	MaxConcurrent       int                   `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty" validate:"omitempty,min=1"`
	Providers           []ProviderDeclaration `json:"providers,omitempty" yaml:"providers,omitempty" validate:"omitempty,dive"`
}

// NewDefaultProviderConfig creates default provider orchestration configuration
func NewDefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		RunTimeoutSecs:      120,
		ProviderTimeoutSecs: 30,
		MaxConcurrent:       4,
	}
}
