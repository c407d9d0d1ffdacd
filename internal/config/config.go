package config

// GlobalConfig is the immutable per-run configuration. It is built once by
// LoadGlobalConfig and passed by pointer into every component; nothing
// mutates it after validation.
type GlobalConfig struct {
	LogConfig      LogConfig      `json:"log_config" yaml:"log_config"`
	FetcherConfig  FetcherConfig  `json:"fetcher_config" yaml:"fetcher_config"`
	QuotaConfig    QuotaConfig    `json:"quota_config" yaml:"quota_config"`
	StateConfig    StateConfig    `json:"state_config" yaml:"state_config"`
	ProviderConfig ProviderConfig `json:"provider_config" yaml:"provider_config"`
}

// NewDefaultGlobalConfig creates a GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogConfig:      NewDefaultLogConfig(),
		FetcherConfig:  NewDefaultFetcherConfig(),
		QuotaConfig:    NewDefaultQuotaConfig(),
		StateConfig:    NewDefaultStateConfig(),
		ProviderConfig: NewDefaultProviderConfig(),
	}
}
