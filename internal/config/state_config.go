package config

// StateConfig defines the dedupe state store location and retention.
type StateConfig struct {
	Path          string `json:"path,omitempty" yaml:"path,omitempty"`
	RetentionDays int    `json:"retention_days,omitempty" yaml:"retention_days,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultStateConfig creates default state store configuration
func NewDefaultStateConfig() StateConfig {
	return StateConfig{
		Path:          "data/state.json",
		RetentionDays: 90,
	}
}
