package config

// FetcherConfig defines configuration for the secure outbound fetcher.
type FetcherConfig struct {
	RequestTimeoutSecs  int      `json:"request_timeout_secs,omitempty" yaml:"request_timeout_secs,omitempty" validate:"omitempty,min=1,max=300"`
	DNSTimeoutSecs      int      `json:"dns_timeout_secs,omitempty" yaml:"dns_timeout_secs,omitempty" validate:"omitempty,min=1,max=60"`
	MaxRedirects        int      `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"omitempty,min=0,max=10"`
	MaxResponseBytes    int64    `json:"max_response_bytes,omitempty" yaml:"max_response_bytes,omitempty" validate:"omitempty,min=1"`
	AllowedPorts        []int    `json:"allowed_ports,omitempty" yaml:"allowed_ports,omitempty" validate:"omitempty,dive,min=1,max=65535"`
	AllowedContentTypes []string `json:"allowed_content_types,omitempty" yaml:"allowed_content_types,omitempty"`
	UserAgent           string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`

	// TrustProxy disables the IP-safety check when outbound traffic is
	// deliberately routed through a controlled forward proxy. The scheme,
	// character and suffix checks still apply.
	TrustProxy bool `json:"trust_proxy,omitempty" yaml:"trust_proxy,omitempty"`
}

// NewDefaultFetcherConfig creates default fetcher configuration
func NewDefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		RequestTimeoutSecs: 20,
		DNSTimeoutSecs:     5,
		MaxRedirects:       10,
		MaxResponseBytes:   10 * 1024 * 1024,
		AllowedPorts:       []int{80, 443},
		UserAgent:          "wien-oepnv/1.0",
	}
}
