package httpclient

import (
	"net"
	"net/http"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/urlcheck"
	"github.com/rs/zerolog"
)

// SecureFetcherBuilder provides a fluent interface for building a fetcher.
type SecureFetcherBuilder struct {
	config       SecureFetcherConfig
	validator    *urlcheck.Validator
	interceptors []RequestInterceptor
	logger       zerolog.Logger
}

// NewSecureFetcherBuilder creates a new builder with default configuration.
func NewSecureFetcherBuilder(logger zerolog.Logger) *SecureFetcherBuilder {
	return &SecureFetcherBuilder{
		config: DefaultSecureFetcherConfig(),
		logger: logger,
	}
}

// WithConfig sets the fetcher configuration.
func (b *SecureFetcherBuilder) WithConfig(config SecureFetcherConfig) *SecureFetcherBuilder {
	b.config = config
	return b
}

// WithValidator sets the URL validator.
func (b *SecureFetcherBuilder) WithValidator(validator *urlcheck.Validator) *SecureFetcherBuilder {
	b.validator = validator
	return b
}

// WithInterceptor appends a request interceptor.
func (b *SecureFetcherBuilder) WithInterceptor(interceptor RequestInterceptor) *SecureFetcherBuilder {
	b.interceptors = append(b.interceptors, interceptor)
	return b
}

// Build creates the SecureFetcher.
func (b *SecureFetcherBuilder) Build() (*SecureFetcher, error) {
	if b.validator == nil {
		b.validator = urlcheck.NewValidator(urlcheck.DefaultValidatorConfig(), b.logger)
	}
	if b.config.MaxResponseBytes <= 0 {
		return nil, NewError("max response bytes must be positive")
	}
	if b.config.RequestTimeout <= 0 {
		return nil, NewError("request timeout must be positive")
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &SecureFetcher{
		config:        b.config,
		validator:     b.validator,
		baseTransport: transport,
		interceptors:  b.interceptors,
		logger:        b.logger.With().Str("component", "SecureFetcher").Logger(),
	}, nil
}
