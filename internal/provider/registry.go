package provider

import (
	"fmt"
	"os"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/config"
	"github.com/Origamihase/wien-oepnv/internal/filemanager"
	"github.com/Origamihase/wien-oepnv/internal/httpclient"
	"github.com/rs/zerolog"
)

// Dependencies holds everything a provider factory may need.
type Dependencies struct {
	Fetcher  *httpclient.SecureFetcher
	QuotaDir string
	LockCfg  filemanager.FileLockConfig
	Logger   zerolog.Logger
}

// Factory builds a provider from its configuration declaration.
type Factory func(decl config.ProviderDeclaration, deps Dependencies) (Provider, error)

// Registry holds the ordered provider set for one run.
type Registry struct {
	factories     map[string]Factory
	registrations []Registration
	names         map[string]struct{}
	logger        zerolog.Logger
}

// NewRegistry creates a registry preloaded with the built-in provider types.
func NewRegistry(logger zerolog.Logger) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		names:     make(map[string]struct{}),
		logger:    logger.With().Str("component", "ProviderRegistry").Logger(),
	}
	r.RegisterFactory("wienerlinien", NewWienerLinienProvider)
	r.RegisterFactory("oebb", NewOEBBProvider)
	r.RegisterFactory("cache", NewCacheProvider)
	return r
}

// RegisterFactory adds a provider type usable from declarations.
func (r *Registry) RegisterFactory(typeName string, factory Factory) {
	r.factories[typeName] = factory
}

// Register adds an already-constructed provider.
func (r *Registry) Register(reg Registration) error {
	name := reg.Provider.Name()
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("provider '%s' is already registered", name)
	}
	r.names[name] = struct{}{}
	r.registrations = append(r.registrations, reg)
	return nil
}

// BuildFromDeclarations instantiates every declared provider. An unknown
// type, a factory failure or a duplicate name is logged and skipped; a bad
// declaration never aborts the run.
func (r *Registry) BuildFromDeclarations(decls []config.ProviderDeclaration, deps Dependencies) {
	for _, decl := range decls {
		factory, ok := r.factories[decl.Type]
		if !ok {
			r.logger.Warn().
				Str("provider", decl.Name).
				Str("type", decl.Type).
				Msg("Unknown provider type, skipping declaration")
			continue
		}

		p, err := factory(decl, deps)
		if err != nil {
			r.logger.Warn().Err(err).
				Str("provider", decl.Name).
				Msg("Invalid provider declaration, skipping")
			continue
		}

		if decl.DailyBudget > 0 {
			p = NewQuotaGate(p, deps.QuotaDir, decl, deps.LockCfg, deps.Logger)
		}

		if err := r.Register(Registration{Provider: p, Enabled: decl.Enabled, Cached: decl.Cached}); err != nil {
			r.logger.Warn().Err(err).Str("provider", decl.Name).Msg("Skipping duplicate provider")
		}
	}
}

// Registrations returns the providers in declaration order.
func (r *Registry) Registrations() []Registration {
	return r.registrations
}

// apiKeyParams resolves the declaration's API-key environment variable into
// the query parameter the upstream expects. The key never lives in the
// config file itself, only the variable name does. A declared but empty
// variable is logged, so a missing key is visible instead of silently
// fetching unauthenticated.
func apiKeyParams(decl config.ProviderDeclaration, paramName string, logger zerolog.Logger) map[string]string {
	if decl.APIKeyEnv == "" {
		return nil
	}
	key := os.Getenv(decl.APIKeyEnv)
	if key == "" {
		logger.Warn().
			Str("provider", decl.Name).
			Str("env", decl.APIKeyEnv).
			Msg("API key environment variable is declared but not set")
		return nil
	}
	return map[string]string{paramName: key}
}

// providerTimezone resolves the declared time zone, defaulting to Vienna
// where the upstream operators reset their daily budgets.
func providerTimezone(decl config.ProviderDeclaration) *time.Location {
	if decl.Timezone != "" {
		if loc, err := time.LoadLocation(decl.Timezone); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation("Europe/Vienna"); err == nil {
		return loc
	}
	return time.Local
}
