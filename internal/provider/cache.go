package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Origamihase/wien-oepnv/internal/config"
	"github.com/Origamihase/wien-oepnv/internal/models"
	"github.com/rs/zerolog"
)

// CacheProvider serves events from a local JSON cache file written by an
// out-of-band sync (for example the station-amenity sync that talks to paid
// APIs on its own schedule). It performs no network I/O and therefore runs
// inline instead of on the worker pool.
type CacheProvider struct {
	name   string
	path   string
	logger zerolog.Logger
}

// NewCacheProvider creates the provider from its declaration; URL names the
// local cache file.
func NewCacheProvider(decl config.ProviderDeclaration, deps Dependencies) (Provider, error) {
	if decl.URL == "" {
		return nil, fmt.Errorf("cache provider '%s' needs a file path in its url field", decl.Name)
	}
	return &CacheProvider{
		name:   decl.Name,
		path:   decl.URL,
		logger: deps.Logger.With().Str("component", "CacheProvider").Logger(),
	}, nil
}

// Name returns the declared provider name.
func (p *CacheProvider) Name() string {
	return p.name
}

// Fetch reads the cache file. A missing file is an empty result, not an
// error: the sync may simply not have run yet.
func (p *CacheProvider) Fetch(ctx context.Context) ([]models.Event, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Debug().Str("path", p.path).Msg("Cache file absent, returning no events")
			return nil, nil
		}
		return nil, err
	}

	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].Provider == "" {
			events[i].Provider = p.name
		}
	}
	return events, nil
}
