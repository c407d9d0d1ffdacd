package provider

import (
	"bytes"
	"context"
	"strings"

	"github.com/Origamihase/wien-oepnv/internal/config"
	"github.com/Origamihase/wien-oepnv/internal/httpclient"
	"github.com/Origamihase/wien-oepnv/internal/models"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultOEBBURL = "https://fahrplan.oebb.at/bin/help.exe/dnl?tpl=rss_him&"

const oebbAPIKeyParam = "key"

// OEBBProvider fetches the ÖBB disruption feed. The payload is pulled
// through the secure fetcher and only then handed to the feed parser, so the
// parser never opens its own connections.
type OEBBProvider struct {
	name    string
	url     string
	params  map[string]string
	fetcher *httpclient.SecureFetcher
	parser  *gofeed.Parser
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewOEBBProvider creates the provider from its declaration.
func NewOEBBProvider(decl config.ProviderDeclaration, deps Dependencies) (Provider, error) {
	if deps.Fetcher == nil {
		return nil, httpclient.NewError("oebb provider requires a fetcher")
	}
	url := decl.URL
	if url == "" {
		url = defaultOEBBURL
	}
	return &OEBBProvider{
		name:    decl.Name,
		url:     url,
		params:  apiKeyParams(decl, oebbAPIKeyParam, deps.Logger),
		fetcher: deps.Fetcher,
		parser:  gofeed.NewParser(),
		limiter: newRateLimiter(decl.RatePerSecond),
		logger:  deps.Logger.With().Str("component", "OEBBProvider").Logger(),
	}, nil
}

// Name returns the declared provider name.
func (p *OEBBProvider) Name() string {
	return p.name
}

// Fetch pulls and parses the disruption feed.
func (p *OEBBProvider) Fetch(ctx context.Context) ([]models.Event, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := p.fetcher.Fetch(ctx, httpclient.FetchInput{URL: p.url, Params: p.params})
	if err != nil {
		return nil, err
	}

	feed, err := p.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, httpclient.WrapError(err, "failed to parse disruption feed")
	}

	events := make([]models.Event, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		event := models.Event{
			Provider:    p.name,
			Title:       title,
			Description: strings.TrimSpace(item.Description),
			Link:        item.Link,
		}
		if item.PublishedParsed != nil {
			event.StartsAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			event.StartsAt = *item.UpdatedParsed
		}
		events = append(events, event)
	}

	p.logger.Debug().Int("count", len(events)).Msg("Fetched disruption feed items")
	return events, nil
}
