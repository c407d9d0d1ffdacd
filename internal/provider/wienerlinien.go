package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/config"
	"github.com/Origamihase/wien-oepnv/internal/httpclient"
	"github.com/Origamihase/wien-oepnv/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultWienerLinienURL = "https://www.wienerlinien.at/ogd_realtime/trafficInfoList"

// The OGD gateway identifies registered consumers by a "sender" parameter.
const wlAPIKeyParam = "sender"

// WienerLinienProvider fetches the Wiener Linien OGD realtime traffic info
// list and maps it onto plain events. Text cleanup beyond whitespace
// trimming is left to downstream consumers.
type WienerLinienProvider struct {
	name    string
	url     string
	params  map[string]string
	fetcher *httpclient.SecureFetcher
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewWienerLinienProvider creates the provider from its declaration.
func NewWienerLinienProvider(decl config.ProviderDeclaration, deps Dependencies) (Provider, error) {
	if deps.Fetcher == nil {
		return nil, httpclient.NewError("wienerlinien provider requires a fetcher")
	}
	url := decl.URL
	if url == "" {
		url = defaultWienerLinienURL
	}
	return &WienerLinienProvider{
		name:    decl.Name,
		url:     url,
		params:  apiKeyParams(decl, wlAPIKeyParam, deps.Logger),
		fetcher: deps.Fetcher,
		limiter: newRateLimiter(decl.RatePerSecond),
		logger:  deps.Logger.With().Str("component", "WienerLinienProvider").Logger(),
	}, nil
}

// Name returns the declared provider name.
func (p *WienerLinienProvider) Name() string {
	return p.name
}

type wlResponse struct {
	Data struct {
		TrafficInfos []wlTrafficInfo `json:"trafficInfos"`
	} `json:"data"`
}

type wlTrafficInfo struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	RelatedLines []string `json:"relatedLines"`
	Time         struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"time"`
	Attributes struct {
		Status  string `json:"status"`
		Station string `json:"station"`
		Reason  string `json:"reason"`
	} `json:"attributes"`
}

// Fetch pulls the current traffic info list.
func (p *WienerLinienProvider) Fetch(ctx context.Context) ([]models.Event, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := p.fetcher.Fetch(ctx, httpclient.FetchInput{URL: p.url, Params: p.params})
	if err != nil {
		return nil, err
	}

	var response wlResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, httpclient.WrapError(err, "failed to decode traffic info payload")
	}

	events := make([]models.Event, 0, len(response.Data.TrafficInfos))
	for _, info := range response.Data.TrafficInfos {
		title := strings.TrimSpace(info.Title)
		if title == "" {
			continue
		}
		event := models.Event{
			Provider:    p.name,
			Title:       title,
			Description: strings.TrimSpace(info.Description),
			Category:    strings.TrimSpace(info.Name),
			Lines:       info.RelatedLines,
			StartsAt:    parseWLTime(info.Time.Start),
		}
		if end := parseWLTime(info.Time.End); !end.IsZero() {
			event.EndsAt = &end
		}
		if station := strings.TrimSpace(info.Attributes.Station); station != "" {
			event.Stations = []string{station}
		}
		events = append(events, event)
	}

	p.logger.Debug().Int("count", len(events)).Msg("Fetched traffic infos")
	return events, nil
}

var wlTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseWLTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range wlTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// newRateLimiter builds the per-provider pacer; a missing rate means
// unlimited.
func newRateLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
