package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Origamihase/wien-oepnv/internal/config"
	"github.com/Origamihase/wien-oepnv/internal/dedupe"
	"github.com/Origamihase/wien-oepnv/internal/filemanager"
	"github.com/Origamihase/wien-oepnv/internal/httpclient"
	"github.com/Origamihase/wien-oepnv/internal/logger"
	"github.com/Origamihase/wien-oepnv/internal/provider"
	"github.com/Origamihase/wien-oepnv/internal/urlcheck"
	"github.com/rs/zerolog"
)

func main() {
	configFile := flag.String("config", "", "Path to the YAML configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for -config")
	outputFile := flag.String("output", "-", "Where to write the gathered records as JSON ('-' for stdout).")
	flag.Parse()

	if *configFile == "" && *configFileAlias != "" {
		*configFile = *configFileAlias
	}

	gCfg, err := config.LoadGlobalConfig(*configFile)
	if err != nil {
		log.Fatalf("[FATAL] Could not load configuration: %v", err)
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Could not initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, gCfg, *outputFile, zLogger); err != nil {
		zLogger.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, gCfg *config.GlobalConfig, outputFile string, zLogger zerolog.Logger) error {
	fetcher, err := buildFetcher(gCfg, zLogger)
	if err != nil {
		return fmt.Errorf("could not build fetcher: %w", err)
	}

	lockCfg := filemanager.FileLockConfig{
		Timeout:  time.Duration(gCfg.QuotaConfig.LockTimeoutSecs) * time.Second,
		Stale:    time.Duration(gCfg.QuotaConfig.LockStaleSecs) * time.Second,
		PollBase: time.Duration(gCfg.QuotaConfig.LockPollBaseMillis) * time.Millisecond,
	}

	registry := provider.NewRegistry(zLogger)
	registry.BuildFromDeclarations(providerDeclarations(gCfg), provider.Dependencies{
		Fetcher:  fetcher,
		QuotaDir: gCfg.QuotaConfig.Dir,
		LockCfg:  lockCfg,
		Logger:   zLogger,
	})

	orchestrator := provider.NewOrchestrator(registry, gCfg.ProviderConfig, zLogger)
	result, runErr := orchestrator.Run(ctx)

	store, err := dedupe.NewStateStore(gCfg.StateConfig.Path, lockCfg, zLogger)
	if err != nil {
		return fmt.Errorf("could not open state store: %w", err)
	}

	now := time.Now()
	events := dedupe.NewDeduplicator(store, zLogger).Process(result.Events, now)
	store.Prune(gCfg.StateConfig.RetentionDays, now)
	if err := store.Save(); err != nil {
		return fmt.Errorf("could not persist state store: %w", err)
	}

	if err := writeOutput(outputFile, events); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}

	// A run always emits whatever was gathered; only a total provider
	// blackout escalates to a run-level failure.
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	zLogger.Info().Int("events", len(events)).Msg("Run complete")
	return nil
}

func buildFetcher(gCfg *config.GlobalConfig, zLogger zerolog.Logger) (*httpclient.SecureFetcher, error) {
	fCfg := gCfg.FetcherConfig

	validator := urlcheck.NewValidator(urlcheck.ValidatorConfig{
		AllowedPorts: fCfg.AllowedPorts,
		CheckDNS:     true,
		DNSTimeout:   time.Duration(fCfg.DNSTimeoutSecs) * time.Second,
		TrustProxy:   fCfg.TrustProxy,
	}, zLogger)

	return httpclient.NewSecureFetcherBuilder(zLogger).
		WithValidator(validator).
		WithConfig(httpclient.SecureFetcherConfig{
			RequestTimeout:      time.Duration(fCfg.RequestTimeoutSecs) * time.Second,
			ReadTimeout:         time.Duration(fCfg.RequestTimeoutSecs) * time.Second,
			MaxResponseBytes:    fCfg.MaxResponseBytes,
			MaxRedirects:        fCfg.MaxRedirects,
			AllowedContentTypes: fCfg.AllowedContentTypes,
			UserAgent:           fCfg.UserAgent,
		}).
		Build()
}

// providerDeclarations returns the configured provider set, falling back to
// the built-in Vienna sources when the configuration declares none.
func providerDeclarations(gCfg *config.GlobalConfig) []config.ProviderDeclaration {
	if len(gCfg.ProviderConfig.Providers) > 0 {
		return gCfg.ProviderConfig.Providers
	}
	return []config.ProviderDeclaration{
		{Name: "wienerlinien", Type: "wienerlinien", Enabled: true},
		{Name: "oebb", Type: "oebb", Enabled: true},
	}
}

func writeOutput(path string, events interface{}) error {
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
