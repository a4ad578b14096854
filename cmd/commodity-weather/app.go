package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/i474232898/commodity-weather-forecast/internal/config"
	"github.com/i474232898/commodity-weather-forecast/internal/fetch"
	"github.com/i474232898/commodity-weather-forecast/internal/forecast"
	"github.com/i474232898/commodity-weather-forecast/internal/metrics"
	"github.com/i474232898/commodity-weather-forecast/internal/pipeline"
	"github.com/i474232898/commodity-weather-forecast/internal/store"
	"github.com/i474232898/commodity-weather-forecast/internal/weather"
)

// app holds the wired collaborators shared by every subcommand.
type app struct {
	store    store.Store
	pipeline *pipeline.Service
	forecast *forecast.Service
	metrics  *metrics.Metrics
}

func build(cfg *config.AppConfig) (*app, error) {
	m := metrics.New()

	st, err := store.Open(cfg.StoreDriver, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	loc := cfg.Location
	if cfg.GeocoderAPIKey != "" && loc.City != "" {
		resolved, err := weather.Geocode(loc.City, loc.Country, cfg.GeocoderAPIKey)
		if err != nil {
			log.Warn().Err(err).Str("location", loc.Key()).Msg("geocoding failed; using configured coordinates")
		} else {
			loc = resolved
		}
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	newFetcher := func(name string) *fetch.Client {
		return fetch.New(fetch.Config{
			Name:          name,
			Client:        httpClient,
			Backoff:       fetch.BackoffConfig{MaxRetries: cfg.FetchMaxRetries},
			OnStateChange: m.BreakerStateChange,
		})
	}

	adapter := forecast.NewAdapter(func() forecast.Oracle {
		return forecast.NewForecasterOracle(cfg.ForecastFreq)
	})
	fc := forecast.NewService(st, adapter, cfg.ForecastCacheTTL, m)

	svc := pipeline.NewService(
		newFetcher("worldbank"),
		weather.NewOpenMeteoClient(newFetcher("openmeteo"), cfg.WeatherURL),
		st,
		pipeline.PriceSource{
			URL:    cfg.PricesURL,
			Sheet:  cfg.PricesSheet,
			Label:  cfg.PricesLabel,
			Strict: cfg.PricesStrictLabel,
		},
		loc,
		pipeline.WithObserver(m),
		pipeline.WithWriteListener(fc.Invalidate),
	)

	return &app{store: st, pipeline: svc, forecast: fc, metrics: m}, nil
}
