package config

import (
	"testing"
	"time"

	"github.com/i474232898/commodity-weather-forecast/internal/forecast"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PricesSheet != "Monthly Prices" || cfg.PricesLabel != "crude oil, brent" {
		t.Errorf("prices = %q / %q", cfg.PricesSheet, cfg.PricesLabel)
	}
	if cfg.Location.Lat != -21.5 || cfg.Location.Lon != -45.0 {
		t.Errorf("location = %+v", cfg.Location)
	}
	if cfg.TaskRetries != 1 || cfg.TaskRetryDelay != 5*time.Minute {
		t.Errorf("retries = %d / %v", cfg.TaskRetries, cfg.TaskRetryDelay)
	}
	if cfg.ForecastHorizon != 90 || cfg.ForecastFreq != forecast.Daily {
		t.Errorf("forecast = %d / %v", cfg.ForecastHorizon, cfg.ForecastFreq)
	}
	if cfg.StoreDriver != "sqlite" || cfg.FetchMaxRetries != 0 {
		t.Errorf("store = %q, fetch retries = %d", cfg.StoreDriver, cfg.FetchMaxRetries)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRICES_STRICT_LABEL", "true")
	t.Setenv("WEATHER_LAT", "48.85")
	t.Setenv("FORECAST_FREQ", "MS")
	t.Setenv("TASK_RETRY_DELAY", "30s")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.PricesStrictLabel || cfg.Location.Lat != 48.85 || cfg.ForecastFreq != forecast.MonthStart {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TaskRetryDelay != 30*time.Second || cfg.StoreDriver != "memory" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"TASK_RETRY_DELAY":    "soon",
		"TASK_RETRIES":        "one",
		"WEATHER_LON":         "west",
		"PRICES_STRICT_LABEL": "maybe",
		"FORECAST_FREQ":       "W",
		"FORECAST_HORIZON":    "-1",
		"STORE_DRIVER":        "mongo",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", key, val)
			}
		})
	}
}
