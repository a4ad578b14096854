package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/commodity-weather-forecast/internal/forecast"
	"github.com/i474232898/commodity-weather-forecast/internal/weather"
)

// DefaultPricesURL is the World Bank monthly commodity price workbook.
const DefaultPricesURL = "https://thedocs.worldbank.org/en/doc/5d903e848db1d1b83e0ec8f744e55570-0350012021/related/CMO-Historical-Data-Monthly.xlsx"

type AppConfig struct {
	// Price workbook.
	PricesURL         string
	PricesSheet       string
	PricesLabel       string
	PricesStrictLabel bool

	// Weather location. GeocoderAPIKey with City/Country set resolves
	// coordinates at startup instead of using Lat/Lon.
	WeatherURL     string
	Location       weather.Location
	GeocoderAPIKey string

	// Store backend: "sqlite" or "memory".
	StoreDriver string
	DBPath      string

	// Schedule is a cron expression in UTC.
	Schedule       string
	TaskRetries    int
	TaskRetryDelay time.Duration

	HTTPTimeout     time.Duration
	FetchMaxRetries int

	ForecastHorizon  int
	ForecastFreq     forecast.Frequency
	ForecastCacheTTL time.Duration

	Port      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("config: no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.PricesURL = getenvDefault("PRICES_URL", DefaultPricesURL)
	cfg.PricesSheet = getenvDefault("PRICES_SHEET", "Monthly Prices")
	cfg.PricesLabel = getenvDefault("PRICES_LABEL", "crude oil, brent")

	var err error
	if cfg.PricesStrictLabel, err = getenvBool("PRICES_STRICT_LABEL", false); err != nil {
		return nil, err
	}

	cfg.WeatherURL = getenvDefault("WEATHER_URL", weather.DefaultOpenMeteoURL)
	lat, err := getenvFloat("WEATHER_LAT", -21.5)
	if err != nil {
		return nil, err
	}
	lon, err := getenvFloat("WEATHER_LON", -45.0)
	if err != nil {
		return nil, err
	}
	cfg.Location = weather.Location{
		City:    os.Getenv("WEATHER_CITY"),
		Country: os.Getenv("WEATHER_COUNTRY"),
		Lat:     lat,
		Lon:     lon,
	}
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.StoreDriver = getenvDefault("STORE_DRIVER", "sqlite")
	if cfg.StoreDriver != "sqlite" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want sqlite or memory", cfg.StoreDriver)
	}
	cfg.DBPath = getenvDefault("DB_PATH", "data/data.db")

	cfg.Schedule = getenvDefault("SCHEDULE", "0 0 * * *")
	if cfg.TaskRetries, err = getenvInt("TASK_RETRIES", 1); err != nil {
		return nil, err
	}
	if cfg.TaskRetryDelay, err = getenvDuration("TASK_RETRY_DELAY", "5m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.FetchMaxRetries, err = getenvInt("FETCH_MAX_RETRIES", 0); err != nil {
		return nil, err
	}

	if cfg.ForecastHorizon, err = getenvInt("FORECAST_HORIZON", forecast.DefaultHorizon); err != nil {
		return nil, err
	}
	if cfg.ForecastHorizon < 0 {
		return nil, fmt.Errorf("invalid FORECAST_HORIZON: must not be negative")
	}
	if cfg.ForecastFreq, err = forecast.ParseFrequency(os.Getenv("FORECAST_FREQ")); err != nil {
		return nil, fmt.Errorf("invalid FORECAST_FREQ: %w", err)
	}
	if cfg.ForecastCacheTTL, err = getenvDuration("FORECAST_CACHE_TTL", "1h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "console")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
