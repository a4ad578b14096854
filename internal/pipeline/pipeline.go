// Package pipeline runs the two extraction tasks: monthly commodity prices
// from a spreadsheet and the daily weather forecast.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/commodity-weather-forecast/internal/grid"
	"github.com/i474232898/commodity-weather-forecast/internal/series"
	"github.com/i474232898/commodity-weather-forecast/internal/weather"
)

// Task names as used by the scheduler and the API.
const (
	TaskPrices  = "prices"
	TaskWeather = "weather"
)

// Fetcher is the HTTP collaborator.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// WeatherSource returns the raw daily forecast for a location.
type WeatherSource interface {
	FetchDaily(ctx context.Context, loc weather.Location) (weather.DailyResponse, error)
}

// Writer is the store contract the pipeline writes through.
type Writer interface {
	Write(ctx context.Context, name string, frame series.Frame) error
}

// Observer receives run statistics. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveRun(task string, seconds float64, err error)
	ObserveExtraction(seriesName string, emitted, skipped int)
	ObserveStoreWrite(seriesName string, err error)
}

// PriceSource locates the price series inside the workbook.
type PriceSource struct {
	URL   string
	Sheet string
	Label string
	// Strict rejects workbooks where the label matches more than one cell.
	Strict bool
}

// Report summarizes one task run.
type Report struct {
	RunID    string        `json:"run_id"`
	Task     string        `json:"task"`
	Series   string        `json:"series"`
	Emitted  int           `json:"emitted"`
	Skipped  int           `json:"skipped"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Service orchestrates fetch, extraction and full-replace writes. It holds
// no state between runs, so any run can be retried in full.
type Service struct {
	fetcher  Fetcher
	weather  WeatherSource
	store    Writer
	prices   PriceSource
	location weather.Location
	observer Observer

	listeners []func(name string)
}

// Option configures a Service.
type Option func(*Service)

// WithObserver attaches run statistics reporting.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithWriteListener registers fn to be called after a series is replaced.
func WithWriteListener(fn func(name string)) Option {
	return func(s *Service) { s.listeners = append(s.listeners, fn) }
}

// NewService creates a new Service.
func NewService(fetcher Fetcher, ws WeatherSource, store Writer, prices PriceSource, loc weather.Location, opts ...Option) *Service {
	s := &Service{
		fetcher:  fetcher,
		weather:  ws,
		store:    store,
		prices:   prices,
		location: loc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the named task.
func (s *Service) Run(ctx context.Context, task string) (Report, error) {
	switch task {
	case TaskPrices:
		return s.FetchPrices(ctx)
	case TaskWeather:
		return s.FetchWeather(ctx)
	default:
		return Report{}, fmt.Errorf("unknown task %q", task)
	}
}

// FetchPrices downloads the workbook, extracts the labelled series and
// replaces commodity_prices. Nothing is written unless every step succeeds.
func (s *Service) FetchPrices(ctx context.Context) (rep Report, err error) {
	rep = s.begin(TaskPrices, series.CommodityPrices)
	defer func() { s.finish(&rep, err) }()

	data, err := s.fetcher.Get(ctx, s.prices.URL)
	if err != nil {
		return rep, fmt.Errorf("download prices: %w", err)
	}

	g, err := grid.FromXLSX(data, s.prices.Sheet)
	if err != nil {
		return rep, fmt.Errorf("parse prices: %w", err)
	}

	at, err := s.locate(g)
	if err != nil {
		return rep, err
	}

	ex, err := grid.Extract(g, at)
	if err != nil {
		return rep, fmt.Errorf("extract %q: %w", s.prices.Label, err)
	}
	rep.Emitted, rep.Skipped = len(ex.Series), ex.Skipped
	s.observeExtraction(series.CommodityPrices, rep.Emitted, rep.Skipped)

	log.Debug().Str("run_id", rep.RunID).Int("row", at.Row).Int("col", at.Col).
		Int("candidates", ex.Candidates).Msg("pipeline: price series located")

	if err := s.write(ctx, series.CommodityPrices, series.PriceFrame(ex.Series)); err != nil {
		return rep, err
	}
	return rep, nil
}

// FetchWeather requests the daily forecast, reshapes it and replaces
// weather_data.
func (s *Service) FetchWeather(ctx context.Context) (rep Report, err error) {
	rep = s.begin(TaskWeather, series.WeatherData)
	defer func() { s.finish(&rep, err) }()

	resp, err := s.weather.FetchDaily(ctx, s.location)
	if err != nil {
		return rep, fmt.Errorf("download weather: %w", err)
	}

	records, err := weather.Normalize(resp)
	if err != nil {
		return rep, fmt.Errorf("normalize weather: %w", err)
	}
	rep.Emitted = len(records)
	s.observeExtraction(series.WeatherData, rep.Emitted, 0)

	if err := s.write(ctx, series.WeatherData, series.WeatherFrame(records)); err != nil {
		return rep, err
	}
	return rep, nil
}

func (s *Service) locate(g *grid.Grid) (grid.Location, error) {
	if !s.prices.Strict {
		at, err := grid.Locate(g, s.prices.Label)
		if err != nil {
			return grid.Location{}, fmt.Errorf("locate price series: %w", err)
		}
		return at, nil
	}

	m := grid.Search(g, s.prices.Label)
	switch m.Status {
	case grid.Found:
		at, _ := m.First()
		return at, nil
	case grid.Ambiguous:
		cells := make([]string, len(m.Cells))
		for i, c := range m.Cells {
			cells[i] = c.String()
		}
		return grid.Location{}, fmt.Errorf("locate price series: %w", &series.AmbiguousError{Label: s.prices.Label, Cells: cells})
	default:
		return grid.Location{}, fmt.Errorf("locate price series: %w", &series.NotFoundError{Label: s.prices.Label})
	}
}

func (s *Service) write(ctx context.Context, name string, frame series.Frame) error {
	err := s.store.Write(ctx, name, frame)
	if s.observer != nil {
		s.observer.ObserveStoreWrite(name, err)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	for _, fn := range s.listeners {
		fn(name)
	}
	return nil
}

func (s *Service) begin(task, name string) Report {
	return Report{
		RunID:   uuid.NewString(),
		Task:    task,
		Series:  name,
		Started: time.Now().UTC(),
	}
}

func (s *Service) finish(rep *Report, err error) {
	rep.Duration = time.Since(rep.Started)
	if s.observer != nil {
		s.observer.ObserveRun(rep.Task, rep.Duration.Seconds(), err)
	}

	if err != nil {
		log.Error().Err(err).Str("task", rep.Task).Str("run_id", rep.RunID).
			Msg("pipeline: run failed; stored series left untouched")
		return
	}
	log.Info().Str("task", rep.Task).Str("run_id", rep.RunID).Str("series", rep.Series).
		Int("emitted", rep.Emitted).Int("skipped", rep.Skipped).Dur("duration", rep.Duration).
		Msg("pipeline: run completed")
}

func (s *Service) observeExtraction(name string, emitted, skipped int) {
	if s.observer != nil {
		s.observer.ObserveExtraction(name, emitted, skipped)
	}
}
