package forecast

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/commodity-weather-forecast/internal/series"
)

// Reader is the part of the store the forecast service needs.
type Reader interface {
	Read(ctx context.Context, name string) (series.Frame, error)
}

// CacheObserver is notified about cache hits and misses.
type CacheObserver interface {
	ObserveForecastCache(hit bool)
}

// Service forecasts the stored price series and caches results by
// horizon until the series is rewritten or the TTL passes.
type Service struct {
	store    Reader
	adapter  *Adapter
	cache    *gocache.Cache
	observer CacheObserver
	name     string

	// gen counts invalidations. A miss only caches its result if no
	// invalidation happened since it started reading the store.
	mu  sync.Mutex
	gen uint64
}

// NewService creates a Service over the commodity_prices series.
// A ttl <= 0 disables expiry; entries then live until Invalidate.
func NewService(store Reader, adapter *Adapter, ttl time.Duration, observer CacheObserver) *Service {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Service{
		store:    store,
		adapter:  adapter,
		cache:    gocache.New(ttl, 10*time.Minute),
		observer: observer,
		name:     series.CommodityPrices,
	}
}

// Forecast returns the forecast for the stored price series.
func (s *Service) Forecast(ctx context.Context, horizon int) (Result, error) {
	key := strconv.Itoa(horizon)
	if v, ok := s.cache.Get(key); ok {
		s.observe(true)
		return v.(Result), nil
	}
	s.observe(false)

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	frame, err := s.store.Read(ctx, s.name)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", s.name, err)
	}

	res, err := s.adapter.Forecast(frame, horizon)
	if err != nil {
		return Result{}, fmt.Errorf("forecast %s: %w", s.name, err)
	}
	if res.Dropped > 0 {
		log.Warn().Str("series", s.name).Int("dropped", res.Dropped).Int("fitted", res.Fitted).
			Msg("forecast: rows dropped from fitting set")
	}

	s.mu.Lock()
	if s.gen == gen {
		s.cache.Set(key, res, gocache.DefaultExpiration)
	}
	s.mu.Unlock()
	return res, nil
}

// Invalidate drops cached forecasts when the forecast series is rewritten.
func (s *Service) Invalidate(name string) {
	if name != s.name {
		return
	}
	s.mu.Lock()
	s.gen++
	s.cache.Flush()
	s.mu.Unlock()
}

func (s *Service) observe(hit bool) {
	if s.observer != nil {
		s.observer.ObserveForecastCache(hit)
	}
}
