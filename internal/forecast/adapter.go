package forecast

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/i474232898/commodity-weather-forecast/internal/series"
)

// DefaultHorizon is the number of periods predicted past the last observation.
const DefaultHorizon = 90

// ErrNoSamples is returned when no row of the input survives conversion.
var ErrNoSamples = errors.New("no usable samples to fit")

// Result is the adapter output. Points are ascending by date and cover
// the fitted span followed by the horizon.
type Result struct {
	Points  []Point `json:"points"`
	Fitted  int     `json:"fitted"`
	Dropped int     `json:"dropped"`
}

// Future returns only the points past the last observation.
func (r Result) Future() []Point {
	out := make([]Point, 0, len(r.Points))
	for _, p := range r.Points {
		if p.Future {
			out = append(out, p)
		}
	}
	return out
}

// Adapter converts a stored series into oracle samples and back.
type Adapter struct {
	newOracle func() Oracle
}

// NewAdapter creates an adapter that builds a fresh oracle per forecast.
func NewAdapter(newOracle func() Oracle) *Adapter {
	return &Adapter{newOracle: newOracle}
}

// Forecast treats the first two columns of frame as (timestamp, value).
// Timestamps in period form or ISO form are decoded; rows whose timestamp
// or value cannot be used are dropped from the fitting set.
func (a *Adapter) Forecast(frame series.Frame, horizon int) (Result, error) {
	if len(frame.Columns) < 2 {
		return Result{}, fmt.Errorf("forecast needs two columns, got %d", len(frame.Columns))
	}
	if horizon < 0 {
		return Result{}, fmt.Errorf("horizon must not be negative, got %d", horizon)
	}

	samples, dropped := Samples(frame)
	if len(samples) == 0 {
		return Result{Dropped: dropped}, ErrNoSamples
	}

	oracle := a.newOracle()
	if err := oracle.Fit(samples); err != nil {
		return Result{}, fmt.Errorf("fit: %w", err)
	}
	points, err := oracle.Predict(horizon)
	if err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return Result{Points: points, Fitted: len(samples), Dropped: dropped}, nil
}

// Samples renames the first two positional columns to (timestamp, value)
// and returns the rows that convert cleanly, plus the dropped count.
func Samples(frame series.Frame) ([]Sample, int) {
	samples := make([]Sample, 0, len(frame.Rows))
	dropped := 0
	for _, row := range frame.Rows {
		if len(row) < 2 {
			dropped++
			continue
		}
		ts, ok := timestamp(row[0])
		if !ok {
			dropped++
			continue
		}
		v, ok := row[1].(float64)
		if !ok {
			dropped++
			continue
		}
		samples = append(samples, Sample{Timestamp: ts, Value: v})
	}
	return samples, dropped
}

func timestamp(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		t, err := series.Decode(strings.TrimSpace(x))
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}
