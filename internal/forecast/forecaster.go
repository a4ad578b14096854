package forecast

import (
	"errors"
	"fmt"
	"sort"
	"time"

	forecaster "github.com/aouyang1/go-forecaster"
)

var errNotFitted = errors.New("oracle has not been fitted")

// ForecasterOracle fits trend and Fourier seasonality with go-forecaster
// and predicts the fitted span extended by Freq periods.
type ForecasterOracle struct {
	Freq Frequency
	// Options are passed to forecaster.New; nil uses the library defaults.
	Options *forecaster.Options

	model   *forecaster.Forecaster
	history []time.Time
}

// NewForecasterOracle returns an oracle extending by freq periods.
func NewForecasterOracle(freq Frequency) *ForecasterOracle {
	return &ForecasterOracle{Freq: freq}
}

// Fit trains the model on samples in timestamp order.
func (o *ForecasterOracle) Fit(samples []Sample) error {
	if len(samples) < 2 {
		return errors.New("at least two samples are required")
	}

	sorted := append([]Sample(nil), samples...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	t := make([]time.Time, len(sorted))
	y := make([]float64, len(sorted))
	o.history = o.history[:0]
	for i, s := range sorted {
		t[i] = s.Timestamp
		y[i] = s.Value
		if i == 0 || !s.Timestamp.Equal(sorted[i-1].Timestamp) {
			o.history = append(o.history, s.Timestamp)
		}
	}

	model, err := forecaster.New(o.Options)
	if err != nil {
		return fmt.Errorf("new forecaster: %w", err)
	}
	if err := model.Fit(t, y); err != nil {
		return err
	}
	o.model = model
	return nil
}

// Predict returns one point per distinct historical timestamp followed by
// horizon future periods.
func (o *ForecasterOracle) Predict(horizon int) ([]Point, error) {
	if o.model == nil {
		return nil, errNotFitted
	}
	if horizon < 0 {
		return nil, errors.New("horizon must not be negative")
	}

	last := o.history[len(o.history)-1]
	ts := append([]time.Time(nil), o.history...)
	for i := 1; i <= horizon; i++ {
		ts = append(ts, o.Freq.Next(last, i))
	}

	res, err := o.model.Predict(ts)
	if err != nil {
		return nil, err
	}
	n := len(res.T)
	if len(res.Forecast) != n || len(res.Upper) != n || len(res.Lower) != n {
		return nil, fmt.Errorf("forecaster returned uneven results: t=%d forecast=%d upper=%d lower=%d",
			n, len(res.Forecast), len(res.Upper), len(res.Lower))
	}

	out := make([]Point, n)
	for i := range out {
		out[i] = Point{
			Date:   res.T[i],
			Yhat:   res.Forecast[i],
			Lower:  res.Lower[i],
			Upper:  res.Upper[i],
			Future: res.T[i].After(last),
		}
	}
	return out, nil
}
