// Package forecast turns a stored two-column series into the shape a
// forecasting oracle consumes and returns its predictions.
package forecast

import (
	"fmt"
	"strings"
	"time"
)

// Sample is one (timestamp, value) observation handed to an oracle.
type Sample struct {
	Timestamp time.Time
	Value     float64
}

// Point is a fitted or predicted value with its uncertainty band.
type Point struct {
	Date  time.Time `json:"ds"`
	Yhat  float64   `json:"yhat"`
	Lower float64   `json:"yhat_lower"`
	Upper float64   `json:"yhat_upper"`
	// Future is true for points past the last observation.
	Future bool `json:"future"`
}

// Oracle fits historical samples and predicts the fitted span extended by
// horizon periods. Implementations are single use: one Fit, then Predict.
type Oracle interface {
	Fit(samples []Sample) error
	Predict(horizon int) ([]Point, error)
}

// Frequency is the length of one forecast period.
type Frequency string

const (
	Daily      Frequency = "D"
	MonthStart Frequency = "MS"
)

// ParseFrequency accepts "D" or "MS" (case-insensitive).
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToUpper(strings.TrimSpace(s))) {
	case Daily, "":
		return Daily, nil
	case MonthStart:
		return MonthStart, nil
	default:
		return "", fmt.Errorf("unknown forecast frequency %q (want D or MS)", s)
	}
}

// Next returns the timestamp n periods after t.
func (f Frequency) Next(t time.Time, n int) time.Time {
	if f == MonthStart {
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return first.AddDate(0, n, 0)
	}
	return t.AddDate(0, 0, n)
}
