package weather

import "fmt"

// Location represents the place whose daily forecast is tracked.
// City/Country are informational once coordinates are known.
type Location struct {
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"latitude"`
	Lon     float64 `json:"longitude"`
}

// Key returns a canonical string key for logging.
func (l Location) Key() string {
	if l.City != "" {
		return l.City + ":" + l.Country
	}
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// DailyResponse is the subset of an Open-Meteo forecast response the
// pipeline consumes. Daily values may be null upstream.
type DailyResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     Daily   `json:"daily"`
}

// Daily holds the parallel daily sequences, one entry per day.
type Daily struct {
	Time             []string   `json:"time"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
}
