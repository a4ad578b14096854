package weather

import "github.com/i474232898/commodity-weather-forecast/internal/series"

// Normalize pairs the parallel daily sequences by index into row-wise
// records. Sequences of different lengths are rejected rather than
// truncated.
func Normalize(resp DailyResponse) ([]series.WeatherRecord, error) {
	d := resp.Daily
	n := len(d.Time)
	if len(d.TemperatureMax) != n || len(d.PrecipitationSum) != n {
		return nil, &series.ShapeError{
			Fields:  []string{"time", "temperature_2m_max", "precipitation_sum"},
			Lengths: []int{n, len(d.TemperatureMax), len(d.PrecipitationSum)},
		}
	}

	records := make([]series.WeatherRecord, n)
	for i := 0; i < n; i++ {
		records[i] = series.WeatherRecord{
			Date:    d.Time[i],
			TempMax: d.TemperatureMax[i],
			Precip:  d.PrecipitationSum[i],
		}
	}
	return records, nil
}
