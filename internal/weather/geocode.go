package weather

import (
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
)

var geocoderMu sync.Mutex

// Geocode resolves a city and country to coordinates with the Google
// geocoding API. The geocoder package keys requests through a global, so
// calls are serialized.
func Geocode(city, country, apiKey string) (Location, error) {
	if apiKey == "" {
		return Location{}, fmt.Errorf("geocoding %s requires an api key", city)
	}

	geocoderMu.Lock()
	defer geocoderMu.Unlock()

	geocoder.ApiKey = apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{
		City:    city,
		Country: country,
	})
	if err != nil {
		return Location{}, fmt.Errorf("geocode %s,%s: %w", city, country, err)
	}

	return Location{
		City:    city,
		Country: country,
		Lat:     loc.Latitude,
		Lon:     loc.Longitude,
	}, nil
}
