package weather

import (
	"context"
	"fmt"
	"net/url"
)

// DefaultOpenMeteoURL is the Open-Meteo forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// JSONFetcher is the HTTP collaborator the client depends on.
type JSONFetcher interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// OpenMeteoClient requests daily max temperature and precipitation.
type OpenMeteoClient struct {
	fetcher JSONFetcher
	baseURL string
}

// NewOpenMeteoClient creates a client. An empty baseURL uses DefaultOpenMeteoURL.
func NewOpenMeteoClient(fetcher JSONFetcher, baseURL string) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoClient{fetcher: fetcher, baseURL: baseURL}
}

// DailyURL builds the request URL for loc.
func (c *OpenMeteoClient) DailyURL(loc Location) string {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%g", loc.Lat))
	values.Set("longitude", fmt.Sprintf("%g", loc.Lon))
	values.Set("daily", "temperature_2m_max,precipitation_sum")
	values.Set("timezone", "UTC")
	return fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
}

// FetchDaily returns the raw daily forecast for loc.
func (c *OpenMeteoClient) FetchDaily(ctx context.Context, loc Location) (DailyResponse, error) {
	var payload DailyResponse
	if err := c.fetcher.GetJSON(ctx, c.DailyURL(loc), &payload); err != nil {
		return DailyResponse{}, fmt.Errorf("openmeteo daily %s: %w", loc.Key(), err)
	}
	return payload, nil
}
