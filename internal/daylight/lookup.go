package daylight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Times holds one day's sunrise and sunset instants in UTC.
type Times struct {
	Sunrise time.Time
	Sunset  time.Time
}

// IsZero reports whether the times are unset.
func (t Times) IsZero() bool {
	return t.Sunrise.IsZero() || t.Sunset.IsZero()
}

// Lookup resolves sunrise/sunset for a location and date.
type Lookup interface {
	Daylight(ctx context.Context, lat, lon float64, date time.Time) (Times, error)
}

// HTTPLookup queries the sunrise-sunset.org JSON API.
type HTTPLookup struct {
	client  *http.Client
	baseURL string
}

// NewHTTPLookup creates a lookup client with the given request timeout.
func NewHTTPLookup(timeout time.Duration) *HTTPLookup {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPLookup{
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://api.sunrise-sunset.org/json",
	}
}

// Daylight fetches sunrise and sunset (UTC) for the date's calendar day.
func (l *HTTPLookup) Daylight(ctx context.Context, lat, lon float64, date time.Time) (Times, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lng", fmt.Sprintf("%.6f", lon))
	q.Set("date", date.UTC().Format("2006-01-02"))
	q.Set("formatted", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Times{}, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Times{}, fmt.Errorf("daylight lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Times{}, fmt.Errorf("daylight lookup failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Times{}, err
	}

	var parsed struct {
		Results struct {
			Sunrise time.Time `json:"sunrise"`
			Sunset  time.Time `json:"sunset"`
		} `json:"results"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Times{}, fmt.Errorf("malformed daylight response: %w", err)
	}
	if parsed.Status != "OK" {
		return Times{}, fmt.Errorf("daylight lookup returned status %q", parsed.Status)
	}

	return Times{
		Sunrise: parsed.Results.Sunrise.UTC(),
		Sunset:  parsed.Results.Sunset.UTC(),
	}, nil
}
