package openmeteo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// DefaultBaseURL is the public Open-Meteo historical archive endpoint.
const DefaultBaseURL = "https://archive-api.open-meteo.com"

// dailyMetrics is the fixed set of per-day quantities requested for every window.
const dailyMetrics = "temperature_2m_max,temperature_2m_mean,precipitation_sum,windspeed_10m_max,winddirection_10m_dominant"

// StatusError is a non-200 archive response. The linker retries transient
// statuses and gives up on the rest.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("archive API error: status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client fetches daily weather series from the Open-Meteo archive API.
// Requests pass through a circuit breaker so a broken upstream trips fast
// instead of timing out once per record across a large batch.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	breaker    *gobreaker.CircuitBreaker[domain.WeatherDoc]
}

// NewClient creates an archive client. Pass an empty baseURL for the public endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
		breaker: gobreaker.NewCircuitBreaker[domain.WeatherDoc](gobreaker.Settings{
			Name: "openmeteo-archive",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			Timeout: 30 * time.Second,
		}),
	}
}

// FetchDaily requests the five daily metrics for [start, end] inclusive at the
// given point. The returned document has a validated series but no FID; the
// caller owns the key.
func (c *Client) FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) (domain.WeatherDoc, error) {
	params := url.Values{
		"latitude":   {fmt.Sprintf("%.6f", lat)},
		"longitude":  {fmt.Sprintf("%.6f", lon)},
		"start_date": {start.Format(domain.DateLayout)},
		"end_date":   {end.Format(domain.DateLayout)},
		"daily":      {dailyMetrics},
		"timezone":   {"auto"},
	}
	fullURL := c.baseURL + "/v1/archive?" + params.Encode()

	return c.breaker.Execute(func() (domain.WeatherDoc, error) {
		return c.doRequest(ctx, fullURL)
	})
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.WeatherDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherDoc{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherDoc{}, fmt.Errorf("archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherDoc{}, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var archiveResp response
	if err := json.NewDecoder(resp.Body).Decode(&archiveResp); err != nil {
		return domain.WeatherDoc{}, fmt.Errorf("decode response: %w", err)
	}

	doc := domain.WeatherDoc{
		Latitude:  archiveResp.Latitude,
		Longitude: archiveResp.Longitude,
		Elevation: archiveResp.Elevation,
		Daily:     archiveResp.Daily,
	}
	if err := doc.Daily.Validate(); err != nil {
		return domain.WeatherDoc{}, fmt.Errorf("archive response: %w", err)
	}
	return doc, nil
}

// response is the archive API wire shape: point metadata plus parallel daily arrays.
type response struct {
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Elevation float64            `json:"elevation"`
	Daily     domain.DailySeries `json:"daily"`
}
