// Package climate resolves monthly rainfall normals from the Open-Meteo
// historical weather archive.
package climate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultBaseURL is the public Open-Meteo archive host.
const DefaultBaseURL = "https://archive-api.open-meteo.com"

// ErrNoData is returned when the archive has no precipitation for the point.
var ErrNoData = errors.New("no precipitation data for location")

// Client implements domain.RainfallSource using the Open-Meteo archive API.
// Normals are the mean monthly totals over the last Years complete calendar
// years.
type Client struct {
	httpClient *http.Client
	baseURL    string
	years      int
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an archive client averaging over the given number of years.
func NewClient(baseURL string, years int, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if years <= 0 {
		years = 10
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		years:   years,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
}

// Name identifies the provider in assessment results.
func (c *Client) Name() string { return "open-meteo" }

// MonthlyNormals fetches daily precipitation for the averaging window and
// reduces it to 12 monthly means.
func (c *Client) MonthlyNormals(ctx context.Context, lat, lon float64) (domain.RainfallProfile, error) {
	endYear := c.clock.Now().UTC().Year() - 1
	startYear := endYear - c.years + 1

	params := url.Values{
		"latitude":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":  {strconv.FormatFloat(lon, 'f', 4, 64)},
		"start_date": {fmt.Sprintf("%04d-01-01", startYear)},
		"end_date":   {fmt.Sprintf("%04d-12-31", endYear)},
		"daily":      {"precipitation_sum"},
		"timezone":   {"UTC"},
	}
	fullURL := c.baseURL + "/v1/archive?" + params.Encode()

	start := time.Now()
	daily, err := c.doRequest(ctx, fullURL)
	c.metrics.RainfallAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RainfallRequests.WithLabelValues("error").Inc()
		return domain.RainfallProfile{}, err
	}

	profile, ok := monthlyMeans(daily)
	if !ok {
		c.metrics.RainfallRequests.WithLabelValues("empty").Inc()
		return domain.RainfallProfile{}, ErrNoData
	}
	c.metrics.RainfallRequests.WithLabelValues("success").Inc()
	c.logger.Debug("rainfall normals resolved",
		"lat", lat, "lon", lon,
		"start_year", startYear, "end_year", endYear,
		"annual_mm", profile.AnnualMM,
	)
	return profile, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (dailySeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return dailySeries{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dailySeries{}, fmt.Errorf("rainfall archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return dailySeries{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var archive response
	if err := json.NewDecoder(resp.Body).Decode(&archive); err != nil {
		return dailySeries{}, fmt.Errorf("decode response: %w", err)
	}
	if len(archive.Daily.Time) != len(archive.Daily.PrecipitationSum) {
		return dailySeries{}, fmt.Errorf("decode response: %d dates but %d precipitation values",
			len(archive.Daily.Time), len(archive.Daily.PrecipitationSum))
	}
	return archive.Daily, nil
}

// monthlyMeans sums daily precipitation into calendar months and averages
// each month over the years that reported it. Missing days count as dry.
// It reports false when no day carried a value.
func monthlyMeans(d dailySeries) (domain.RainfallProfile, bool) {
	type yearMonth struct {
		year  int
		month time.Month
	}
	totals := make(map[yearMonth]float64)
	seen := false

	for i, day := range d.Time {
		ts, err := time.Parse(time.DateOnly, day)
		if err != nil {
			continue
		}
		ym := yearMonth{ts.Year(), ts.Month()}
		v := d.PrecipitationSum[i]
		if v == nil {
			if _, ok := totals[ym]; !ok {
				totals[ym] = 0
			}
			continue
		}
		seen = true
		totals[ym] += *v
	}
	if !seen {
		return domain.RainfallProfile{}, false
	}

	var sums [domain.MonthsPerYear]float64
	var counts [domain.MonthsPerYear]int
	for ym, total := range totals {
		idx := int(ym.month) - 1
		sums[idx] += total
		counts[idx]++
	}

	var p domain.RainfallProfile
	for i := range sums {
		if counts[i] > 0 {
			p.MonthlyMM[i] = sums[i] / float64(counts[i])
		}
	}
	return p.Reconcile(), true
}

// Open-Meteo archive response types.

type response struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Daily     dailySeries `json:"daily"`
}

type dailySeries struct {
	Time             []string   `json:"time"`
	PrecipitationSum []*float64 `json:"precipitation_sum"` // null on missing days
}
