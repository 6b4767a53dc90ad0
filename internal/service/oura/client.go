package oura

import (
	"context"
	"fmt"
	"time"

	"VitaPull/internal/domain/models"
	drepo "VitaPull/internal/domain/repository"
	"VitaPull/internal/service/ratelimit"
	pkghttp "VitaPull/pkg/http"
)

const (
	defaultBaseURL = "https://api.ouraring.com"

	pathSleep     = "/v2/usercollection/daily_sleep"
	pathActivity  = "/v2/usercollection/daily_activity"
	pathReadiness = "/v2/usercollection/daily_readiness"
	pathPersonal  = "/v2/usercollection/personal_info"
)

// Client implements VendorSource against the Oura v2 REST API. One daily
// record merges the sleep, activity and readiness documents of a calendar
// day; vendor contributor sub-scores are flattened into contributor_* metrics.
type Client struct {
	token   string
	baseURL string
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
	// token bucket shared by all endpoints; the vendor enforces a daily
	// request quota
	rlCapacity float64
	rlRefill   float64
}

type Option func(*Client)

// WithBaseURL overrides the API host, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimit overrides the client-side token bucket.
func WithRateLimit(capacity, refillPerSec float64) Option {
	return func(c *Client) {
		if capacity > 0 {
			c.rlCapacity = capacity
		}
		if refillPerSec > 0 {
			c.rlRefill = refillPerSec
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *pkghttp.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		http:       pkghttp.NewClient(pkghttp.WithTimeout(15 * time.Second)),
		limiter:    ratelimit.New(),
		rlCapacity: 5,
		rlRefill:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// API document shapes. The three daily endpoints share a superset schema;
// fields a given endpoint does not return stay nil.
type dailyEntry struct {
	Day                       string              `json:"day"`
	Score                     *float64            `json:"score"`
	Steps                     *float64            `json:"steps"`
	TotalCalories             *float64            `json:"total_calories"`
	ActiveCalories            *float64            `json:"active_calories"`
	TemperatureDeviation      *float64            `json:"temperature_deviation"`
	TemperatureTrendDeviation *float64            `json:"temperature_trend_deviation"`
	Contributors              map[string]*float64 `json:"contributors"`
}

type listResponse struct {
	Data      []dailyEntry `json:"data"`
	NextToken *string      `json:"next_token"`
}

// FetchRange pulls all three daily collections for [from, to] and merges them
// into one record per day, sorted ascending.
func (c *Client) FetchRange(ctx context.Context, from, to time.Time) ([]models.DailyRecord, error) {
	byDay := make(map[string]*models.DailyRecord)

	type endpoint struct {
		path  string
		score string
	}
	endpoints := []endpoint{
		{pathSleep, models.MetricSleepScore},
		{pathActivity, models.MetricActivityScore},
		{pathReadiness, models.MetricReadinessScore},
	}
	for _, ep := range endpoints {
		entries, err := c.fetchCollection(ctx, ep.path, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", ep.path, err)
		}
		for i := range entries {
			mergeEntry(byDay, &entries[i], ep.score)
		}
	}

	out := make([]models.DailyRecord, 0, len(byDay))
	for _, r := range byDay {
		out = append(out, *r)
	}
	models.SortRecords(out)
	return out, nil
}

func mergeEntry(byDay map[string]*models.DailyRecord, e *dailyEntry, scoreMetric string) {
	day, err := time.ParseInLocation("2006-01-02", e.Day, time.UTC)
	if err != nil {
		return
	}
	r, ok := byDay[e.Day]
	if !ok {
		r = &models.DailyRecord{Day: day}
		byDay[e.Day] = r
	}
	setIf := func(metric string, v *float64) {
		if v != nil {
			r.Set(metric, *v)
		}
	}
	setIf(scoreMetric, e.Score)
	setIf(models.MetricSteps, e.Steps)
	setIf(models.MetricTotalCalories, e.TotalCalories)
	setIf(models.MetricActiveCalories, e.ActiveCalories)
	setIf(models.MetricTempDeviation, e.TemperatureDeviation)
	setIf(models.MetricTempTrend, e.TemperatureTrendDeviation)
	for name, v := range e.Contributors {
		setIf(models.ContributorPrefix+name, v)
	}
}

func (c *Client) fetchCollection(ctx context.Context, path string, from, to time.Time) ([]dailyEntry, error) {
	var out []dailyEntry
	nextToken := ""
	for {
		params := map[string][]string{
			"start_date": {from.Format("2006-01-02")},
			"end_date":   {to.Format("2006-01-02")},
		}
		if nextToken != "" {
			params["next_token"] = []string{nextToken}
		}

		var page listResponse
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)

		if page.NextToken == nil || *page.NextToken == "" {
			return out, nil
		}
		nextToken = *page.NextToken
	}
}

func (c *Client) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if err := c.waitForToken(ctx); err != nil {
		return err
	}
	return c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: params,
		Headers:     map[string]string{"Authorization": "Bearer " + c.token},
	}, dest)
}

func (c *Client) waitForToken(ctx context.Context) error {
	for !c.limiter.Allow("oura", c.rlCapacity, c.rlRefill) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

// Health checks API reachability and token validity.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, pathPersonal, nil, nil)
}

func (c *Client) Close() error { return nil }

var _ drepo.VendorSource = (*Client)(nil)
