package oura

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"VitaPull/internal/domain/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New("test-token",
		WithBaseURL(srv.URL),
		WithRateLimit(100, 100))
	return srv, c
}

func TestFetchRangeMergesCollections(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("bad auth header %q", got)
		}
		if r.URL.Query().Get("start_date") != "2025-06-01" || r.URL.Query().Get("end_date") != "2025-06-02" {
			t.Errorf("bad date range: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/usercollection/daily_sleep":
			fmt.Fprint(w, `{"data":[
				{"day":"2025-06-01","score":82,"contributors":{"deep_sleep":90,"rem_sleep":null}},
				{"day":"2025-06-02","score":75}
			],"next_token":null}`)
		case "/v2/usercollection/daily_activity":
			fmt.Fprint(w, `{"data":[
				{"day":"2025-06-01","score":88,"steps":10432,"total_calories":2600,"active_calories":450}
			],"next_token":null}`)
		case "/v2/usercollection/daily_readiness":
			fmt.Fprint(w, `{"data":[
				{"day":"2025-06-01","score":71,"temperature_deviation":-0.2}
			],"next_token":null}`)
		default:
			http.NotFound(w, r)
		}
	})

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	records, err := c.FetchRange(context.Background(), from, to)
	if err != nil {
		t.Fatalf("fetch range: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 merged days, got %d", len(records))
	}

	day1 := records[0]
	if !day1.Day.Equal(from) {
		t.Fatalf("records not sorted ascending: first day %v", day1.Day)
	}
	want := map[string]float64{
		models.MetricSleepScore:               82,
		models.MetricActivityScore:            88,
		models.MetricReadinessScore:           71,
		models.MetricSteps:                    10432,
		models.MetricTotalCalories:            2600,
		models.MetricActiveCalories:           450,
		models.MetricTempDeviation:            -0.2,
		models.ContributorPrefix + "deep_sleep": 90,
	}
	if len(day1.Metrics) != len(want) {
		t.Fatalf("day1 metrics = %v, want %v", day1.Metrics, want)
	}
	for name, v := range want {
		if got, ok := day1.Metrics[name]; !ok || got != v {
			t.Fatalf("metric %s = %v (present=%v), want %v", name, got, ok, v)
		}
	}
	// null contributor must not materialize as a metric
	if _, ok := day1.Metrics[models.ContributorPrefix+"rem_sleep"]; ok {
		t.Fatalf("null contributor should be dropped")
	}

	day2 := records[1]
	if len(day2.Metrics) != 1 || day2.Metrics[models.MetricSleepScore] != 75 {
		t.Fatalf("day2 metrics = %v", day2.Metrics)
	}
}

func TestFetchRangePagination(t *testing.T) {
	pages := map[string]string{
		"":      `{"data":[{"day":"2025-06-01","score":80}],"next_token":"page2"}`,
		"page2": `{"data":[{"day":"2025-06-02","score":81}],"next_token":""}`,
	}
	var sleepCalls int
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v2/usercollection/daily_sleep" {
			sleepCalls++
			fmt.Fprint(w, pages[r.URL.Query().Get("next_token")])
			return
		}
		fmt.Fprint(w, `{"data":[],"next_token":null}`)
	})

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	records, err := c.FetchRange(context.Background(), from, to)
	if err != nil {
		t.Fatalf("fetch range: %v", err)
	}
	if sleepCalls != 2 {
		t.Fatalf("expected 2 paginated calls, got %d", sleepCalls)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records across pages, got %d", len(records))
	}
}

func TestFetchRangeUpstreamError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
	})
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := c.FetchRange(context.Background(), from, from); err == nil {
		t.Fatalf("expected error on 401")
	}
}

func TestHealth(t *testing.T) {
	var path string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"u1","age":34}`)
	})
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if path != "/v2/usercollection/personal_info" {
		t.Fatalf("unexpected path %s", path)
	}
}

func TestMergeEntrySkipsBadDay(t *testing.T) {
	byDay := make(map[string]*models.DailyRecord)
	score := 50.0
	mergeEntry(byDay, &dailyEntry{Day: "not-a-date", Score: &score}, models.MetricSleepScore)
	if len(byDay) != 0 {
		t.Fatalf("malformed day should be skipped")
	}
}
