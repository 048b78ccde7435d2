package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const chartFixture = `{
  "chart": {
    "result": [
      {
        "timestamp": [1704067200, 1704153600, 1704240000],
        "indicators": {
          "quote": [
            {"close": [10.5, null, 11.25]}
          ]
        }
      }
    ],
    "error": null
  }
}`

func TestHistoryParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected interval %s", r.URL.Query().Get("interval"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartFixture))
	}))
	defer srv.Close()

	c := New(srv.URL, "1d", 5*time.Second)
	points, err := c.History(context.Background(), "AAPL", time.Unix(1704000000, 0), time.Unix(1704300000, 0))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// the null close is skipped
	if len(points) != 2 {
		t.Fatalf("len = %d, want 2", len(points))
	}
	if points[0].Close != 10.5 || points[1].Close != 11.25 {
		t.Fatalf("unexpected closes %v", points)
	}
	if !points[0].Timestamp.Equal(time.Unix(1704067200, 0).UTC()) {
		t.Fatalf("unexpected timestamp %v", points[0].Timestamp)
	}
}

func TestHistoryAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "1d", 5*time.Second)
	if _, err := c.History(context.Background(), "NOPE", time.Now().Add(-time.Hour), time.Now()); err == nil {
		t.Fatalf("expected error for api error payload")
	}
}

func TestHistoryHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "1d", 5*time.Second)
	if _, err := c.History(context.Background(), "AAPL", time.Now().Add(-time.Hour), time.Now()); err == nil {
		t.Fatalf("expected error for http 429")
	}
}
