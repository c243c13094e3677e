package twse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"twscreener/internal/model"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL}, nil)
}

func TestFetchBars(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("dataset"); got != datasetPrice {
			t.Errorf("dataset = %q, want %q", got, datasetPrice)
		}
		if got := r.URL.Query().Get("data_id"); got != "2330" {
			t.Errorf("data_id = %q, want 2330 (suffix stripped)", got)
		}
		// Rows arrive out of order; client must sort ascending
		w.Write([]byte(`{"msg":"success","data":[
			{"date":"2026-03-03","open":101,"max":103,"min":100,"close":102,"Trading_Volume":2000},
			{"date":"2026-03-02","open":100,"max":102,"min":99,"close":101,"Trading_Volume":1500}
		]}`))
	})

	series, err := c.FetchBars(context.Background(), "2330.TW", 30)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len() != 2 {
		t.Fatalf("len = %d, want 2", series.Len())
	}
	if !series.Bars[0].Date.Before(series.Bars[1].Date) {
		t.Error("bars must be ascending by date")
	}
	if series.Bars[1].Close != 102 || series.Bars[1].Volume != 2000 {
		t.Errorf("last bar = %+v", series.Bars[1])
	}
	if err := series.Validate(); err != nil {
		t.Errorf("fetched series should validate: %v", err)
	}
}

func TestFetchBars_EmptyResponseIsUnavailable(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msg":"success","data":[]}`))
	})
	_, err := c.FetchBars(context.Background(), "9999.TW", 30)
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestFetchBars_ServerErrorIsUnavailable(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	_, err := c.FetchBars(context.Background(), "2330.TW", 30)
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestFetchBars_RejectsInvalidSymbol(t *testing.T) {
	called := false
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	_, err := c.FetchBars(context.Background(), "TSMC", 30)
	if !errors.Is(err, model.ErrInvalidSymbol) {
		t.Fatalf("expected ErrInvalidSymbol, got %v", err)
	}
	if called {
		t.Error("invalid symbol must be rejected before any request")
	}
}

func TestFetchFlow_AggregatesPerSession(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("dataset"); got != datasetFlow {
			t.Errorf("dataset = %q, want %q", got, datasetFlow)
		}
		w.Write([]byte(`{"msg":"success","data":[
			{"date":"2026-03-02","name":"Foreign_Investor","buy":5000,"sell":2000},
			{"date":"2026-03-02","name":"Foreign_Dealer_Self","buy":100,"sell":300},
			{"date":"2026-03-02","name":"Investment_Trust","buy":800,"sell":200},
			{"date":"2026-03-03","name":"Foreign_Investor","buy":1000,"sell":4000}
		]}`))
	})

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	entries, err := c.FetchFlow(context.Background(), "2330.TW", from, from.AddDate(0, 0, 5))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	// Both foreign rows fold into one net figure
	if entries[0].ForeignNet != 2800 {
		t.Errorf("foreign net = %d, want 2800", entries[0].ForeignNet)
	}
	if entries[0].TrustNet != 600 {
		t.Errorf("trust net = %d, want 600", entries[0].TrustNet)
	}
	if entries[1].ForeignNet != -3000 {
		t.Errorf("day 2 foreign net = %d, want -3000", entries[1].ForeignNet)
	}
}
