package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/byshoes/byshoes/internal/domain"
)

func newCounters() (*prometheus.CounterVec, *prometheus.CounterVec) {
	pages := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "pages"}, []string{"site", "status"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "retries"}, []string{"site"})
	return pages, retries
}

func testConfig(url string) FetchConfig {
	return FetchConfig{
		BaseURL:    url,
		Timeout:    2 * time.Second,
		MaxRetries: 3,
		MinBackoff: time.Millisecond,
		MaxBackoff: 5 * time.Millisecond,
	}
}

func TestFetcher_RetriesUntilOK(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`<html><body><h1 class="title">ok</h1></body></html>`))
	}))
	defer srv.Close()

	pages, retries := newCounters()
	f := NewFetcher("allstars", testConfig(srv.URL), pages, retries)

	doc, err := f.Document(context.Background(), "/store/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Find("h1.title").Text(); got != "ok" {
		t.Errorf("title = %q", got)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
	if got := testutil.ToFloat64(retries.WithLabelValues("allstars")); got != 2 {
		t.Errorf("retries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pages.WithLabelValues("allstars", "ok")); got != 1 {
		t.Errorf("ok pages = %v, want 1", got)
	}
}

func TestFetcher_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	pages, retries := newCounters()
	f := NewFetcher("multisports", testConfig(srv.URL), pages, retries)

	_, err := f.Document(context.Background(), "/catalog/")
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if calls.Load() != 4 {
		t.Errorf("expected 1 attempt + 3 retries, got %d calls", calls.Load())
	}
	if got := testutil.ToFloat64(pages.WithLabelValues("multisports", "error")); got != 1 {
		t.Errorf("error pages = %v, want 1", got)
	}
}

func TestFetcher_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher("allstars", testConfig(srv.URL), nil, nil)
	if _, err := f.Document(ctx, "/"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
