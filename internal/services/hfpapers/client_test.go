package hfpapers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"apd/internal/period"
	"apd/internal/services"
	"apd/internal/testsupport"
)

const weekListing = `<html><body>
<a href="/papers/2601.03252" title="x">Scaling Laws Revisited</a>
<a href="/papers/2601.03252">dup link same paper</a>
<a href="/papers/2601.11111">Sparse Attention for Long Documents</a>
<a href="/papers/not-a-paper">ignore me</a>
</body></html>`

func newTestClient(t *testing.T, baseURL string, maxPapers int) *Client {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Discovery.BaseURL = baseURL
	cfg.Discovery.MaxPapers = maxPapers
	return New(cfg, nil)
}

func TestDiscoverParsesWeeklyListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/papers/week/2026-W05" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(weekListing))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 0)
	id := period.ID{Year: 2026, Week: 5}

	candidates, err := client.Discover(context.Background(), id)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 unique candidates, got %d: %#v", len(candidates), candidates)
	}
	if candidates[0].Key != "2601.03252" || candidates[1].Key != "2601.11111" {
		t.Fatalf("unexpected keys: %#v", candidates)
	}
	if candidates[1].Title != "Sparse Attention for Long Documents" {
		t.Fatalf("expected title captured, got %q", candidates[1].Title)
	}
	if candidates[0].PageURL != srv.URL+"/papers/2601.03252" {
		t.Fatalf("unexpected page url: %s", candidates[0].PageURL)
	}
}

func TestDiscoverCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(weekListing))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 1)
	candidates, err := client.Discover(context.Background(), period.ID{Year: 2026, Week: 5})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected cap of 1 applied, got %d", len(candidates))
	}
}

func TestDiscoverFallsBackToDatePages(t *testing.T) {
	var dateHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/papers/week/2026-W05":
			http.NotFound(w, r)
		case r.URL.Path == "/papers/date/2026-01-26":
			dateHits++
			w.Write([]byte(`<a href="/papers/2601.22222">Monday Paper</a>`))
		case r.URL.Path == "/papers/date/2026-01-27":
			dateHits++
			w.Write([]byte(`<a href="/papers/2601.22222">Monday Paper again</a><a href="/papers/2601.33333">Tuesday Paper</a>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 0)
	candidates, err := client.Discover(context.Background(), period.ID{Year: 2026, Week: 5})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if dateHits != 2 {
		t.Fatalf("expected both date pages consulted, got %d hits", dateHits)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected merged dedup of 2 candidates, got %#v", candidates)
	}
}

func TestDiscoverNothingFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 0)
	_, err := client.Discover(context.Background(), period.ID{Year: 2026, Week: 5})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiscoverServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 0)
	_, err := client.Discover(context.Background(), period.ID{Year: 2026, Week: 5})
	if !services.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
