package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"whalewatch/internal/domain/entity"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string, opts Options) *WhaleAPIClient {
	t.Helper()
	opts.BaseURL = baseURL
	if opts.BulkTimeout == 0 {
		opts.BulkTimeout = 2 * time.Second
	}
	if opts.ProbeTimeout == 0 {
		opts.ProbeTimeout = 2 * time.Second
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 5 * time.Millisecond
	}
	return NewWhaleAPIClient(opts, zap.NewNop())
}

func TestListWhales_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"address":"0xAA","accountValue":100}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{})
	whales, err := c.ListWhales(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(whales) != 1 {
		t.Fatalf("expected 1 whale, got %d", len(whales))
	}
	if whales[0]["address"] != "0xAA" {
		t.Errorf("unexpected payload: %v", whales[0])
	}
}

func TestListWhales_WrappedObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"whales":[{"address":"0xAA"},{"address":"0xBB"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{})
	whales, err := c.ListWhales(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(whales) != 2 {
		t.Fatalf("expected 2 whales, got %d", len(whales))
	}
}

func TestCall_HTTPErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"db locked"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{MaxAttempts: 1})
	err := c.RemoveWhale(context.Background(), "0xAA")
	if err == nil {
		t.Fatal("expected error")
	}
	he, ok := err.(*entity.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %T: %v", err, err)
	}
	if he.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", he.Status)
	}
	if he.Detail != "db locked" {
		t.Errorf("expected detail %q, got %q", "db locked", he.Detail)
	}
	if entity.ErrorDetail(err) != "db locked" {
		t.Errorf("ErrorDetail must surface the server message verbatim, got %q", entity.ErrorDetail(err))
	}
}

func TestCall_NotFoundNeverRetried(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"unknown address"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{MaxAttempts: 3})
	_, err := c.GetWhale(context.Background(), "0xAA")
	if err == nil {
		t.Fatal("expected error")
	}
	he, ok := err.(*entity.HTTPError)
	if !ok || he.Status != http.StatusNotFound {
		t.Fatalf("expected HTTPError 404, got %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Errorf("404 must not be retried, server saw %d calls", n)
	}
}

func TestCall_TransientStatusRetriedUntilSuccess(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{MaxAttempts: 3})
	if _, err := c.ListWhales(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 3 {
		t.Errorf("expected 3 attempts, server saw %d", n)
	}
}

func TestCall_RetriesExhaustedSurfaceLastError(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{MaxAttempts: 3})
	_, err := c.ListWhales(context.Background())
	he, ok := err.(*entity.HTTPError)
	if !ok || he.Status != http.StatusBadGateway {
		t.Fatalf("expected last HTTPError 502, got %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 3 {
		t.Errorf("expected 3 attempts, server saw %d", n)
	}
}

func TestCall_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{ProbeTimeout: 30 * time.Millisecond, MaxAttempts: 1})
	err := c.Health(context.Background())
	if _, ok := err.(*entity.TimeoutError); !ok {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestCall_NetworkError(t *testing.T) {
	// A closed server yields a connection refusal.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, Options{MaxAttempts: 2})
	err := c.Health(context.Background())
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	if _, ok := err.(*entity.NetworkError); !ok {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
}

func TestAlertingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/telegram/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"enabled":true,"bot_token_configured":true,"chat_id_configured":false,"active_positions_tracked":7}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{})
	status, err := c.AlertingStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.Enabled || status.ActivePositionsTracked != 7 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestGetTrades_LimitPassed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "25" {
			t.Errorf("expected limit=25, got %q", got)
		}
		w.Write([]byte(`[{"coin":"BTC","px":"100"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{})
	trades, err := c.GetTrades(context.Background(), "0xAA", 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("expected 1 trade, got %d", len(trades))
	}
}

func TestAddWhale_PostsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{})
	if err := c.AddWhale(context.Background(), "0xAA", "shrimp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
