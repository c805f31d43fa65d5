package fdic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/finquarry/callreport/internal/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Provider: config.ProviderConfig{
			BaseURL:            baseURL,
			FinancialsEndpoint: "/financials",
			TimeoutSec:         5,
			MaxLimit:           10000,
			RateLimit:          1000,
		},
		Cache: config.CacheConfig{
			TTLSec:      1800,
			ErrorTTLSec: 300,
			MaxEntries:  100,
		},
	}
}

func newTestEngine(t *testing.T, baseURL string) *Engine {
	t.Helper()
	e, err := New(testConfig(baseURL), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewValidatesFieldRegistry(t *testing.T) {
	if _, err := New(testConfig("http://localhost"), zerolog.Nop()); err != nil {
		t.Fatalf("constructor should accept a consistent catalog, got %v", err)
	}

	analysisCatalog["broken"] = []string{"NOSUCHFIELD"}
	defer delete(analysisCatalog, "broken")

	if _, err := New(testConfig("http://localhost"), zerolog.Nop()); err == nil {
		t.Fatal("constructor must reject a catalog code missing from the registry")
	}
}

func TestGetFinancialDataEndToEnd(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		filters := r.URL.Query().Get("filters")
		if !strings.Contains(filters, "CERT:3511") {
			t.Errorf("filters = %q, missing cert", filters)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"metadata": map[string]any{"total": 1},
			"data": []map[string]any{{
				"data": map[string]any{
					"CERT":   "3511",
					"REPDTE": "20240331",
					"ASSET":  1900000000,
					"NETINC": 4800000,
				},
			}},
		})
	}))
	defer srv.Close()

	e := newTestEngine(t, srv.URL)
	resp := e.GetFinancialData(context.Background(), Request{
		CertID:       "3511",
		AnalysisType: "key_ratios",
		Quarters:     1,
	})

	if !resp.Success {
		t.Fatalf("success = false: %s", resp.ErrorMessage)
	}
	if err := resp.Validate(); err != nil {
		t.Fatalf("response invariant: %v", err)
	}
	if len(resp.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(resp.Records))
	}

	rec := resp.Records[0]
	if rec.Cert != "3511" {
		t.Errorf("cert = %q, want 3511", rec.Cert)
	}
	if got := rec.ReportDate.Format("2006-01-02"); got != "2024-03-31" {
		t.Errorf("report date = %s, want 2024-03-31", got)
	}

	roa, ok := DeriveRatios(&rec)[RatioROA]
	if !ok {
		t.Fatal("expected derived ROA")
	}
	if roa < 0.24 || roa > 0.26 {
		t.Errorf("derived ROA = %v, want ≈0.25", roa)
	}

	// Second identical call must be served from cache.
	resp2 := e.GetFinancialData(context.Background(), Request{
		CertID:       "3511",
		AnalysisType: "key_ratios",
		Quarters:     1,
	})
	if !resp2.Cached {
		t.Error("second call should be a cache hit")
	}
	if hits.Load() != 1 {
		t.Errorf("provider hits = %d, want 1", hits.Load())
	}
}

func TestGetFinancialDataValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("validation errors must not reach the network")
	}))
	defer srv.Close()

	e := newTestEngine(t, srv.URL)
	resp := e.GetFinancialData(context.Background(), Request{CertID: "not-numeric"})
	if resp.Success {
		t.Fatal("expected failure for non-numeric cert")
	}
	if resp.ErrorMessage == "" {
		t.Error("failed response must carry an error message")
	}
	if err := resp.Validate(); err != nil {
		t.Errorf("response invariant: %v", err)
	}
}

func TestGetFinancialDataProviderErrorCachedBriefly(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := newTestEngine(t, srv.URL)
	req := Request{CertID: "3511", Quarters: 1}

	resp := e.GetFinancialData(context.Background(), req)
	if resp.Success {
		t.Fatal("expected provider failure")
	}
	if !strings.Contains(resp.ErrorMessage, "provider-side failure") {
		t.Errorf("message = %q, want provider-side failure text", resp.ErrorMessage)
	}

	// Repeating the bad query is absorbed by the short-TTL error cache.
	e.GetFinancialData(context.Background(), req)
	if hits.Load() != 1 {
		t.Errorf("provider hits = %d, want 1 (error response should be cached)", hits.Load())
	}
}

func TestGetFinancialDataEmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"error":"index temporarily unavailable"}`))
	}))
	defer srv.Close()

	e := newTestEngine(t, srv.URL)
	resp := e.GetFinancialData(context.Background(), Request{CertID: "3511"})
	if resp.Success {
		t.Fatal("an embedded body error must fail the response despite HTTP 200")
	}
	if !strings.Contains(resp.ErrorMessage, "index temporarily unavailable") {
		t.Errorf("message = %q, want embedded provider message", resp.ErrorMessage)
	}
}

func TestGetFinancialDataTransportErrorNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	e := newTestEngine(t, srv.URL)
	resp := e.GetFinancialData(context.Background(), Request{CertID: "3511"})
	if resp.Success {
		t.Fatal("expected transport failure")
	}
	if stats := e.CacheStats(); stats.TotalEntries != 0 {
		t.Errorf("transport failures must not be cached, found %d entries", stats.TotalEntries)
	}
}

func TestGetFinancialDataSkipsBadRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"CERT": "3511", "REPDTE": "20240331", "ASSET": 100},
				{"REPDTE": "20240331"}, // no identity
				{"CERT": "3512", "REPDTE": "20240331", "DEP": 200},
			},
		})
	}))
	defer srv.Close()

	e := newTestEngine(t, srv.URL)
	resp := e.GetFinancialData(context.Background(), Request{Quarters: 1})
	if !resp.Success {
		t.Fatalf("per-record skips must not fail the batch: %s", resp.ErrorMessage)
	}
	if len(resp.Records) != 2 {
		t.Errorf("records = %d, want 2", len(resp.Records))
	}
	if resp.SkippedCount != 1 {
		t.Errorf("skipped = %d, want 1", resp.SkippedCount)
	}
}

func TestClearCacheAndStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	e := newTestEngine(t, srv.URL)
	e.GetFinancialData(context.Background(), Request{CertID: "3511"})

	if stats := e.CacheStats(); stats.TotalEntries != 1 || stats.ActiveEntries != 1 {
		t.Errorf("stats = %+v, want one active entry", stats)
	}
	e.ClearCache()
	if stats := e.CacheStats(); stats.TotalEntries != 0 {
		t.Errorf("stats after clear = %+v, want empty", stats)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("health check limit = %q, want 1", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`{"data":[{"CERT":"1"}]}`))
	}))
	defer healthy.Close()

	if !newTestEngine(t, healthy.URL).HealthCheck(context.Background()) {
		t.Error("expected healthy")
	}

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer sick.Close()

	if newTestEngine(t, sick.URL).HealthCheck(context.Background()) {
		t.Error("expected unhealthy")
	}
}

func TestGetFinancialDataAPIKeyForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "sekrit" {
			t.Errorf("api_key = %q, want sekrit", r.URL.Query().Get("api_key"))
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Provider.APIKey = "sekrit"
	e, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	e.GetFinancialData(context.Background(), Request{CertID: "3511"})
}
