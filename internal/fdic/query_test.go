package fdic

import (
	"strings"
	"testing"
)

func TestBuildQueryResolvesAnalysisType(t *testing.T) {
	params := buildQuery(Request{CertID: "3511", AnalysisType: "key_ratios", Quarters: 1}, 10000)

	fields := strings.Split(params[paramFields], ",")
	if fields[0] != FieldCert || fields[1] != FieldReportDate {
		t.Errorf("identity fields must lead the field list, got %v", fields[:2])
	}
	want := map[string]bool{FieldROA: true, FieldROE: true, FieldNetInterestMargin: true}
	for _, f := range fields {
		delete(want, f)
	}
	if len(want) > 0 {
		t.Errorf("key_ratios field set missing %v", want)
	}
}

func TestBuildQueryUnknownAnalysisTypeFallsBack(t *testing.T) {
	known := buildQuery(Request{AnalysisType: DefaultAnalysisType, Quarters: 1}, 10000)
	unknown := buildQuery(Request{AnalysisType: "no_such_lens", Quarters: 1}, 10000)
	if known[paramFields] != unknown[paramFields] {
		t.Error("unknown analysis type should fall back to the comprehensive field set")
	}
}

func TestBuildQueryExplicitFieldsWin(t *testing.T) {
	params := buildQuery(Request{
		Fields:       []string{FieldTotalAssets},
		AnalysisType: "profitability",
		Quarters:     1,
	}, 10000)
	got := params[paramFields]
	want := FieldCert + "," + FieldReportDate + "," + FieldTotalAssets
	if got != want {
		t.Errorf("fields = %q, want %q", got, want)
	}
}

func TestBuildQueryCombinedFilter(t *testing.T) {
	params := buildQuery(Request{
		CertID:     "3511",
		ReportDate: "20240331",
		Filters:    "STNAME:Ohio",
		Quarters:   1,
	}, 10000)

	filters := params[paramFilters]
	for _, part := range []string{"CERT:3511", "REPDTE:20240331", "STNAME:Ohio"} {
		if !strings.Contains(filters, part) {
			t.Errorf("filter expression %q missing %q", filters, part)
		}
	}
	if strings.Count(filters, "CERT:") != 1 {
		t.Errorf("cert must appear exactly once in %q", filters)
	}
	// The cert travels inside the combined filter, never as its own param.
	if _, ok := params["cert"]; ok {
		t.Error("cert must not be a dedicated query parameter")
	}
}

func TestBuildQueryLimitBounds(t *testing.T) {
	tests := []struct {
		quarters int
		max      int
		want     string
	}{
		{1, 10000, "10"},
		{4, 10000, "40"},
		{0, 10000, "10"},   // defaults to one quarter
		{5000, 10000, "10000"}, // provider hard cap
	}
	for _, tt := range tests {
		params := buildQuery(Request{Quarters: tt.quarters}, tt.max)
		if params[paramLimit] != tt.want {
			t.Errorf("quarters=%d: limit = %s, want %s", tt.quarters, params[paramLimit], tt.want)
		}
	}
}

func TestCacheKeyIgnoresParameterOrder(t *testing.T) {
	a := map[string]string{"filters": "CERT:3511", "limit": "10", "sort_by": "REPDTE"}
	b := map[string]string{"sort_by": "REPDTE", "limit": "10", "filters": "CERT:3511"}

	if cacheKey(a) != cacheKey(b) {
		t.Error("identical parameter sets must hash to the same key regardless of order")
	}
}

func TestCacheKeyDiffersForDifferentParams(t *testing.T) {
	a := map[string]string{"filters": "CERT:3511"}
	b := map[string]string{"filters": "CERT:3512"}
	if cacheKey(a) == cacheKey(b) {
		t.Error("different parameter sets must not collide")
	}
}

func TestCacheKeyExcludesAPIKey(t *testing.T) {
	a := map[string]string{"filters": "CERT:3511", paramAPIKey: "secret1"}
	b := map[string]string{"filters": "CERT:3511", paramAPIKey: "secret2"}
	if cacheKey(a) != cacheKey(b) {
		t.Error("api_key must not affect the cache key")
	}
}

func TestCacheKeyIsStableHex(t *testing.T) {
	key := cacheKey(map[string]string{"filters": "CERT:3511"})
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32 hex chars", len(key))
	}
	for _, c := range key {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("key %q contains non-hex char %q", key, c)
		}
	}
}
