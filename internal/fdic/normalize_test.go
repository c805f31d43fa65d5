package fdic

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestNormalizer() *normalizer {
	return &normalizer{log: zerolog.Nop()}
}

func rawRecord(overrides map[string]any) map[string]any {
	rec := map[string]any{
		"CERT":   "3511",
		"REPDTE": "20240630",
		"ASSET":  float64(1900000000),
		"NETINC": float64(4800000),
	}
	for k, v := range overrides {
		if v == nil {
			delete(rec, k)
		} else {
			rec[k] = v
		}
	}
	return rec
}

func TestNormalizeDateFallbackChain(t *testing.T) {
	n := newTestNormalizer()
	want := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	for _, encoded := range []any{"20240630", "2024-06-30", "06/30/2024", float64(20240630)} {
		recs, skipped := n.normalize([]map[string]any{rawRecord(map[string]any{"REPDTE": encoded})})
		if skipped != 0 || len(recs) != 1 {
			t.Fatalf("%v: records=%d skipped=%d, want 1/0", encoded, len(recs), skipped)
		}
		if !recs[0].ReportDate.Equal(want) {
			t.Errorf("%v normalized to %v, want %v", encoded, recs[0].ReportDate, want)
		}
	}
}

func TestNormalizeDateLastResortRecovery(t *testing.T) {
	n := newTestNormalizer()

	// Not parseable by any layout in the chain, but compact digits are
	// recoverable since the CERT is present.
	recs, skipped := n.normalize([]map[string]any{
		rawRecord(map[string]any{"REPDTE": "2024-06-30T00:00:00"}),
	})
	if skipped != 0 || len(recs) != 1 {
		t.Fatalf("records=%d skipped=%d, want 1/0", len(recs), skipped)
	}
	want := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	if !recs[0].ReportDate.Equal(want) {
		t.Errorf("recovered date = %v, want %v", recs[0].ReportDate, want)
	}
}

func TestNormalizeSkipsMissingIdentity(t *testing.T) {
	n := newTestNormalizer()
	recs, skipped := n.normalize([]map[string]any{
		rawRecord(map[string]any{"CERT": nil}),
		rawRecord(map[string]any{"REPDTE": "garbage"}),
		rawRecord(nil),
	})
	if len(recs) != 1 || skipped != 2 {
		t.Errorf("records=%d skipped=%d, want 1/2", len(recs), skipped)
	}
}

func TestNormalizePartialBatchResilience(t *testing.T) {
	n := newTestNormalizer()
	batch := make([]map[string]any, 0, 10)
	for i := 0; i < 8; i++ {
		batch = append(batch, rawRecord(nil))
	}
	batch = append(batch, rawRecord(map[string]any{"CERT": nil}))
	batch = append(batch, rawRecord(map[string]any{"CERT": "not-a-cert"}))

	recs, skipped := n.normalize(batch)
	if len(recs) != 8 {
		t.Errorf("records = %d, want 8", len(recs))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

func TestNormalizeSuppressesMislabeledRatioFields(t *testing.T) {
	n := newTestNormalizer()

	// EEFFR is documented as a ratio but carries a dollar amount; it must
	// never surface, neither as a typed field nor in ExtraFields.
	recs, skipped := n.normalize([]map[string]any{
		rawRecord(map[string]any{"EEFFR": float64(123456789), "LNLSDEPR": float64(987654)}),
	})
	if skipped != 0 || len(recs) != 1 {
		t.Fatalf("records=%d skipped=%d, want 1/0", len(recs), skipped)
	}
	rec := recs[0]
	if _, ok := rec.ExtraFields["EEFFR"]; ok {
		t.Error("suppressed field EEFFR leaked into ExtraFields")
	}
	if _, ok := rec.ExtraFields["LNLSDEPR"]; ok {
		t.Error("suppressed field LNLSDEPR leaked into ExtraFields")
	}
}

func TestNormalizeUnwrapsDataSubObject(t *testing.T) {
	n := newTestNormalizer()
	wrapped := map[string]any{
		"data":  rawRecord(nil),
		"score": float64(1),
	}
	recs, skipped := n.normalize([]map[string]any{wrapped})
	if skipped != 0 || len(recs) != 1 {
		t.Fatalf("records=%d skipped=%d, want 1/0", len(recs), skipped)
	}
	if recs[0].Cert != "3511" {
		t.Errorf("cert = %q, want 3511", recs[0].Cert)
	}
}

func TestNormalizeCoercesIdentifiers(t *testing.T) {
	n := newTestNormalizer()
	recs, _ := n.normalize([]map[string]any{
		rawRecord(map[string]any{"CERT": float64(3511), "RSSD": float64(852218)}),
	})
	if len(recs) != 1 {
		t.Fatal("expected one record")
	}
	if recs[0].Cert != "3511" {
		t.Errorf("cert = %q, want 3511", recs[0].Cert)
	}
	if recs[0].RSSD != "852218" {
		t.Errorf("rssd = %q, want 852218", recs[0].RSSD)
	}
}

func TestNormalizeLowercaseWireFields(t *testing.T) {
	n := newTestNormalizer()
	recs, skipped := n.normalize([]map[string]any{{
		"cert":   "3511",
		"repdte": "20240630",
		"asset":  float64(5000),
	}})
	if skipped != 0 || len(recs) != 1 {
		t.Fatalf("records=%d skipped=%d, want 1/0", len(recs), skipped)
	}
	if recs[0].TotalAssets == nil || *recs[0].TotalAssets != 5000 {
		t.Error("lowercase field codes should map to the same schema")
	}
}

func TestNormalizeRangeValidation(t *testing.T) {
	n := newTestNormalizer()
	tests := []struct {
		name     string
		override map[string]any
	}{
		{"corrupted amount magnitude", map[string]any{"ASSET": float64(9e15)}},
		{"ratio beyond bounds", map[string]any{"ROA": float64(750)}},
		{"non-numeric amount", map[string]any{"ASSET": "n/a"}},
		{"report date before provider history", map[string]any{"REPDTE": "19011231"}},
	}
	for _, tt := range tests {
		recs, skipped := n.normalize([]map[string]any{rawRecord(tt.override)})
		if len(recs) != 0 || skipped != 1 {
			t.Errorf("%s: records=%d skipped=%d, want 0/1", tt.name, len(recs), skipped)
		}
	}
}

func TestNormalizeUnknownFieldsLandInExtraFields(t *testing.T) {
	n := newTestNormalizer()
	recs, _ := n.normalize([]map[string]any{
		rawRecord(map[string]any{"STNAME": "Ohio", "ZIP": "44114"}),
	})
	if len(recs) != 1 {
		t.Fatal("expected one record")
	}
	if recs[0].ExtraFields["STNAME"] != "Ohio" {
		t.Errorf("ExtraFields[STNAME] = %v, want Ohio", recs[0].ExtraFields["STNAME"])
	}
}

func TestNormalizeQuotedNumbers(t *testing.T) {
	n := newTestNormalizer()
	recs, skipped := n.normalize([]map[string]any{
		rawRecord(map[string]any{"DEP": "1500000"}),
	})
	if skipped != 0 || len(recs) != 1 {
		t.Fatalf("records=%d skipped=%d, want 1/0", len(recs), skipped)
	}
	if recs[0].TotalDeposits == nil || *recs[0].TotalDeposits != 1500000 {
		t.Error("quoted numeric values should coerce to floats")
	}
}
