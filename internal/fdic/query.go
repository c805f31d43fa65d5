package fdic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Request describes one caller query against the financials endpoint.
// CertID, Filters, Fields, ReportDate, and AnalysisType are optional;
// Quarters defaults to 1.
type Request struct {
	CertID       string
	Filters      string
	Fields       []string
	Quarters     int
	ReportDate   string
	AnalysisType string
}

// Query parameter names understood by the provider.
const (
	paramFilters   = "filters"
	paramFields    = "fields"
	paramSortBy    = "sort_by"
	paramSortOrder = "sort_order"
	paramLimit     = "limit"
	paramAPIKey    = "api_key"
)

// buildQuery turns a Request into provider query parameters. The cert,
// report date, and explicit filters collapse into one boolean-AND filter
// expression; the cert is never also passed as a dedicated parameter.
func buildQuery(req Request, providerMax int) map[string]string {
	fields := req.Fields
	if len(fields) == 0 {
		fields, _ = CatalogFields(req.AnalysisType)
	}
	fields = withIdentityFields(fields)

	var filters []string
	if req.CertID != "" {
		filters = append(filters, fmt.Sprintf("%s:%s", FieldCert, req.CertID))
	}
	if req.ReportDate != "" {
		filters = append(filters, fmt.Sprintf("%s:%s", FieldReportDate, req.ReportDate))
	}
	if req.Filters != "" {
		filters = append(filters, req.Filters)
	}

	quarters := req.Quarters
	if quarters < 1 {
		quarters = 1
	}
	// Quarters can produce multiple records per period (amended filings),
	// so buffer the limit while respecting the provider's hard cap.
	limit := quarters * 10
	if limit > providerMax {
		limit = providerMax
	}

	params := map[string]string{
		paramFields:    strings.Join(fields, ","),
		paramSortBy:    FieldReportDate,
		paramSortOrder: "DESC",
		paramLimit:     fmt.Sprintf("%d", limit),
	}
	if len(filters) > 0 {
		params[paramFilters] = strings.Join(filters, " AND ")
	}
	return params
}

// withIdentityFields returns fields with CERT and REPDTE force-included
// (first, without duplicates). Records missing either are unusable.
func withIdentityFields(fields []string) []string {
	out := []string{FieldCert, FieldReportDate}
	for _, f := range fields {
		if f == FieldCert || f == FieldReportDate {
			continue
		}
		out = append(out, f)
	}
	return out
}

// cacheKey derives the canonical cache key for a parameter set: a
// truncated SHA-256 over the parameters sorted by key name, so parameter
// order never affects cache hits. The API key is excluded — it does not
// change the result set.
func cacheKey(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == paramAPIKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(params[k]))
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
