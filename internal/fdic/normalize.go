package fdic

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finquarry/callreport/pkg/models"
)

// normalizer converts raw provider records into validated
// FinancialRecords. Individually malformed records are skipped with a
// warning; a skip never fails the batch.
type normalizer struct {
	log zerolog.Logger
}

// normalize processes a raw batch and returns the surviving records plus
// the number skipped.
func (n *normalizer) normalize(raw []map[string]any) ([]models.FinancialRecord, int) {
	records := make([]models.FinancialRecord, 0, len(raw))
	skipped := 0

	for _, r := range raw {
		rec, ok := n.normalizeOne(r)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

// normalizeOne converts a single raw record. Returns false when the
// record must be skipped.
func (n *normalizer) normalizeOne(raw map[string]any) (models.FinancialRecord, bool) {
	var rec models.FinancialRecord

	// The provider sometimes wraps the row under a "data" sub-object
	// (with sibling bookkeeping like a match score). Unwrap one level.
	fields := raw
	if inner, ok := raw["data"].(map[string]any); ok {
		fields = inner
	}

	// Canonicalize field codes; the wire is uppercase but not reliably so.
	canon := make(map[string]any, len(fields))
	for k, v := range fields {
		canon[strings.ToUpper(k)] = v
	}

	// Identity comes first: a record without a CERT is unusable.
	cert, ok := coerceString(canon[FieldCert])
	if !ok || cert == "" {
		n.log.Warn().Interface("record", raw).Msg("skipping record without CERT identifier")
		return rec, false
	}
	if !validCert(cert) {
		n.log.Warn().Str("cert", cert).Interface("record", raw).
			Msg("skipping record with malformed CERT identifier")
		return rec, false
	}
	rec.Cert = cert

	reportDate, err := parseReportDate(canon[FieldReportDate])
	if err != nil {
		// Last resort: the CERT is present, so try salvaging compact
		// digits out of whatever the date field holds.
		recovered, rErr := recoverCompactDate(canon[FieldReportDate])
		if rErr != nil {
			n.log.Warn().Str("cert", cert).Interface("record", raw).
				Msg("skipping record with unparseable report date")
			return rec, false
		}
		n.log.Info().Str("cert", cert).Time("report_date", recovered).
			Msg("recovered report date from compact digits")
		reportDate = recovered
	}
	if !validReportDate(reportDate) {
		n.log.Warn().Str("cert", cert).Time("report_date", reportDate).
			Interface("record", raw).Msg("skipping record with out-of-range report date")
		return rec, false
	}
	rec.ReportDate = reportDate

	if rssd, ok := coerceString(canon[FieldRSSD]); ok && rssd != "" {
		rec.RSSD = rssd
	}

	for code, value := range canon {
		if identityFields[code] || value == nil {
			continue
		}
		if reason, suppressed := suppressedFields[code]; suppressed {
			n.log.Warn().Str("cert", cert).Str("field", code).
				Msgf("dropping mislabeled provider field: %s", reason)
			continue
		}
		spec, known := fieldRegistry[code]
		if !known {
			if rec.ExtraFields == nil {
				rec.ExtraFields = make(map[string]any)
			}
			rec.ExtraFields[code] = value
			continue
		}

		v, ok := coerceFloat(value)
		if !ok {
			n.log.Warn().Str("cert", cert).Str("field", code).
				Interface("value", value).Interface("record", raw).
				Msg("skipping record with non-numeric field value")
			return rec, false
		}
		if !inBounds(spec.Kind, v) {
			n.log.Warn().Str("cert", cert).Str("field", code).Float64("value", v).
				Interface("record", raw).Msg("skipping record with out-of-bounds field value")
			return rec, false
		}
		spec.Set(&rec, v)
	}

	return rec, true
}

// validCert accepts numeric identifiers up to 10 characters.
func validCert(cert string) bool {
	if len(cert) == 0 || len(cert) > 10 {
		return false
	}
	for _, c := range cert {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// validReportDate bounds the date to the provider's operating history
// through today.
func validReportDate(d time.Time) bool {
	return !d.Before(models.ProviderHistoryStart) && !d.After(time.Now().AddDate(0, 0, 1))
}

// inBounds applies the per-kind magnitude limits.
func inBounds(kind FieldKind, v float64) bool {
	switch kind {
	case KindRatio:
		return v >= -models.MaxRatioMagnitude && v <= models.MaxRatioMagnitude
	default:
		return v >= -models.MaxAmountMagnitude && v <= models.MaxAmountMagnitude
	}
}

// parseReportDate handles the provider's inconsistent date encodings,
// trying in order: compact YYYYMMDD digits, ISO YYYY-MM-DD, MM/DD/YYYY.
func parseReportDate(v any) (time.Time, error) {
	s, ok := coerceString(v)
	if !ok || s == "" {
		return time.Time{}, fmt.Errorf("missing report date")
	}
	s = strings.TrimSpace(s)

	for _, layout := range []string{"20060102", "2006-01-02", "01/02/2006"} {
		if d, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized report date %q", s)
}

// recoverCompactDate strips non-digits and reattempts a compact-digit
// parse. Handles payloads like "2024-06-30T00:00:00" or "rept 20240630".
func recoverCompactDate(v any) (time.Time, error) {
	s, ok := coerceString(v)
	if !ok {
		return time.Time{}, fmt.Errorf("missing report date")
	}
	var digits strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	d := digits.String()
	if len(d) < 8 {
		return time.Time{}, fmt.Errorf("no compact date in %q", s)
	}
	return time.ParseInLocation("20060102", d[:8], time.UTC)
}

// coerceString renders identifier-ish wire values as strings. JSON
// numbers arrive as float64; identifiers must not pick up an exponent or
// decimal point.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

// coerceFloat converts a wire value to float64. Strings are accepted
// because the provider occasionally quotes numeric fields.
func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
