// Package report renders institution call-report summaries as HTML or
// plain text from normalized financial records.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/finquarry/callreport/internal/fdic"
	"github.com/finquarry/callreport/pkg/models"
)

// Summary is the flattened template model for one institution.
type Summary struct {
	Title       string
	Cert        string
	RSSD        string
	GeneratedAt string

	Quality      string
	QualityClass string // CSS class: excellent, good, fair, poor
	FieldCount   int
	CoveragePct  string

	Quarters []QuarterRow
}

// QuarterRow is one reporting period, formatted for display.
type QuarterRow struct {
	ReportDate string

	TotalAssets    string
	TotalDeposits  string
	NetLoansLeases string
	TotalEquity    string
	NetIncome      string

	Reported []RatioRow
	Derived  []RatioRow
}

// RatioRow is a labelled percentage value.
type RatioRow struct {
	Label string
	Value string
}

// Build flattens normalized records into a Summary. Records are assumed
// newest-first, as the engine returns them. The quality assessment is
// taken from the latest quarter.
func Build(cert string, records []models.FinancialRecord) *Summary {
	s := &Summary{
		Title:       fmt.Sprintf("Call Report Summary — Cert %s", cert),
		Cert:        cert,
		GeneratedAt: time.Now().UTC().Format("02 Jan 2006 15:04 UTC"),
	}
	if len(records) == 0 {
		s.Quality = string(models.QualityPoor)
		s.QualityClass = string(models.QualityPoor)
		return s
	}

	latest := &records[0]
	s.RSSD = latest.RSSD

	q := fdic.AssessQuality(latest)
	s.Quality = string(q.Tier)
	s.QualityClass = string(q.Tier)
	s.FieldCount = q.FieldCount
	s.CoveragePct = fmt.Sprintf("%.0f%%", q.CoveragePct)

	for i := range records {
		rec := &records[i]
		row := QuarterRow{
			ReportDate:     rec.ReportDate.Format("2006-01-02"),
			TotalAssets:    formatThousands(rec.TotalAssets),
			TotalDeposits:  formatThousands(rec.TotalDeposits),
			NetLoansLeases: formatThousands(rec.NetLoansLeases),
			TotalEquity:    formatThousands(rec.TotalEquity),
			NetIncome:      formatThousands(rec.NetIncome),
			Reported:       reportedRatios(rec),
			Derived:        derivedRatios(rec),
		}
		s.Quarters = append(s.Quarters, row)
	}
	return s
}

// RenderHTML renders the summary with the embedded HTML template.
func RenderHTML(s *Summary) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("summary is nil")
	}
	tmpl, err := template.New("summary").Parse(summaryTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderText renders a terminal-friendly plain-text summary.
func RenderText(s *Summary) string {
	if s == nil {
		return ""
	}
	return renderTextSummary(s)
}

// reportedRatios collects the provider-supplied percentage fields that
// are present on the record.
func reportedRatios(rec *models.FinancialRecord) []RatioRow {
	rows := []struct {
		label string
		value *float64
	}{
		{"Return on assets", rec.ROA},
		{"Return on equity", rec.ROE},
		{"Net interest margin", rec.NetInterestMargin},
		{"Leverage ratio", rec.LeverageRatio},
		{"Tier 1 risk-based ratio", rec.Tier1RiskRatio},
		{"Total risk-based ratio", rec.TotalRiskRatio},
		{"Nonperforming assets ratio", rec.NonperformingRatio},
	}
	var out []RatioRow
	for _, r := range rows {
		if r.value != nil {
			out = append(out, RatioRow{Label: r.label, Value: formatPct(*r.value)})
		}
	}
	return out
}

// derivedRatios computes the engine's derived ratios in a stable order.
func derivedRatios(rec *models.FinancialRecord) []RatioRow {
	derived := fdic.DeriveRatios(rec)
	order := []struct {
		key   string
		label string
	}{
		{fdic.RatioROA, "Return on assets"},
		{fdic.RatioROE, "Return on equity"},
		{fdic.RatioNIM, "Net interest margin"},
		{fdic.RatioEfficiency, "Efficiency ratio"},
		{fdic.RatioEquityToAssets, "Equity to assets"},
		{fdic.RatioLoansToDeposits, "Loans to deposits"},
	}
	var out []RatioRow
	for _, o := range order {
		if v, ok := derived[o.key]; ok {
			out = append(out, RatioRow{Label: o.label, Value: formatPct(v)})
		}
	}
	return out
}

// formatThousands formats an amount reported in thousands of dollars as
// a compact dollar figure ($1.90B, $4.80M, $850K).
func formatThousands(v *float64) string {
	if v == nil {
		return "—"
	}
	dollars := *v * 1000
	neg := ""
	if dollars < 0 {
		neg = "-"
		dollars = -dollars
	}
	switch {
	case dollars >= 1e12:
		return fmt.Sprintf("%s$%.2fT", neg, dollars/1e12)
	case dollars >= 1e9:
		return fmt.Sprintf("%s$%.2fB", neg, dollars/1e9)
	case dollars >= 1e6:
		return fmt.Sprintf("%s$%.2fM", neg, dollars/1e6)
	case dollars >= 1e3:
		return fmt.Sprintf("%s$%.0fK", neg, dollars/1e3)
	default:
		return fmt.Sprintf("%s$%.0f", neg, dollars)
	}
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
