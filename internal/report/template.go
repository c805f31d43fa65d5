package report

import (
	"fmt"
	"strings"
)

// summaryTemplate is the embedded HTML template for call-report summaries.
const summaryTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 960px; color: #1a1a2e; }
  h1 { font-size: 1.5rem; border-bottom: 2px solid #16213e; padding-bottom: .5rem; }
  .meta { color: #666; font-size: .85rem; margin-bottom: 1.5rem; }
  .badge { display: inline-block; padding: .2rem .6rem; border-radius: 4px; font-size: .8rem; font-weight: 600; color: #fff; }
  .badge.excellent { background: #2e7d32; }
  .badge.good { background: #558b2f; }
  .badge.fair { background: #f9a825; color: #1a1a2e; }
  .badge.poor { background: #c62828; }
  table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
  th, td { text-align: left; padding: .4rem .8rem; border-bottom: 1px solid #e0e0e0; font-size: .9rem; }
  th { background: #f5f5f5; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  h2 { font-size: 1.1rem; margin-top: 2rem; }
  .cols { display: flex; gap: 2rem; }
  .cols > div { flex: 1; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">
  Cert {{.Cert}}{{if .RSSD}} &middot; RSSD {{.RSSD}}{{end}} &middot; generated {{.GeneratedAt}}<br>
  Data quality: <span class="badge {{.QualityClass}}">{{.Quality}}</span>
  {{if .FieldCount}}({{.FieldCount}} fields, {{.CoveragePct}} of catalog){{end}}
</p>

{{if .Quarters}}
<h2>Balance Sheet &amp; Income</h2>
<table>
  <tr><th>Quarter</th><th>Total Assets</th><th>Deposits</th><th>Net Loans</th><th>Equity</th><th>Net Income</th></tr>
  {{range .Quarters}}
  <tr>
    <td>{{.ReportDate}}</td>
    <td class="num">{{.TotalAssets}}</td>
    <td class="num">{{.TotalDeposits}}</td>
    <td class="num">{{.NetLoansLeases}}</td>
    <td class="num">{{.TotalEquity}}</td>
    <td class="num">{{.NetIncome}}</td>
  </tr>
  {{end}}
</table>

{{with index .Quarters 0}}
<h2>Ratios — {{.ReportDate}}</h2>
<div class="cols">
  <div>
    <h3>Reported</h3>
    <table>
      {{range .Reported}}<tr><td>{{.Label}}</td><td class="num">{{.Value}}</td></tr>{{else}}<tr><td>none reported</td></tr>{{end}}
    </table>
  </div>
  <div>
    <h3>Derived</h3>
    <table>
      {{range .Derived}}<tr><td>{{.Label}}</td><td class="num">{{.Value}}</td></tr>{{else}}<tr><td>insufficient data</td></tr>{{end}}
    </table>
  </div>
</div>
{{end}}
{{else}}
<p>No financial records available.</p>
{{end}}
</body>
</html>
`

// renderTextSummary renders the plain-text variant for CLI output.
func renderTextSummary(s *Summary) string {
	var b strings.Builder
	line := strings.Repeat("=", 64)

	fmt.Fprintf(&b, "%s\n%s\n%s\n", line, s.Title, line)
	fmt.Fprintf(&b, "Cert: %s", s.Cert)
	if s.RSSD != "" {
		fmt.Fprintf(&b, "    RSSD: %s", s.RSSD)
	}
	fmt.Fprintf(&b, "\nGenerated: %s\n", s.GeneratedAt)
	fmt.Fprintf(&b, "Data quality: %s", strings.ToUpper(s.Quality))
	if s.FieldCount > 0 {
		fmt.Fprintf(&b, " (%d fields, %s of catalog)", s.FieldCount, s.CoveragePct)
	}
	b.WriteString("\n")

	if len(s.Quarters) == 0 {
		b.WriteString("\nNo financial records available.\n")
		return b.String()
	}

	b.WriteString("\nBALANCE SHEET & INCOME\n")
	fmt.Fprintf(&b, "%-12s %12s %12s %12s %12s %12s\n",
		"Quarter", "Assets", "Deposits", "Net Loans", "Equity", "Net Income")
	for _, q := range s.Quarters {
		fmt.Fprintf(&b, "%-12s %12s %12s %12s %12s %12s\n",
			q.ReportDate, q.TotalAssets, q.TotalDeposits,
			q.NetLoansLeases, q.TotalEquity, q.NetIncome)
	}

	latest := s.Quarters[0]
	fmt.Fprintf(&b, "\nRATIOS — %s\n", latest.ReportDate)
	if len(latest.Reported) > 0 {
		b.WriteString("  Reported:\n")
		for _, r := range latest.Reported {
			fmt.Fprintf(&b, "    %-28s %10s\n", r.Label, r.Value)
		}
	}
	if len(latest.Derived) > 0 {
		b.WriteString("  Derived:\n")
		for _, r := range latest.Derived {
			fmt.Fprintf(&b, "    %-28s %10s\n", r.Label, r.Value)
		}
	}
	if len(latest.Reported) == 0 && len(latest.Derived) == 0 {
		b.WriteString("  (insufficient data)\n")
	}

	b.WriteString(line + "\n")
	return b.String()
}
