// Package models defines the typed data models exchanged between the
// call-report engine and its consumers: normalized financial records,
// API response envelopes, and quality/cache reporting structures.
package models

import (
	"fmt"
	"time"
)

// Validation bounds applied during normalization. Amounts are reported in
// thousands of dollars; anything beyond these magnitudes is treated as a
// corrupted value rather than a real balance-sheet figure.
const (
	MaxAmountMagnitude = 1e12 // thousands of dollars
	MaxRatioMagnitude  = 500  // percent
)

// ProviderHistoryStart is the earliest report date the provider can have
// data for. The FDIC began insuring institutions in 1934.
var ProviderHistoryStart = time.Date(1934, time.January, 1, 0, 0, 0, 0, time.UTC)

// FinancialRecord is one institution's reported financials for one quarter.
// All amount fields are in thousands of dollars; all ratio fields are
// percentages. Optional fields are nil when the provider did not report
// them (or when they failed range validation).
type FinancialRecord struct {
	// Identity.
	Cert       string    `json:"cert"`            // provider-assigned institution ID
	ReportDate time.Time `json:"report_date"`     // quarter-end date
	RSSD       string    `json:"rssd,omitempty"`  // secondary federal identifier

	// Balance sheet amounts (thousands).
	TotalAssets      *float64 `json:"total_assets,omitempty"`
	TotalDeposits    *float64 `json:"total_deposits,omitempty"`
	NetLoansLeases   *float64 `json:"net_loans_leases,omitempty"`
	TotalEquity      *float64 `json:"total_equity,omitempty"`
	Tier1Capital     *float64 `json:"tier1_capital,omitempty"`
	TotalCapital     *float64 `json:"total_capital,omitempty"`
	RiskWeightedAssets *float64 `json:"risk_weighted_assets,omitempty"`
	LoanLossAllowance  *float64 `json:"loan_loss_allowance,omitempty"`
	NetChargeOffs      *float64 `json:"net_charge_offs,omitempty"`

	// Income statement amounts (thousands).
	NetIncome          *float64 `json:"net_income,omitempty"`
	InterestIncome     *float64 `json:"interest_income,omitempty"`
	InterestExpense    *float64 `json:"interest_expense,omitempty"`
	NetInterestIncome  *float64 `json:"net_interest_income,omitempty"`
	NoninterestIncome  *float64 `json:"noninterest_income,omitempty"`
	NoninterestExpense *float64 `json:"noninterest_expense,omitempty"`

	// Provider-supplied ratios (percent).
	ROA                *float64 `json:"roa,omitempty"`
	ROE                *float64 `json:"roe,omitempty"`
	NetInterestMargin  *float64 `json:"net_interest_margin,omitempty"`
	LeverageRatio      *float64 `json:"leverage_ratio,omitempty"`
	Tier1RiskRatio     *float64 `json:"tier1_risk_ratio,omitempty"`
	TotalRiskRatio     *float64 `json:"total_risk_ratio,omitempty"`
	NonperformingRatio *float64 `json:"nonperforming_ratio,omitempty"`

	// ExtraFields holds wire fields the engine does not model. Values pass
	// through untouched so forward-compatible consumers can still see them.
	ExtraFields map[string]any `json:"extra_fields,omitempty"`
}

// Float returns a pointer to v. Convenience for building records.
func Float(v float64) *float64 { return &v }

// APIResponse is the outcome of one logical query against the provider.
// ErrorMessage is non-empty exactly when Success is false.
type APIResponse struct {
	Success      bool              `json:"success"`
	Records      []FinancialRecord `json:"records"`
	Metadata     map[string]any    `json:"metadata,omitempty"` // opaque provider metadata (e.g., total count)
	ErrorMessage string            `json:"error_message,omitempty"`
	QueryInfo    *QueryInfo        `json:"query_info,omitempty"`
	SkippedCount int               `json:"skipped_count,omitempty"` // records dropped during normalization
	Cached       bool              `json:"cached,omitempty"`
}

// QueryInfo echoes the caller request for diagnostics.
type QueryInfo struct {
	CertID       string `json:"cert_id,omitempty"`
	AnalysisType string `json:"analysis_type,omitempty"`
	Quarters     int    `json:"quarters,omitempty"`
	ReportDate   string `json:"report_date,omitempty"`
	Filters      string `json:"filters,omitempty"`
}

// ErrorResponse builds a failed APIResponse with the invariant enforced.
func ErrorResponse(msg string, info *QueryInfo) *APIResponse {
	if msg == "" {
		msg = "unknown error"
	}
	return &APIResponse{
		Success:      false,
		ErrorMessage: msg,
		QueryInfo:    info,
	}
}

// Validate checks the APIResponse success/error-message invariant.
func (r *APIResponse) Validate() error {
	if !r.Success && r.ErrorMessage == "" {
		return fmt.Errorf("failed response missing error message")
	}
	if r.Success && r.ErrorMessage != "" {
		return fmt.Errorf("successful response carries error message %q", r.ErrorMessage)
	}
	return nil
}

// QualityTier classifies how complete a normalized record is.
type QualityTier string

const (
	QualityExcellent QualityTier = "excellent"
	QualityGood      QualityTier = "good"
	QualityFair      QualityTier = "fair"
	QualityPoor      QualityTier = "poor"
)

// QualityReport describes a record's completeness assessment.
type QualityReport struct {
	Tier            QualityTier `json:"tier"`
	FieldCount      int         `json:"field_count"`
	MissingRequired []string    `json:"missing_required,omitempty"`
	CoveragePct     float64     `json:"coverage_pct"` // relative to the full field catalog
}

// CacheStats reports cache occupancy for observability.
type CacheStats struct {
	TotalEntries   int `json:"total_entries"`
	ActiveEntries  int `json:"active_entries"`
	ExpiredEntries int `json:"expired_entries"`
}
