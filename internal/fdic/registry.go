package fdic

import (
	"fmt"

	"github.com/finquarry/callreport/pkg/models"
)

// FieldKind distinguishes dollar amounts from percentage ratios; each
// kind carries its own validation bounds.
type FieldKind int

const (
	KindAmount FieldKind = iota
	KindRatio
)

// fieldSpec binds a provider field code to a typed accessor pair on
// models.FinancialRecord. The registry replaces reflective attribute
// lookup: a catalog code with no registry entry fails the engine's
// startup check instead of silently no-oping at runtime.
type fieldSpec struct {
	Kind FieldKind
	Get  func(*models.FinancialRecord) *float64
	Set  func(*models.FinancialRecord, float64)
}

// fieldRegistry maps uppercase provider field codes to typed accessors.
// Identity fields (CERT, REPDTE, RSSD) are handled separately by the
// normalizer and do not appear here.
var fieldRegistry = map[string]fieldSpec{
	FieldTotalAssets: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.TotalAssets },
		func(r *models.FinancialRecord, v float64) { r.TotalAssets = &v }},
	FieldTotalDeposits: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.TotalDeposits },
		func(r *models.FinancialRecord, v float64) { r.TotalDeposits = &v }},
	FieldNetLoansLeases: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.NetLoansLeases },
		func(r *models.FinancialRecord, v float64) { r.NetLoansLeases = &v }},
	FieldTotalEquity: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.TotalEquity },
		func(r *models.FinancialRecord, v float64) { r.TotalEquity = &v }},
	FieldTier1Capital: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.Tier1Capital },
		func(r *models.FinancialRecord, v float64) { r.Tier1Capital = &v }},
	FieldTotalCapital: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.TotalCapital },
		func(r *models.FinancialRecord, v float64) { r.TotalCapital = &v }},
	FieldRiskWeightedAssets: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.RiskWeightedAssets },
		func(r *models.FinancialRecord, v float64) { r.RiskWeightedAssets = &v }},
	FieldLoanLossAllowance: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.LoanLossAllowance },
		func(r *models.FinancialRecord, v float64) { r.LoanLossAllowance = &v }},
	FieldNetChargeOffs: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.NetChargeOffs },
		func(r *models.FinancialRecord, v float64) { r.NetChargeOffs = &v }},
	FieldNetIncome: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.NetIncome },
		func(r *models.FinancialRecord, v float64) { r.NetIncome = &v }},
	FieldInterestIncome: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.InterestIncome },
		func(r *models.FinancialRecord, v float64) { r.InterestIncome = &v }},
	FieldInterestExpense: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.InterestExpense },
		func(r *models.FinancialRecord, v float64) { r.InterestExpense = &v }},
	FieldNetInterestIncome: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.NetInterestIncome },
		func(r *models.FinancialRecord, v float64) { r.NetInterestIncome = &v }},
	FieldNoninterestIncome: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.NoninterestIncome },
		func(r *models.FinancialRecord, v float64) { r.NoninterestIncome = &v }},
	FieldNoninterestExpense: {KindAmount,
		func(r *models.FinancialRecord) *float64 { return r.NoninterestExpense },
		func(r *models.FinancialRecord, v float64) { r.NoninterestExpense = &v }},

	FieldROA: {KindRatio,
		func(r *models.FinancialRecord) *float64 { return r.ROA },
		func(r *models.FinancialRecord, v float64) { r.ROA = &v }},
	FieldROE: {KindRatio,
		func(r *models.FinancialRecord) *float64 { return r.ROE },
		func(r *models.FinancialRecord, v float64) { r.ROE = &v }},
	FieldNetInterestMargin: {KindRatio,
		func(r *models.FinancialRecord) *float64 { return r.NetInterestMargin },
		func(r *models.FinancialRecord, v float64) { r.NetInterestMargin = &v }},
	FieldLeverageRatio: {KindRatio,
		func(r *models.FinancialRecord) *float64 { return r.LeverageRatio },
		func(r *models.FinancialRecord, v float64) { r.LeverageRatio = &v }},
	FieldTier1RiskRatio: {KindRatio,
		func(r *models.FinancialRecord) *float64 { return r.Tier1RiskRatio },
		func(r *models.FinancialRecord, v float64) { r.Tier1RiskRatio = &v }},
	FieldTotalRiskRatio: {KindRatio,
		func(r *models.FinancialRecord) *float64 { return r.TotalRiskRatio },
		func(r *models.FinancialRecord, v float64) { r.TotalRiskRatio = &v }},
	FieldNonperformingRatio: {KindRatio,
		func(r *models.FinancialRecord) *float64 { return r.NonperformingRatio },
		func(r *models.FinancialRecord, v float64) { r.NonperformingRatio = &v }},
}

// suppressedFields are codes the provider documents as ratios but that
// carry raw dollar amounts on the wire. They are dropped during
// normalization; consumers derive the real ratio via DeriveRatios.
var suppressedFields = map[string]string{
	FieldEfficiencyRatio: "carries dollar amounts, derive efficiency ratio locally",
	FieldLoansToDeposits: "carries dollar amounts, derive loans-to-deposits locally",
}

// identityFields are handled by the normalizer outside the registry.
var identityFields = map[string]bool{
	FieldCert:       true,
	FieldReportDate: true,
	FieldRSSD:       true,
}

// catalogSize is the number of populatable fields in the full catalog:
// identity fields plus every registry-backed field. Suppressed codes are
// excluded since they can never be populated.
func catalogSize() int {
	return len(identityFields) + len(fieldRegistry)
}

// validateRegistry checks that every catalog field code resolves to a
// registry accessor, an identity field, or a documented suppression.
// Called from the engine constructor so a catalog typo fails at startup.
func validateRegistry() error {
	for name, fields := range analysisCatalog {
		for _, code := range fields {
			if identityFields[code] {
				continue
			}
			if _, ok := suppressedFields[code]; ok {
				continue
			}
			if _, ok := fieldRegistry[code]; !ok {
				return fmt.Errorf("analysis type %q references unregistered field code %q", name, code)
			}
		}
	}
	return nil
}
