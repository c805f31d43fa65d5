package fdic

import "github.com/finquarry/callreport/pkg/models"

// Derived ratio keys returned by DeriveRatios.
const (
	RatioROA             = "roa"
	RatioROE             = "roe"
	RatioNIM             = "nim"
	RatioEfficiency      = "efficiency_ratio"
	RatioEquityToAssets  = "equity_to_assets"
	RatioLoansToDeposits = "loans_to_deposits"
)

// DeriveRatios computes standard profitability and efficiency ratios (as
// percentages) from a record's raw amounts. Pure function: a ratio is
// present in the result only when its inputs are present and the
// denominator is strictly positive — never a divide-by-zero, never NaN.
//
// Derived values are supplemental. When the provider reports ROA, ROE,
// or NIM directly, prefer the provider value and fall back to these only
// when the provider field is absent.
func DeriveRatios(rec *models.FinancialRecord) map[string]float64 {
	ratios := make(map[string]float64)
	if rec == nil {
		return ratios
	}

	if rec.NetIncome != nil && positive(rec.TotalAssets) {
		ratios[RatioROA] = *rec.NetIncome / *rec.TotalAssets * 100
	}
	if rec.NetIncome != nil && positive(rec.TotalEquity) {
		ratios[RatioROE] = *rec.NetIncome / *rec.TotalEquity * 100
	}

	// Net interest income directly if reported, else interest income
	// minus interest expense.
	nii := rec.NetInterestIncome
	if nii == nil && rec.InterestIncome != nil && rec.InterestExpense != nil {
		v := *rec.InterestIncome - *rec.InterestExpense
		nii = &v
	}
	if nii != nil && positive(rec.TotalAssets) {
		ratios[RatioNIM] = *nii / *rec.TotalAssets * 100
	}

	// Efficiency = noninterest expense over net revenue; only meaningful
	// when the revenue sum is positive.
	if rec.NoninterestExpense != nil && nii != nil && rec.NoninterestIncome != nil {
		revenue := *nii + *rec.NoninterestIncome
		if revenue > 0 {
			ratios[RatioEfficiency] = *rec.NoninterestExpense / revenue * 100
		}
	}

	if rec.TotalEquity != nil && positive(rec.TotalAssets) {
		ratios[RatioEquityToAssets] = *rec.TotalEquity / *rec.TotalAssets * 100
	}
	if rec.NetLoansLeases != nil && positive(rec.TotalDeposits) {
		ratios[RatioLoansToDeposits] = *rec.NetLoansLeases / *rec.TotalDeposits * 100
	}

	return ratios
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}
