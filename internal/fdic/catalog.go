// Package fdic implements the call-report data retrieval and caching
// engine against the FDIC BankFind-style financials API. It covers query
// construction, a bounded TTL response cache, response normalization and
// validation, derived-ratio computation, and data-quality assessment.
package fdic

// Provider field codes. Amounts are reported in thousands of dollars,
// ratio fields in percent. The wire format uses uppercase codes.
const (
	// Identity
	FieldCert       = "CERT"   // institution identifier
	FieldReportDate = "REPDTE" // quarter-end report date
	FieldRSSD       = "RSSD"   // federal RSSD identifier

	// Balance sheet
	FieldTotalAssets        = "ASSET"
	FieldTotalDeposits      = "DEP"
	FieldNetLoansLeases     = "LNLSNET"
	FieldTotalEquity        = "EQ"
	FieldTier1Capital       = "RBCT1J"
	FieldTotalCapital       = "RBCT2"
	FieldRiskWeightedAssets = "RWAJ"
	FieldLoanLossAllowance  = "LNATRES"
	FieldNetChargeOffs      = "NTLNLS"

	// Income statement
	FieldNetIncome          = "NETINC"
	FieldInterestIncome     = "INTINC"
	FieldInterestExpense    = "EINTEXP"
	FieldNetInterestIncome  = "NETINTINC"
	FieldNoninterestIncome  = "NONII"
	FieldNoninterestExpense = "NONIX"

	// Provider ratios
	FieldROA                = "ROA"
	FieldROE                = "ROE"
	FieldNetInterestMargin  = "NIMY"
	FieldLeverageRatio      = "RBC1AAJ"
	FieldTier1RiskRatio     = "RBC1RWAJ"
	FieldTotalRiskRatio     = "RBCRWAJ"
	FieldNonperformingRatio = "NPERFV"

	// Documented as ratios by the provider but actually carrying raw
	// dollar amounts on the wire. Never populated; see suppressedFields.
	FieldEfficiencyRatio = "EEFFR"
	FieldLoansToDeposits = "LNLSDEPR"
)

// DefaultAnalysisType is used when the caller names no analysis type, or
// names one the catalog does not know (the provider-side contract is
// permissive: an unknown type falls back rather than failing).
const DefaultAnalysisType = "comprehensive"

// analysisCatalog maps an analysis-type name to the provider field codes
// that lens needs. Pure data; the query builder always force-includes the
// identity fields on top of these.
var analysisCatalog = map[string][]string{
	"basic_info": {
		FieldCert, FieldReportDate, FieldRSSD,
		FieldTotalAssets, FieldTotalDeposits, FieldTotalEquity, FieldNetIncome,
	},
	"profitability": {
		FieldNetIncome, FieldInterestIncome, FieldInterestExpense,
		FieldNetInterestIncome, FieldNoninterestIncome, FieldNoninterestExpense,
		FieldTotalAssets, FieldTotalEquity,
		FieldROA, FieldROE, FieldNetInterestMargin, FieldEfficiencyRatio,
	},
	"capital_adequacy": {
		FieldTotalEquity, FieldTier1Capital, FieldTotalCapital,
		FieldRiskWeightedAssets, FieldTotalAssets,
		FieldLeverageRatio, FieldTier1RiskRatio, FieldTotalRiskRatio,
	},
	"asset_quality": {
		FieldNetLoansLeases, FieldLoanLossAllowance, FieldNetChargeOffs,
		FieldNonperformingRatio, FieldTotalAssets,
	},
	"liquidity": {
		FieldTotalDeposits, FieldNetLoansLeases, FieldTotalAssets,
		FieldLoansToDeposits,
	},
	"key_ratios": {
		FieldROA, FieldROE, FieldNetInterestMargin,
		FieldLeverageRatio, FieldTier1RiskRatio, FieldTotalRiskRatio,
		FieldNonperformingRatio,
		FieldTotalAssets, FieldNetIncome, FieldTotalEquity,
	},
	DefaultAnalysisType: {
		FieldCert, FieldReportDate, FieldRSSD,
		FieldTotalAssets, FieldTotalDeposits, FieldNetLoansLeases,
		FieldTotalEquity, FieldTier1Capital, FieldTotalCapital,
		FieldRiskWeightedAssets, FieldLoanLossAllowance, FieldNetChargeOffs,
		FieldNetIncome, FieldInterestIncome, FieldInterestExpense,
		FieldNetInterestIncome, FieldNoninterestIncome, FieldNoninterestExpense,
		FieldROA, FieldROE, FieldNetInterestMargin,
		FieldLeverageRatio, FieldTier1RiskRatio, FieldTotalRiskRatio,
		FieldNonperformingRatio,
	},
}

// fieldDescriptions documents each field code for catalog listings.
var fieldDescriptions = map[string]string{
	FieldCert:               "FDIC certificate number (institution identifier)",
	FieldReportDate:         "Quarter-end report date",
	FieldRSSD:               "Federal Reserve RSSD identifier",
	FieldTotalAssets:        "Total assets ($ thousands)",
	FieldTotalDeposits:      "Total deposits ($ thousands)",
	FieldNetLoansLeases:     "Net loans and leases ($ thousands)",
	FieldTotalEquity:        "Total equity capital ($ thousands)",
	FieldTier1Capital:       "Tier 1 capital ($ thousands)",
	FieldTotalCapital:       "Total risk-based capital ($ thousands)",
	FieldRiskWeightedAssets: "Risk-weighted assets ($ thousands)",
	FieldLoanLossAllowance:  "Allowance for loan and lease losses ($ thousands)",
	FieldNetChargeOffs:      "Net loan charge-offs ($ thousands)",
	FieldNetIncome:          "Net income ($ thousands)",
	FieldInterestIncome:     "Total interest income ($ thousands)",
	FieldInterestExpense:    "Total interest expense ($ thousands)",
	FieldNetInterestIncome:  "Net interest income ($ thousands)",
	FieldNoninterestIncome:  "Noninterest income ($ thousands)",
	FieldNoninterestExpense: "Noninterest expense ($ thousands)",
	FieldROA:                "Return on assets (%)",
	FieldROE:                "Return on equity (%)",
	FieldNetInterestMargin:  "Net interest margin (%)",
	FieldLeverageRatio:      "Core capital (leverage) ratio (%)",
	FieldTier1RiskRatio:     "Tier 1 risk-based capital ratio (%)",
	FieldTotalRiskRatio:     "Total risk-based capital ratio (%)",
	FieldNonperformingRatio: "Noncurrent assets plus OREO to assets (%)",
	FieldEfficiencyRatio:    "Efficiency ratio (%) — mislabeled on the wire, see suppressedFields",
	FieldLoansToDeposits:    "Net loans and leases to deposits (%) — mislabeled on the wire, see suppressedFields",
}

// CatalogFields resolves an analysis type to its field codes. Unknown
// types fall back to the comprehensive set; the second return reports
// whether the type was recognized.
func CatalogFields(analysisType string) ([]string, bool) {
	fields, ok := analysisCatalog[analysisType]
	if !ok {
		fields = analysisCatalog[DefaultAnalysisType]
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out, ok
}

// AnalysisTypes returns the catalog's analysis-type names with the field
// codes and descriptions each resolves to.
func AnalysisTypes() map[string]map[string]string {
	out := make(map[string]map[string]string, len(analysisCatalog))
	for name, fields := range analysisCatalog {
		described := make(map[string]string, len(fields))
		for _, f := range fields {
			described[f] = fieldDescriptions[f]
		}
		out[name] = described
	}
	return out
}
