package fdic

import (
	"math"

	"github.com/finquarry/callreport/pkg/models"
)

// qualityTiers are evaluated best to worst; the first tier whose minimum
// field count and required-field subset are both satisfied wins.
var qualityTiers = []struct {
	tier      models.QualityTier
	minFields int
	required  []string
}{
	{models.QualityExcellent, 18, []string{FieldCert, FieldTotalAssets, FieldTotalDeposits, FieldNetIncome}},
	{models.QualityGood, 12, []string{FieldCert, FieldTotalAssets}},
	{models.QualityFair, 6, []string{FieldCert, FieldReportDate}},
	{models.QualityPoor, 1, []string{FieldCert}},
}

// coreFields is the superset of tier-required fields, used to report
// which required fields a record is missing.
var coreFields = []string{
	FieldCert, FieldReportDate, FieldTotalAssets, FieldTotalDeposits, FieldNetIncome,
}

// AssessQuality scores a normalized record's completeness into a quality
// tier, with the populated field count, missing core fields, and
// coverage relative to the full catalog.
func AssessQuality(rec *models.FinancialRecord) models.QualityReport {
	present := presentFields(rec)

	report := models.QualityReport{
		Tier:       models.QualityPoor,
		FieldCount: len(present),
	}
	for _, f := range coreFields {
		if !present[f] {
			report.MissingRequired = append(report.MissingRequired, f)
		}
	}
	report.CoveragePct = math.Round(float64(len(present))/float64(catalogSize())*10000) / 100

	for _, t := range qualityTiers {
		if len(present) < t.minFields {
			continue
		}
		ok := true
		for _, f := range t.required {
			if !present[f] {
				ok = false
				break
			}
		}
		if ok {
			report.Tier = t.tier
			break
		}
	}
	return report
}

// presentFields maps each populated field code to true.
func presentFields(rec *models.FinancialRecord) map[string]bool {
	present := make(map[string]bool)
	if rec == nil {
		return present
	}
	if rec.Cert != "" {
		present[FieldCert] = true
	}
	if !rec.ReportDate.IsZero() {
		present[FieldReportDate] = true
	}
	if rec.RSSD != "" {
		present[FieldRSSD] = true
	}
	for code, spec := range fieldRegistry {
		if spec.Get(rec) != nil {
			present[code] = true
		}
	}
	return present
}
