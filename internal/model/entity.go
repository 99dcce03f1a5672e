package model

import "strings"

// ReportingStatus is the answer to "do you prepare annual financial reports
// under Chapter 2M of the Corporations Act?".
type ReportingStatus string

const (
	ReportingYes    ReportingStatus = "yes"
	ReportingNo     ReportingStatus = "no"
	ReportingUnsure ReportingStatus = "unsure"
)

// EntityType describes the legal form of the reporting entity.
type EntityType string

const (
	EntityForProfit      EntityType = "for-profit"
	EntityNotForProfit   EntityType = "not-for-profit"
	EntitySuperFinancial EntityType = "super-or-financial"
	EntityOther          EntityType = "other"
)

// EntityProfile holds the organisation attributes that drive eligibility.
// Bracket fields carry bracket ids (e.g. "gte-500m"); unknown ids are treated
// as the lowest bracket by the classifier.
type EntityProfile struct {
	CompanyName        string          `json:"company_name,omitempty" yaml:"company_name"`
	Industry           string          `json:"industry,omitempty" yaml:"industry"`
	EntityType         EntityType      `json:"entity_type,omitempty" yaml:"entity_type"`
	StatutoryReporting ReportingStatus `json:"statutory_reporting,omitempty" yaml:"statutory_reporting"`
	RevenueBracket     string          `json:"revenue_bracket,omitempty" yaml:"revenue_bracket"`
	AssetsBracket      string          `json:"assets_bracket,omitempty" yaml:"assets_bracket"`
	EmployeesBracket   string          `json:"employees_bracket,omitempty" yaml:"employees_bracket"`
	EmissionsReporter  *bool           `json:"emissions_reporter,omitempty" yaml:"emissions_reporter"`
	LargeFundAUM       *bool           `json:"large_fund_aum,omitempty" yaml:"large_fund_aum"`
}

// Missing returns the names of classification attributes that have not been
// supplied yet. Company name and industry are informational and never required.
func (p EntityProfile) Missing() []string {
	var missing []string
	if strings.TrimSpace(string(p.EntityType)) == "" {
		missing = append(missing, "entity_type")
	}
	if strings.TrimSpace(string(p.StatutoryReporting)) == "" {
		missing = append(missing, "statutory_reporting")
	}
	if strings.TrimSpace(p.RevenueBracket) == "" {
		missing = append(missing, "revenue_bracket")
	}
	if strings.TrimSpace(p.AssetsBracket) == "" {
		missing = append(missing, "assets_bracket")
	}
	if strings.TrimSpace(p.EmployeesBracket) == "" {
		missing = append(missing, "employees_bracket")
	}
	if p.EmissionsReporter == nil {
		missing = append(missing, "emissions_reporter")
	}
	if p.LargeFundAUM == nil {
		missing = append(missing, "large_fund_aum")
	}
	return missing
}

// IsEmissionsReporter reports whether the NGER flag is set.
func (p EntityProfile) IsEmissionsReporter() bool {
	return p.EmissionsReporter != nil && *p.EmissionsReporter
}

// IsLargeFund reports whether the entity declared AUM above the fund threshold.
func (p EntityProfile) IsLargeFund() bool {
	return p.LargeFundAUM != nil && *p.LargeFundAUM
}

// Bool returns a pointer to b. Handy for building profiles in code and tests.
func Bool(b bool) *bool { return &b }
