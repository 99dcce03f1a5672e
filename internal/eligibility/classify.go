// Package eligibility classifies an entity into a mandatory climate
// disclosure group from its size brackets and reporter flags.
package eligibility

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/model"
)

const dateLayout = "2006-01-02"

// DefaultConfig returns the statutory start dates and scope policy.
func DefaultConfig() config.EligibilityConfig {
	return config.EligibilityConfig{
		Tier1StartDate:               "2025-01-01",
		Tier2StartDate:               "2026-07-01",
		Tier3StartDate:               "2027-07-01",
		MinThresholdsMet:             2,
		StatutoryReportingSufficient: true,
		AssuranceInScope:             false,
	}
}

// ValidateConfig checks that an EligibilityConfig is internally consistent.
func ValidateConfig(c config.EligibilityConfig) error {
	var errs []string

	dates := []struct {
		name  string
		value string
	}{
		{"tier1_start_date", c.Tier1StartDate},
		{"tier2_start_date", c.Tier2StartDate},
		{"tier3_start_date", c.Tier3StartDate},
	}
	var parsed []time.Time
	for _, d := range dates {
		ts, err := time.Parse(dateLayout, d.value)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a YYYY-MM-DD date, got %q", d.name, d.value))
			continue
		}
		parsed = append(parsed, ts)
	}
	if len(parsed) == len(dates) {
		if parsed[1].Before(parsed[0]) || parsed[2].Before(parsed[1]) {
			errs = append(errs, "tier start dates must be in tier order")
		}
	}

	if c.MinThresholdsMet < 1 || c.MinThresholdsMet > 3 {
		errs = append(errs, "min_thresholds_met must be between 1 and 3")
	}

	if len(errs) > 0 {
		return eris.Errorf("eligibility: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// StartDate returns the mandatory start date for a group, or "" for voluntary.
func StartDate(g model.EntityGroup, cfg config.EligibilityConfig) string {
	cfg = withDefaults(cfg)
	switch g {
	case model.Group1:
		return cfg.Tier1StartDate
	case model.Group2:
		return cfg.Tier2StartDate
	case model.Group3:
		return cfg.Tier3StartDate
	default:
		return ""
	}
}

// Classify derives the applicability classification. It never fails:
// missing or unrecognised brackets count as thresholds not met.
func Classify(p model.EntityProfile, cfg config.EligibilityConfig) model.Classification {
	cfg = withDefaults(cfg)
	status := normalizeStatus(p.StatutoryReporting)

	// Chapter 2M gate short-circuits everything else.
	if status == model.ReportingNo {
		return model.Classification{
			Group:      model.GroupVoluntary,
			Reasoning:  []string{"Not preparing annual financial reports under Chapter 2M of the Corporations Act. Out of mandatory scope."},
			ScopeBasis: []string{model.BasisNotStatutory},
		}
	}

	met := 0
	for _, ok := range []bool{
		RevenueScale.Met(p.RevenueBracket),
		AssetsScale.Met(p.AssetsBracket),
		EmployeesScale.Met(p.EmployeesBracket),
	} {
		if ok {
			met++
		}
	}

	nger := p.IsEmissionsReporter()
	aum := p.IsLargeFund()

	var basis []string
	if met >= cfg.MinThresholdsMet {
		basis = append(basis, model.BasisSizeThresholds)
	}
	if nger {
		basis = append(basis, model.BasisEmissions)
	}
	if aum {
		basis = append(basis, model.BasisLargeFund)
	}
	statutoryOnly := len(basis) == 0 && status == model.ReportingYes && cfg.StatutoryReportingSufficient
	if statutoryOnly {
		basis = append(basis, model.BasisStatutoryOnly)
	}

	if len(basis) == 0 {
		return model.Classification{
			Group:         model.GroupVoluntary,
			Reasoning:     []string{"Entity does not meet any in-scope conditions (size thresholds, NGER, or AUM > $5B)."},
			ThresholdsMet: met,
			ScopeBasis:    []string{model.BasisNoScopeCondition},
		}
	}

	var reasoning []string
	intensity := max(
		RevenueScale.Intensity(p.RevenueBracket),
		AssetsScale.Intensity(p.AssetsBracket),
		EmployeesScale.Intensity(p.EmployeesBracket),
	)
	if nger || aum {
		intensity = max(intensity, topIntensity)
		if nger {
			reasoning = append(reasoning, "NGER reporter.")
		}
		if aum {
			reasoning = append(reasoning, "Super fund/financial institution with AUM > $5B.")
		}
	}
	if statutoryOnly {
		reasoning = append(reasoning, "Chapter 2M financial reporting alone places the entity in scope; no size threshold, NGER or AUM condition is met.")
	}

	group := groupFor(intensity)

	var flags strings.Builder
	if nger {
		flags.WriteString(", NGER")
	}
	if aum {
		flags.WriteString(", AUM>5B")
	}
	reasoning = append(reasoning,
		fmt.Sprintf("Meets in-scope conditions (%d size thresholds met%s).", met, flags.String()),
		fmt.Sprintf("Assigned Group %d.", int(group)),
	)

	return model.Classification{
		InScope:            true,
		Group:              group,
		MandatoryStartDate: StartDate(group, cfg),
		Reasoning:          reasoning,
		AssuranceRequired:  cfg.AssuranceInScope,
		ThresholdsMet:      met,
		ScopeBasis:         basis,
	}
}

// topIntensity is the bracket position that maps to Group 1.
var topIntensity = RevenueScale.Top()

func groupFor(intensity int) model.EntityGroup {
	switch {
	case intensity >= topIntensity:
		return model.Group1
	case intensity == topIntensity-1:
		return model.Group2
	default:
		return model.Group3
	}
}

func normalizeStatus(s model.ReportingStatus) model.ReportingStatus {
	return model.ReportingStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

func withDefaults(cfg config.EligibilityConfig) config.EligibilityConfig {
	def := DefaultConfig()
	if cfg.Tier1StartDate == "" {
		cfg.Tier1StartDate = def.Tier1StartDate
	}
	if cfg.Tier2StartDate == "" {
		cfg.Tier2StartDate = def.Tier2StartDate
	}
	if cfg.Tier3StartDate == "" {
		cfg.Tier3StartDate = def.Tier3StartDate
	}
	if cfg.MinThresholdsMet <= 0 {
		cfg.MinThresholdsMet = def.MinThresholdsMet
	}
	return cfg
}

// Evaluation is the result of Evaluate. When Computable is false,
// Classification is nil and Missing names the attributes still needed.
type Evaluation struct {
	Computable     bool                  `json:"computable"`
	Missing        []string              `json:"missing,omitempty"`
	Classification *model.Classification `json:"classification,omitempty"`
}

// Evaluate classifies p only once every required attribute has been
// supplied. An explicit "no" to Chapter 2M reporting is always decidable.
func Evaluate(p model.EntityProfile, cfg config.EligibilityConfig) Evaluation {
	if normalizeStatus(p.StatutoryReporting) != model.ReportingNo {
		if missing := p.Missing(); len(missing) > 0 {
			return Evaluation{Missing: missing}
		}
	}
	c := Classify(p, cfg)
	return Evaluation{Computable: true, Classification: &c}
}
