package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// EntityGroup is the mandatory-compliance tier. The zero value is
// GroupVoluntary: out of mandatory scope.
type EntityGroup int

const (
	GroupVoluntary EntityGroup = 0
	Group1         EntityGroup = 1
	Group2         EntityGroup = 2
	Group3         EntityGroup = 3
)

const voluntaryLabel = "voluntary"

// Mandatory reports whether the group is one of the three mandatory tiers.
func (g EntityGroup) Mandatory() bool {
	return g >= Group1 && g <= Group3
}

func (g EntityGroup) String() string {
	if !g.Mandatory() {
		return voluntaryLabel
	}
	return strconv.Itoa(int(g))
}

// Label returns the human-readable form used in reports.
func (g EntityGroup) Label() string {
	if !g.Mandatory() {
		return "Voluntary only"
	}
	return "Group " + strconv.Itoa(int(g))
}

// MarshalJSON encodes tiers as numbers and voluntary as the string "voluntary".
func (g EntityGroup) MarshalJSON() ([]byte, error) {
	if !g.Mandatory() {
		return json.Marshal(voluntaryLabel)
	}
	return []byte(strconv.Itoa(int(g))), nil
}

// UnmarshalJSON accepts 1-3, "1"-"3", "voluntary" and the legacy "not-required".
func (g *EntityGroup) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		return g.set(n, string(data))
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return eris.Wrapf(err, "model: decode entity group %s", string(data))
	}
	return g.parse(s)
}

// UnmarshalText lets yaml and flag decoders reuse the JSON rules.
func (g *EntityGroup) UnmarshalText(text []byte) error {
	return g.parse(string(text))
}

// MarshalText mirrors String.
func (g EntityGroup) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *EntityGroup) parse(s string) error {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", voluntaryLabel, "not-required":
		*g = GroupVoluntary
		return nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "group "))
	if err != nil {
		return eris.Errorf("model: unknown entity group %q", s)
	}
	return g.set(n, s)
}

func (g *EntityGroup) set(n int, raw string) error {
	eg := EntityGroup(n)
	if n != 0 && !eg.Mandatory() {
		return eris.Errorf("model: entity group out of range: %s", raw)
	}
	*g = eg
	return nil
}

// AssuranceLevel is the assurance expected over one disclosure topic.
type AssuranceLevel string

const (
	AssuranceNone       AssuranceLevel = "none"
	AssuranceLimited    AssuranceLevel = "limited"
	AssuranceReasonable AssuranceLevel = "reasonable"
)

// Disclosure topics covered by the assurance profile.
const (
	TopicGovernance = "governance"
	TopicStrategy   = "strategy"
	TopicRisk       = "risk"
	TopicMetrics    = "metrics"
)

// ApplicabilityProfile is derived from a Classification and consumed by the
// scorer. It is never entered by the user.
type ApplicabilityProfile struct {
	EntityGroup          EntityGroup               `json:"entity_group"`
	FirstReportingPeriod string                    `json:"first_reporting_period"`
	AssuranceProfile     map[string]AssuranceLevel `json:"assurance_profile,omitempty"`
}

// Scope bases recorded on a Classification, in evaluation order.
const (
	BasisSizeThresholds   = "size-thresholds"
	BasisEmissions        = "emissions-reporter"
	BasisLargeFund        = "large-fund-aum"
	BasisStatutoryOnly    = "statutory-reporting-only"
	BasisNotStatutory     = "not-statutory-reporter"
	BasisNoScopeCondition = "no-scope-condition"
)

// Classification is the Eligibility Classifier output.
type Classification struct {
	InScope            bool        `json:"in_scope"`
	Group              EntityGroup `json:"group"`
	MandatoryStartDate string      `json:"mandatory_start_date"`
	Reasoning          []string    `json:"reasoning"`
	AssuranceRequired  bool        `json:"assurance_required"`
	ThresholdsMet      int         `json:"thresholds_met"`
	ScopeBasis         []string    `json:"scope_basis,omitempty"`
}

// Profile derives the ApplicabilityProfile. Governance and metrics carry
// limited assurance when assurance is required; every topic is "none"
// otherwise.
func (c Classification) Profile() ApplicabilityProfile {
	level := AssuranceNone
	if c.AssuranceRequired {
		level = AssuranceLimited
	}
	return ApplicabilityProfile{
		EntityGroup:          c.Group,
		FirstReportingPeriod: c.MandatoryStartDate,
		AssuranceProfile: map[string]AssuranceLevel{
			TopicGovernance: level,
			TopicStrategy:   AssuranceNone,
			TopicRisk:       AssuranceNone,
			TopicMetrics:    level,
		},
	}
}
