package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityGroupJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  EntityGroup
	}{
		{"number", `1`, Group1},
		{"numeric string", `"2"`, Group2},
		{"voluntary", `"voluntary"`, GroupVoluntary},
		{"legacy not-required", `"not-required"`, GroupVoluntary},
		{"group label", `"Group 3"`, Group3},
		{"zero", `0`, GroupVoluntary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g EntityGroup
			require.NoError(t, json.Unmarshal([]byte(tt.input), &g))
			assert.Equal(t, tt.want, g)
		})
	}
}

func TestEntityGroupJSONRejectsOutOfRange(t *testing.T) {
	var g EntityGroup
	assert.Error(t, json.Unmarshal([]byte(`7`), &g))
	assert.Error(t, json.Unmarshal([]byte(`"tier-x"`), &g))
	assert.Error(t, json.Unmarshal([]byte(`true`), &g))
}

func TestEntityGroupMarshal(t *testing.T) {
	b, err := json.Marshal(Group2)
	require.NoError(t, err)
	assert.Equal(t, `2`, string(b))

	b, err = json.Marshal(GroupVoluntary)
	require.NoError(t, err)
	assert.Equal(t, `"voluntary"`, string(b))

	assert.Equal(t, "Group 1", Group1.Label())
	assert.Equal(t, "Voluntary only", GroupVoluntary.Label())
	assert.True(t, Group3.Mandatory())
	assert.False(t, GroupVoluntary.Mandatory())
}

func TestClassificationProfile(t *testing.T) {
	c := Classification{InScope: true, Group: Group2, MandatoryStartDate: "2026-07-01", AssuranceRequired: true}
	p := c.Profile()
	assert.Equal(t, Group2, p.EntityGroup)
	assert.Equal(t, "2026-07-01", p.FirstReportingPeriod)
	assert.Equal(t, AssuranceLimited, p.AssuranceProfile[TopicGovernance])
	assert.Equal(t, AssuranceLimited, p.AssuranceProfile[TopicMetrics])
	assert.Equal(t, AssuranceNone, p.AssuranceProfile[TopicStrategy])
	assert.Equal(t, AssuranceNone, p.AssuranceProfile[TopicRisk])

	c.AssuranceRequired = false
	for topic, level := range c.Profile().AssuranceProfile {
		assert.Equal(t, AssuranceNone, level, topic)
	}
}

func TestApplicabilityProfileRoundTrip(t *testing.T) {
	in := Classification{Group: Group1, MandatoryStartDate: "2025-01-01", AssuranceRequired: true}.Profile()
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out ApplicabilityProfile
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestEntityProfileMissing(t *testing.T) {
	var p EntityProfile
	assert.Equal(t, []string{
		"entity_type", "statutory_reporting", "revenue_bracket", "assets_bracket",
		"employees_bracket", "emissions_reporter", "large_fund_aum",
	}, p.Missing())

	p = EntityProfile{
		EntityType:         EntityForProfit,
		StatutoryReporting: ReportingYes,
		RevenueBracket:     "gte-500m",
		AssetsBracket:      "gte-1b",
		EmployeesBracket:   "gte-500",
		EmissionsReporter:  Bool(false),
		LargeFundAUM:       Bool(false),
	}
	assert.Empty(t, p.Missing())
	assert.False(t, p.IsEmissionsReporter())
	assert.False(t, p.IsLargeFund())
}
