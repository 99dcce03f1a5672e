package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/readiness-cli/internal/model"
)

func TestIsVisible(t *testing.T) {
	skip := model.Question{ID: "Q2", SkipCondition: &model.SkipCondition{QuestionID: "Q1", MinScore: 2}}
	profile := model.ApplicabilityProfile{EntityGroup: model.Group2}

	tests := []struct {
		name    string
		answers model.AnswerSet
		want    bool
	}{
		{"prereq below minimum", model.NewAnswerSet(map[string]model.AnswerRecord{"Q1": model.Severity(1)}), false},
		{"prereq at minimum", model.NewAnswerSet(map[string]model.AnswerRecord{"Q1": model.Severity(2)}), true},
		{"prereq above minimum", model.NewAnswerSet(map[string]model.AnswerRecord{"Q1": model.Severity(4)}), true},
		{"prereq unanswered", model.NewAnswerSet(nil), true},
		{"prereq null severity", model.NewAnswerSet(map[string]model.AnswerRecord{"Q1": {}}), true},
		{"prereq not applicable", model.NewAnswerSet(map[string]model.AnswerRecord{"Q1": model.NotApplicable()}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVisible(skip, tt.answers, profile))
		})
	}
}

func TestIsVisibleWithoutSkipCondition(t *testing.T) {
	q := model.Question{ID: "Q1"}
	for sev := 0; sev <= 4; sev++ {
		answers := model.NewAnswerSet(map[string]model.AnswerRecord{"Q1": model.Severity(sev), "Q0": model.Severity(sev)})
		assert.True(t, IsVisible(q, answers, model.ApplicabilityProfile{}))
	}
}

func TestEvaluateUrgency(t *testing.T) {
	rules := []model.UrgencyRule{
		{Condition: model.ConditionLowScoreHeavy, Urgency: model.LevelHigh},
		{Condition: model.ConditionLowScoreLight, Urgency: model.LevelMedium},
		{Condition: model.ConditionScoreTwo, Urgency: model.LevelMedium},
		{Condition: model.ConditionScoreAtLeastThree, Urgency: model.LevelLow},
	}
	heavy := model.Question{ID: "H", Weight: 9, UrgencyRules: rules}
	light := model.Question{ID: "L", Weight: 3, UrgencyRules: rules}

	tests := []struct {
		name string
		q    model.Question
		rec  model.AnswerRecord
		want model.Level
	}{
		{"unanswered", heavy, model.AnswerRecord{}, model.LevelMedium},
		{"heavy low score", heavy, model.Severity(0), model.LevelHigh},
		{"light low score", light, model.Severity(1), model.LevelMedium},
		{"score two", heavy, model.Severity(2), model.LevelMedium},
		{"score three", light, model.Severity(3), model.LevelLow},
		{"no rules", model.Question{Weight: 10}, model.Severity(0), model.LevelMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateUrgency(tt.q, tt.rec))
		})
	}
}

func TestEvaluateUrgencyFirstMatchWins(t *testing.T) {
	q := model.Question{Weight: 9, UrgencyRules: []model.UrgencyRule{
		{Condition: model.ConditionUnknown, Urgency: model.LevelLow},
		{Condition: model.ConditionScoreTwo, Urgency: model.Level("Urgent")},
		{Condition: model.ConditionScoreTwo, Urgency: model.LevelHigh},
		{Condition: model.ConditionScoreTwo, Urgency: model.LevelLow},
	}}
	assert.Equal(t, model.LevelHigh, EvaluateUrgency(q, model.Severity(2)))
	assert.Equal(t, model.LevelMedium, EvaluateUrgency(q, model.Severity(4)))
}

func TestGapPriority(t *testing.T) {
	cfg := DefaultScoringConfig()
	tests := []struct {
		weight  int
		urgency model.Level
		want    model.Level
	}{
		{10, model.LevelLow, model.LevelHigh},
		{8, model.LevelLow, model.LevelHigh},
		{7, model.LevelLow, model.LevelMedium},
		{5, model.LevelLow, model.LevelMedium},
		{4, model.LevelLow, model.LevelLow},
		{4, model.LevelMedium, model.LevelMedium},
		{1, model.LevelHigh, model.LevelHigh},
		{1, model.Level(""), model.LevelLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GapPriority(tt.weight, tt.urgency, cfg), "weight %d urgency %s", tt.weight, tt.urgency)
	}
}

func TestGroupMultiplier(t *testing.T) {
	assert.InDelta(t, 1.5, GroupMultiplier(model.Group1), 0.001)
	assert.InDelta(t, 1.2, GroupMultiplier(model.Group2), 0.001)
	assert.InDelta(t, 1.0, GroupMultiplier(model.Group3), 0.001)
	assert.InDelta(t, 0.6, GroupMultiplier(model.GroupVoluntary), 0.001)
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, ValidateConfig(DefaultScoringConfig()))

	cfg := DefaultScoringConfig()
	cfg.UnansweredSeverity = 5
	cfg.ModerateMax = 10
	cfg.HeavyWeight = 2
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unanswered_severity")
	assert.Contains(t, err.Error(), "moderate_readiness_max")
	assert.Contains(t, err.Error(), "heavy_weight")
}
