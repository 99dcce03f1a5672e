package scorer

import (
	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/model"
)

// EvaluateUrgency returns the urgency of q's answer. Unanswered questions are
// Medium. Otherwise the first matching rule wins, falling back to Medium.
// Rules with an unknown condition or level never match.
func EvaluateUrgency(q model.Question, rec model.AnswerRecord) model.Level {
	if !rec.Answered() {
		return model.LevelMedium
	}
	for _, rule := range q.UrgencyRules {
		if !rule.Urgency.Valid() {
			continue
		}
		if rule.Condition.Matches(*rec.Severity, q.Weight) {
			return rule.Urgency
		}
	}
	return model.LevelMedium
}

// GapPriority combines the weight bucket and urgency score. The higher of the
// two decides: 3 is High, 2 is Medium, anything lower is Low.
func GapPriority(weight int, urgency model.Level, cfg config.ScoringConfig) model.Level {
	bucket := 1
	switch {
	case weight >= cfg.HeavyWeight:
		bucket = 3
	case weight >= cfg.MediumWeight:
		bucket = 2
	}

	switch max(bucket, urgencyScore(urgency)) {
	case 3:
		return model.LevelHigh
	case 2:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

func urgencyScore(l model.Level) int {
	switch l {
	case model.LevelHigh:
		return 3
	case model.LevelMedium:
		return 2
	default:
		return 1
	}
}

// GroupMultiplier scales urgency for reporting by compliance tier.
func GroupMultiplier(g model.EntityGroup) float64 {
	switch g {
	case model.Group1:
		return 1.5
	case model.Group2:
		return 1.2
	case model.Group3:
		return 1.0
	default:
		return 0.6
	}
}
