package scorer

import "github.com/sells-group/readiness-cli/internal/model"

// IsVisible reports whether q should be shown given the current answers.
// A question is hidden only when its prerequisite has been answered with a
// severity below the skip condition's minimum; an unanswered prerequisite
// leaves it visible. The applicability profile is accepted so tier-specific
// skip rules can be added without changing callers; it is not consulted today.
func IsVisible(q model.Question, answers model.AnswerSet, _ model.ApplicabilityProfile) bool {
	if q.SkipCondition == nil {
		return true
	}
	prereq, ok := answers.Get(q.SkipCondition.QuestionID)
	if !ok || !prereq.Answered() {
		return true
	}
	return *prereq.Severity >= q.SkipCondition.MinScore
}
