package scorer

import (
	"fmt"
	"math"

	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/model"
)

// Engine scores answer sets against a catalog. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	cfg config.ScoringConfig
}

// NewEngine creates an Engine. A zero config selects DefaultScoringConfig.
func NewEngine(cfg config.ScoringConfig) *Engine {
	if cfg == (config.ScoringConfig{}) {
		cfg = DefaultScoringConfig()
	}
	return &Engine{cfg: cfg}
}

// Config returns the thresholds the engine scores with.
func (e *Engine) Config() config.ScoringConfig {
	return e.cfg
}

// Score evaluates every catalog question in order. answers is a snapshot;
// the caller owns consistency with its store.
func (e *Engine) Score(answers model.AnswerSet, profile model.ApplicabilityProfile, catalog *model.Catalog) *model.ScoringResult {
	res := &model.ScoringResult{
		SectionScores:       []model.SectionScore{},
		VisibleQuestionIDs:  []string{},
		WeightedPerQuestion: map[string]int{},
		Gaps:                []model.GapRecord{},
		GapGroups: model.GapGroups{
			High:   []model.GapRecord{},
			Medium: []model.GapRecord{},
			Low:    []model.GapRecord{},
		},
	}
	if catalog == nil {
		res.Readiness = e.readiness(0)
		return res
	}

	answers = e.inRange(answers)
	multiplier := GroupMultiplier(profile.EntityGroup)

	for _, section := range catalog.Sections {
		if len(section.Questions) == 0 {
			continue
		}
		sectionID := section.ID
		if sectionID == "" {
			sectionID = model.SectionID(section.Title)
		}
		ss := model.SectionScore{SectionID: sectionID, SectionTitle: section.Title}

		for _, q := range section.Questions {
			if !IsVisible(q, answers, profile) {
				continue
			}
			res.VisibleQuestionIDs = append(res.VisibleQuestionIDs, q.ID)

			rec, _ := answers.Get(q.ID)
			if rec.Answered() {
				res.AnsweredVisible++
			}

			severity, provisional, counted := e.effectiveSeverity(rec)

			weighted := 0
			if counted && !rec.NotApplicable {
				weighted = severity * q.Weight
			}
			ss.Score += weighted
			res.TotalScore += weighted
			res.WeightedPerQuestion[q.ID] = weighted
			if weighted > e.cfg.CriticalWeighted {
				ss.CriticalCount++
			}

			urgency := EvaluateUrgency(q, rec)
			ss.UrgencyCounts.Add(urgency)
			res.UrgencyBreakdown.Add(urgency)

			if !counted || rec.NotApplicable || severity >= e.cfg.MaxSeverity {
				continue
			}
			gap := e.gapRecord(q, section, severity, weighted, urgency, multiplier)
			gap.Provisional = provisional
			res.Gaps = append(res.Gaps, gap)
			res.GapGroups.Add(gap)
		}

		ss.Urgency = ss.UrgencyCounts.Rollup()
		res.SectionScores = append(res.SectionScores, ss)
	}

	res.Readiness = e.readiness(res.TotalScore)
	if n := len(res.VisibleQuestionIDs); n > 0 {
		res.Progress = int(math.Round(float64(res.AnsweredVisible) / float64(n) * 100))
	}
	return res
}

// inRange drops severities outside 0..MaxSeverity so they score as
// unanswered everywhere, including visibility and urgency. A not-applicable
// flag survives with severity 0.
func (e *Engine) inRange(answers model.AnswerSet) model.AnswerSet {
	out := answers
	for _, id := range answers.IDs() {
		rec, _ := answers.Get(id)
		if !rec.Answered() || (*rec.Severity >= 0 && *rec.Severity <= e.cfg.MaxSeverity) {
			continue
		}
		if rec.NotApplicable {
			out = out.With(id, model.NotApplicable())
		} else {
			out = out.With(id, model.AnswerRecord{})
		}
	}
	return out
}

// effectiveSeverity resolves the severity used for scoring. Unanswered
// questions take the configured default and are marked provisional, or are
// left out entirely when ExcludeUnanswered is set.
func (e *Engine) effectiveSeverity(rec model.AnswerRecord) (severity int, provisional, counted bool) {
	if rec.Answered() {
		return *rec.Severity, false, true
	}
	if e.cfg.ExcludeUnanswered {
		return 0, false, false
	}
	return e.cfg.UnansweredSeverity, true, true
}

func (e *Engine) gapRecord(q model.Question, section model.Section, severity, weighted int, urgency model.Level, multiplier float64) model.GapRecord {
	sectionName := q.Section
	if sectionName == "" {
		sectionName = section.Title
	}
	desc := q.GapDescription
	if desc == "" {
		desc = fmt.Sprintf("Clause %s - %s", q.ID, q.Text)
	}
	return model.GapRecord{
		ID:             q.ID,
		Clause:         q.ID,
		Section:        sectionName,
		Question:       q.Text,
		Severity:       severity,
		Weight:         q.Weight,
		WeightedScore:  weighted,
		UrgencyWeight:  float64(q.Weight) * multiplier,
		Urgency:        urgency,
		Priority:       GapPriority(q.Weight, urgency, e.cfg),
		Description:    desc,
		GapDescription: q.GapDescription,
		Recommendation: q.Recommendation,
		RelevantClause: q.RelevantClause,
	}
}

func (e *Engine) readiness(total int) model.Readiness {
	switch {
	case total <= e.cfg.HighReadinessMax:
		return model.ReadinessHigh
	case total <= e.cfg.ModerateMax:
		return model.ReadinessModerate
	default:
		return model.ReadinessLow
	}
}
