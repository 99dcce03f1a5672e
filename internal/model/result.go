package model

import "time"

// Level is a High/Medium/Low classification used for urgency and priority.
type Level string

const (
	LevelHigh   Level = "High"
	LevelMedium Level = "Medium"
	LevelLow    Level = "Low"
)

// Levels lists the levels from most to least pressing.
var Levels = []Level{LevelHigh, LevelMedium, LevelLow}

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	return l == LevelHigh || l == LevelMedium || l == LevelLow
}

// Readiness is the overall readiness label. Low accumulated gap score means
// high readiness.
type Readiness string

const (
	ReadinessHigh     Readiness = "High"
	ReadinessModerate Readiness = "Moderate"
	ReadinessLow      Readiness = "Low"
)

// UrgencyTally counts questions per urgency level.
type UrgencyTally struct {
	High   int `json:"High"`
	Medium int `json:"Medium"`
	Low    int `json:"Low"`
}

// Add increments the counter for l. Unknown levels are ignored.
func (t *UrgencyTally) Add(l Level) {
	switch l {
	case LevelHigh:
		t.High++
	case LevelMedium:
		t.Medium++
	case LevelLow:
		t.Low++
	}
}

// Rollup returns High if any question is High, else Medium if any is Medium,
// else Low.
func (t UrgencyTally) Rollup() Level {
	switch {
	case t.High > 0:
		return LevelHigh
	case t.Medium > 0:
		return LevelMedium
	default:
		return LevelLow
	}
}

// GapRecord describes one question still below best practice. Derived on
// every scoring pass; never persisted on its own.
type GapRecord struct {
	ID             string  `json:"id"`
	Clause         string  `json:"clause"`
	Section        string  `json:"section"`
	Question       string  `json:"question"`
	Severity       int     `json:"severity"`
	Provisional    bool    `json:"provisional,omitempty"`
	Weight         int     `json:"weight"`
	WeightedScore  int     `json:"weighted_score"`
	UrgencyWeight  float64 `json:"urgency_weight"`
	Urgency        Level   `json:"urgency"`
	Priority       Level   `json:"priority"`
	Description    string  `json:"description"`
	GapDescription string  `json:"gap_description,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`
	RelevantClause string  `json:"relevant_clause,omitempty"`
}

// GapGroups partitions gaps by priority.
type GapGroups struct {
	High   []GapRecord `json:"High"`
	Medium []GapRecord `json:"Medium"`
	Low    []GapRecord `json:"Low"`
}

// Add files g under its priority. Unknown priorities land in Low.
func (g *GapGroups) Add(gap GapRecord) {
	switch gap.Priority {
	case LevelHigh:
		g.High = append(g.High, gap)
	case LevelMedium:
		g.Medium = append(g.Medium, gap)
	default:
		g.Low = append(g.Low, gap)
	}
}

// Len returns the total number of grouped gaps.
func (g GapGroups) Len() int {
	return len(g.High) + len(g.Medium) + len(g.Low)
}

// Ordered returns High, then Medium, then Low gaps.
func (g GapGroups) Ordered() []GapRecord {
	out := make([]GapRecord, 0, g.Len())
	out = append(out, g.High...)
	out = append(out, g.Medium...)
	return append(out, g.Low...)
}

// SectionScore is the per-section subtotal.
type SectionScore struct {
	SectionID     string       `json:"section_id"`
	SectionTitle  string       `json:"section_title"`
	Score         int          `json:"section_score"`
	CriticalCount int          `json:"critical_count"`
	Urgency       Level        `json:"urgency_level"`
	UrgencyCounts UrgencyTally `json:"urgency_counts"`
}

// ScoringResult is a pure function of answers, applicability profile and
// catalog.
type ScoringResult struct {
	SectionScores       []SectionScore `json:"section_scores"`
	TotalScore          int            `json:"total_score"`
	Readiness           Readiness      `json:"readiness"`
	VisibleQuestionIDs  []string       `json:"visible_question_ids"`
	WeightedPerQuestion map[string]int `json:"weighted_per_question"`
	UrgencyBreakdown    UrgencyTally   `json:"urgency_breakdown"`
	Gaps                []GapRecord    `json:"gaps_detailed"`
	GapGroups           GapGroups      `json:"gap_groups"`
	AnsweredVisible     int            `json:"answered_visible"`
	Progress            int            `json:"progress"`
}

// IsVisible reports whether id was visible in this pass.
func (r *ScoringResult) IsVisible(id string) bool {
	for _, v := range r.VisibleQuestionIDs {
		if v == id {
			return true
		}
	}
	return false
}

// Assessment is one organisation's readiness assessment.
type Assessment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
