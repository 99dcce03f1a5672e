package model

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the questionnaire reference data: ordered sections of questions.
type Catalog struct {
	Title         string       `json:"title" yaml:"title"`
	Version       string       `json:"version" yaml:"version"`
	Description   string       `json:"description,omitempty" yaml:"description"`
	Sections      []Section    `json:"sections" yaml:"sections"`
	ScoringLevels []ScaleLevel `json:"scoring_levels,omitempty" yaml:"scoring_levels"`
	UrgencyLevels []LevelNote  `json:"urgency_levels,omitempty" yaml:"urgency_levels"`
}

// Section groups questions under a disclosure pillar.
type Section struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// ScaleLevel documents one point on the severity scale.
type ScaleLevel struct {
	Score       int    `json:"score" yaml:"score"`
	Description string `json:"description" yaml:"description"`
}

// LevelNote documents one urgency level.
type LevelNote struct {
	Level       string `json:"level" yaml:"level"`
	Description string `json:"description" yaml:"description"`
}

// Questions returns every question in catalog order.
func (c *Catalog) Questions() []Question {
	var out []Question
	for _, s := range c.Sections {
		out = append(out, s.Questions...)
	}
	return out
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (Question, bool) {
	for _, s := range c.Sections {
		for _, q := range s.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

// Question is a single catalog entry.
type Question struct {
	ID             string         `json:"id" yaml:"id"`
	Section        string         `json:"section" yaml:"section"`
	Text           string         `json:"question" yaml:"question"`
	Answers        []AnswerChoice `json:"answers" yaml:"answers"`
	Weight         int            `json:"weight" yaml:"weight"`
	SkipCondition  *SkipCondition `json:"skipCondition,omitempty" yaml:"skipCondition"`
	UrgencyRules   []UrgencyRule  `json:"urgencyRules,omitempty" yaml:"urgencyRules"`
	GapDescription string         `json:"gapDescription,omitempty" yaml:"gapDescription"`
	Recommendation string         `json:"recommendation,omitempty" yaml:"recommendation"`
	RelevantClause string         `json:"relevantClause,omitempty" yaml:"relevantClause"`
}

// AnswerChoice is one selectable answer with its severity score.
type AnswerChoice struct {
	Label string `json:"label" yaml:"label"`
	Score int    `json:"score" yaml:"score"`
}

// SkipCondition hides a question while its prerequisite scores below MinScore.
type SkipCondition struct {
	QuestionID string `json:"questionId" yaml:"questionId"`
	MinScore   int    `json:"minScore" yaml:"minScore"`
}

// UrgencyRule maps a fixed predicate to an urgency level.
type UrgencyRule struct {
	Condition Condition `json:"condition" yaml:"condition"`
	Urgency   Level     `json:"urgency" yaml:"urgency"`
}

// Condition is the closed set of urgency predicates the catalog may use.
// Anything else decodes to ConditionUnknown, which never matches.
type Condition int

const (
	ConditionUnknown Condition = iota
	// ConditionLowScoreHeavy is "score<2 && weight>=8".
	ConditionLowScoreHeavy
	// ConditionLowScoreLight is "score<2 && weight<8".
	ConditionLowScoreLight
	// ConditionScoreTwo is "score==2".
	ConditionScoreTwo
	// ConditionScoreAtLeastThree is "score>=3".
	ConditionScoreAtLeastThree
)

var conditionText = map[Condition]string{
	ConditionLowScoreHeavy:     "score<2 && weight>=8",
	ConditionLowScoreLight:     "score<2 && weight<8",
	ConditionScoreTwo:          "score==2",
	ConditionScoreAtLeastThree: "score>=3",
}

// conditionClauses keys each predicate by its sorted, whitespace-free clauses.
var conditionClauses = map[string]Condition{
	"score<2&&weight>=8": ConditionLowScoreHeavy,
	"score<2&&weight<8":  ConditionLowScoreLight,
	"score==2":           ConditionScoreTwo,
	"score>=3":           ConditionScoreAtLeastThree,
}

// ParseCondition decodes a catalog condition string. "severity" is accepted
// as a synonym for "score" and clause order does not matter.
func ParseCondition(s string) Condition {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	s = strings.ReplaceAll(s, "severity", "score")
	parts := strings.Split(s, "&&")
	if len(parts) == 2 && strings.HasPrefix(parts[0], "weight") {
		parts[0], parts[1] = parts[1], parts[0]
	}
	if c, ok := conditionClauses[strings.Join(parts, "&&")]; ok {
		return c
	}
	return ConditionUnknown
}

// Matches evaluates the predicate.
func (c Condition) Matches(severity, weight int) bool {
	switch c {
	case ConditionLowScoreHeavy:
		return severity < 2 && weight >= 8
	case ConditionLowScoreLight:
		return severity < 2 && weight < 8
	case ConditionScoreTwo:
		return severity == 2
	case ConditionScoreAtLeastThree:
		return severity >= 3
	default:
		return false
	}
}

func (c Condition) String() string {
	if s, ok := conditionText[c]; ok {
		return s
	}
	return "unknown"
}

// MarshalJSON writes the canonical condition text.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes the condition once at catalog load.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*c = ConditionUnknown
		return nil
	}
	*c = ParseCondition(s)
	return nil
}

// UnmarshalYAML decodes the condition once at catalog load.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		*c = ConditionUnknown
		return nil
	}
	*c = ParseCondition(s)
	return nil
}
