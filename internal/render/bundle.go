// Package render turns assessment data into a printable readiness report.
// It holds no domain logic: every figure it shows comes from the scoring
// result and classification it is handed.
package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/readiness-cli/internal/model"
)

// Report section ids.
const (
	SectionCompanyProfile = "company-profile"
	SectionResponses      = "responses"
	SectionGaps           = "gaps-analysis"
)

// DefaultSections is used when no sections are requested.
var DefaultSections = []string{SectionCompanyProfile, SectionResponses, SectionGaps}

var sectionTitles = map[string]string{
	SectionCompanyProfile: "Company Profile",
	SectionResponses:      "Question Responses",
	SectionGaps:           "Gaps Analysis",
}

// DefaultPlaceholder is shown for every field that has no value.
const DefaultPlaceholder = "Not provided"

// NormalizeSections validates requested section ids. A nil or empty request
// selects every section. Duplicates are dropped and the result keeps report
// order regardless of request order.
func NormalizeSections(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string(nil), DefaultSections...), nil
	}
	want := make(map[string]bool, len(requested))
	for _, s := range requested {
		s = strings.TrimSpace(strings.ToLower(s))
		if _, ok := sectionTitles[s]; !ok {
			return nil, eris.Errorf("render: unknown section %q", s)
		}
		want[s] = true
	}
	out := make([]string, 0, len(want))
	for _, s := range DefaultSections {
		if want[s] {
			out = append(out, s)
		}
	}
	return out, nil
}

// Response is one visible question as printed in the responses section.
type Response struct {
	ID            string `json:"id"`
	Section       string `json:"section"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	Severity      *int   `json:"severity,omitempty"`
	NotApplicable bool   `json:"not_applicable,omitempty"`
}

// Bundle is the self-contained data a report is rendered from.
type Bundle struct {
	ReportID       string                      `json:"report_id"`
	GeneratedAt    time.Time                   `json:"generated_at"`
	Title          string                      `json:"title"`
	Placeholder    string                      `json:"placeholder"`
	Sections       []string                    `json:"sections"`
	Company        *model.EntityProfile        `json:"company,omitempty"`
	Classification *model.Classification       `json:"classification,omitempty"`
	Profile        *model.ApplicabilityProfile `json:"profile,omitempty"`
	Result         *model.ScoringResult        `json:"result,omitempty"`
	Responses      []Response                  `json:"responses,omitempty"`
}

// Input carries the raw pieces a Bundle is assembled from. Every field is
// optional apart from Sections, which is validated by NormalizeSections.
type Input struct {
	Title          string
	Placeholder    string
	Sections       []string
	Company        *model.EntityProfile
	Classification *model.Classification
	Answers        model.AnswerSet
	Result         *model.ScoringResult
	Catalog        *model.Catalog
}

// NewBundle assembles a Bundle stamped with now.
func NewBundle(in Input, now time.Time) (*Bundle, error) {
	sections, err := NormalizeSections(in.Sections)
	if err != nil {
		return nil, err
	}
	b := &Bundle{
		ReportID:       uuid.New().String(),
		GeneratedAt:    now,
		Title:          in.Title,
		Placeholder:    in.Placeholder,
		Sections:       sections,
		Company:        in.Company,
		Classification: in.Classification,
		Result:         in.Result,
	}
	if b.Title == "" {
		b.Title = "AASB S2 Readiness Report"
	}
	if b.Placeholder == "" {
		b.Placeholder = DefaultPlaceholder
	}
	if in.Classification != nil {
		p := in.Classification.Profile()
		b.Profile = &p
	}
	if in.Catalog != nil && in.Result != nil {
		b.Responses = buildResponses(in.Catalog, in.Answers, in.Result, b.Placeholder)
	}
	return b, nil
}

// Has reports whether section was selected.
func (b *Bundle) Has(section string) bool {
	for _, s := range b.Sections {
		if s == section {
			return true
		}
	}
	return false
}

// buildResponses lists visible questions in catalog order with the label of
// the chosen answer.
func buildResponses(cat *model.Catalog, answers model.AnswerSet, res *model.ScoringResult, placeholder string) []Response {
	var out []Response
	for _, sec := range cat.Sections {
		for _, q := range sec.Questions {
			if !res.IsVisible(q.ID) {
				continue
			}
			r := Response{ID: q.ID, Section: sec.Title, Question: q.Text, Answer: placeholder}
			if rec, ok := answers.Get(q.ID); ok && rec.Answered() {
				r.Severity = rec.Severity
				r.NotApplicable = rec.NotApplicable
				r.Answer = answerLabel(q, rec)
			}
			out = append(out, r)
		}
	}
	return out
}

func answerLabel(q model.Question, rec model.AnswerRecord) string {
	if rec.NotApplicable {
		return "N/A"
	}
	for _, c := range q.Answers {
		if c.Score == *rec.Severity {
			return c.Label
		}
	}
	return "Severity " + strconv.Itoa(*rec.Severity)
}
