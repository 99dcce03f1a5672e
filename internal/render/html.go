package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/readiness-cli/internal/eligibility"
	"github.com/sells-group/readiness-cli/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var reportTmpl = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{"lower": strings.ToLower}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// Field is one label/value row.
type Field struct {
	Label string
	Value string
}

type sectionView struct {
	ID    string
	Title string
}

type summaryView struct {
	TotalScore int
	Readiness  string
	Progress   int
	Urgency    model.UrgencyTally
	Sections   []model.SectionScore
}

type reportView struct {
	Title       string
	Date        string
	Placeholder string
	Sections    []sectionView
	Company     []Field
	Summary     *summaryView
	Responses   []Response
	Gaps        []gapGroupView
	Reasoning   []string
	ShowCompany bool
	ShowAnswers bool
	ShowGaps    bool
}

type gapGroupView struct {
	Priority string
	Gaps     []model.GapRecord
}

// HTML renders the bundle as a standalone HTML document.
func HTML(b *Bundle) ([]byte, error) {
	if b == nil {
		return nil, eris.New("render: nil bundle")
	}
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, newReportView(b)); err != nil {
		return nil, eris.Wrap(err, "render: execute template")
	}
	return buf.Bytes(), nil
}

func newReportView(b *Bundle) reportView {
	v := reportView{
		Title:       b.Title,
		Date:        b.GeneratedAt.Format("2 January 2006"),
		Placeholder: b.Placeholder,
		ShowCompany: b.Has(SectionCompanyProfile),
		ShowAnswers: b.Has(SectionResponses),
		ShowGaps:    b.Has(SectionGaps),
		Responses:   b.Responses,
	}
	for _, s := range b.Sections {
		v.Sections = append(v.Sections, sectionView{ID: s, Title: sectionTitles[s]})
	}
	v.Company = CompanyFields(b.Company, b.Classification, b.Placeholder)
	if b.Classification != nil {
		v.Reasoning = b.Classification.Reasoning
	}
	if r := b.Result; r != nil {
		v.Summary = &summaryView{
			TotalScore: r.TotalScore,
			Readiness:  string(r.Readiness),
			Progress:   r.Progress,
			Urgency:    r.UrgencyBreakdown,
			Sections:   r.SectionScores,
		}
		for _, g := range []struct {
			level model.Level
			gaps  []model.GapRecord
		}{
			{model.LevelHigh, r.GapGroups.High},
			{model.LevelMedium, r.GapGroups.Medium},
			{model.LevelLow, r.GapGroups.Low},
		} {
			if len(g.gaps) > 0 {
				v.Gaps = append(v.Gaps, gapGroupView{Priority: string(g.level), Gaps: g.gaps})
			}
		}
	}
	return v
}

// CompanyFields lists the company profile rows shown in reports. Missing
// values are replaced by placeholder.
func CompanyFields(p *model.EntityProfile, c *model.Classification, placeholder string) []Field {
	if p == nil {
		p = &model.EntityProfile{}
	}
	or := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return placeholder
		}
		return s
	}
	bracket := func(s eligibility.Scale, id string) string {
		if id == "" {
			return placeholder
		}
		return s.Label(id)
	}
	yesNo := func(b *bool) string {
		switch {
		case b == nil:
			return placeholder
		case *b:
			return "Yes"
		default:
			return "No"
		}
	}

	group, start := placeholder, placeholder
	if c != nil {
		group = c.Group.Label()
		start = or(c.MandatoryStartDate)
	}

	return []Field{
		{"Company", or(p.CompanyName)},
		{"Industry", or(p.Industry)},
		{"Entity Type", or(entityTypeLabel(p.EntityType))},
		{"Chapter 2M (Corps Act)", or(reportingLabel(p.StatutoryReporting))},
		{"Revenue (latest FY)", bracket(eligibility.RevenueScale, p.RevenueBracket)},
		{"Gross Assets (end FY)", bracket(eligibility.AssetsScale, p.AssetsBracket)},
		{"Employees (FTE)", bracket(eligibility.EmployeesScale, p.EmployeesBracket)},
		{"NGER Reporter", yesNo(p.EmissionsReporter)},
		{"AUM > $5B (super/financial)", yesNo(p.LargeFundAUM)},
		{"Group classification", group},
		{"Mandatory reporting start date", start},
	}
}

func entityTypeLabel(t model.EntityType) string {
	switch t {
	case "":
		return ""
	case model.EntityForProfit:
		return "For-profit"
	case model.EntityNotForProfit:
		return "Not-for-profit"
	case model.EntitySuperFinancial:
		return "Superannuation fund / Financial institution"
	default:
		return "Other"
	}
}

func reportingLabel(s model.ReportingStatus) string {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "":
		return ""
	case string(model.ReportingYes):
		return "Yes"
	case string(model.ReportingNo):
		return "No"
	default:
		return "Unsure"
	}
}

// HeaderTemplate is the running page header used for PDF output.
func HeaderTemplate(b *Bundle) string {
	return fmt.Sprintf(`<div style="font-size:10px; text-align:left; width:100%%; padding-left:10mm; color:#444;">%s - %s</div>`,
		template.HTMLEscapeString(b.Title), b.GeneratedAt.Format("2 January 2006"))
}

// FooterTemplate prints "Page X of Y" on every page.
const FooterTemplate = `<div style="font-size:10px; width:100%; text-align:center; color:#444;">Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
