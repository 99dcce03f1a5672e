package registry

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/pkg/notion"
)

// Notion catalog database property names.
const (
	propID             = "ID"
	propSection        = "Section"
	propQuestion       = "Question"
	propWeight         = "Weight"
	propAnswers        = "Answers"
	propSkipQuestion   = "SkipQuestion"
	propSkipMinScore   = "SkipMinScore"
	propUrgencyRules   = "UrgencyRules"
	propGapDescription = "GapDescription"
	propRecommendation = "Recommendation"
	propRelevantClause = "RelevantClause"
	propOrder          = "Order"
	propStatus         = "Status"

	statusActive = "Active"
)

type orderedQuestion struct {
	order float64
	seq   int
	q     model.Question
}

// LoadNotionCatalog builds a catalog from the active pages of a Notion
// database. Pages are ordered by their Order property; sections follow the
// first question that names them. Malformed pages are skipped.
func LoadNotionCatalog(ctx context.Context, client notion.Client, dbID string) (*model.Catalog, error) {
	pages, err := notion.QueryByStatus(ctx, client, dbID, statusActive)
	if err != nil {
		return nil, eris.Wrap(err, "registry: load notion catalog")
	}

	var rows []orderedQuestion
	for i, p := range pages {
		q, order, err := parseQuestionPage(p)
		if err != nil {
			zap.L().Warn("registry: skipping malformed catalog page",
				zap.String("page_id", string(p.ID)),
				zap.Error(err),
			)
			continue
		}
		rows = append(rows, orderedQuestion{order: order, seq: i, q: q})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].order != rows[j].order {
			return rows[i].order < rows[j].order
		}
		return rows[i].seq < rows[j].seq
	})

	doc := &document{}
	doc.Metadata.Title = "Notion catalog " + dbID
	for _, r := range rows {
		doc.Questionnaire = append(doc.Questionnaire, r.q)
	}
	cat := build(doc)

	zap.L().Info("registry: loaded notion catalog",
		zap.String("database_id", dbID),
		zap.Int("questions", len(doc.Questionnaire)),
		zap.Int("sections", len(cat.Sections)),
	)
	return cat, nil
}

func parseQuestionPage(p notionapi.Page) (model.Question, float64, error) {
	props := p.Properties
	q := model.Question{
		ID:             strings.TrimSpace(notion.Text(props, propID)),
		Section:        strings.TrimSpace(notion.Text(props, propSection)),
		Text:           notion.Text(props, propQuestion),
		GapDescription: notion.Text(props, propGapDescription),
		Recommendation: notion.Text(props, propRecommendation),
		RelevantClause: notion.Text(props, propRelevantClause),
	}
	if q.ID == "" {
		return q, 0, eris.New("missing ID property")
	}
	if q.Text == "" {
		return q, 0, eris.New("missing Question property")
	}

	w, ok := notion.NumberValue(props, propWeight)
	if !ok {
		return q, 0, eris.New("missing Weight property")
	}
	q.Weight = int(w)

	if raw := notion.Text(props, propAnswers); raw != "" {
		if err := json.Unmarshal([]byte(raw), &q.Answers); err != nil {
			return q, 0, eris.Wrap(err, "decode Answers property")
		}
	}
	if raw := notion.Text(props, propUrgencyRules); raw != "" {
		if err := json.Unmarshal([]byte(raw), &q.UrgencyRules); err != nil {
			return q, 0, eris.Wrap(err, "decode UrgencyRules property")
		}
	}
	if prereq := strings.TrimSpace(notion.Text(props, propSkipQuestion)); prereq != "" {
		minScore, _ := notion.NumberValue(props, propSkipMinScore)
		q.SkipCondition = &model.SkipCondition{QuestionID: prereq, MinScore: int(minScore)}
	}

	order, _ := notion.NumberValue(props, propOrder)
	return q, order, nil
}

// PushResult counts the pages written by PushNotionCatalog.
type PushResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// PushNotionCatalog writes every catalog question to a Notion database.
// Pages whose ID property matches a question are updated in place; the rest
// are created as Active.
func PushNotionCatalog(ctx context.Context, client notion.Client, dbID string, cat *model.Catalog) (PushResult, error) {
	var res PushResult

	pages, err := notion.QueryAll(ctx, client, dbID, nil)
	if err != nil {
		return res, eris.Wrap(err, "registry: list notion catalog pages")
	}
	existing := make(map[string]string, len(pages))
	for _, p := range pages {
		if id := strings.TrimSpace(notion.Text(p.Properties, propID)); id != "" {
			existing[id] = string(p.ID)
		}
	}

	for i, q := range cat.Questions() {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "registry: push notion catalog cancelled")
		}
		props, err := questionProperties(q, i+1)
		if err != nil {
			return res, eris.Wrapf(err, "registry: build properties for %s", q.ID)
		}

		if pageID, ok := existing[q.ID]; ok {
			if _, err := client.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props}); err != nil {
				return res, eris.Wrapf(err, "registry: update question %s", q.ID)
			}
			res.Updated++
			continue
		}

		props[propStatus] = notionapi.StatusProperty{
			Type:   notionapi.PropertyTypeStatus,
			Status: notionapi.Status{Name: statusActive},
		}
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: props,
		}
		if _, err := client.CreatePage(ctx, req); err != nil {
			return res, eris.Wrapf(err, "registry: create question %s", q.ID)
		}
		res.Created++
	}

	zap.L().Info("registry: pushed catalog to notion",
		zap.String("database_id", dbID),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
	)
	return res, nil
}

func questionProperties(q model.Question, order int) (notionapi.Properties, error) {
	answers, err := json.Marshal(q.Answers)
	if err != nil {
		return nil, eris.Wrap(err, "encode answers")
	}
	rules, err := json.Marshal(q.UrgencyRules)
	if err != nil {
		return nil, eris.Wrap(err, "encode urgency rules")
	}

	props := notionapi.Properties{
		propID:             notion.Title(q.ID),
		propSection:        notion.Select(q.Section),
		propQuestion:       notion.RichText(q.Text),
		propWeight:         notion.Number(float64(q.Weight)),
		propAnswers:        notion.RichText(string(answers)),
		propUrgencyRules:   notion.RichText(string(rules)),
		propGapDescription: notion.RichText(q.GapDescription),
		propRecommendation: notion.RichText(q.Recommendation),
		propRelevantClause: notion.RichText(q.RelevantClause),
		propOrder:          notion.Number(float64(order)),
	}
	if q.SkipCondition != nil {
		props[propSkipQuestion] = notion.RichText(q.SkipCondition.QuestionID)
		props[propSkipMinScore] = notion.Number(float64(q.SkipCondition.MinScore))
	}
	return props, nil
}
