package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/readiness-cli/internal/assessment"
	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/render"
	"github.com/sells-group/readiness-cli/internal/store"
)

const groupOneProfileYAML = `
company_name: Acme
entity_type: for-profit
statutory_reporting: "yes"
revenue_bracket: gte-500m
assets_bracket: gte-1b
employees_bracket: gte-500
emissions_reporter: true
large_fund_aum: false
`

// runCmd invokes c's RunE with a background context and captured output.
func runCmd(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetContext(context.Background())
	c.SetOut(&out)
	c.SetErr(&out)
	err := c.RunE(c, args)
	return out.String(), err
}

func TestDecodeDocument(t *testing.T) {
	var answers model.AnswerSet
	require.NoError(t, decodeDocument([]byte("G1: {severity: 2}\nG2: {na: true}\n"), &answers))
	rec, ok := answers.Get("G1")
	require.True(t, ok)
	assert.Equal(t, 2, *rec.Severity)
	rec, _ = answers.Get("G2")
	assert.True(t, rec.NotApplicable)

	var class model.Classification
	require.NoError(t, decodeDocument([]byte(`{"in_scope": false, "group": "voluntary"}`), &class))
	assert.Equal(t, model.GroupVoluntary, class.Group)

	assert.Error(t, decodeDocument([]byte(""), &class))
	assert.Error(t, decodeDocument([]byte("key: [unclosed"), &class))
}

func TestClassifyCommand(t *testing.T) {
	useTestConfig(t)
	classifyProfile = writeFile(t, "profile.yaml", groupOneProfileYAML)
	t.Cleanup(func() { classifyProfile, classifyJSON = "", false })

	out, err := runCmd(t, classifyCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Group 1")

	classifyProfile = writeFile(t, "partial.yaml", "company_name: Partial\n")
	out, err = runCmd(t, classifyCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Not yet computable")
	assert.Contains(t, out, "entity_type")
}

func TestScoreCommand(t *testing.T) {
	useTestConfig(t)
	scoreProfile = writeFile(t, "profile.yaml", groupOneProfileYAML)
	scoreAnswers = writeFile(t, "answers.yaml", "G1: {severity: 1}\nS1: {severity: 4}\n")
	t.Cleanup(func() {
		scoreProfile, scoreAnswers, scoreClassification, scoreFormat = "", "", "", "table"
	})

	scoreFormat = "table"
	out, err := runCmd(t, scoreCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Total score:")
	assert.Contains(t, out, "Governance")
	assert.Contains(t, out, "G1")

	scoreFormat = "json"
	out, err = runCmd(t, scoreCmd)
	require.NoError(t, err)
	var rep assessment.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, assessment.StatusReady, rep.Status)
	assert.Equal(t, model.Group1, rep.Classification.Group)

	scoreFormat = "csv"
	out, err = runCmd(t, scoreCmd)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Clause", records[0][0])

	scoreFormat = "yaml"
	_, err = runCmd(t, scoreCmd)
	assert.Error(t, err)
}

func TestScoreCommandClassificationAndPending(t *testing.T) {
	useTestConfig(t)
	t.Cleanup(func() {
		scoreProfile, scoreAnswers, scoreClassification, scoreFormat = "", "", "", "table"
	})

	scoreFormat = "json"
	scoreClassification = writeFile(t, "class.json", `{"in_scope": true, "group": 3, "mandatory_start_date": "2027-07-01"}`)
	out, err := runCmd(t, scoreCmd)
	require.NoError(t, err)
	var rep assessment.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, model.Group3, rep.Profile.EntityGroup)

	scoreClassification = ""
	scoreProfile = writeFile(t, "partial.yaml", "statutory_reporting: unsure\n")
	scoreFormat = "table"
	out, err = runCmd(t, scoreCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Pending")

	scoreProfile = ""
	_, err = runCmd(t, scoreCmd)
	assert.Error(t, err, "profile or classification required")
}

func TestAssessWorkflow(t *testing.T) {
	useTestConfig(t)

	out, err := runCmd(t, assessCreateCmd, "Acme Pty Ltd")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = runCmd(t, assessListCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Pty Ltd")

	assessProfileFile = writeFile(t, "profile.yaml", groupOneProfileYAML)
	t.Cleanup(func() { assessProfileFile = "" })
	out, err = runCmd(t, assessSetProfileCmd, id)
	require.NoError(t, err)
	assert.Contains(t, out, "Group 1")

	require.NoError(t, assessAnswerCmd.Flags().Set("severity", "1"))
	t.Cleanup(func() {
		answerSeverity, answerNA, answerUnset, answerFile = 0, false, false, ""
		assessAnswerCmd.Flags().Lookup("severity").Changed = false
	})
	_, err = runCmd(t, assessAnswerCmd, id, "G1")
	require.NoError(t, err)

	_, err = runCmd(t, assessAnswerCmd, id, "NOPE")
	assert.ErrorIs(t, err, assessment.ErrUnknownQuestion)

	assessScoreFormat, assessSnapshot = "json", true
	t.Cleanup(func() { assessScoreFormat, assessSnapshot = "table", false })
	out, err = runCmd(t, assessScoreCmd, id)
	require.NoError(t, err)
	var rep assessment.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, assessment.StatusReady, rep.Status)
	assert.Equal(t, 1, rep.Result.AnsweredVisible)

	assessHistoryLimit = 0
	t.Cleanup(func() { assessHistoryLimit = 20 })
	out, err = runCmd(t, assessHistoryCmd, id)
	require.NoError(t, err)
	assert.Contains(t, out, "READINESS")

	out, err = runCmd(t, assessShowCmd, id)
	require.NoError(t, err)
	assert.Contains(t, out, "questionnaire_answers")

	_, err = runCmd(t, assessClearCmd, id)
	require.NoError(t, err)
	_, err = runCmd(t, assessDeleteCmd, id)
	require.NoError(t, err)
	_, err = runCmd(t, assessShowCmd, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

type stubPDF struct {
	sections []string
}

func (s *stubPDF) PDF(_ context.Context, b *render.Bundle) ([]byte, error) {
	s.sections = b.Sections
	return []byte("%PDF-1.4"), nil
}

func TestRunExport(t *testing.T) {
	useTestConfig(t)
	ctx := context.Background()
	env, err := initApp(ctx)
	require.NoError(t, err)
	defer env.Close()

	a, err := env.Service.Create(ctx, "Export")
	require.NoError(t, err)
	prevID, prevFormat, prevSections := exportID, exportFormat, exportSections
	t.Cleanup(func() { exportID, exportFormat, exportSections = prevID, prevFormat, prevSections })
	exportID = a.ID

	var buf bytes.Buffer
	exportFormat = "csv"
	err = runExport(ctx, env.Service, &buf, nil)
	require.Error(t, err, "pending assessment cannot export a gap register")

	p, err := readProfile(writeFile(t, "p.yaml", groupOneProfileYAML))
	require.NoError(t, err)
	_, err = env.Service.SaveProfile(ctx, a.ID, p)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, runExport(ctx, env.Service, &buf, nil))
	assert.Contains(t, buf.String(), "Recommendation")

	buf.Reset()
	exportFormat = "html"
	require.NoError(t, runExport(ctx, env.Service, &buf, nil))
	assert.Contains(t, buf.String(), "cover-page")

	buf.Reset()
	exportFormat, exportSections = "pdf", []string{"gaps-analysis"}
	pdf := &stubPDF{}
	require.NoError(t, runExport(ctx, env.Service, &buf, pdf))
	assert.Equal(t, "%PDF-1.4", buf.String())
	assert.Equal(t, []string{"gaps-analysis"}, pdf.sections)

	exportFormat = "docx"
	assert.Error(t, runExport(ctx, env.Service, &buf, pdf))
}

func TestSnapshotOnChange(t *testing.T) {
	useTestConfig(t)
	ctx := context.Background()
	env, err := initApp(ctx)
	require.NoError(t, err)
	defer env.Close()

	cancel := env.Store.Subscribe(snapshotOnChange(ctx, env.Service))
	defer cancel()

	a, err := env.Service.Create(ctx, "Observed")
	require.NoError(t, err)

	_, err = env.Service.SetAnswer(ctx, a.ID, "G1", model.Severity(2))
	require.NoError(t, err)
	history, err := env.Service.History(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history, "pending assessments are not snapshotted")

	p, err := readProfile(writeFile(t, "p.yaml", groupOneProfileYAML))
	require.NoError(t, err)
	_, err = env.Service.SaveProfile(ctx, a.ID, p)
	require.NoError(t, err)

	history, err = env.Service.History(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1, "profile write snapshots, classification write does not")
}

func TestCatalogCommands(t *testing.T) {
	useTestConfig(t)

	out, err := runCmd(t, catalogShowCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "GOVERNANCE")
	assert.Contains(t, out, "after G1>=2")

	good := writeFile(t, "good.json", `{"metadata":{"title":"T"},"questionnaire":[{"id":"Q1","section":"S","question":"?","weight":1}]}`)
	out, err = runCmd(t, catalogValidateCmd, good)
	require.NoError(t, err)
	assert.Contains(t, out, "1 sections, 1 questions")

	bad := writeFile(t, "bad.json", `{"metadata":{}}`)
	out, err = runCmd(t, catalogValidateCmd, bad)
	require.Error(t, err)
	assert.Contains(t, out, "questionnaire")
}

func TestLoadCatalogSources(t *testing.T) {
	c := useTestConfig(t)
	ctx := context.Background()

	cat, err := loadCatalog(ctx, "")
	require.NoError(t, err)
	assert.Len(t, cat.Sections, 4)

	c.Catalog = config.CatalogConfig{Source: "file", Path: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err = loadCatalog(ctx, "")
	assert.Error(t, err)

	c.Catalog.Source = "notion"
	_, err = loadCatalog(ctx, "")
	assert.Error(t, err, "notion source requires a token")
}
