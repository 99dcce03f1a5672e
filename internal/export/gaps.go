// Package export writes the gap register of a scoring result as CSV or XLSX.
package export

import (
	"strconv"

	"github.com/sells-group/readiness-cli/internal/model"
)

// Columns is the gap register header, shared by every format.
var Columns = []string{
	"Clause",
	"Section",
	"Question",
	"Severity",
	"Weight",
	"Weighted Score",
	"Urgency",
	"Priority",
	"Recommendation",
}

// Rows returns one row per gap: High priority first, then Medium, then Low,
// each group in catalog order.
func Rows(res *model.ScoringResult) [][]string {
	if res == nil {
		return nil
	}
	gaps := res.GapGroups.Ordered()
	rows := make([][]string, 0, len(gaps))
	for _, g := range gaps {
		rows = append(rows, gapRow(g))
	}
	return rows
}

func gapRow(g model.GapRecord) []string {
	clause := g.Clause
	if g.RelevantClause != "" {
		clause = g.RelevantClause
	}
	severity := strconv.Itoa(g.Severity)
	if g.Provisional {
		severity += " (unanswered)"
	}
	rec := g.Recommendation
	if rec == "" {
		rec = g.GapDescription
	}
	return []string{
		clause,
		g.Section,
		g.Question,
		severity,
		strconv.Itoa(g.Weight),
		strconv.Itoa(g.WeightedScore),
		string(g.Urgency),
		string(g.Priority),
		rec,
	}
}
