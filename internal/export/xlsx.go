package export

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/readiness-cli/internal/model"
)

// Sheet names in the workbook.
const (
	GapsSheet    = "Gap Register"
	SummarySheet = "Summary"
)

// numericColumns are written as numbers so spreadsheets can sort them.
var numericColumns = map[int]bool{4: true, 5: true}

// WriteXLSX writes a workbook with the gap register and a per-section summary.
func WriteXLSX(w io.Writer, res *model.ScoringResult) error {
	f := xlsx.NewFile()

	gaps, err := f.AddSheet(GapsSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add gap sheet")
	}
	addRow(gaps, Columns, nil)
	for _, row := range Rows(res) {
		addRow(gaps, row, numericColumns)
	}

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add summary sheet")
	}
	writeSummary(summary, res)

	return eris.Wrap(f.Write(w), "xlsx: write workbook")
}

func writeSummary(sheet *xlsx.Sheet, res *model.ScoringResult) {
	addRow(sheet, []string{"Section", "Score", "Critical", "Urgency", "High", "Medium", "Low"}, nil)
	if res == nil {
		return
	}
	numeric := map[int]bool{1: true, 2: true, 4: true, 5: true, 6: true}
	for _, s := range res.SectionScores {
		addRow(sheet, []string{
			s.SectionTitle,
			strconv.Itoa(s.Score),
			strconv.Itoa(s.CriticalCount),
			string(s.Urgency),
			strconv.Itoa(s.UrgencyCounts.High),
			strconv.Itoa(s.UrgencyCounts.Medium),
			strconv.Itoa(s.UrgencyCounts.Low),
		}, numeric)
	}
	addRow(sheet, []string{"Total", strconv.Itoa(res.TotalScore)}, map[int]bool{1: true})
	addRow(sheet, []string{"Readiness", string(res.Readiness)}, nil)
	addRow(sheet, []string{"Completion %", strconv.Itoa(res.Progress)}, map[int]bool{1: true})
}

func addRow(sheet *xlsx.Sheet, values []string, numeric map[int]bool) {
	row := sheet.AddRow()
	for i, v := range values {
		cell := row.AddCell()
		if numeric[i] {
			if n, err := strconv.Atoi(v); err == nil {
				cell.SetInt(n)
				continue
			}
		}
		cell.SetString(v)
	}
}
