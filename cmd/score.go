package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/readiness-cli/internal/assessment"
	"github.com/sells-group/readiness-cli/internal/eligibility"
	"github.com/sells-group/readiness-cli/internal/export"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/scorer"
)

var (
	scoreAnswers        string
	scoreProfile        string
	scoreClassification string
	scoreCatalog        string
	scoreFormat         string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score questionnaire answers without storing them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scoreProfile == "" && scoreClassification == "" {
			return eris.New("one of --profile or --classification is required")
		}

		cat, err := loadCatalog(cmd.Context(), scoreCatalog)
		if err != nil {
			return err
		}
		answers, err := readAnswers(scoreAnswers)
		if err != nil {
			return err
		}

		rep := &assessment.Report{}
		var class *model.Classification
		if scoreProfile != "" {
			p, err := readProfile(scoreProfile)
			if err != nil {
				return err
			}
			eval := eligibility.Evaluate(p, cfg.Eligibility)
			if !eval.Computable {
				rep.Status = assessment.StatusPending
				rep.Pending = eval.Missing
				return writeReport(cmd.OutOrStdout(), rep, scoreFormat)
			}
			class = eval.Classification
		} else {
			if class, err = readClassification(scoreClassification); err != nil {
				return err
			}
		}

		profile := class.Profile()
		rep.Status = assessment.StatusReady
		rep.Classification = class
		rep.Profile = &profile
		rep.Result = scorer.NewEngine(cfg.Scoring).Score(answers, profile, cat)
		return writeReport(cmd.OutOrStdout(), rep, scoreFormat)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreAnswers, "answers", "", "questionnaire answers file, YAML or JSON")
	scoreCmd.Flags().StringVar(&scoreProfile, "profile", "", "entity profile file; classified before scoring")
	scoreCmd.Flags().StringVar(&scoreClassification, "classification", "", "stored classification result file")
	scoreCmd.Flags().StringVar(&scoreCatalog, "catalog", "", "catalog file (default from config)")
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "table", "output format: table, json or csv")
	scoreCmd.MarkFlagsMutuallyExclusive("profile", "classification")
	rootCmd.AddCommand(scoreCmd)
}

func writeReport(w io.Writer, rep *assessment.Report, format string) error {
	switch format {
	case "json":
		return writeJSON(w, rep)
	case "csv":
		if rep.Result == nil {
			return eris.Errorf("report pending: missing %v", rep.Pending)
		}
		return export.WriteCSV(w, rep.Result)
	case "table", "":
		formatReport(w, rep)
		return nil
	default:
		return eris.Errorf("unsupported format %q", format)
	}
}

func formatReport(w io.Writer, rep *assessment.Report) {
	if rep.Status == assessment.StatusPending {
		fmt.Fprintf(w, "Pending: classification needs %v\n", rep.Pending)
		return
	}
	res := rep.Result
	if rep.Classification != nil {
		fmt.Fprintf(w, "Group: %s\n", rep.Classification.Group.Label())
	}
	fmt.Fprintf(w, "Total score: %d (%s readiness)\n", res.TotalScore, res.Readiness)
	fmt.Fprintf(w, "Progress: %d%% (%d of %d visible answered)\n\n", res.Progress, res.AnsweredVisible, len(res.VisibleQuestionIDs))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tSCORE\tCRITICAL\tURGENCY")
	for _, s := range res.SectionScores {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.SectionTitle, s.Score, s.CriticalCount, s.Urgency)
	}
	tw.Flush() //nolint:errcheck

	if res.GapGroups.Len() == 0 {
		fmt.Fprintln(w, "\nNo gaps.")
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tID\tSEVERITY\tWEIGHTED\tURGENCY\tQUESTION")
	for _, g := range res.GapGroups.Ordered() {
		sev := fmt.Sprint(g.Severity)
		if g.Provisional {
			sev += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", g.Priority, g.ID, sev, g.WeightedScore, g.Urgency, g.Question)
	}
	tw.Flush() //nolint:errcheck
}
