package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/store"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Manage stored assessments",
	Long:  "Commands for creating assessments, recording profiles and answers, and scoring them.",
}

// -- assess create --

var assessCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		a, err := env.Service.Create(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "assess create")
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.ID)
		return nil
	},
}

// -- assess list --

var assessListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assessments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		list, err := env.Service.List(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "assess list")
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No assessments found.")
			return nil
		}
		formatAssessments(cmd.OutOrStdout(), list)
		return nil
	},
}

// -- assess show --

var assessShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an assessment's profile, answers and classification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		st, err := env.Service.Load(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "assess show")
		}
		return writeJSON(cmd.OutOrStdout(), st)
	},
}

// -- assess set-profile --

var assessProfileFile string

var assessSetProfileCmd = &cobra.Command{
	Use:   "set-profile <id>",
	Short: "Store an entity profile and its classification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := readProfile(assessProfileFile)
		if err != nil {
			return err
		}

		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		eval, err := env.Service.SaveProfile(cmd.Context(), args[0], p)
		if err != nil {
			return eris.Wrap(err, "assess set-profile")
		}
		printEvaluation(cmd.OutOrStdout(), eval)
		return nil
	},
}

// -- assess answer --

var (
	answerSeverity int
	answerNA       bool
	answerUnset    bool
	answerFile     string
)

var assessAnswerCmd = &cobra.Command{
	Use:   "answer <id> [question-id]",
	Short: "Record, mark N/A or clear a question answer",
	Long:  "Records a single answer with --severity or --na, clears it with --unset, or replaces every answer from --file.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if answerFile != "" {
			answers, err := readAnswers(answerFile)
			if err != nil {
				return err
			}
			if err := env.Service.SaveAnswers(ctx, id, answers); err != nil {
				return eris.Wrap(err, "assess answer")
			}
			zap.L().Info("answers saved", zap.String("assessment_id", id), zap.Int("answers", answers.Len()))
			return nil
		}

		if len(args) < 2 {
			return eris.New("question id is required unless --file is given")
		}
		qid := args[1]

		var answers model.AnswerSet
		switch {
		case answerUnset:
			answers, err = env.Service.ClearAnswer(ctx, id, qid)
		case answerNA:
			answers, err = env.Service.SetAnswer(ctx, id, qid, model.NotApplicable())
		case cmd.Flags().Changed("severity"):
			answers, err = env.Service.SetAnswer(ctx, id, qid, model.Severity(answerSeverity))
		default:
			return eris.New("one of --severity, --na or --unset is required")
		}
		if err != nil {
			return eris.Wrap(err, "assess answer")
		}
		zap.L().Info("answer recorded",
			zap.String("assessment_id", id),
			zap.String("question_id", qid),
			zap.Int("answers", answers.Len()),
		)
		return nil
	},
}

// -- assess score --

var (
	assessSnapshot    bool
	assessScoreFormat string
)

var assessScoreCmd = &cobra.Command{
	Use:   "score <id>",
	Short: "Score a stored assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rep, err := env.Service.Score(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "assess score")
		}
		if assessSnapshot {
			if _, err := env.Service.Snapshot(ctx, args[0]); err != nil {
				return eris.Wrap(err, "assess score: snapshot")
			}
		}
		return writeReport(cmd.OutOrStdout(), rep, assessScoreFormat)
	},
}

// -- assess history --

var assessHistoryLimit int

var assessHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "List score snapshots, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		snaps, err := env.Service.History(cmd.Context(), args[0], assessHistoryLimit)
		if err != nil {
			return eris.Wrap(err, "assess history")
		}
		if len(snaps) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No snapshots found.")
			return nil
		}
		formatSnapshots(cmd.OutOrStdout(), snaps)
		return nil
	},
}

// -- assess clear --

var assessClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Remove the profile, answers and classification of an assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.Clear(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "assess clear")
		}
		return nil
	},
}

// -- assess delete --

var assessDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an assessment and everything stored for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.Delete(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "assess delete")
		}
		return nil
	},
}

func init() {
	assessSetProfileCmd.Flags().StringVar(&assessProfileFile, "profile", "", "entity profile file, YAML or JSON (required)")
	_ = assessSetProfileCmd.MarkFlagRequired("profile")

	assessAnswerCmd.Flags().IntVar(&answerSeverity, "severity", 0, "answer severity, 0 (not started) to 4 (best practice)")
	assessAnswerCmd.Flags().BoolVar(&answerNA, "na", false, "mark the question not applicable")
	assessAnswerCmd.Flags().BoolVar(&answerUnset, "unset", false, "clear the answer")
	assessAnswerCmd.Flags().StringVar(&answerFile, "file", "", "replace all answers from a YAML or JSON file")
	assessAnswerCmd.MarkFlagsMutuallyExclusive("severity", "na", "unset", "file")

	assessScoreCmd.Flags().StringVar(&assessScoreFormat, "format", "table", "output format: table, json or csv")
	assessScoreCmd.Flags().BoolVar(&assessSnapshot, "snapshot", false, "record a score snapshot")

	assessHistoryCmd.Flags().IntVar(&assessHistoryLimit, "limit", 20, "max snapshots to list (0 for all)")

	assessCmd.AddCommand(assessCreateCmd, assessListCmd, assessShowCmd, assessSetProfileCmd,
		assessAnswerCmd, assessScoreCmd, assessHistoryCmd, assessClearCmd, assessDeleteCmd)
	rootCmd.AddCommand(assessCmd)
}

func formatAssessments(w io.Writer, list []model.Assessment) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, a.Name, a.UpdatedAt.Format(time.RFC3339))
	}
	tw.Flush() //nolint:errcheck
}

func formatSnapshots(w io.Writer, snaps []store.ScoreSnapshot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tSCORE\tREADINESS\tPROGRESS\tGAPS")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d%%\t%d\n", s.CreatedAt.Format(time.RFC3339), s.TotalScore, s.Readiness, s.Progress, s.GapCount)
	}
	tw.Flush() //nolint:errcheck
}
