package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/readiness-cli/internal/eligibility"
)

var (
	classifyProfile string
	classifyJSON    bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify an entity profile against the mandatory reporting thresholds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := readProfile(classifyProfile)
		if err != nil {
			return err
		}
		eval := eligibility.Evaluate(p, cfg.Eligibility)
		if classifyJSON {
			return writeJSON(cmd.OutOrStdout(), eval)
		}
		printEvaluation(cmd.OutOrStdout(), eval)
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyProfile, "profile", "", "entity profile file, YAML or JSON (required)")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "print the evaluation as JSON")
	_ = classifyCmd.MarkFlagRequired("profile")
	rootCmd.AddCommand(classifyCmd)
}

func printEvaluation(w io.Writer, eval eligibility.Evaluation) {
	if !eval.Computable {
		fmt.Fprintf(w, "Not yet computable. Missing: %s\n", strings.Join(eval.Missing, ", "))
		return
	}
	c := eval.Classification
	fmt.Fprintf(w, "In scope:        %t\n", c.InScope)
	fmt.Fprintf(w, "Group:           %s\n", c.Group.Label())
	if c.MandatoryStartDate != "" {
		fmt.Fprintf(w, "Reporting start: %s\n", c.MandatoryStartDate)
	}
	fmt.Fprintf(w, "Thresholds met:  %d\n", c.ThresholdsMet)
	fmt.Fprintf(w, "Assurance:       %t\n", c.AssuranceRequired)
	for _, r := range c.Reasoning {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}
