package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/registry"
	"github.com/sells-group/readiness-cli/pkg/notion"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and sync the questionnaire catalog",
}

// -- catalog validate --

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a catalog document against the catalog schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := registry.Load(args[0])
		if err != nil {
			var ve *registry.ValidationError
			if errors.As(err, &ve) {
				for _, fe := range ve.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", fe.Field, fe.Message)
				}
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sections, %d questions\n", args[0], len(cat.Sections), len(cat.Questions()))
		return nil
	},
}

// -- catalog show --

var catalogShowFile string

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the sections and questions of the active catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := loadCatalog(cmd.Context(), catalogShowFile)
		if err != nil {
			return err
		}
		formatCatalog(cmd.OutOrStdout(), cat)
		return nil
	},
}

// -- catalog pull-notion --

var (
	catalogPullOutput string
	catalogPullFormat string
)

var catalogPullCmd = &cobra.Command{
	Use:   "pull-notion",
	Short: "Export the Notion catalog database to a catalog document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("notion"); err != nil {
			return err
		}
		client := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))

		cat, err := registry.LoadNotionCatalog(ctx, client, cfg.Notion.CatalogDB)
		if err != nil {
			return eris.Wrap(err, "catalog pull-notion")
		}
		data, err := registry.Encode(cat, catalogPullFormat)
		if err != nil {
			return err
		}

		w, closeOut, err := createOutput(catalogPullOutput, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			_ = closeOut()
			return eris.Wrap(err, "catalog pull-notion: write")
		}
		if err := closeOut(); err != nil {
			return eris.Wrap(err, "catalog pull-notion: close")
		}
		zap.L().Info("catalog pulled", zap.Int("questions", len(cat.Questions())), zap.String("output", catalogPullOutput))
		return nil
	},
}

// -- catalog push-notion --

var catalogPushFile string

var catalogPushCmd = &cobra.Command{
	Use:   "push-notion",
	Short: "Create or update Notion catalog pages from a catalog document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("notion"); err != nil {
			return err
		}

		cat := registry.Default()
		if catalogPushFile != "" {
			var err error
			if cat, err = registry.Load(catalogPushFile); err != nil {
				return err
			}
		}

		client := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
		res, err := registry.PushNotionCatalog(ctx, client, cfg.Notion.CatalogDB, cat)
		if err != nil {
			return eris.Wrap(err, "catalog push-notion")
		}
		zap.L().Info("catalog pushed", zap.Int("created", res.Created), zap.Int("updated", res.Updated))
		return nil
	},
}

func init() {
	catalogShowCmd.Flags().StringVar(&catalogShowFile, "file", "", "catalog file (default from config)")

	catalogPullCmd.Flags().StringVar(&catalogPullOutput, "output", "", "output file (default stdout)")
	catalogPullCmd.Flags().StringVar(&catalogPullFormat, "format", "yaml", "document format: yaml or json")

	catalogPushCmd.Flags().StringVar(&catalogPushFile, "file", "", "catalog file to push (default embedded catalog)")

	catalogCmd.AddCommand(catalogValidateCmd, catalogShowCmd, catalogPullCmd, catalogPushCmd)
	rootCmd.AddCommand(catalogCmd)
}

func formatCatalog(w io.Writer, cat *model.Catalog) {
	fmt.Fprintf(w, "%s", cat.Title)
	if cat.Version != "" {
		fmt.Fprintf(w, " (v%s)", cat.Version)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range cat.Sections {
		fmt.Fprintf(tw, "\n%s\t[%s]\n", strings.ToUpper(s.Title), s.ID)
		for _, q := range s.Questions {
			skip := ""
			if q.SkipCondition != nil {
				skip = fmt.Sprintf("after %s>=%d", q.SkipCondition.QuestionID, q.SkipCondition.MinScore)
			}
			fmt.Fprintf(tw, "%s\tw=%d\t%s\t%s\n", q.ID, q.Weight, skip, q.Text)
		}
	}
	tw.Flush() //nolint:errcheck
}
