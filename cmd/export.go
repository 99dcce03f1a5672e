package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/assessment"
	"github.com/sells-group/readiness-cli/internal/export"
	"github.com/sells-group/readiness-cli/internal/render"
)

var (
	exportID       string
	exportFormat   string
	exportOutput   string
	exportSections []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a gap register or readiness report for an assessment",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		w, closeOut, err := createOutput(exportOutput, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := runExport(ctx, env.Service, w, render.NewChromeRenderer(cfg.Render)); err != nil {
			_ = closeOut()
			return err
		}
		if err := closeOut(); err != nil {
			return eris.Wrap(err, "export: close output")
		}

		zap.L().Info("export complete",
			zap.String("assessment_id", exportID),
			zap.String("format", exportFormat),
			zap.String("output", exportOutput),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportID, "id", "", "assessment id (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format: xlsx, csv, pdf or html")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file (default stdout)")
	exportCmd.Flags().StringSliceVar(&exportSections, "sections", nil, "report sections for pdf/html (default all)")
	_ = exportCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(exportCmd)
}

func runExport(ctx context.Context, svc *assessment.Service, w io.Writer, pdf render.PDFRenderer) error {
	switch exportFormat {
	case "xlsx", "csv":
		rep, err := svc.Score(ctx, exportID)
		if err != nil {
			return eris.Wrap(err, "export: score")
		}
		if rep.Status != assessment.StatusReady {
			return eris.Errorf("export: assessment %s is pending, missing %v", exportID, rep.Pending)
		}
		if exportFormat == "csv" {
			return export.WriteCSV(w, rep.Result)
		}
		return export.WriteXLSX(w, rep.Result)

	case "pdf", "html":
		bundle, err := svc.Bundle(ctx, exportID, exportSections)
		if err != nil {
			return eris.Wrap(err, "export: bundle")
		}
		var data []byte
		if exportFormat == "html" {
			data, err = render.HTML(bundle)
		} else {
			data, err = pdf.PDF(ctx, bundle)
		}
		if err != nil {
			return eris.Wrapf(err, "export: render %s", exportFormat)
		}
		_, err = w.Write(data)
		return err

	default:
		return eris.Errorf("export: unsupported format %q", exportFormat)
	}
}
