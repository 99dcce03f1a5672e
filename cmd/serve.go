package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/assessment"
	"github.com/sells-group/readiness-cli/internal/render"
	"github.com/sells-group/readiness-cli/internal/server"
	"github.com/sells-group/readiness-cli/internal/store"
)

var (
	servePort     int
	serveNoPDF    bool
	serveSnapshot bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the readiness API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("server"); err != nil {
			return err
		}

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if serveSnapshot {
			cancel := env.Store.Subscribe(snapshotOnChange(ctx, env.Service))
			defer cancel()
		}

		var pdf render.PDFRenderer
		if !serveNoPDF {
			pdf = render.NewChromeRenderer(cfg.Render)
		}

		return server.New(cfg, env.Service, pdf).ListenAndServe(ctx, cfg.Server.Port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoPDF, "no-pdf", false, "disable PDF export (no Chrome available)")
	serveCmd.Flags().BoolVar(&serveSnapshot, "snapshot-on-change", true, "record a score snapshot after each profile or answer write")
	rootCmd.AddCommand(serveCmd)
}

// snapshotOnChange returns an observer that snapshots the assessment behind
// each profile or answer write.
func snapshotOnChange(ctx context.Context, svc *assessment.Service) func(store.Change) {
	return func(c store.Change) {
		if c.Deleted && c.Key == "" {
			return
		}
		if c.Key == store.KeyClassification {
			return
		}
		if _, err := svc.Snapshot(ctx, c.AssessmentID); err != nil {
			zap.L().Warn("snapshot on change failed",
				zap.String("assessment_id", c.AssessmentID),
				zap.String("key", c.Key),
				zap.Error(err),
			)
		}
	}
}
