package cmd

import (
	"os/signal"
	"syscall"

	"github.com/huangsam/shiptalkers/core"
	"github.com/huangsam/shiptalkers/internal/api"
	"github.com/huangsam/shiptalkers/internal/logger"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP report endpoint.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports over HTTP.",
	Long: `Start an HTTP server exposing POST /api/v1/reports and GET /health.

A failed report request never stops the server. Requests are rate limited
per client address with --rate-limit and --rate-burst.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc := core.NewServiceFromConfig(cfg, historyManager)
		return api.NewServer(cfg, svc, logger.Default()).ListenAndServe(ctx)
	},
}
