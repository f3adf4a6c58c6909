package cli

import (
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/saldo-labs/akuntansid/internal/config"
	"github.com/saldo-labs/akuntansid/internal/core/reporting"
	"github.com/saldo-labs/akuntansid/internal/server"
)

// reportingCmd starts the report composer. It holds no tables of its
// own: every report is assembled from ledger service responses.
var reportingCmd = &cobra.Command{
	Use:   "reporting",
	Short: "Start the financial reporting service",
	RunE:  runReporting,
}

func init() {
	rootCmd.AddCommand(reportingCmd)
}

func runReporting(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.ServiceReporting)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signalContext()
	defer stop()

	svc := reporting.NewService(reporting.NewLedgerClient(cfg.Services.Ledger), log)
	handler := reporting.NewHandler(svc)

	router := serviceRouter(cfg, log, tokenVerifier(cfg), func(api chi.Router) {
		handler.Routes(api)
	})

	log.Info().Str("config", cfg.String()).Msg("starting service")
	return server.Run(ctx, log, cfg.Server.Bind, router)
}
