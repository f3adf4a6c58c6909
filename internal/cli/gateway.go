package cli

import (
	"github.com/spf13/cobra"

	"github.com/saldo-labs/akuntansid/internal/config"
	"github.com/saldo-labs/akuntansid/internal/gateway"
	"github.com/saldo-labs/akuntansid/internal/server"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the API gateway",
	Long: `Start the API gateway: the single public entry point. Verifies
bearer tokens at the edge, rate-limits clients, polls upstream service
health, and forwards requests with the caller identity attached.`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.ServiceGateway)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signalContext()
	defer stop()

	g, err := gateway.New(cfg, Version, log)
	if err != nil {
		return err
	}
	if err := g.Start(ctx); err != nil {
		return err
	}
	defer g.Stop()

	log.Info().Str("config", cfg.String()).Msg("starting service")
	return server.Run(ctx, log, cfg.Server.Bind, g.Router())
}
