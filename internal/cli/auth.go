package cli

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/config"
	"github.com/saldo-labs/akuntansid/internal/core/identity"
	"github.com/saldo-labs/akuntansid/internal/server"
	"github.com/saldo-labs/akuntansid/internal/storage/postgres"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Start the authentication service",
	Long: `Start the authentication service: user registration, login,
token refresh and verification. Signs JWT access and refresh tokens
with the shared JWT_SECRET.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.ServiceAuth)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signalContext()
	defer stop()

	store, err := openStore(ctx, cfg, postgres.SchemaIdentity, postgres.SchemaAudit)
	if err != nil {
		return err
	}
	defer store.Close()

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	svc := identity.NewService(store, issuer, log)
	handler := identity.NewHandler(svc)

	// Expired refresh tokens accumulate in the revocation table; sweep
	// them hourly so lookups stay small.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@hourly", func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		purged, err := svc.PurgeExpiredTokens(sweepCtx)
		if err != nil {
			log.Warn().Err(err).Msg("refresh token sweep failed")
			return
		}
		if purged > 0 {
			log.Info().Int64("purged", purged).Msg("swept expired refresh tokens")
		}
	}); err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	r := server.NewRouter(log, cfg.Server.RequestTimeout())
	r.Get("/health", server.HealthHandler(cfg.Service, Version, dbHealthCheck(store)))
	r.Route("/api", func(api chi.Router) {
		handler.PublicRoutes(api)
		api.Group(func(protected chi.Router) {
			protected.Use(auth.Middleware(issuer))
			handler.ProtectedRoutes(protected)
		})
	})

	log.Info().Str("config", cfg.String()).Msg("starting service")
	return server.Run(ctx, log, cfg.Server.Bind, r)
}
