package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/config"
	"github.com/saldo-labs/akuntansid/internal/server"
	"github.com/saldo-labs/akuntansid/internal/storage/postgres"
)

// loadConfig resolves the configuration for a service from defaults, the
// optional --conf file, and the environment.
func loadConfig(service string) (*config.Config, error) {
	return config.LoadConfig(service, configFile)
}

// newLogger builds the process logger. The configured level is the
// baseline; --debug and --verbose lower it, --quiet raises it.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if debug || verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.ErrorLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.Service).
		Logger()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStore connects the Postgres pool for a stateful service and
// ensures the schema groups it owns.
func openStore(ctx context.Context, cfg *config.Config, groups ...string) (*postgres.Manager, error) {
	return postgres.Open(ctx, postgres.Config{
		URL:          cfg.Database.URL,
		MaxConns:     cfg.Database.MaxConnections,
		MinConns:     cfg.Database.MinConnections,
		SchemaGroups: groups,
	})
}

// tokenVerifier builds a bearer-token verifier when the process has the
// shared JWT secret. Services without it rely on gateway-forwarded
// identity headers only.
func tokenVerifier(cfg *config.Config) auth.Verifier {
	if cfg.Auth.JWTSecret == "" {
		return nil
	}
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	if verifier, err := auth.NewCachingVerifier(issuer, cfg.Auth.TokenCacheSize); err == nil {
		return verifier
	}
	return issuer
}

// dbHealthCheck probes database connectivity for the health endpoint.
func dbHealthCheck(store *postgres.Manager) server.HealthCheck {
	return server.HealthCheck{
		Name: "database",
		Check: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return store.Ping(ctx)
		},
	}
}

// serviceRouter assembles the standard internal-service surface:
// unauthenticated /health, authenticated API routes under /api.
func serviceRouter(cfg *config.Config, log zerolog.Logger, verifier auth.Verifier, mount func(chi.Router), checks ...server.HealthCheck) *chi.Mux {
	r := server.NewRouter(log, cfg.Server.RequestTimeout())
	r.Get("/health", server.HealthHandler(cfg.Service, Version, checks...))
	r.Route("/api", func(api chi.Router) {
		api.Use(auth.Middleware(verifier))
		mount(api)
	})
	return r
}

// runStateful is the common run loop for the database-backed services:
// load config, open the store, assemble routes, serve until signalled.
func runStateful(service string, groups []string, mount func(store *postgres.Manager, log zerolog.Logger) func(chi.Router)) error {
	cfg, err := loadConfig(service)
	if err != nil {
		return err
	}
	return runStatefulWith(cfg, groups, mount)
}

// runStatefulWith runs a database-backed service from an already loaded
// configuration, for commands that inspect it before starting.
func runStatefulWith(cfg *config.Config, groups []string, mount func(store *postgres.Manager, log zerolog.Logger) func(chi.Router)) error {
	log := newLogger(cfg)

	ctx, stop := signalContext()
	defer stop()

	store, err := openStore(ctx, cfg, groups...)
	if err != nil {
		return err
	}
	defer store.Close()

	router := serviceRouter(cfg, log, tokenVerifier(cfg), mount(store, log), dbHealthCheck(store))

	log.Info().Str("config", cfg.String()).Msg("starting service")
	return server.Run(ctx, log, cfg.Server.Bind, router)
}
