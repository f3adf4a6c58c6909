package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/saldo-labs/akuntansid/internal/apperror"
	"github.com/saldo-labs/akuntansid/internal/auth"
	"github.com/saldo-labs/akuntansid/internal/config"
	"github.com/saldo-labs/akuntansid/internal/server"
)

// Gateway is the assembled front door.
type Gateway struct {
	registry *Registry
	proxy    *Proxy
	limiter  *RateLimiter
	socket   *HealthSocket
	verifier auth.Verifier
	log      zerolog.Logger
	version  string
	interval time.Duration
	timeout  time.Duration
}

// New builds a gateway from configuration.
func New(cfg *config.Config, version string, log zerolog.Logger) (*Gateway, error) {
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	verifier, err := auth.NewCachingVerifier(issuer, cfg.Auth.TokenCacheSize)
	if err != nil {
		return nil, err
	}

	limiter, err := NewRateLimiter(cfg.Gateway.RateLimitRPS, cfg.Gateway.RateLimitBurst)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry(cfg.Services.All(), cfg.Gateway.HealthPath, log)
	return &Gateway{
		registry: registry,
		proxy:    NewProxy(registry, cfg.Gateway.UpstreamTimeout(), log),
		limiter:  limiter,
		socket:   NewHealthSocket(registry, log),
		verifier: verifier,
		log:      log,
		version:  version,
		interval: cfg.Gateway.HealthInterval(),
		timeout:  cfg.Server.RequestTimeout(),
	}, nil
}

// Start begins health polling.
func (g *Gateway) Start(ctx context.Context) error {
	return g.registry.Start(ctx, g.interval)
}

// Stop halts health polling.
func (g *Gateway) Stop() {
	g.registry.Stop()
}

// Router assembles the edge routes: public auth and health endpoints,
// everything else behind bearer verification.
func (g *Gateway) Router() http.Handler {
	r := server.NewRouter(g.log, g.timeout)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(g.limiter.Middleware)

	r.Get("/health", g.health)
	r.Handle("/ws/health", g.socket)

	// Auth endpoints are public; the auth service decides which of its
	// routes need a token.
	r.Handle("/api/auth/*", g.proxy)

	r.Group(func(pr chi.Router) {
		pr.Use(g.authenticate)
		pr.Handle("/api/*", g.proxy)
	})

	return r
}

// authenticate verifies the bearer token at the edge. Client-supplied
// identity headers are stripped first: only the gateway's own
// verification sets them upstream.
func (g *Gateway) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(auth.HeaderUserID)
		r.Header.Del(auth.HeaderCompanyID)

		token, ok := auth.BearerToken(r)
		if !ok {
			server.WriteError(w, r, apperror.Unauthenticated("gateway.auth", "missing bearer token", nil))
			return
		}
		claims, err := g.verifier.VerifyAccess(token)
		if err != nil {
			server.WriteError(w, r, err)
			return
		}

		ctx := auth.WithIdentity(r.Context(), auth.Identity{
			UserID:    claims.UserID(),
			CompanyID: claims.CompanyID,
			Email:     claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// health aggregates the registry into the standard health shape. Any
// unhealthy upstream degrades the gateway's own status.
func (g *Gateway) health(w http.ResponseWriter, r *http.Request) {
	snap := g.registry.Snapshot()

	status := server.HealthStatus{
		Service:   config.ServiceGateway,
		Version:   g.version,
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make([]server.CheckResult, 0, len(snap.Services)),
	}
	for _, svc := range snap.Services {
		result := server.CheckResult{Name: svc.Name, Status: "up"}
		if !svc.Healthy {
			result.Status = "down"
			result.Error = svc.Error
			status.Status = "degraded"
		}
		status.Checks = append(status.Checks, result)
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	server.WriteJSON(w, code, status)
}
