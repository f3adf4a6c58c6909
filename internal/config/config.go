// Package config loads and validates per-service configuration from
// defaults, an optional TOML file, and the environment.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Service names, used for env prefixes, registry keys, and routing.
const (
	ServiceGateway     = "gateway"
	ServiceAuth        = "auth"
	ServiceAccounts    = "accounts"
	ServiceLedger      = "ledger"
	ServicePayables    = "payables"
	ServiceReceivables = "receivables"
	ServiceTax         = "tax"
	ServiceReporting   = "reporting"
)

// KnownServices lists every process the platform runs, gateway included.
var KnownServices = []string{
	ServiceGateway,
	ServiceAuth,
	ServiceAccounts,
	ServiceLedger,
	ServicePayables,
	ServiceReceivables,
	ServiceTax,
	ServiceReporting,
}

// defaultBinds assigns each service its conventional port.
var defaultBinds = map[string]string{
	ServiceGateway:     ":8080",
	ServiceAuth:        ":8081",
	ServiceAccounts:    ":8082",
	ServiceLedger:      ":8083",
	ServicePayables:    ":8084",
	ServiceReceivables: ":8085",
	ServiceTax:         ":8086",
	ServiceReporting:   ":8087",
}

// statefulServices own Postgres tables and therefore require a database URL.
var statefulServices = map[string]bool{
	ServiceAuth:        true,
	ServiceAccounts:    true,
	ServiceLedger:      true,
	ServicePayables:    true,
	ServiceReceivables: true,
	ServiceTax:         true,
}

// Config is the complete configuration of one service process.
type Config struct {
	// Service is the logical name of the process, set by the subcommand.
	Service string `toml:"-" mapstructure:"-"`

	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Auth     AuthConfig     `toml:"auth" mapstructure:"auth"`
	Services ServicesConfig `toml:"services" mapstructure:"services"`
	Gateway  GatewayConfig  `toml:"gateway" mapstructure:"gateway"`
	Logging  LoggingConfig  `toml:"logging" mapstructure:"logging"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Bind                  string `toml:"bind" mapstructure:"bind"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
}

// RequestTimeout returns the per-request deadline.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// DatabaseConfig controls the Postgres pool.
type DatabaseConfig struct {
	URL            string `toml:"url" mapstructure:"url"`
	MaxConnections int32  `toml:"max_connections" mapstructure:"max_connections"`
	MinConnections int32  `toml:"min_connections" mapstructure:"min_connections"`
}

// AuthConfig controls token issuance and verification.
type AuthConfig struct {
	JWTSecret        string `toml:"jwt_secret" mapstructure:"jwt_secret"`
	AccessTTLSeconds int    `toml:"access_ttl_seconds" mapstructure:"access_ttl_seconds"`
	RefreshTTLDays   int    `toml:"refresh_ttl_days" mapstructure:"refresh_ttl_days"`
	TokenCacheSize   int    `toml:"token_cache_size" mapstructure:"token_cache_size"`
}

// AccessTTL returns the access-token lifetime.
func (a AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTTLSeconds) * time.Second
}

// RefreshTTL returns the refresh-token lifetime.
func (a AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTTLDays) * 24 * time.Hour
}

// ServicesConfig holds the base URLs of peer services. Empty entries mean
// the peer is not reachable from this process.
type ServicesConfig struct {
	Auth        string `toml:"auth" mapstructure:"auth"`
	Accounts    string `toml:"accounts" mapstructure:"accounts"`
	Ledger      string `toml:"ledger" mapstructure:"ledger"`
	Payables    string `toml:"payables" mapstructure:"payables"`
	Receivables string `toml:"receivables" mapstructure:"receivables"`
	Tax         string `toml:"tax" mapstructure:"tax"`
	Reporting   string `toml:"reporting" mapstructure:"reporting"`
}

// URL returns the configured base URL for a logical service name.
func (s ServicesConfig) URL(name string) (string, bool) {
	all := s.All()
	url, ok := all[name]
	return url, ok
}

// All returns the configured (non-empty) peer URLs keyed by service name.
func (s ServicesConfig) All() map[string]string {
	out := make(map[string]string)
	entries := []struct {
		name string
		url  string
	}{
		{ServiceAuth, s.Auth},
		{ServiceAccounts, s.Accounts},
		{ServiceLedger, s.Ledger},
		{ServicePayables, s.Payables},
		{ServiceReceivables, s.Receivables},
		{ServiceTax, s.Tax},
		{ServiceReporting, s.Reporting},
	}
	for _, e := range entries {
		if e.url != "" {
			out[e.name] = strings.TrimRight(e.url, "/")
		}
	}
	return out
}

// GatewayConfig controls the front door.
type GatewayConfig struct {
	HealthIntervalSeconds  int     `toml:"health_interval_seconds" mapstructure:"health_interval_seconds"`
	HealthPath             string  `toml:"health_path" mapstructure:"health_path"`
	UpstreamTimeoutSeconds int     `toml:"upstream_timeout_seconds" mapstructure:"upstream_timeout_seconds"`
	RateLimitRPS           float64 `toml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst         int     `toml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// HealthInterval returns the poll period for upstream health checks.
func (g GatewayConfig) HealthInterval() time.Duration {
	return time.Duration(g.HealthIntervalSeconds) * time.Second
}

// UpstreamTimeout returns the per-forward deadline.
func (g GatewayConfig) UpstreamTimeout() time.Duration {
	return time.Duration(g.UpstreamTimeoutSeconds) * time.Second
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level string `toml:"level" mapstructure:"level"`
}

// ConfigPath returns the path of the loaded configuration file, if any.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// DefaultBind returns the conventional bind address for a service.
func DefaultBind(service string) string {
	if bind, ok := defaultBinds[service]; ok {
		return bind
	}
	return ":8080"
}

// ValidateConfig checks the complete configuration for a given service.
// Any error here is a startup (exit code 1) failure.
func ValidateConfig(cfg *Config) error {
	if !knownService(cfg.Service) {
		return fmt.Errorf("unknown service name: %q", cfg.Service)
	}

	if cfg.Server.Bind == "" {
		return fmt.Errorf("server bind address is required")
	}
	if cfg.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request timeout must be positive, got %d", cfg.Server.RequestTimeoutSeconds)
	}

	if statefulServices[cfg.Service] {
		if cfg.Database.URL == "" {
			return fmt.Errorf("%s requires %s_DATABASE_URL", cfg.Service, strings.ToUpper(cfg.Service))
		}
		if cfg.Database.MaxConnections < 1 {
			return fmt.Errorf("database max connections must be >= 1, got %d", cfg.Database.MaxConnections)
		}
		if cfg.Database.MinConnections < 0 {
			return fmt.Errorf("database min connections must be >= 0, got %d", cfg.Database.MinConnections)
		}
		if cfg.Database.MinConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("database min connections (%d) cannot exceed max connections (%d)",
				cfg.Database.MinConnections, cfg.Database.MaxConnections)
		}
	}

	// The auth service signs tokens; the gateway verifies them at the edge.
	if cfg.Service == ServiceAuth || cfg.Service == ServiceGateway {
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("%s requires JWT_SECRET", cfg.Service)
		}
	}
	if cfg.Auth.AccessTTLSeconds <= 0 {
		return fmt.Errorf("access token TTL must be positive, got %d", cfg.Auth.AccessTTLSeconds)
	}
	if cfg.Auth.RefreshTTLDays <= 0 {
		return fmt.Errorf("refresh token TTL must be positive, got %d", cfg.Auth.RefreshTTLDays)
	}

	switch cfg.Service {
	case ServiceGateway:
		if len(cfg.Services.All()) == 0 {
			return fmt.Errorf("gateway requires at least one <SERVICE>_SERVICE_URL")
		}
		if cfg.Gateway.HealthIntervalSeconds <= 0 {
			return fmt.Errorf("gateway health interval must be positive, got %d", cfg.Gateway.HealthIntervalSeconds)
		}
		if cfg.Gateway.UpstreamTimeoutSeconds <= 0 {
			return fmt.Errorf("gateway upstream timeout must be positive, got %d", cfg.Gateway.UpstreamTimeoutSeconds)
		}
	case ServiceReporting:
		if cfg.Services.Ledger == "" {
			return fmt.Errorf("reporting requires LEDGER_SERVICE_URL")
		}
	}

	return nil
}

func knownService(name string) bool {
	for _, s := range KnownServices {
		if s == name {
			return true
		}
	}
	return false
}

// String renders the configuration with the JWT secret and database
// credentials redacted, for startup logging.
func (c *Config) String() string {
	db := c.Database.URL
	if db != "" {
		db = redactDatabaseURL(db)
	}
	secret := c.Auth.JWTSecret
	if secret != "" {
		secret = "[REDACTED]"
	}
	return fmt.Sprintf("service=%s bind=%s database=%s jwt_secret=%s peers=%d",
		c.Service, c.Server.Bind, db, secret, len(c.Services.All()))
}

// redactDatabaseURL hides the password component of a connection URL.
func redactDatabaseURL(url string) string {
	at := strings.LastIndex(url, "@")
	if at == -1 {
		return url
	}
	scheme := strings.Index(url, "://")
	if scheme == -1 {
		return url
	}
	creds := url[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon != -1 {
		creds = creds[:colon] + ":[REDACTED]"
	}
	return url[:scheme+3] + creds + url[at:]
}
