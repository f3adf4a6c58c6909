package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration for a service in priority order:
// 1. Built-in defaults
// 2. Optional TOML file (--conf)
// 3. Environment variables (the deployment contract)
func LoadConfig(service, configPath string) (*Config, error) {
	v := viper.New()

	// 1. Defaults first
	setDefaults(v, service)

	// 2. Optional configuration file
	if configPath != "" {
		if err := loadConfigFile(v, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// 3. Environment variables override everything
	bindEnvironment(v, service)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Service = service
	cfg.configPath = configPath

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults seeds viper with per-service defaults.
func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.bind", DefaultBind(service))
	v.SetDefault("server.request_timeout_seconds", 30)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_ttl_seconds", 3600)
	v.SetDefault("auth.refresh_ttl_days", 30)
	v.SetDefault("auth.token_cache_size", 1024)

	v.SetDefault("gateway.health_interval_seconds", 10)
	v.SetDefault("gateway.health_path", "/health")
	v.SetDefault("gateway.upstream_timeout_seconds", 30)
	v.SetDefault("gateway.rate_limit_rps", 50.0)
	v.SetDefault("gateway.rate_limit_burst", 100)

	v.SetDefault("logging.level", "info")
}

// loadConfigFile reads an explicit TOML configuration file.
func loadConfigFile(v *viper.Viper, configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	return nil
}

// bindEnvironment wires the deployment environment contract:
// <SERVICE>_DATABASE_URL, <SERVICE>_SERVICE_BIND, <SERVICE>_SERVICE_URL
// per peer, plus the shared JWT_SECRET, DB_MAX_CONNECTIONS,
// DB_MIN_CONNECTIONS and REQUEST_TIMEOUT_SECONDS.
func bindEnvironment(v *viper.Viper, service string) {
	prefix := strings.ToUpper(service)

	bindings := map[string][]string{
		"server.bind":                     {prefix + "_SERVICE_BIND"},
		"server.request_timeout_seconds":  {"REQUEST_TIMEOUT_SECONDS"},
		"database.url":                    {prefix + "_DATABASE_URL", "DATABASE_URL"},
		"database.max_connections":        {"DB_MAX_CONNECTIONS"},
		"database.min_connections":        {"DB_MIN_CONNECTIONS"},
		"auth.jwt_secret":                 {"JWT_SECRET"},
		"auth.access_ttl_seconds":         {"JWT_ACCESS_TTL_SECONDS"},
		"auth.refresh_ttl_days":           {"JWT_REFRESH_TTL_DAYS"},
		"logging.level":                   {"LOG_LEVEL"},
		"gateway.health_interval_seconds": {"GATEWAY_HEALTH_INTERVAL_SECONDS"},
		"gateway.upstream_timeout_seconds": {"GATEWAY_UPSTREAM_TIMEOUT_SECONDS"},
		"gateway.rate_limit_rps":          {"GATEWAY_RATE_LIMIT_RPS"},
		"gateway.rate_limit_burst":        {"GATEWAY_RATE_LIMIT_BURST"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		_ = v.BindEnv(args...)
	}

	for _, peer := range KnownServices {
		if peer == ServiceGateway {
			continue
		}
		_ = v.BindEnv("services."+peer, strings.ToUpper(peer)+"_SERVICE_URL")
	}
}
