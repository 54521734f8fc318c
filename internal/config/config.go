// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package config loads and validates the valis server configuration from
// layered sources: built-in defaults, an optional YAML file, and
// environment variables, in increasing priority.
package config

import (
	"fmt"
	"time"
)

// Config is the complete valis server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Paths    PathsConfig    `koanf:"paths"`
	Security SecurityConfig `koanf:"security"`
	Lookup   LookupConfig   `koanf:"lookup"`
	Cache    CacheConfig    `koanf:"cache"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds metadata database settings. Driver selects the
// backend: "postgres" for the shared sdss5db cluster, "duckdb" for an
// embedded snapshot used in development and tests.
type DatabaseConfig struct {
	Driver       string        `koanf:"driver"`
	DSN          string        `koanf:"dsn"`
	Path         string        `koanf:"path"`
	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns"`
	ConnLifetime time.Duration `koanf:"conn_lifetime"`
}

// PathsConfig holds Science Archive Server file-tree settings.
type PathsConfig struct {
	// SASBase is the root of the local SAS mirror.
	SASBase string `koanf:"sas_base"`
	// Release is the default data release used when a request names none.
	Release string `koanf:"release"`
	// MaskbitsFile overrides the embedded sdssMaskbits.par copy, for
	// deployments tracking a newer targeting schema than the build.
	MaskbitsFile string `koanf:"maskbits_file"`
}

// SecurityConfig holds authentication and rate limiting settings.
// AuthMode selects how data endpoints are protected: "jwt" requires a
// bearer token, "none" leaves them open (development and public read-only
// deployments).
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenLifetime     time.Duration `koanf:"token_lifetime"`
	RefreshLifetime   time.Duration `koanf:"refresh_lifetime"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LookupConfig holds external name-resolver settings.
type LookupConfig struct {
	SesameURL       string        `koanf:"sesame_url"`
	Timeout         time.Duration `koanf:"timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// CacheConfig holds in-memory response cache settings.
type CacheConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	MaxEntries      int           `koanf:"max_entries"`
}

// APIConfig holds request handling limits.
type APIConfig struct {
	DefaultPageSize int     `koanf:"default_page_size"`
	MaxPageSize     int     `koanf:"max_page_size"`
	MaxConeRadius   float64 `koanf:"max_cone_radius"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would fail later in
// confusing ways. It runs after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	case "duckdb":
	default:
		return fmt.Errorf("database.driver must be postgres or duckdb, got %q", c.Database.Driver)
	}
	if c.Server.Environment == "production" && c.Security.AuthMode == "jwt" {
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("security.jwt_secret is required in production")
		}
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 bytes")
		}
	}
	switch c.Security.AuthMode {
	case "jwt", "none":
	default:
		return fmt.Errorf("security.auth_mode must be jwt or none, got %q", c.Security.AuthMode)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size %d is smaller than api.default_page_size %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.API.MaxConeRadius <= 0 {
		return fmt.Errorf("api.max_cone_radius must be positive")
	}
	return nil
}

// Addr returns the host:port string the HTTP server binds.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
