// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Database.Driver != "duckdb" {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Paths.Release != "IPL3" {
		t.Errorf("Paths.Release = %q, want IPL3", cfg.Paths.Release)
	}
	if cfg.Security.TokenLifetime != time.Hour {
		t.Errorf("Security.TokenLifetime = %v, want 1h", cfg.Security.TokenLifetime)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VALIS_SERVER_PORT", "9999")
	t.Setenv("VALIS_PATHS_RELEASE", "DR19")
	t.Setenv("VALIS_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Paths.Release != "DR19" {
		t.Errorf("Paths.Release = %q, want DR19", cfg.Paths.Release)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "valis.yaml")
	yaml := "server:\n  port: 8080\npaths:\n  sas_base: /mnt/sas\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 from file", cfg.Server.Port)
	}
	if cfg.Paths.SASBase != "/mnt/sas" {
		t.Errorf("Paths.SASBase = %q, want /mnt/sas", cfg.Paths.SASBase)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "valis.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("VALIS_SERVER_PORT", "9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want env override 9001", cfg.Server.Port)
	}
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("VALIS_SECURITY_CORS_ORIGINS", "https://a.sdss.org, https://b.sdss.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"https://a.sdss.org", "https://b.sdss.org"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" }},
		{"production without jwt secret", func(c *Config) { c.Server.Environment = "production" }},
		{"unknown auth mode", func(c *Config) { c.Security.AuthMode = "basic" }},
		{"max page below default", func(c *Config) { c.API.MaxPageSize = 1 }},
		{"non-positive cone radius", func(c *Config) { c.API.MaxConeRadius = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() accepted config with %s", tc.name)
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	cases := map[string]string{
		"VALIS_SERVER_PORT":         "server.port",
		"VALIS_SECURITY_JWT_SECRET": "security.jwt_secret",
		"VALIS_DATABASE_DSN":        "database.dsn",
	}
	for in, want := range cases {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
