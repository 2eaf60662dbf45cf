// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token codecs) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/quill/pkg/convert"
)

// # Session Store Backends

const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
	SessionStoreMemory   = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the Quill API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath overrides the embedded migrations with a directory on disk.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Key-Value Cache (Redis). Only required by the redis session store.
	RedisURL string `env:"REDIS_URL"`

	// SessionStore selects where refresh tokens live: postgres, redis or memory.
	SessionStore string `env:"SESSION_STORE" envDefault:"postgres"`

	// Token signing. Access and refresh secrets must differ.
	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET,required,notEmpty"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET,required,notEmpty"`
	JWTIssuer        string        `env:"JWT_ISSUER"         envDefault:"quill.app"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL"   envDefault:"15m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL"  envDefault:"168h"`
	ResetTokenTTL    time.Duration `env:"RESET_TOKEN_TTL"    envDefault:"3m"`
	BcryptCost       int           `env:"BCRYPT_COST"        envDefault:"10"`

	// Public URLs used in reset mails and redirects
	APIURL       string `env:"API_URL"       envDefault:"http://localhost:8080"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:3000"`

	// Outbound mail. An empty host logs mails instead of sending them.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"     envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"     envDefault:"no-reply@quill.app"`
	SMTPTLS      bool   `env:"SMTP_TLS"      envDefault:"true"`

	// Object Storage (S3-compatible). An empty bucket disables avatars.
	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION"   envDefault:"auto"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`

	// Facebook Login. Both empty disables federated sign-in.
	FacebookAppID     string `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret string `env:"FACEBOOK_APP_SECRET"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints the env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTAccessSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("config: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}

	switch c.SessionStore {
	case SessionStorePostgres, SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("config: REDIS_URL is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown SESSION_STORE %q", c.SessionStore))
	}

	if (c.FacebookAppID == "") != (c.FacebookAppSecret == "") {
		errs = append(errs, errors.New("config: FACEBOOK_APP_ID and FACEBOOK_APP_SECRET must be set together"))
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("config: token lifetimes must be positive"))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOrigins returns the client origin followed by any EXTRA_ORIGINS entries.
func (c *Config) AllowedOrigins() []string {
	return append([]string{c.ClientOrigin}, convert.List(c.ExtraOrigins)...)
}

// MailEnabled reports whether an SMTP relay is configured.
func (c *Config) MailEnabled() bool { return c.SMTPHost != "" }

// StorageEnabled reports whether avatar storage is configured.
func (c *Config) StorageEnabled() bool { return c.S3Bucket != "" }

// FacebookEnabled reports whether Facebook sign-in is configured.
func (c *Config) FacebookEnabled() bool { return c.FacebookAppID != "" }
