// Package config handles configuration for the remote authority server,
// including defaults, environment overlay, JSON overlay and command-line flags.
package config

import "time"

// Photo storage backends.
const (
	PhotoStorageInline = "inline"
	PhotoStorageS3     = "s3"
)

// Config holds runtime settings for the remote authority.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps users in memory.
//   - SecretKey: HMAC secret for signing staff JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration: staff token lifetime.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - PhotoStorage: "inline" keeps photos in the users table, "s3" uploads them.
//   - AllowedOrigins: CORS origins for browser clients.
type Config struct {
	EndpointAddr                string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	S3RootUser                  string
	S3RootPassword              string
	S3Bucket                    string
	S3Region                    string
	S3BaseEndpoint              string
	PhotoStorage                string
	AllowedOrigins              []string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 60 * time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "photos"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.PhotoStorage = PhotoStorageInline
	c.AllowedOrigins = []string{"*"}
}

// LoadConfig builds a Config by applying defaults, then the environment
// (an optional .env file plus BC_* variables), then an optional JSON file
// and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
