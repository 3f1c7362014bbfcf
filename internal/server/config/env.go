package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvEndpointAddr     = "BC_ENDPOINT_ADDR"
	EnvDatabaseDSN      = "BC_DATABASE_DSN"
	EnvSecretKey        = "BC_SECRET_KEY"
	EnvAccessTokenTTL   = "BC_ACCESS_TOKEN_VALIDITY"
	EnvS3RootUser       = "BC_S3_ROOT_USER"
	EnvS3RootPassword   = "BC_S3_ROOT_PASSWORD"
	EnvS3Bucket         = "BC_S3_BUCKET"
	EnvS3Region         = "BC_S3_REGION"
	EnvS3BaseEndpoint   = "BC_S3_BASE_ENDPOINT"
	EnvPhotoStorage     = "BC_PHOTO_STORAGE"
	EnvAllowedOrigins   = "BC_ALLOWED_ORIGINS"
	envFileDefaultLocal = ".env"
)

// loadDotEnv is a seam for tests.
var loadDotEnv = func() error {
	return godotenv.Load(envFileDefaultLocal)
}

// parseEnv overlays cfg with BC_* variables. A missing .env file is fine;
// a malformed duration panics like a bad flag does.
func parseEnv(cfg *Config) {
	_ = loadDotEnv()

	lookup(EnvEndpointAddr, &cfg.EndpointAddr)
	lookup(EnvDatabaseDSN, &cfg.DatabaseDSN)
	lookup(EnvSecretKey, &cfg.SecretKey)
	lookup(EnvS3RootUser, &cfg.S3RootUser)
	lookup(EnvS3RootPassword, &cfg.S3RootPassword)
	lookup(EnvS3Bucket, &cfg.S3Bucket)
	lookup(EnvS3Region, &cfg.S3Region)
	lookup(EnvS3BaseEndpoint, &cfg.S3BaseEndpoint)
	lookup(EnvPhotoStorage, &cfg.PhotoStorage)

	if v, ok := os.LookupEnv(EnvAccessTokenTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.AccessTokenValidityDuration = d
	}

	if v, ok := os.LookupEnv(EnvAllowedOrigins); ok {
		cfg.AllowedOrigins = splitList(v)
	}
}

func lookup(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
