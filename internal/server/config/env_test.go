package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubDotEnv(t *testing.T) {
	t.Helper()
	orig := loadDotEnv
	loadDotEnv = func() error { return errors.New("open .env: no such file") }
	t.Cleanup(func() { loadDotEnv = orig })
}

func Test_parseEnv(t *testing.T) {
	stubDotEnv(t)

	t.Run("overlays set variables", func(t *testing.T) {
		t.Setenv(EnvDatabaseDSN, "postgres://u:p@db:5432/brgy")
		t.Setenv(EnvSecretKey, "s3cr3t")
		t.Setenv(EnvAccessTokenTTL, "15m")
		t.Setenv(EnvS3Bucket, "ids")
		t.Setenv(EnvAllowedOrigins, "https://a.example, https://b.example,")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, "postgres://u:p@db:5432/brgy", cfg.DatabaseDSN)
		assert.Equal(t, "s3cr3t", cfg.SecretKey)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "ids", cfg.S3Bucket)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
		assert.Equal(t, ":8080", cfg.EndpointAddr, "unset variable keeps default")
	})

	t.Run("bad duration panics", func(t *testing.T) {
		t.Setenv(EnvAccessTokenTTL, "soon")
		require.Panics(t, func() { parseEnv(&Config{}) })
	})
}
