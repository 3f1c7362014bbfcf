package config

import "time"

// Config holds runtime settings for the client.
//
// Fields:
//   - ServerBaseURL: base URL of the remote authority.
//   - OnlineCheckInterval: how often reachability is probed.
//   - RequestTimeout: per-request HTTP timeout.
//   - DatabasePath: SQLite file for the local store.
//   - SyncConcurrency: records pushed in parallel during a sync pass.
//   - RetryBaseDelay / RetryMaxDelay / RetryMaxAttempts: backoff for a
//     single record push.
//   - VaultKeyHex: optional 32-byte hex key sealing pending passwords.
type Config struct {
	ServerBaseURL       string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	DatabasePath        string
	SyncConcurrency     int
	RetryBaseDelay      time.Duration
	RetryMaxDelay       time.Duration
	RetryMaxAttempts    int
	VaultKeyHex         string
}

func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 5 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "data/barangayconnect.db"
	c.SyncConcurrency = 4
	c.RetryBaseDelay = 500 * time.Millisecond
	c.RetryMaxDelay = 30 * time.Second
	c.RetryMaxAttempts = 5
	c.VaultKeyHex = ""
}

// LoadConfig applies defaults, then the JSON file, then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
