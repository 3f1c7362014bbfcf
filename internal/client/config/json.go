package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/barangayconnect/internal/flagx"
	"github.com/dmitrijs2005/barangayconnect/internal/timex"
)

// JsonConfig is the on-disk shape; only fields present in the file override
// the current values.
type JsonConfig struct {
	ServerBaseURL       *string         `json:"server_base_url"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	DatabasePath        *string         `json:"database_path"`
	SyncConcurrency     *int            `json:"sync_concurrency"`
	RetryBaseDelay      *timex.Duration `json:"retry_base_delay"`
	RetryMaxDelay       *timex.Duration `json:"retry_max_delay"`
	RetryMaxAttempts    *int            `json:"retry_max_attempts"`
	VaultKeyHex         *string         `json:"vault_key_hex"`
}

// parseJson overlays cfg with the file named by -c/-config. Read or decode
// errors panic.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerBaseURL, jc.ServerBaseURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.VaultKeyHex, jc.VaultKeyHex)
	setInt(&cfg.SyncConcurrency, jc.SyncConcurrency)
	setInt(&cfg.RetryMaxAttempts, jc.RetryMaxAttempts)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RetryBaseDelay != nil {
		cfg.RetryBaseDelay = jc.RetryBaseDelay.Duration
	}
	if jc.RetryMaxDelay != nil {
		cfg.RetryMaxDelay = jc.RetryMaxDelay.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
