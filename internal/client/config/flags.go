package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/flagx"
)

// parseFlags overlays cfg with the flags listed in the package doc. Other
// arguments are filtered out first; a bad value panics.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-f", "-n", "-m", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "remote authority base URL")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database path")
	fs.IntVar(&cfg.SyncConcurrency, "n", cfg.SyncConcurrency, "sync concurrency")
	fs.IntVar(&cfg.RetryMaxAttempts, "m", cfg.RetryMaxAttempts, "max push attempts per record")
	fs.StringVar(&cfg.VaultKeyHex, "k", cfg.VaultKeyHex, "hex sealing key (32 bytes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
