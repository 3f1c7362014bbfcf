// Package config loads runtime configuration for the client CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c or -config.
//  3. Command-line flags.
//
// Flags
//
//	-a string   remote authority base URL
//	-i int      online status check interval (seconds)
//	-f string   local database path
//	-n int      sync concurrency
//	-m int      max push attempts per record
//	-k string   hex sealing key for pending passwords
//
// # JSON
//
// Durations use timex.Duration, so "5s" and integer nanoseconds both work:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8080",
//	  "online_check_interval": "5s",
//	  "request_timeout": "10s",
//	  "database_path": "data/barangayconnect.db",
//	  "sync_concurrency": 4,
//	  "retry_base_delay": "500ms",
//	  "retry_max_delay": "30s",
//	  "retry_max_attempts": 5
//	}
package config
