// Package config loads the engine's startup configuration. None of
// it is part of the core matching/session protocol the spec
// describes; it is the ambient layer that wires a listen address,
// a metrics port, and a database path into the components that need
// them.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the engine's resolved startup configuration.
type Config struct {
	// ListenAddr/ListenPort is where the /ws session transport binds.
	ListenAddr string
	ListenPort int

	// MetricsAddr is where the /healthz and /metrics HTTP mux binds.
	MetricsAddr string

	// DBPath is the sqlite cleared_trades database file. Defaults to
	// "data.db" adjacent to the binary, per spec §6.
	DBPath string

	// Symbols seeds the BookManager with empty books at startup; any
	// other symbol is still created lazily on first order (spec §4.3).
	Symbols []string
}

// Load reads configuration from environment variables prefixed
// IRONBOOK_ (e.g. IRONBOOK_LISTEN_PORT) and an optional config file
// named ironbook.yaml/json/toml on the current path, falling back to
// the defaults below when neither is set.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IRONBOOK")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", "0.0.0.0")
	v.SetDefault("listen_port", 9001)
	v.SetDefault("metrics_addr", "0.0.0.0:9090")
	dbPath := "data.db"
	if exe, err := os.Executable(); err == nil {
		dbPath = filepath.Join(filepath.Dir(exe), "data.db")
	}
	v.SetDefault("db_path", dbPath)
	v.SetDefault("symbols", []string{})

	v.SetConfigName("ironbook")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: read config file: %w", err)
		}
	}

	return Config{
		ListenAddr:  v.GetString("listen_addr"),
		ListenPort:  v.GetInt("listen_port"),
		MetricsAddr: v.GetString("metrics_addr"),
		DBPath:      v.GetString("db_path"),
		Symbols:     v.GetStringSlice("symbols"),
	}, nil
}
