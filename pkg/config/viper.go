package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/keelhq/warden/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the WARDEN_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound by the command)
//  2. Environment variables (WARDEN_API_LISTEN, WARDEN_GATE_MODE, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: WARDEN_REGISTRY_PATH, WARDEN_AUDIT_BACKEND, etc.
	v.SetEnvPrefix("WARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Registry
	v.SetDefault("registry.path", d.Registry.Path)

	// Audit
	v.SetDefault("audit.backend", d.Audit.Backend)
	v.SetDefault("audit.log_path", d.Audit.LogPath)
	v.SetDefault("audit.sqlite_path", d.Audit.SQLitePath)
	v.SetDefault("audit.postgres_dsn", d.Audit.PostgresDSN)

	// Gate
	v.SetDefault("gate.mode", d.Gate.Mode)
	v.SetDefault("gate.timeout_seconds", d.Gate.TimeoutSeconds)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.mcp_listen", d.API.MCPListen)

	// Workers
	v.SetDefault("workers.num", d.Workers.Num)
	v.SetDefault("workers.queue_size", d.Workers.QueueSize)
}
