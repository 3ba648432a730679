package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent warden configuration stored as
// config.toml in the .warden/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Registry RegistryConfig `toml:"registry"`
	Audit    AuditConfig    `toml:"audit"`
	Gate     GateConfig     `toml:"gate"`
	API      APIConfig      `toml:"api"`
	Workers  WorkersConfig  `toml:"workers"`
}

// RegistryConfig locates the intent registry document.
type RegistryConfig struct {
	Path string `toml:"path,omitempty"`
}

// AuditConfig selects and configures the audit log backend.
type AuditConfig struct {
	// Backend is one of "jsonl", "sqlite", "postgres", "memory".
	Backend     string `toml:"backend,omitempty"`
	LogPath     string `toml:"log_path,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// GateConfig configures the authorization gate.
type GateConfig struct {
	// Mode is one of "terminal", "auto-approve", "auto-reject".
	Mode           string `toml:"mode,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// APIConfig holds gate API server settings.
type APIConfig struct {
	Listen    string `toml:"listen,omitempty"`
	MCPListen string `toml:"mcp_listen,omitempty"`
}

// WorkersConfig sizes the post-hook dispatcher.
type WorkersConfig struct {
	Num       uint `toml:"num,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"registry.path": {
		get: func(c *Config) string { return c.Registry.Path },
		set: func(c *Config, v string) error { c.Registry.Path = v; return nil },
	},
	"audit.backend": {
		get: func(c *Config) string { return c.Audit.Backend },
		set: func(c *Config, v string) error { c.Audit.Backend = v; return nil },
	},
	"audit.log_path": {
		get: func(c *Config) string { return c.Audit.LogPath },
		set: func(c *Config, v string) error { c.Audit.LogPath = v; return nil },
	},
	"audit.sqlite_path": {
		get: func(c *Config) string { return c.Audit.SQLitePath },
		set: func(c *Config, v string) error { c.Audit.SQLitePath = v; return nil },
	},
	"audit.postgres_dsn": {
		get: func(c *Config) string { return c.Audit.PostgresDSN },
		set: func(c *Config, v string) error { c.Audit.PostgresDSN = v; return nil },
	},
	"gate.mode": {
		get: func(c *Config) string { return c.Gate.Mode },
		set: func(c *Config, v string) error { c.Gate.Mode = v; return nil },
	},
	"gate.timeout_seconds": {
		get: func(c *Config) string {
			if c.Gate.TimeoutSeconds == 0 {
				return ""
			}
			return strconv.Itoa(c.Gate.TimeoutSeconds)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for gate.timeout_seconds: %w", err)
			}
			c.Gate.TimeoutSeconds = n
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"api.mcp_listen": {
		get: func(c *Config) string { return c.API.MCPListen },
		set: func(c *Config, v string) error { c.API.MCPListen = v; return nil },
	},
	"workers.num": {
		get: func(c *Config) string {
			if c.Workers.Num == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Workers.Num), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for workers.num: %w", err)
			}
			c.Workers.Num = uint(n)
			return nil
		},
	},
	"workers.queue_size": {
		get: func(c *Config) string {
			if c.Workers.QueueSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Workers.QueueSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for workers.queue_size: %w", err)
			}
			c.Workers.QueueSize = uint(n)
			return nil
		},
	},
}
