// Package config loads, saves, and resolves the persistent warden
// configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/keelhq/warden/pkg/dotdir"
)

const fileName = "config.toml"

// Configer reads and writes config.toml in a resolved .warden/
// directory.
type Configer struct {
	targetDir  string
	targetPath string
}

// NewConfiger resolves the .warden/ directory (override, local, home)
// and returns a Configer bound to its config.toml.
func NewConfiger(overrideDir string) (*Configer, error) {
	ddm := dotdir.NewManager()
	dir, err := ddm.Target(overrideDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	return &Configer{
		targetDir:  dir,
		targetPath: filepath.Join(dir, fileName),
	}, nil
}

// Dir returns the resolved .warden/ directory.
func (c *Configer) Dir() string {
	return c.targetDir
}

// Path returns the config.toml path.
func (c *Configer) Path() string {
	return c.targetPath
}

// LoadConfig reads config.toml, fills unset fields from the defaults,
// and returns the result. A missing file yields the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// SaveConfig persists the configuration to config.toml in the target
// .warden/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// IsValidKey reports whether key is a supported dotted config key.
func IsValidKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// Keys returns all supported dotted config keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResolvePath resolves a config path value against the .warden/
// directory when it is relative.
func (c *Configer) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.targetDir, p)
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// applyDefaults fills zero-valued fields from NewDefaultConfig.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = defaults.Registry.Path
	}
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = defaults.Audit.Backend
	}
	if cfg.Audit.LogPath == "" {
		cfg.Audit.LogPath = defaults.Audit.LogPath
	}
	if cfg.Gate.Mode == "" {
		cfg.Gate.Mode = defaults.Gate.Mode
	}
	if cfg.Gate.TimeoutSeconds == 0 {
		cfg.Gate.TimeoutSeconds = defaults.Gate.TimeoutSeconds
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.API.MCPListen == "" {
		cfg.API.MCPListen = defaults.API.MCPListen
	}
	if cfg.Workers.Num == 0 {
		cfg.Workers.Num = defaults.Workers.Num
	}
	if cfg.Workers.QueueSize == 0 {
		cfg.Workers.QueueSize = defaults.Workers.QueueSize
	}
}
