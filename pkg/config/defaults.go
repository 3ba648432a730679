package config

// CurrentV is the config schema version written by this build.
const CurrentV = 1

const (
	defaultRegistryPath = "intents.yaml"

	defaultAuditBackend = "jsonl"
	defaultAuditLogPath = "trace.jsonl"

	defaultGateMode    = "terminal"
	defaultGateTimeout = 120

	defaultAPIListen = ":8390"
	defaultMCPListen = ":8391"

	defaultWorkerNum   = 2
	defaultWorkerQueue = 256
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. Relative paths
// are resolved against the .warden/ directory at load time.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Registry: RegistryConfig{
			Path: defaultRegistryPath,
		},
		Audit: AuditConfig{
			Backend: defaultAuditBackend,
			LogPath: defaultAuditLogPath,
		},
		Gate: GateConfig{
			Mode:           defaultGateMode,
			TimeoutSeconds: defaultGateTimeout,
		},
		API: APIConfig{
			Listen:    defaultAPIListen,
			MCPListen: defaultMCPListen,
		},
		Workers: WorkersConfig{
			Num:       defaultWorkerNum,
			QueueSize: defaultWorkerQueue,
		},
	}
}
