// Package servecmder provides the serve command for running the gate
// API and MCP servers.
package servecmder

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keelhq/warden/api"
	apimcp "github.com/keelhq/warden/api/mcp"
	"github.com/keelhq/warden/pkg/config"
	"github.com/keelhq/warden/pkg/eventstream/nop"
	"github.com/keelhq/warden/pkg/gatekeeper"
	"github.com/keelhq/warden/pkg/git"
	"github.com/keelhq/warden/pkg/intent"
	"github.com/keelhq/warden/pkg/logger"
	"github.com/keelhq/warden/pkg/security"
	"github.com/keelhq/warden/pkg/security/authorizer"
	"github.com/keelhq/warden/pkg/session"
	"github.com/keelhq/warden/pkg/trace"
	"github.com/keelhq/warden/pkg/trace/inmemory"
	"github.com/keelhq/warden/pkg/trace/jsonl"
	"github.com/keelhq/warden/pkg/trace/postgres"
	"github.com/keelhq/warden/pkg/trace/sqlite"
)

type ServeCommander struct {
	apiListen    string
	mcpListen    string
	registryPath string
	auditBackend string
	gateMode     string
	configDir    string
	debug        bool
	logger       *zap.Logger
	cfger        *config.Configer
	cfg          *config.Config
}

const serveLongDesc string = `Run the Warden gate services.

Starts the gate API server (pre/post hook endpoints, intent and trace
queries) and the MCP server (select_intent, list_intents,
check_operation tools) together. Flags override config.toml values,
which override WARDEN_ environment variables' absence; see
'warden config list' for the persistent settings.

Examples:
  warden serve
  warden serve --listen :9000 --audit-backend sqlite
  warden serve --gate-mode auto-reject`

const serveShortDesc string = "Run the gate API and MCP servers"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.apiListen, "listen", "l", "", "Address for the gate API server to listen on")
	cmd.Flags().StringVar(&cmder.mcpListen, "mcp-listen", "", "Address for the MCP server to listen on")
	cmd.Flags().StringVarP(&cmder.registryPath, "registry", "r", "", "Path to the intent registry YAML")
	cmd.Flags().StringVar(&cmder.auditBackend, "audit-backend", "", "Audit backend (jsonl, sqlite, postgres, memory)")
	cmd.Flags().StringVar(&cmder.gateMode, "gate-mode", "", "Authorization gate mode (terminal, auto-approve, auto-reject)")

	return cmd
}

func (c *ServeCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	if err := c.loadConfig(cmd); err != nil {
		return err
	}

	// Intent registry, re-read on every gate check.
	intents := intent.NewStore(c.cfger.ResolvePath(c.cfg.Registry.Path), c.logger)
	if problems := intents.Load().Validate(); len(problems) > 0 {
		for _, p := range problems {
			c.logger.Warn("intent registry problem", zap.Error(p))
		}
	}

	traces, err := c.createTraceStore()
	if err != nil {
		return err
	}
	defer traces.Close()

	auth, err := c.createAuthorizer()
	if err != nil {
		return err
	}

	sessions := session.NewStore()

	gate, err := gatekeeper.New(gatekeeper.Config{
		Intents:    intents,
		Sessions:   sessions,
		Classifier: security.NewClassifier(),
		Authorizer: auth,
		Traces:     traces,
		Events:     nop.NewPublisher(),
		NumWorkers: c.cfg.Workers.Num,
		QueueSize:  c.cfg.Workers.QueueSize,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating gatekeeper: %w", err)
	}
	defer gate.Close()

	apiServer := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
	}, gate, intents, sessions, traces, c.logger)

	mcpServer, err := apimcp.NewServer(apimcp.Config{
		Gate:    gate,
		Intents: intents,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	mcpHTTP := &http.Server{
		Addr:              c.cfg.API.MCPListen,
		Handler:           mcpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	c.logger.Info("starting gate API server",
		zap.String("api_addr", c.cfg.API.Listen),
		zap.String("repo", git.RepoName()),
		zap.String("registry", intents.Path()),
		zap.String("audit_backend", c.cfg.Audit.Backend),
		zap.String("gate_mode", c.cfg.Gate.Mode),
	)
	c.logger.Info("starting MCP server",
		zap.String("mcp_addr", c.cfg.API.MCPListen),
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	go func() {
		if err := mcpHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Registry file watcher, diagnostic only.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go func() {
		if err := intents.Watch(watchCtx); err != nil {
			c.logger.Warn("registry watcher stopped", zap.Error(err))
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(); err != nil {
		c.logger.Warn("API server shutdown error", zap.Error(err))
	}
	if err := mcpHTTP.Shutdown(shutdownCtx); err != nil {
		c.logger.Warn("MCP server shutdown error", zap.Error(err))
	}

	return nil
}

// loadConfig resolves config.toml through the .warden/ directory and
// applies any flag overrides on top.
func (c *ServeCommander) loadConfig(cmd *cobra.Command) error {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		return err
	}
	c.cfger = cfger

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Environment overrides between the file and the flags.
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	cfg.Registry.Path = v.GetString("registry.path")
	cfg.Audit.Backend = v.GetString("audit.backend")
	cfg.Audit.LogPath = v.GetString("audit.log_path")
	cfg.Audit.SQLitePath = v.GetString("audit.sqlite_path")
	cfg.Audit.PostgresDSN = v.GetString("audit.postgres_dsn")
	cfg.Gate.Mode = v.GetString("gate.mode")
	cfg.Gate.TimeoutSeconds = v.GetInt("gate.timeout_seconds")
	cfg.API.Listen = v.GetString("api.listen")
	cfg.API.MCPListen = v.GetString("api.mcp_listen")
	cfg.Workers.Num = v.GetUint("workers.num")
	cfg.Workers.QueueSize = v.GetUint("workers.queue_size")

	if cmd.Flags().Changed("listen") {
		cfg.API.Listen = c.apiListen
	}
	if cmd.Flags().Changed("mcp-listen") {
		cfg.API.MCPListen = c.mcpListen
	}
	if cmd.Flags().Changed("registry") {
		cfg.Registry.Path = c.registryPath
	}
	if cmd.Flags().Changed("audit-backend") {
		cfg.Audit.Backend = c.auditBackend
	}
	if cmd.Flags().Changed("gate-mode") {
		cfg.Gate.Mode = c.gateMode
	}

	c.cfg = cfg
	return nil
}

func (c *ServeCommander) createTraceStore() (trace.Store, error) {
	switch c.cfg.Audit.Backend {
	case "jsonl":
		path := c.cfger.ResolvePath(c.cfg.Audit.LogPath)
		store, err := jsonl.NewStore(path)
		if err != nil {
			return nil, fmt.Errorf("creating JSONL audit store: %w", err)
		}
		c.logger.Info("using JSONL audit log", zap.String("path", path))
		return store, nil

	case "sqlite":
		path := c.cfger.ResolvePath(c.cfg.Audit.SQLitePath)
		if path == "" {
			return nil, fmt.Errorf("audit.sqlite_path is required for the sqlite backend")
		}
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, fmt.Errorf("creating SQLite audit store: %w", err)
		}
		c.logger.Info("using SQLite audit store", zap.String("path", path))
		return store, nil

	case "postgres":
		if c.cfg.Audit.PostgresDSN == "" {
			return nil, fmt.Errorf("audit.postgres_dsn is required for the postgres backend")
		}
		store, err := postgres.NewStore(context.Background(), c.cfg.Audit.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("creating Postgres audit store: %w", err)
		}
		c.logger.Info("using Postgres audit store")
		return store, nil

	case "memory":
		c.logger.Info("using in-memory audit store")
		return inmemory.NewStore(), nil

	default:
		return nil, fmt.Errorf("unknown audit backend: %q", c.cfg.Audit.Backend)
	}
}

func (c *ServeCommander) createAuthorizer() (authorizer.Authorizer, error) {
	timeout := time.Duration(c.cfg.Gate.TimeoutSeconds) * time.Second

	switch c.cfg.Gate.Mode {
	case "terminal":
		return authorizer.NewTerminal(timeout, c.logger), nil
	case "auto-approve":
		c.logger.Warn("gate mode auto-approve: destructive operations will not be confirmed")
		return authorizer.NewStatic(true, c.logger), nil
	case "auto-reject":
		return authorizer.NewStatic(false, c.logger), nil
	default:
		return nil, fmt.Errorf("unknown gate mode: %q", c.cfg.Gate.Mode)
	}
}
