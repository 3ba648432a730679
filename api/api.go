// Package api exposes the gate over HTTP for host agent runtimes that
// integrate out of process: pre/post hook endpoints, intent selection,
// and audit queries.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/keelhq/warden/pkg/gatekeeper"
	"github.com/keelhq/warden/pkg/intent"
	"github.com/keelhq/warden/pkg/session"
	"github.com/keelhq/warden/pkg/trace"
)

// ErrorResponse is the transport-level error body. Governance
// rejections are not errors and use the structured rejection payload
// instead.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP API server for the warden gate.
type Server struct {
	config   Config
	gate     *gatekeeper.Gatekeeper
	intents  *intent.Store
	sessions *session.Store
	traces   trace.Store
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server around an initialized gatekeeper.
func NewServer(config Config, gate *gatekeeper.Gatekeeper, intents *intent.Store, sessions *session.Store, traces trace.Store, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		gate:     gate,
		intents:  intents,
		sessions: sessions,
		traces:   traces,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/v1/gate/pre", s.handleGatePre)
	app.Post("/v1/gate/post", s.handleGatePost)

	app.Post("/v1/sessions/:id/intent", s.handleSelectIntent)
	app.Delete("/v1/sessions/:id/intent", s.handleClearIntent)
	app.Post("/v1/sessions/:id/abort", s.handleAbortSession)

	app.Get("/v1/intents", s.handleListIntents)
	app.Get("/v1/intents/:id", s.handleGetIntent)

	app.Get("/v1/traces", s.handleQueryTraces)
	app.Get("/v1/traces/:id", s.handleGetTrace)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting gate API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
