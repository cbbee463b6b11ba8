package server

import (
	"strings"

	"agent_orchestrator/internal/config"
	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/engine"
	"agent_orchestrator/internal/logger"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server exposes the caller-facing HTTP API consumed by the chat UI.
// Every response is a well-formed JSON body; errors surface in an
// error field, never as an unhandled fault.
type Server struct {
	app    *fiber.App
	cfg    config.ServerConfig
	engine *engine.Engine
}

// QueryRequest is the body of POST /api/v1/query.
type QueryRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// New builds the Fiber app and registers routes.
func New(cfg config.ServerConfig, eng *engine.Engine) *Server {
	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	s := &Server{app: app, cfg: cfg, engine: eng}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api/v1")
	api.Post("/query", s.handleQuery)
	api.Post("/sessions/:id/reset", s.handleReset)
	api.Get("/sessions/:id/stats", s.handleStats)
}

func (s *Server) handleQuery(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": core.ErrorInfo{Code: "bad_request", Message: "invalid request body"},
		})
	}

	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": core.ErrorInfo{Code: "bad_request", Message: "query must not be empty"},
		})
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	result := s.engine.ProcessQuery(c.Context(), req.SessionID, req.Query)
	return c.JSON(result)
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if err := s.engine.ResetSession(c.Context(), sessionID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": core.ErrorInfo{Code: "reset_failed", Message: err.Error()},
		})
	}
	return c.JSON(fiber.Map{"status": "ok", "session_id": sessionID})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	stats, err := s.engine.SessionStats(c.Context(), sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": core.ErrorInfo{Code: "stats_failed", Message: err.Error()},
		})
	}
	return c.JSON(stats)
}

// App returns the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the HTTP listener and blocks.
func (s *Server) Run() error {
	logger.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown gracefully stops the listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
