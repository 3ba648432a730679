package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/keelhq/warden/pkg/tool"
)

// PreRequest is the tool-call contract consumed from the host agent
// runtime.
type PreRequest struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	SessionID string         `json:"session_id"`
}

// handleGatePre handles POST /v1/gate/pre. Both outcomes are HTTP 200:
// a rejection is a protocol result the agent consumes, not a transport
// failure.
func (s *Server) handleGatePre(c *fiber.Ctx) error {
	var req PreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.ToolName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "tool_name is required",
		})
	}
	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "session_id is required",
		})
	}

	call := tool.NewCall(req.ToolName, req.Arguments, req.SessionID)

	decision, rejection := s.gate.CheckPre(c.Context(), call)
	if rejection != nil {
		s.logger.Debug("gate pre blocked",
			zap.String("tool", req.ToolName),
			zap.String("session", req.SessionID),
			zap.String("code", string(rejection.Code)),
		)
		return c.JSON(rejection)
	}

	return c.JSON(decision)
}

// PostRequest reports a completed operation for audit.
type PostRequest struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	SessionID string         `json:"session_id"`

	Output         string `json:"output,omitempty"`
	ExitCode       int    `json:"exit_code,omitempty"`
	Failed         bool   `json:"failed,omitempty"`
	WrittenContent string `json:"written_content,omitempty"`
	StartLine      int    `json:"start_line,omitempty"`
	EndLine        int    `json:"end_line,omitempty"`
	ModelID        string `json:"model_id,omitempty"`
}

// handleGatePost handles POST /v1/gate/post. The post pipeline is
// asynchronous, so this returns 202 as soon as the job is scheduled.
func (s *Server) handleGatePost(c *fiber.Ctx) error {
	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.ToolName == "" || req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "tool_name and session_id are required",
		})
	}

	res := &tool.Result{
		Call:           tool.NewCall(req.ToolName, req.Arguments, req.SessionID),
		Output:         req.Output,
		ExitCode:       req.ExitCode,
		Failed:         req.Failed,
		WrittenContent: req.WrittenContent,
		StartLine:      req.StartLine,
		EndLine:        req.EndLine,
		ModelID:        req.ModelID,
	}

	s.gate.ReportPost(c.Context(), res)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"scheduled": true})
}

// SelectIntentRequest declares a session's intent.
type SelectIntentRequest struct {
	IntentID string `json:"intent_id"`
}

// SelectIntentResponse returns the rendered intent context block.
type SelectIntentResponse struct {
	IntentID string `json:"intent_id"`
	Context  string `json:"context"`
}

// handleSelectIntent handles POST /v1/sessions/:id/intent.
func (s *Server) handleSelectIntent(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	var req SelectIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	block, rejection := s.gate.SelectIntent(c.Context(), sessionID, req.IntentID)
	if rejection != nil {
		return c.JSON(rejection)
	}

	return c.JSON(SelectIntentResponse{
		IntentID: req.IntentID,
		Context:  block,
	})
}

// handleClearIntent handles DELETE /v1/sessions/:id/intent.
func (s *Server) handleClearIntent(c *fiber.Ctx) error {
	s.sessions.ClearActiveIntent(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

// handleAbortSession handles POST /v1/sessions/:id/abort. Once set, pre
// checks fail closed and post hooks no-op for the session.
func (s *Server) handleAbortSession(c *fiber.Ctx) error {
	s.sessions.Abort(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}
