package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/keelhq/warden/pkg/gatekeeper"
	"github.com/keelhq/warden/pkg/tool"
)

var (
	checkOperationToolName    = "check_operation"
	checkOperationDescription = "Run a tool call through the gate before executing it. Returns whether the operation may proceed, and a rejection with a reason code when it may not."
)

// CheckOperationInput represents the input arguments for the check_operation tool.
type CheckOperationInput struct {
	SessionID string         `json:"session_id" jsonschema:"the session performing the operation"`
	ToolName  string         `json:"tool_name" jsonschema:"the name of the tool about to run"`
	Arguments map[string]any `json:"arguments,omitempty" jsonschema:"the tool call arguments"`
}

// CheckOperationOutput represents the output of the check_operation tool.
type CheckOperationOutput struct {
	Decision  *gatekeeper.Decision  `json:"decision,omitempty"`
	Rejection *gatekeeper.Rejection `json:"rejection,omitempty"`
}

// handleCheckOperation processes a check_operation request.
func (s *Server) handleCheckOperation(ctx context.Context, req *mcp.CallToolRequest, input CheckOperationInput) (*mcp.CallToolResult, CheckOperationOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP check_operation request",
		zap.String("session", input.SessionID),
		zap.String("tool", input.ToolName),
	)

	call := tool.NewCall(input.ToolName, input.Arguments, input.SessionID)

	decision, rejection := s.config.Gate.CheckPre(ctx, call)
	if rejection != nil {
		output := CheckOperationOutput{Rejection: rejection}
		return textResult(output, true), output, nil
	}

	output := CheckOperationOutput{Decision: decision}
	return textResult(output, false), output, nil
}
