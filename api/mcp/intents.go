package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/keelhq/warden/pkg/gatekeeper"
	"github.com/keelhq/warden/pkg/intent"
)

var (
	selectIntentToolName    = "select_intent"
	selectIntentDescription = "Declare the intent this session will work under. Must be called before any file write or command execution. Returns the intent's scope, constraints, and acceptance criteria."

	listIntentsToolName    = "list_intents"
	listIntentsDescription = "List the intents in the registry with their status and owned scope."
)

// SelectIntentInput represents the input arguments for the select_intent tool.
type SelectIntentInput struct {
	SessionID string `json:"session_id" jsonschema:"the session declaring the intent"`
	IntentID  string `json:"intent_id" jsonschema:"the id of the intent to declare"`
}

// SelectIntentOutput represents the output of the select_intent tool.
type SelectIntentOutput struct {
	IntentID  string                `json:"intent_id,omitempty"`
	Context   string                `json:"context,omitempty"`
	Rejection *gatekeeper.Rejection `json:"rejection,omitempty"`
}

// handleSelectIntent processes a select_intent request.
func (s *Server) handleSelectIntent(ctx context.Context, req *mcp.CallToolRequest, input SelectIntentInput) (*mcp.CallToolResult, SelectIntentOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP select_intent request",
		zap.String("session", input.SessionID),
		zap.String("intent", input.IntentID),
	)

	block, rejection := s.config.Gate.SelectIntent(ctx, input.SessionID, input.IntentID)
	if rejection != nil {
		output := SelectIntentOutput{Rejection: rejection}
		return textResult(output, true), output, nil
	}

	output := SelectIntentOutput{
		IntentID: input.IntentID,
		Context:  block,
	}
	return textResult(output, false), output, nil
}

// ListIntentsInput represents the input arguments for the list_intents tool.
type ListIntentsInput struct {
	Status string `json:"status,omitempty" jsonschema:"optional status filter (draft, in_progress, done, blocked)"`
}

// IntentSummary is one intent in the list_intents output.
type IntentSummary struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	Description string   `json:"description,omitempty"`
	OwnedScope  []string `json:"owned_scope"`
}

// ListIntentsOutput represents the output of the list_intents tool.
type ListIntentsOutput struct {
	Intents []IntentSummary `json:"intents"`
	Count   int             `json:"count"`
}

// handleListIntents processes a list_intents request.
func (s *Server) handleListIntents(_ context.Context, req *mcp.CallToolRequest, input ListIntentsInput) (*mcp.CallToolResult, ListIntentsOutput, error) {
	reg := s.config.Intents.Load()

	summaries := make([]IntentSummary, 0, len(reg.Intents))
	for _, in := range reg.Intents {
		if input.Status != "" && in.Status != intent.Status(input.Status) {
			continue
		}
		summaries = append(summaries, IntentSummary{
			ID:          in.ID,
			Status:      string(in.Status),
			Description: in.Description,
			OwnedScope:  in.OwnedScope,
		})
	}

	output := ListIntentsOutput{
		Intents: summaries,
		Count:   len(summaries),
	}
	return textResult(output, false), output, nil
}

// textResult serializes the structured output as JSON for the text
// field. Per MCP spec, tools returning structured content should also
// return serialized JSON in a TextContent block for backwards
// compatibility.
func textResult(output any, isError bool) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize result: %v", err)},
			},
		}
	}

	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}
