package authorizer

import (
	"context"

	"go.uber.org/zap"
)

// Static always returns the same decision. Reject-all is the right
// choice for headless deployments with no operator; approve-all exists
// for development and tests, never for production gates.
type Static struct {
	approve bool
	logger  *zap.Logger
}

// NewStatic creates a Static authorizer with the given fixed decision.
func NewStatic(approve bool, logger *zap.Logger) *Static {
	return &Static{approve: approve, logger: logger}
}

// Authorize returns the fixed decision, honoring an aborted context.
func (s *Static) Authorize(ctx context.Context, req Request) (bool, error) {
	if ctx.Err() != nil {
		return false, nil
	}

	s.logger.Info("static authorization decision",
		zap.String("tool", req.Call.Name),
		zap.Bool("approved", s.approve),
	)
	return s.approve, nil
}
