// Package authorizer provides the blocking human-in-the-loop gate for
// operations the classifier marks destructive.
package authorizer

import (
	"context"

	"github.com/keelhq/warden/pkg/tool"
)

// Request describes the operation awaiting a human decision.
type Request struct {
	Call   tool.Call
	Tier   string
	Reason string
}

// Authorizer presents a blocking approve/reject decision. Implementations
// must not return before a decision is made, the configured timeout
// elapses, or ctx is cancelled; timeout and cancellation are rejections.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) (bool, error)
}
