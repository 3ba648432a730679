package hooks

import (
	"strings"

	"github.com/keelhq/warden/pkg/tool"
)

// Context carries one tool call through the hook pipeline. Pre hooks
// read the call and accumulate argument overlays and injected context
// onto it; the post pipeline additionally sees the executor's result.
type Context struct {
	Call   tool.Call
	Result *tool.Result

	// ActiveIntentID is resolved by the intent hook for hooks later in
	// the chain (scope check, trace builder).
	ActiveIntentID string

	// RejectCode and Suggestion let a blocking hook attach the
	// structured recovery fields surfaced to the agent alongside the
	// blocking Result's reason.
	RejectCode string
	Suggestion string

	overlays map[string]any
	injected []string
}

// NewContext wraps a call for a pipeline run.
func NewContext(call tool.Call) *Context {
	return &Context{Call: call}
}

// applyResult folds a continuing hook's overlays and injected context
// into the accumulated state.
func (hc *Context) applyResult(res Result) {
	if len(res.ModifiedParams) > 0 {
		if hc.overlays == nil {
			hc.overlays = make(map[string]any, len(res.ModifiedParams))
		}
		for k, v := range res.ModifiedParams {
			hc.overlays[k] = v
		}
	}
	if res.InjectContext != "" {
		hc.injected = append(hc.injected, res.InjectContext)
	}
}

// EffectiveCall returns the call with all accumulated overlays applied.
func (hc *Context) EffectiveCall() tool.Call {
	return hc.Call.WithArgs(hc.overlays)
}

// InjectedContext returns the accumulated context to surface back to the
// agent, in hook order.
func (hc *Context) InjectedContext() string {
	return strings.Join(hc.injected, "\n")
}
