// Package gatekeeper composes the intent store, scope validator,
// security classifier, authorization gate, and trace logger into the
// hook pipeline that runs around every tool call from the host agent
// runtime.
package gatekeeper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keelhq/warden/pkg/eventstream"
	"github.com/keelhq/warden/pkg/hooks"
	"github.com/keelhq/warden/pkg/intent"
	"github.com/keelhq/warden/pkg/security"
	"github.com/keelhq/warden/pkg/security/authorizer"
	"github.com/keelhq/warden/pkg/session"
	"github.com/keelhq/warden/pkg/tool"
	"github.com/keelhq/warden/pkg/trace"
)

// Config wires the gatekeeper's collaborators.
type Config struct {
	// Intents is the registry store, re-read on every check.
	Intents *intent.Store

	// Sessions holds per-session active-intent and abort state.
	Sessions *session.Store

	// Classifier assigns risk tiers.
	Classifier *security.Classifier

	// Authorizer is the blocking human gate for destructive operations.
	Authorizer authorizer.Authorizer

	// Traces persists audit records from the post pipeline.
	Traces trace.Store

	// Builder assembles audit records. Optional; a default builder is
	// created when nil.
	Builder *trace.Builder

	// Events receives governance events, best effort. Optional; nil
	// disables publishing.
	Events eventstream.Publisher

	// NumWorkers and QueueSize size the post-hook dispatcher.
	NumWorkers uint
	QueueSize  uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Decision is the successful outcome of the pre pipeline: the call may
// proceed with the (possibly rewritten) arguments, and Context carries
// any text the hooks injected for the agent.
type Decision struct {
	Allowed bool           `json:"continue"`
	Args    map[string]any `json:"arguments,omitempty"`
	Context string         `json:"context,omitempty"`
}

// Gatekeeper is the hook execution engine configured with the warden
// governance pipeline.
type Gatekeeper struct {
	config     Config
	registry   *hooks.Registry
	dispatcher *hooks.Dispatcher
	builder    *trace.Builder
	logger     *zap.Logger
	closeOnce  sync.Once
}

// New creates a Gatekeeper and registers the governance hooks in their
// pipeline order: intent check, scope check, security classification
// with authorization, then the async trace post hook.
func New(c Config) (*Gatekeeper, error) {
	switch {
	case c.Intents == nil:
		return nil, fmt.Errorf("intent store is required")
	case c.Sessions == nil:
		return nil, fmt.Errorf("session store is required")
	case c.Classifier == nil:
		return nil, fmt.Errorf("classifier is required")
	case c.Authorizer == nil:
		return nil, fmt.Errorf("authorizer is required")
	case c.Traces == nil:
		return nil, fmt.Errorf("trace store is required")
	case c.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}

	builder := c.Builder
	if builder == nil {
		builder = trace.NewBuilder("warden", "dev", c.Logger)
	}

	g := &Gatekeeper{
		config:   c,
		registry: hooks.NewRegistry(c.Logger),
		builder:  builder,
		logger:   c.Logger,
	}

	g.registry.RegisterPre(hooks.PreHookFunc{HookName: "intent", Fn: g.intentHook})
	g.registry.RegisterPre(hooks.PreHookFunc{HookName: "scope", Fn: g.scopeHook})
	g.registry.RegisterPre(hooks.PreHookFunc{HookName: "security", Fn: g.securityHook})
	g.registry.RegisterPost(hooks.PostHookFunc{HookName: "trace", Fn: g.traceHook})

	dispatcher, err := hooks.NewDispatcher(&hooks.DispatcherConfig{
		Registry:   g.registry,
		NumWorkers: c.NumWorkers,
		QueueSize:  c.QueueSize,
		Logger:     c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}
	g.dispatcher = dispatcher

	return g, nil
}

// Registry exposes the hook registry so embedders can append their own
// interceptors after the builtin governance hooks.
func (g *Gatekeeper) Registry() *hooks.Registry {
	return g.registry
}

// Close drains the post-hook dispatcher. Call during graceful shutdown;
// subsequent calls are no-ops.
func (g *Gatekeeper) Close() {
	g.closeOnce.Do(g.dispatcher.Close)
}

// CheckPre runs the pre pipeline for one tool call. It returns either a
// Decision permitting execution or a Rejection; never both, never an
// error. Select-intent pseudo-operations are routed to SelectIntent.
func (g *Gatekeeper) CheckPre(ctx context.Context, call tool.Call) (*Decision, *Rejection) {
	if call.Kind == tool.KindSelectIntent {
		block, rej := g.SelectIntent(ctx, call.SessionID, call.IntentID())
		if rej != nil {
			return nil, rej
		}
		return &Decision{Allowed: true, Args: call.Args, Context: block}, nil
	}

	hc := hooks.NewContext(call)
	res := g.registry.RunPre(ctx, hc)
	if !res.Continue {
		code := ReasonCode(hc.RejectCode)
		if code == "" {
			// A block without a governance code means a hook faulted
			// and the registry failed secure.
			code = CodeInternal
		}
		suggestion := hc.Suggestion
		if suggestion == "" {
			suggestion = "correct the call and retry"
		}
		rej := newRejection(code, res.Reason, suggestion)
		g.publishBlocked(ctx, call, rej, hc.ActiveIntentID)
		return nil, rej
	}

	effective := hc.EffectiveCall()
	return &Decision{
		Allowed: true,
		Args:    effective.Args,
		Context: hc.InjectedContext(),
	}, nil
}

// ReportPost schedules the post hooks for a completed operation and
// returns immediately. Post failures never reach the caller.
func (g *Gatekeeper) ReportPost(_ context.Context, res *tool.Result) {
	hc := hooks.NewContext(res.Call)
	hc.Result = res
	if id, ok := g.config.Sessions.ActiveIntent(res.Call.SessionID); ok {
		hc.ActiveIntentID = id
	}
	g.dispatcher.Dispatch(hc)
}

// SelectIntent handles the intent-selection pseudo-operation: it looks
// up the intent, rejects with the available ids when absent and with the
// blocked reason when not selectable, and on success stores it as the
// session's active intent and returns the rendered context block.
func (g *Gatekeeper) SelectIntent(_ context.Context, sessionID, intentID string) (string, *Rejection) {
	if intentID == "" {
		return "", newRejection(CodeIntentNotFound,
			"no intent_id provided",
			g.selectionSuggestion())
	}

	reg := g.config.Intents.Load()
	in, ok := reg.FindByID(intentID)
	if !ok {
		return "", newRejection(CodeIntentNotFound,
			fmt.Sprintf("intent %q not found (available: %s)", intentID, strings.Join(reg.IDs(), ", ")),
			g.selectionSuggestion())
	}

	if !in.Status.Selectable() {
		reason := fmt.Sprintf("intent %q has status %q and cannot be selected", in.ID, in.Status)
		if in.Status == intent.StatusBlocked && in.BlockedReason != "" {
			reason += ": " + in.BlockedReason
		}
		return "", newRejection(CodeIntentBlocked, reason, g.selectionSuggestion())
	}

	g.config.Sessions.SetActiveIntent(sessionID, in.ID)
	g.logger.Info("intent selected",
		zap.String("session", sessionID),
		zap.String("intent", in.ID),
	)

	return intent.FormatAsContext(in), nil
}

// intentHook blocks mutating calls made without a declared intent and
// resolves the active intent for the rest of the pipeline.
func (g *Gatekeeper) intentHook(_ context.Context, hc *hooks.Context) (hooks.Result, error) {
	if !hc.Call.Kind.Mutating() {
		return hooks.Allow(), nil
	}

	id, ok := g.config.Sessions.ActiveIntent(hc.Call.SessionID)
	if !ok {
		hc.RejectCode = string(CodeNoIntent)
		hc.Suggestion = g.selectionSuggestion()
		return hooks.Block("intent required: no intent declared for this session"), nil
	}

	// The registry is re-read so edits since selection take effect.
	reg := g.config.Intents.Load()
	in, found := reg.FindByID(id)
	if !found {
		hc.RejectCode = string(CodeIntentNotFound)
		hc.Suggestion = g.selectionSuggestion()
		return hooks.Block(fmt.Sprintf("active intent %q no longer exists in the registry", id)), nil
	}
	if in.Status == intent.StatusBlocked {
		hc.RejectCode = string(CodeIntentBlocked)
		hc.Suggestion = g.selectionSuggestion()
		reason := fmt.Sprintf("active intent %q is blocked", id)
		if in.BlockedReason != "" {
			reason += ": " + in.BlockedReason
		}
		return hooks.Block(reason), nil
	}

	hc.ActiveIntentID = id
	return hooks.Allow(), nil
}

// scopeHook rejects writes that land outside the active intent's owned
// scope. Unknown tools that name a target file are held to the same
// check; their write capability cannot be ruled out from the name.
func (g *Gatekeeper) scopeHook(_ context.Context, hc *hooks.Context) (hooks.Result, error) {
	call := hc.EffectiveCall()
	path := call.Path()

	switch call.Kind {
	case tool.KindWrite:
		if path == "" {
			hc.RejectCode = string(CodeScopeViolation)
			hc.Suggestion = "include the target file path in the call arguments"
			return hooks.Block("write call carries no target path"), nil
		}
	case tool.KindUnknown:
		if path == "" {
			return hooks.Allow(), nil
		}
	default:
		return hooks.Allow(), nil
	}

	in, err := g.config.Intents.FindByID(hc.ActiveIntentID)
	if err != nil {
		hc.RejectCode = string(CodeIntentNotFound)
		hc.Suggestion = g.selectionSuggestion()
		return hooks.Block(err.Error()), nil
	}

	if !intent.ValidateScope(path, in) {
		hc.RejectCode = string(CodeScopeViolation)
		hc.Suggestion = fmt.Sprintf("write only within the declared scope: %s", strings.Join(in.OwnedScope, ", "))
		return hooks.Block(fmt.Sprintf(
			"path %q is outside intent %s owned scope [%s]",
			path, in.ID, strings.Join(in.OwnedScope, ", "),
		)), nil
	}

	return hooks.Allow(), nil
}

// securityHook classifies the call and routes destructive operations
// through the blocking authorization gate. The session abort signal is
// checked before the gate so an aborted session fails closed without
// prompting anyone.
func (g *Gatekeeper) securityHook(ctx context.Context, hc *hooks.Context) (hooks.Result, error) {
	call := hc.EffectiveCall()
	verdict := g.config.Classifier.Classify(call)

	g.logger.Debug("call classified",
		zap.String("tool", call.Name),
		zap.String("tier", string(verdict.Tier)),
		zap.String("reason", verdict.Reason),
	)

	if verdict.Tier != security.TierDestructive {
		return hooks.Allow(), nil
	}

	if g.config.Sessions.Aborted(call.SessionID) {
		hc.RejectCode = string(CodeHITLRejected)
		hc.Suggestion = "the session was aborted; start a new session to continue"
		return hooks.Block("session aborted before authorization"), nil
	}

	approved, err := g.config.Authorizer.Authorize(ctx, authorizer.Request{
		Call:   call,
		Tier:   string(verdict.Tier),
		Reason: verdict.Reason,
	})
	if err != nil {
		return hooks.Result{}, fmt.Errorf("authorization gate: %w", err)
	}
	if !approved {
		hc.RejectCode = string(CodeHITLRejected)
		hc.Suggestion = "the operator rejected this operation; choose a safer alternative"
		return hooks.Block(fmt.Sprintf("destructive operation rejected by operator: %s", verdict.Reason)), nil
	}

	g.logger.Info("destructive operation authorized",
		zap.String("tool", call.Name),
		zap.String("session", call.SessionID),
	)
	return hooks.Allow(), nil
}

// traceHook builds and appends the audit record for a completed
// mutation. It runs on the dispatcher's workers, never on the calling
// path, and honors the session abort signal by doing nothing.
func (g *Gatekeeper) traceHook(ctx context.Context, hc *hooks.Context) error {
	res := hc.Result
	if res == nil || res.Failed || !hc.Call.Kind.Mutating() {
		return nil
	}

	if g.config.Sessions.Aborted(hc.Call.SessionID) {
		g.logger.Debug("skipping trace for aborted session",
			zap.String("session", hc.Call.SessionID),
		)
		return nil
	}

	rec := g.builder.Build(res, hc.Call.SessionID, hc.ActiveIntentID)
	if rec == nil {
		return nil
	}

	if err := g.config.Traces.Append(ctx, rec); err != nil {
		return fmt.Errorf("appending trace record: %w", err)
	}

	g.logger.Info("trace recorded",
		zap.String("record", rec.ID),
		zap.String("intent", hc.ActiveIntentID),
		zap.String("session", hc.Call.SessionID),
	)

	g.publishEvent(ctx, &eventstream.GateEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTracePersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     hc.Call.SessionID,
		ToolName:      hc.Call.Name,
		IntentID:      hc.ActiveIntentID,
		Trace:         rec,
	})

	return nil
}

// publishBlocked emits an operation-blocked event, best effort.
func (g *Gatekeeper) publishBlocked(ctx context.Context, call tool.Call, rej *Rejection, intentID string) {
	g.publishEvent(ctx, &eventstream.GateEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeOperationBlocked,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     call.SessionID,
		ToolName:      call.Name,
		IntentID:      intentID,
		ReasonCode:    string(rej.Code),
		Reason:        rej.Reason,
	})
}

func (g *Gatekeeper) publishEvent(ctx context.Context, event *eventstream.GateEvent) {
	if g.config.Events == nil {
		return
	}
	if err := g.config.Events.PublishGateEvent(ctx, event); err != nil {
		g.logger.Warn("publishing gate event failed", zap.Error(err))
	}
}

// selectionSuggestion names the selection operation and the currently
// selectable intents so the agent can recover on its own.
func (g *Gatekeeper) selectionSuggestion() string {
	reg := g.config.Intents.Load()
	var selectable []string
	for _, in := range reg.Intents {
		if in.Status.Selectable() {
			selectable = append(selectable, in.ID)
		}
	}
	if len(selectable) == 0 {
		return "call select_intent after an intent is added to the registry"
	}
	return fmt.Sprintf("call select_intent with one of: %s", strings.Join(selectable, ", "))
}
