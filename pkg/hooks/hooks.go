// Package hooks implements the interceptor pipeline that runs around
// every tool call. Pre hooks run sequentially before the tool executes
// and may block it, rewrite its arguments, or inject context back to the
// agent. Post hooks run after execution, off the calling path, and can
// never affect the outcome.
//
// The Registry is a plain value owned by whoever constructs the engine;
// there is no package-level hook state.
package hooks

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Result is the contract value every pre hook returns.
type Result struct {
	// Continue is false to abort the pipeline. The remaining hooks are
	// never invoked and the tool does not execute.
	Continue bool `json:"continue"`

	// Reason explains a block. Required whenever Continue is false.
	Reason string `json:"reason,omitempty"`

	// ModifiedParams is a partial overlay applied to the tool arguments
	// before execution. When several hooks set the same key, the last
	// hook to set it wins.
	ModifiedParams map[string]any `json:"modified_params,omitempty"`

	// InjectContext is appended to the context surfaced back to the
	// agent. It is a separate channel from the tool's own result.
	InjectContext string `json:"inject_context,omitempty"`
}

// Allow is the pass-through result.
func Allow() Result {
	return Result{Continue: true}
}

// Block aborts the pipeline with the given reason.
func Block(reason string) Result {
	return Result{Continue: false, Reason: reason}
}

// PreHook is an interceptor that runs before a tool executes.
type PreHook interface {
	Name() string
	Run(ctx context.Context, hc *Context) (Result, error)
}

// PostHook is an interceptor that runs after a tool executed. Its error
// is logged and otherwise ignored.
type PostHook interface {
	Name() string
	Run(ctx context.Context, hc *Context) error
}

// PreHookFunc adapts a function to PreHook.
type PreHookFunc struct {
	HookName string
	Fn       func(ctx context.Context, hc *Context) (Result, error)
}

func (h PreHookFunc) Name() string { return h.HookName }

func (h PreHookFunc) Run(ctx context.Context, hc *Context) (Result, error) {
	return h.Fn(ctx, hc)
}

// PostHookFunc adapts a function to PostHook.
type PostHookFunc struct {
	HookName string
	Fn       func(ctx context.Context, hc *Context) error
}

func (h PostHookFunc) Name() string { return h.HookName }

func (h PostHookFunc) Run(ctx context.Context, hc *Context) error {
	return h.Fn(ctx, hc)
}

// entry pairs a hook with its registration id so unregistration does not
// disturb the order of the remaining hooks.
type entry[H any] struct {
	id   uint64
	hook H
}

// Registry holds the ordered pre and post hook lists.
type Registry struct {
	mu     sync.RWMutex
	nextID uint64
	pre    []entry[PreHook]
	post   []entry[PostHook]
	logger *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

// Unregister removes a previously registered hook.
type Unregister func()

// RegisterPre appends a pre hook. Hooks run in registration order.
func (r *Registry) RegisterPre(h PreHook) Unregister {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.pre = append(r.pre, entry[PreHook]{id: id, hook: h})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.pre {
			if e.id == id {
				r.pre = append(r.pre[:i], r.pre[i+1:]...)
				return
			}
		}
	}
}

// RegisterPost appends a post hook.
func (r *Registry) RegisterPost(h PostHook) Unregister {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.post = append(r.post, entry[PostHook]{id: id, hook: h})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, e := range r.post {
			if e.id == id {
				r.post = append(r.post[:i], r.post[i+1:]...)
				return
			}
		}
	}
}

// preHooks snapshots the pre hook list.
func (r *Registry) preHooks() []entry[PreHook] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entry[PreHook]{}, r.pre...)
}

// postHooks snapshots the post hook list.
func (r *Registry) postHooks() []entry[PostHook] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entry[PostHook]{}, r.post...)
}

// RunPre executes the pre hooks strictly in registration order. The
// first hook to return Continue=false stops the pipeline and its result
// is returned as-is; later hooks never run. Argument overlays and
// injected context from continuing hooks accumulate onto hc.
//
// Pre hooks guard mutations, so any internal failure is converted into a
// block with the failure as reason rather than propagated: a broken hook
// must deny, never silently allow.
func (r *Registry) RunPre(ctx context.Context, hc *Context) Result {
	for _, e := range r.preHooks() {
		res := r.runOnePre(ctx, e.hook, hc)
		if !res.Continue {
			if res.Reason == "" {
				res.Reason = fmt.Sprintf("blocked by hook %q", e.hook.Name())
			}
			return res
		}
		hc.applyResult(res)
	}
	return Allow()
}

// runOnePre invokes a single pre hook, converting panics and errors into
// blocking results.
func (r *Registry) runOnePre(ctx context.Context, h PreHook, hc *Context) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("pre hook panicked",
				zap.String("hook", h.Name()),
				zap.Any("panic", rec),
			)
			res = Block(fmt.Sprintf("internal error in hook %q: %v", h.Name(), rec))
		}
	}()

	res, err := h.Run(ctx, hc)
	if err != nil {
		r.logger.Error("pre hook failed",
			zap.String("hook", h.Name()),
			zap.Error(err),
		)
		return Block(fmt.Sprintf("internal error in hook %q: %v", h.Name(), err))
	}
	return res
}

// runOnePost invokes a single post hook, swallowing panics and errors.
// The guarded operation already completed; only observability is at
// stake, so post failures are logged and ignored.
func (r *Registry) runOnePost(ctx context.Context, h PostHook, hc *Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("post hook panicked",
				zap.String("hook", h.Name()),
				zap.Any("panic", rec),
			)
		}
	}()

	if err := h.Run(ctx, hc); err != nil {
		r.logger.Error("post hook failed",
			zap.String("hook", h.Name()),
			zap.Error(err),
		)
	}
}
