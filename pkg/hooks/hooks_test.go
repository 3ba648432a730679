package hooks_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/keelhq/warden/pkg/hooks"
	"github.com/keelhq/warden/pkg/tool"
)

func TestHooks(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Hooks Suite")
}

var _ = Describe("Registry pre pipeline", func() {
	var (
		registry *hooks.Registry
		ctx      context.Context
	)

	BeforeEach(func() {
		registry = hooks.NewRegistry(zap.NewNop())
		ctx = context.Background()
	})

	newContext := func() *hooks.Context {
		return hooks.NewContext(tool.NewCall("write", map[string]any{
			"path":    "src/main.go",
			"content": "package main",
		}, "sess-1"))
	}

	pre := func(name string, fn func(*hooks.Context) (hooks.Result, error)) hooks.PreHookFunc {
		return hooks.PreHookFunc{
			HookName: name,
			Fn: func(_ context.Context, hc *hooks.Context) (hooks.Result, error) {
				return fn(hc)
			},
		}
	}

	It("runs hooks in registration order", func() {
		var order []string
		for _, name := range []string{"first", "second", "third"} {
			name := name
			registry.RegisterPre(pre(name, func(_ *hooks.Context) (hooks.Result, error) {
				order = append(order, name)
				return hooks.Allow(), nil
			}))
		}

		res := registry.RunPre(ctx, newContext())
		Expect(res.Continue).To(BeTrue())
		Expect(order).To(Equal([]string{"first", "second", "third"}))
	})

	It("stops at the first blocking hook", func() {
		calls := 0
		registry.RegisterPre(pre("blocker", func(_ *hooks.Context) (hooks.Result, error) {
			return hooks.Block("not allowed"), nil
		}))
		registry.RegisterPre(pre("never", func(_ *hooks.Context) (hooks.Result, error) {
			calls++
			return hooks.Allow(), nil
		}))

		res := registry.RunPre(ctx, newContext())
		Expect(res.Continue).To(BeFalse())
		Expect(res.Reason).To(Equal("not allowed"))
		Expect(calls).To(Equal(0))
	})

	It("fills a default reason for a block without one", func() {
		registry.RegisterPre(pre("silent", func(_ *hooks.Context) (hooks.Result, error) {
			return hooks.Result{Continue: false}, nil
		}))

		res := registry.RunPre(ctx, newContext())
		Expect(res.Continue).To(BeFalse())
		Expect(res.Reason).To(ContainSubstring(`blocked by hook "silent"`))
	})

	It("accumulates argument overlays with last hook winning", func() {
		registry.RegisterPre(pre("first", func(_ *hooks.Context) (hooks.Result, error) {
			return hooks.Result{Continue: true, ModifiedParams: map[string]any{
				"path":  "src/rewritten.go",
				"extra": "a",
			}}, nil
		}))
		registry.RegisterPre(pre("second", func(_ *hooks.Context) (hooks.Result, error) {
			return hooks.Result{Continue: true, ModifiedParams: map[string]any{
				"path": "src/final.go",
			}}, nil
		}))

		hc := newContext()
		res := registry.RunPre(ctx, hc)
		Expect(res.Continue).To(BeTrue())

		effective := hc.EffectiveCall()
		Expect(effective.Path()).To(Equal("src/final.go"))
		Expect(effective.Args["extra"]).To(Equal("a"))

		// The original call is untouched.
		Expect(hc.Call.Path()).To(Equal("src/main.go"))
	})

	It("lets later hooks observe earlier overlays", func() {
		registry.RegisterPre(pre("rewriter", func(_ *hooks.Context) (hooks.Result, error) {
			return hooks.Result{Continue: true, ModifiedParams: map[string]any{
				"path": "src/rewritten.go",
			}}, nil
		}))

		var seen string
		registry.RegisterPre(pre("observer", func(hc *hooks.Context) (hooks.Result, error) {
			seen = hc.EffectiveCall().Path()
			return hooks.Allow(), nil
		}))

		registry.RunPre(ctx, newContext())
		Expect(seen).To(Equal("src/rewritten.go"))
	})

	It("joins injected context in hook order", func() {
		registry.RegisterPre(pre("first", func(_ *hooks.Context) (hooks.Result, error) {
			return hooks.Result{Continue: true, InjectContext: "one"}, nil
		}))
		registry.RegisterPre(pre("second", func(_ *hooks.Context) (hooks.Result, error) {
			return hooks.Result{Continue: true, InjectContext: "two"}, nil
		}))

		hc := newContext()
		registry.RunPre(ctx, hc)
		Expect(hc.InjectedContext()).To(Equal("one\ntwo"))
	})

	It("converts a hook error into a block", func() {
		registry.RegisterPre(pre("broken", func(_ *hooks.Context) (hooks.Result, error) {
			return hooks.Result{}, errors.New("database gone")
		}))

		res := registry.RunPre(ctx, newContext())
		Expect(res.Continue).To(BeFalse())
		Expect(res.Reason).To(ContainSubstring("database gone"))
	})

	It("converts a hook panic into a block", func() {
		registry.RegisterPre(pre("panicky", func(_ *hooks.Context) (hooks.Result, error) {
			panic("boom")
		}))

		res := registry.RunPre(ctx, newContext())
		Expect(res.Continue).To(BeFalse())
		Expect(res.Reason).To(ContainSubstring("boom"))
	})

	It("unregisters hooks without disturbing the rest", func() {
		var order []string
		registry.RegisterPre(pre("keep-a", func(_ *hooks.Context) (hooks.Result, error) {
			order = append(order, "keep-a")
			return hooks.Allow(), nil
		}))
		remove := registry.RegisterPre(pre("drop", func(_ *hooks.Context) (hooks.Result, error) {
			order = append(order, "drop")
			return hooks.Allow(), nil
		}))
		registry.RegisterPre(pre("keep-b", func(_ *hooks.Context) (hooks.Result, error) {
			order = append(order, "keep-b")
			return hooks.Allow(), nil
		}))

		remove()
		registry.RunPre(ctx, newContext())
		Expect(order).To(Equal([]string{"keep-a", "keep-b"}))
	})
})

var _ = Describe("Dispatcher", func() {
	var registry *hooks.Registry

	BeforeEach(func() {
		registry = hooks.NewRegistry(zap.NewNop())
	})

	newContext := func() *hooks.Context {
		return hooks.NewContext(tool.NewCall("write", nil, "sess-1"))
	}

	It("requires a registry", func() {
		_, err := hooks.NewDispatcher(&hooks.DispatcherConfig{Logger: zap.NewNop()})
		Expect(err).To(HaveOccurred())
	})

	It("runs post hooks for every dispatched job before Close returns", func() {
		var mu sync.Mutex
		processed := 0
		registry.RegisterPost(hooks.PostHookFunc{
			HookName: "counter",
			Fn: func(_ context.Context, _ *hooks.Context) error {
				mu.Lock()
				defer mu.Unlock()
				processed++
				return nil
			},
		})

		d, err := hooks.NewDispatcher(&hooks.DispatcherConfig{
			Registry: registry,
			Logger:   zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		for range 5 {
			Expect(d.Dispatch(newContext())).To(BeTrue())
		}
		d.Close()

		Expect(processed).To(Equal(5))
	})

	It("swallows post hook failures", func() {
		registry.RegisterPost(hooks.PostHookFunc{
			HookName: "panicky",
			Fn: func(_ context.Context, _ *hooks.Context) error {
				panic("boom")
			},
		})
		registry.RegisterPost(hooks.PostHookFunc{
			HookName: "failing",
			Fn: func(_ context.Context, _ *hooks.Context) error {
				return errors.New("storage down")
			},
		})

		d, err := hooks.NewDispatcher(&hooks.DispatcherConfig{
			Registry: registry,
			Logger:   zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(d.Dispatch(newContext())).To(BeTrue())
		d.Close()
	})

	It("drops jobs instead of blocking when the queue is full", func() {
		started := make(chan struct{})
		release := make(chan struct{})
		registry.RegisterPost(hooks.PostHookFunc{
			HookName: "slow",
			Fn: func(_ context.Context, _ *hooks.Context) error {
				started <- struct{}{}
				<-release
				return nil
			},
		})

		d, err := hooks.NewDispatcher(&hooks.DispatcherConfig{
			Registry:   registry,
			NumWorkers: 1,
			QueueSize:  1,
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		// First job occupies the worker, second fills the queue.
		Expect(d.Dispatch(newContext())).To(BeTrue())
		<-started
		Expect(d.Dispatch(newContext())).To(BeTrue())

		Expect(d.Dispatch(newContext())).To(BeFalse())

		close(release)
		<-started
		d.Close()
	})
})
