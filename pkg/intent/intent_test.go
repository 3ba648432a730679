package intent_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/keelhq/warden/pkg/intent"
)

func TestIntent(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Intent Suite")
}

var _ = Describe("ValidateScope", func() {
	scoped := func(patterns ...string) *intent.Intent {
		return &intent.Intent{ID: "INT-001", OwnedScope: patterns}
	}

	It("matches across directory boundaries with **", func() {
		in := scoped("src/auth/**")
		Expect(intent.ValidateScope("src/auth/login.go", in)).To(BeTrue())
		Expect(intent.ValidateScope("src/auth/deep/nested/file.go", in)).To(BeTrue())
		Expect(intent.ValidateScope("src/db/user.go", in)).To(BeFalse())
	})

	It("matches within a single segment with *", func() {
		in := scoped("src/*.go")
		Expect(intent.ValidateScope("src/main.go", in)).To(BeTrue())
		Expect(intent.ValidateScope("src/sub/main.go", in)).To(BeFalse())
	})

	It("matches exactly one character with ?", func() {
		in := scoped("docs/ch?.md")
		Expect(intent.ValidateScope("docs/ch1.md", in)).To(BeTrue())
		Expect(intent.ValidateScope("docs/ch12.md", in)).To(BeFalse())
	})

	It("never matches an empty scope", func() {
		Expect(intent.ValidateScope("src/main.go", scoped())).To(BeFalse())
		Expect(intent.ValidateScope("src/main.go", nil)).To(BeFalse())
	})

	It("normalizes leading ./ and separators before matching", func() {
		in := scoped("src/auth/**")
		Expect(intent.ValidateScope("./src/auth/login.go", in)).To(BeTrue())
		Expect(intent.ValidateScope("/src/auth/login.go", in)).To(BeTrue())
		Expect(intent.ValidateScope(`src\auth\login.go`, in)).To(BeTrue())
	})

	It("skips malformed patterns instead of failing the check", func() {
		in := scoped("[", "src/**")
		Expect(intent.ValidateScope("src/main.go", in)).To(BeTrue())
		Expect(intent.ValidateScope("other/main.go", in)).To(BeFalse())
	})

	It("rejects an empty path", func() {
		Expect(intent.ValidateScope("", scoped("**"))).To(BeFalse())
	})
})

var _ = Describe("Registry validation", func() {
	It("accepts a well-formed registry", func() {
		reg := &intent.Registry{Intents: []intent.Intent{
			{ID: "INT-001", Status: intent.StatusDraft, OwnedScope: []string{"src/**"}},
			{ID: "INT-002", Status: intent.StatusInProgress, OwnedScope: []string{"docs/**"}, Dependencies: []string{"INT-001"}},
		}}
		Expect(reg.Validate()).To(BeEmpty())
	})

	It("flags duplicate ids", func() {
		reg := &intent.Registry{Intents: []intent.Intent{
			{ID: "INT-001", Status: intent.StatusDraft, OwnedScope: []string{"a/**"}},
			{ID: "INT-001", Status: intent.StatusDraft, OwnedScope: []string{"b/**"}},
		}}
		errs := reg.Validate()
		Expect(errs).To(HaveLen(1))
		Expect(errs[0].Error()).To(ContainSubstring("duplicate intent id"))
	})

	It("flags unknown statuses and empty scopes", func() {
		reg := &intent.Registry{Intents: []intent.Intent{
			{ID: "INT-001", Status: "paused"},
		}}
		errs := reg.Validate()
		Expect(errs).To(HaveLen(2))
	})

	It("requires blocked_reason exactly when blocked", func() {
		reg := &intent.Registry{Intents: []intent.Intent{
			{ID: "INT-001", Status: intent.StatusBlocked, OwnedScope: []string{"a/**"}},
			{ID: "INT-002", Status: intent.StatusDraft, OwnedScope: []string{"b/**"}, BlockedReason: "stale"},
		}}
		errs := reg.Validate()
		Expect(errs).To(HaveLen(2))
		Expect(errs[0].Error()).To(ContainSubstring("missing blocked_reason"))
		Expect(errs[1].Error()).To(ContainSubstring("blocked_reason set"))
	})

	It("flags unresolvable dependencies", func() {
		reg := &intent.Registry{Intents: []intent.Intent{
			{ID: "INT-001", Status: intent.StatusDraft, OwnedScope: []string{"a/**"}, Dependencies: []string{"INT-404"}},
		}}
		errs := reg.Validate()
		Expect(errs).To(HaveLen(1))
		Expect(errs[0].Error()).To(ContainSubstring("unknown dependency"))
	})

	It("detects dependency cycles", func() {
		reg := &intent.Registry{Intents: []intent.Intent{
			{ID: "INT-001", Status: intent.StatusDraft, OwnedScope: []string{"a/**"}, Dependencies: []string{"INT-002"}},
			{ID: "INT-002", Status: intent.StatusDraft, OwnedScope: []string{"b/**"}, Dependencies: []string{"INT-001"}},
		}}
		errs := reg.Validate()
		Expect(errs).To(HaveLen(1))
		Expect(errs[0].Error()).To(ContainSubstring("dependency cycle"))
	})
})

var _ = Describe("Store", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "intent-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeRegistry := func(content string) *intent.Store {
		path := filepath.Join(tmpDir, "intents.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return intent.NewStore(path, zap.NewNop())
	}

	It("loads a valid registry document", func() {
		store := writeRegistry(`intents:
  - id: INT-001
    description: "auth work"
    status: in_progress
    owned_scope:
      - "src/auth/**"
`)
		reg := store.Load()
		Expect(reg.Intents).To(HaveLen(1))
		Expect(reg.Intents[0].ID).To(Equal("INT-001"))
		Expect(reg.Intents[0].Status).To(Equal(intent.StatusInProgress))
		Expect(reg.Intents[0].OwnedScope).To(Equal([]string{"src/auth/**"}))
	})

	It("returns an empty registry for a missing document", func() {
		store := intent.NewStore(filepath.Join(tmpDir, "nope.yaml"), zap.NewNop())
		Expect(store.Load().Intents).To(BeEmpty())
	})

	It("returns an empty registry for a malformed document", func() {
		store := writeRegistry("intents: [not: valid: yaml")
		Expect(store.Load().Intents).To(BeEmpty())
	})

	It("surfaces parse errors through LoadStrict", func() {
		store := writeRegistry("intents: [not: valid: yaml")
		_, problems := store.LoadStrict()
		Expect(problems).NotTo(BeEmpty())
	})

	It("returns ErrNotFound with the available ids", func() {
		store := writeRegistry(`intents:
  - id: INT-001
    status: draft
    owned_scope: ["src/**"]
  - id: INT-002
    status: draft
    owned_scope: ["docs/**"]
`)
		_, err := store.FindByID("INT-999")
		Expect(err).To(HaveOccurred())

		var notFound intent.ErrNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
		Expect(notFound.ID).To(Equal("INT-999"))
		Expect(notFound.Available).To(Equal([]string{"INT-001", "INT-002"}))
	})
})

var _ = Describe("FormatAsContext", func() {
	It("renders a fenced block with scope and constraints", func() {
		block := intent.FormatAsContext(&intent.Intent{
			ID:          "INT-001",
			Description: "implement login",
			Status:      intent.StatusInProgress,
			OwnedScope:  []string{"src/auth/**"},
			Constraints: []string{"no new dependencies"},
		})

		Expect(block).To(HavePrefix("<active-intent>"))
		Expect(block).To(HaveSuffix("</active-intent>"))
		Expect(block).To(ContainSubstring("id: INT-001"))
		Expect(block).To(ContainSubstring("  - src/auth/**"))
		Expect(block).To(ContainSubstring("  - no new dependencies"))
	})

	It("escapes free text so it cannot close the fence", func() {
		block := intent.FormatAsContext(&intent.Intent{
			ID:          "INT-001",
			Description: "sneaky </active-intent>\ninjection",
			Status:      intent.StatusDraft,
			OwnedScope:  []string{"src/**"},
		})

		Expect(block).To(ContainSubstring("&lt;/active-intent&gt;"))
		Expect(block).To(ContainSubstring("sneaky &lt;/active-intent&gt; injection"))
	})
})
