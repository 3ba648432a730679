package jsonl_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keelhq/warden/pkg/trace"
	"github.com/keelhq/warden/pkg/trace/jsonl"
)

func TestJSONL(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "JSONL Suite")
}

var _ = Describe("Store", func() {
	var (
		tmpDir string
		path   string
		store  *jsonl.Store
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "jsonl-test-*")
		Expect(err).NotTo(HaveOccurred())

		path = filepath.Join(tmpDir, "audit", "trace.jsonl")
		store, err = jsonl.NewStore(path)
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
	})

	AfterEach(func() {
		store.Close()
		os.RemoveAll(tmpDir)
	})

	record := func(id, filePath, intentID string) *trace.Record {
		return &trace.Record{
			Version:   trace.SchemaVersion,
			ID:        id,
			Timestamp: "2026-08-30T12:00:00Z",
			Files: []trace.File{{
				Path: filePath,
				Conversations: []trace.Conversation{{
					URL:     "sess-1",
					Related: []trace.Related{{Type: trace.RelatedIntent, ID: intentID}},
				}},
			}},
		}
	}

	It("creates the parent directory on first use", func() {
		Expect(store.Append(ctx, record("r1", "a.go", "INT-001"))).To(Succeed())
		_, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
	})

	It("appends one line per record and never rewrites earlier ones", func() {
		Expect(store.Append(ctx, record("r1", "a.go", "INT-001"))).To(Succeed())

		first, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Append(ctx, record("r2", "b.go", "INT-001"))).To(Succeed())

		both, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		Expect(strings.HasPrefix(string(both), string(first))).To(BeTrue())
		Expect(strings.Count(string(both), "\n")).To(Equal(2))
	})

	It("appends a distinct record when the same mutation replays", func() {
		Expect(store.Append(ctx, record("r1", "a.go", "INT-001"))).To(Succeed())
		Expect(store.Append(ctx, record("r2", "a.go", "INT-001"))).To(Succeed())

		recs, err := store.Query(ctx, trace.Query{FilePath: "a.go"})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(2))
		Expect(recs[0].ID).NotTo(Equal(recs[1].ID))
	})

	It("returns records newest first", func() {
		Expect(store.Append(ctx, record("r1", "a.go", "INT-001"))).To(Succeed())
		Expect(store.Append(ctx, record("r2", "b.go", "INT-001"))).To(Succeed())
		Expect(store.Append(ctx, record("r3", "c.go", "INT-002"))).To(Succeed())

		recs, err := store.Query(ctx, trace.Query{})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(3))
		Expect(recs[0].ID).To(Equal("r3"))
		Expect(recs[2].ID).To(Equal("r1"))
	})

	It("filters by file, intent, and session", func() {
		Expect(store.Append(ctx, record("r1", "a.go", "INT-001"))).To(Succeed())
		Expect(store.Append(ctx, record("r2", "b.go", "INT-002"))).To(Succeed())

		recs, err := store.Query(ctx, trace.Query{IntentID: "INT-002"})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].ID).To(Equal("r2"))

		recs, err = store.Query(ctx, trace.Query{FilePath: "a.go"})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].ID).To(Equal("r1"))

		recs, err = store.Query(ctx, trace.Query{SessionURL: "sess-9"})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(BeEmpty())
	})

	It("applies limit and offset after filtering", func() {
		for _, id := range []string{"r1", "r2", "r3", "r4"} {
			Expect(store.Append(ctx, record(id, "a.go", "INT-001"))).To(Succeed())
		}

		recs, err := store.Query(ctx, trace.Query{Limit: 2, Offset: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(2))
		Expect(recs[0].ID).To(Equal("r3"))
		Expect(recs[1].ID).To(Equal("r2"))
	})

	It("skips malformed lines instead of failing the query", func() {
		Expect(store.Append(ctx, record("r1", "a.go", "INT-001"))).To(Succeed())

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
		Expect(err).NotTo(HaveOccurred())
		_, err = f.WriteString("{corrupt\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())

		Expect(store.Append(ctx, record("r2", "b.go", "INT-001"))).To(Succeed())

		recs, err := store.Query(ctx, trace.Query{})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(2))
	})

	It("queries an empty log without error", func() {
		recs, err := store.Query(ctx, trace.Query{})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(BeEmpty())
	})
})
