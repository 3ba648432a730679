package inmemory_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keelhq/warden/pkg/trace"
	"github.com/keelhq/warden/pkg/trace/inmemory"
)

func TestInMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "InMemory Suite")
}

var _ = Describe("Store", func() {
	var (
		store *inmemory.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		store = inmemory.NewStore()
		ctx = context.Background()
	})

	record := func(id, filePath string) *trace.Record {
		return &trace.Record{
			ID: id,
			Files: []trace.File{{
				Path: filePath,
				Conversations: []trace.Conversation{{
					URL:     "sess-1",
					Related: []trace.Related{{Type: trace.RelatedIntent, ID: "INT-001"}},
				}},
			}},
		}
	}

	It("rejects nil records", func() {
		Expect(store.Append(ctx, nil)).To(HaveOccurred())
	})

	It("returns matches newest first", func() {
		Expect(store.Append(ctx, record("r1", "a.go"))).To(Succeed())
		Expect(store.Append(ctx, record("r2", "b.go"))).To(Succeed())

		recs, err := store.Query(ctx, trace.Query{})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(2))
		Expect(recs[0].ID).To(Equal("r2"))
		Expect(store.Len()).To(Equal(2))
	})

	It("applies filters and paging", func() {
		Expect(store.Append(ctx, record("r1", "a.go"))).To(Succeed())
		Expect(store.Append(ctx, record("r2", "a.go"))).To(Succeed())
		Expect(store.Append(ctx, record("r3", "b.go"))).To(Succeed())

		recs, err := store.Query(ctx, trace.Query{FilePath: "a.go", Limit: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(1))
		Expect(recs[0].ID).To(Equal("r2"))
	})
})
