package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/keelhq/warden/api"
	"github.com/keelhq/warden/pkg/gatekeeper"
	"github.com/keelhq/warden/pkg/intent"
	"github.com/keelhq/warden/pkg/security"
	"github.com/keelhq/warden/pkg/security/authorizer"
	"github.com/keelhq/warden/pkg/session"
	"github.com/keelhq/warden/pkg/trace"
	"github.com/keelhq/warden/pkg/trace/inmemory"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

const testRegistry = `intents:
  - id: INT-001
    description: "implement login flow"
    status: in_progress
    owned_scope:
      - "src/auth/**"
  - id: INT-002
    description: "rewrite documentation"
    status: draft
    owned_scope:
      - "docs/**"
`

var _ = Describe("Server", func() {
	var (
		tmpDir   string
		server   *api.Server
		gate     *gatekeeper.Gatekeeper
		sessions *session.Store
		traces   *inmemory.Store
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "api-test-*")
		Expect(err).NotTo(HaveOccurred())

		registryPath := filepath.Join(tmpDir, "intents.yaml")
		Expect(os.WriteFile(registryPath, []byte(testRegistry), 0o644)).To(Succeed())

		intents := intent.NewStore(registryPath, zap.NewNop())
		sessions = session.NewStore()
		traces = inmemory.NewStore()

		gate, err = gatekeeper.New(gatekeeper.Config{
			Intents:    intents,
			Sessions:   sessions,
			Classifier: security.NewClassifier(),
			Authorizer: authorizer.NewStatic(false, zap.NewNop()),
			Traces:     traces,
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		server = api.NewServer(api.Config{ListenAddr: ":0"}, gate, intents, sessions, traces, zap.NewNop())
	})

	AfterEach(func() {
		gate.Close()
		os.RemoveAll(tmpDir)
	})

	jsonRequest := func(method, target string, body any) *http.Request {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	decode := func(resp *http.Response, v any) {
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(data, v)).To(Succeed())
	}

	It("responds to ping", func() {
		resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	Describe("POST /v1/gate/pre", func() {
		It("rejects bodies missing required fields", func() {
			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/v1/gate/pre", map[string]any{
				"arguments": map[string]any{},
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns a rejection as HTTP 200 protocol payload", func() {
			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/v1/gate/pre", api.PreRequest{
				ToolName:  "write",
				SessionID: "sess-1",
				Arguments: map[string]any{"path": "src/auth/login.go", "content": "x"},
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var rej gatekeeper.Rejection
			decode(resp, &rej)
			Expect(rej.Error).To(Equal("BLOCKED"))
			Expect(rej.Code).To(Equal(gatekeeper.CodeNoIntent))
			Expect(rej.Suggestion).To(ContainSubstring("select_intent"))
		})

		It("returns a decision for a permitted call", func() {
			selectIntent("sess-1", "INT-001", server)

			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/v1/gate/pre", api.PreRequest{
				ToolName:  "write",
				SessionID: "sess-1",
				Arguments: map[string]any{"path": "src/auth/login.go", "content": "x"},
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var decision gatekeeper.Decision
			decode(resp, &decision)
			Expect(decision.Allowed).To(BeTrue())
		})
	})

	Describe("POST /v1/gate/post", func() {
		It("schedules the audit job and returns 202", func() {
			selectIntent("sess-1", "INT-001", server)

			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/v1/gate/post", api.PostRequest{
				ToolName:       "write",
				SessionID:      "sess-1",
				Arguments:      map[string]any{"path": "src/auth/login.go"},
				WrittenContent: "package auth\n",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			gate.Close()
			Expect(traces.Len()).To(Equal(1))
		})
	})

	Describe("session intent endpoints", func() {
		It("selects, clears, and aborts", func() {
			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/v1/sessions/sess-1/intent", api.SelectIntentRequest{
				IntentID: "INT-001",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out api.SelectIntentResponse
			decode(resp, &out)
			Expect(out.IntentID).To(Equal("INT-001"))
			Expect(out.Context).To(ContainSubstring("<active-intent>"))

			resp, err = server.App().Test(httptest.NewRequest(http.MethodDelete, "/v1/sessions/sess-1/intent", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			_, ok := sessions.ActiveIntent("sess-1")
			Expect(ok).To(BeFalse())

			resp, err = server.App().Test(httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/abort", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(sessions.Aborted("sess-1")).To(BeTrue())
		})

		It("returns the rejection payload for an unknown intent", func() {
			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/v1/sessions/sess-1/intent", api.SelectIntentRequest{
				IntentID: "INT-999",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var rej gatekeeper.Rejection
			decode(resp, &rej)
			Expect(rej.Code).To(Equal(gatekeeper.CodeIntentNotFound))
			Expect(rej.Reason).To(ContainSubstring("INT-001"))
		})
	})

	Describe("intent endpoints", func() {
		It("lists the registry", func() {
			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/v1/intents", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var reg intent.Registry
			decode(resp, &reg)
			Expect(reg.Intents).To(HaveLen(2))
		})

		It("fetches one intent and 404s on unknown ids", func() {
			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/v1/intents/INT-001", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var in intent.Intent
			decode(resp, &in)
			Expect(in.ID).To(Equal("INT-001"))

			resp, err = server.App().Test(httptest.NewRequest(http.MethodGet, "/v1/intents/INT-404", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("trace endpoints", func() {
		BeforeEach(func() {
			Expect(traces.Append(context.Background(), &trace.Record{
				ID: "rec-1",
				Files: []trace.File{{
					Path: "src/auth/login.go",
					Conversations: []trace.Conversation{{
						URL:     "sess-1",
						Related: []trace.Related{{Type: trace.RelatedIntent, ID: "INT-001"}},
					}},
				}},
			})).To(Succeed())
		})

		It("queries with filters", func() {
			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/v1/traces?intent_id=INT-001", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out struct {
				Records []*trace.Record `json:"records"`
				Count   int             `json:"count"`
			}
			decode(resp, &out)
			Expect(out.Count).To(Equal(1))
			Expect(out.Records[0].ID).To(Equal("rec-1"))
		})

		It("rejects malformed paging parameters", func() {
			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/v1/traces?limit=many", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("fetches one record by id and 404s on unknown ids", func() {
			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/v1/traces/rec-1", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, err = server.App().Test(httptest.NewRequest(http.MethodGet, "/v1/traces/rec-404", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})

// selectIntent declares the intent over the HTTP surface so tests drive
// the same path an agent runtime would.
func selectIntent(sessionID, intentID string, server *api.Server) {
	body, err := json.Marshal(api.SelectIntentRequest{IntentID: intentID})
	Expect(err).NotTo(HaveOccurred())

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/intent", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req)
	Expect(err).NotTo(HaveOccurred())
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
}
