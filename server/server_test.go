package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	purchasex "github.com/kritsada/procure-agent/agent/agents/purchase"
	queryx "github.com/kritsada/procure-agent/agent/agents/query"
	classifyx "github.com/kritsada/procure-agent/agent/classify"
	coordinatorx "github.com/kritsada/procure-agent/agent/coordinator"
	knowledgex "github.com/kritsada/procure-agent/agent/knowledge"
	statex "github.com/kritsada/procure-agent/agent/state"
	mailgwx "github.com/kritsada/procure-agent/pkg/mailgw"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	knowledge := knowledgex.NewMemStore()
	if err := knowledgex.Seed(context.Background(), knowledge, knowledgex.DemoDocuments()); err != nil {
		t.Fatalf("seed knowledge: %v", err)
	}

	informer, err := queryx.New(knowledge)
	if err != nil {
		t.Fatalf("query.New() error = %v", err)
	}

	gateway, err := mailgwx.NewClient(mailgwx.Config{})
	if err != nil {
		t.Fatalf("mailgw.NewClient() error = %v", err)
	}
	purchaser, err := purchasex.New(purchasex.Config{}, gateway)
	if err != nil {
		t.Fatalf("purchase.New() error = %v", err)
	}

	coordinator, err := coordinatorx.New(statex.NewMemoryStore(), classifyx.NewRules(), informer, purchaser)
	if err != nil {
		t.Fatalf("coordinator.New() error = %v", err)
	}

	handler, err := New(coordinator)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}

	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) (*http.Response, map[string]string) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateSessionAndConverse(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, created := postJSON(t, srv.URL+"/api/sessions", map[string]string{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d, want 201", resp.StatusCode)
	}
	sessionID := created["session_id"]
	if sessionID == "" {
		t.Fatal("missing session_id")
	}

	resp, reply := postJSON(t, srv.URL+"/api/sessions/"+sessionID+"/messages", map[string]string{
		"text": "what did Bob say about the brick delivery?",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("message status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(reply["reply"], "delayed") {
		t.Fatalf("reply = %q, want retrieved delay email", reply["reply"])
	}
	if reply["session_id"] != sessionID {
		t.Fatalf("session_id = %q, want %q", reply["session_id"], sessionID)
	}
}

func TestMessageValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/sessions/s1/messages", map[string]string{"text": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] == "" {
		t.Fatal("expected error message")
	}
}

func TestMalformedBody(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/sessions/s1/messages", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFullOrderOverHTTP(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	send := func(text string) string {
		t.Helper()
		resp, body := postJSON(t, srv.URL+"/api/sessions/http-order/messages", map[string]string{"text": text})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d for %q", resp.StatusCode, text)
		}
		return body["reply"]
	}

	send("order 100 pieces of lumber")
	draft := send("charlie@woodworks.com")
	if !strings.Contains(draft, "--- DRAFT EMAIL ---") {
		t.Fatalf("expected draft, got %q", draft)
	}

	final := send("yes")
	// No gateway configured in tests, so approval ends in the demo fallback.
	if !strings.Contains(final, "not connected") {
		t.Fatalf("expected demo fallback, got %q", final)
	}
}
