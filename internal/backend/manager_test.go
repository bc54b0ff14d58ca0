package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crestline/mentor/internal/config"
)

type staticCreds map[string]string

func (c staticCreds) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c[key]
	if !ok {
		return nil, errors.New("no such credential")
	}
	return []byte(v), nil
}

func scriptBackendConfig(t *testing.T, id string) config.BackendConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), id+".js")
	src := `function enhance(capability, query) { return "` + id + `: " + query; }`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return config.BackendConfig{
		ID:         id,
		Transport:  "script",
		ScriptPath: path,
		Categories: []string{"general"},
	}
}

func TestManager_CallLazyStarts(t *testing.T) {
	m := NewManager([]config.BackendConfig{scriptBackendConfig(t, "sequential")}, nil, nil)
	defer m.Shutdown()

	if got := m.States()["sequential"]; got != StateStopped {
		t.Fatalf("state before first call = %s; want stopped", got)
	}

	content, err := m.Call(context.Background(), "sequential", "general", "hello")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(content) != "sequential: hello" {
		t.Errorf("content = %q; want sequential: hello", content)
	}

	if got := m.States()["sequential"]; got == StateStopped {
		t.Error("instance still stopped after a successful call")
	}
}

func TestManager_UnknownBackend(t *testing.T) {
	m := NewManager(nil, nil, nil)
	defer m.Shutdown()

	_, err := m.Call(context.Background(), "ghost", "general", "q")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v; want ErrUnknownBackend", err)
	}
}

func TestManager_RestartAfterStop(t *testing.T) {
	m := NewManager([]config.BackendConfig{scriptBackendConfig(t, "sequential")}, nil, nil)
	defer m.Shutdown()

	if _, err := m.Call(context.Background(), "sequential", "general", "one"); err != nil {
		t.Fatalf("first Call: %v", err)
	}

	// Simulate an idle-stop; the next call must transparently restart.
	m.Shutdown()

	content, err := m.Call(context.Background(), "sequential", "general", "two")
	if err != nil {
		t.Fatalf("Call after shutdown: %v", err)
	}
	if string(content) != "sequential: two" {
		t.Errorf("content = %q; want sequential: two", content)
	}
}

func TestManager_RateLimiterHonorsContext(t *testing.T) {
	cfg := scriptBackendConfig(t, "playwright")
	cfg.RatePerSec = 0.001 // effectively never refills
	cfg.Burst = 1
	m := NewManager([]config.BackendConfig{cfg}, nil, nil)
	defer m.Shutdown()

	// First call consumes the only token.
	if _, err := m.Call(context.Background(), "playwright", "general", "q"); err != nil {
		t.Fatalf("first Call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := m.Call(ctx, "playwright", "general", "q")
	if err == nil {
		t.Fatal("expected rate limit wait to fail on expired context")
	}
}

func TestManager_WarmUp(t *testing.T) {
	m := NewManager([]config.BackendConfig{
		scriptBackendConfig(t, "sequential"),
		scriptBackendConfig(t, "context7"),
	}, nil, nil)
	defer m.Shutdown()

	if err := m.WarmUp(context.Background(), []string{"sequential", "context7"}); err != nil {
		t.Fatalf("WarmUp: %v", err)
	}

	states := m.States()
	for _, id := range []string{"sequential", "context7"} {
		if states[id] == StateStopped {
			t.Errorf("backend %s still stopped after warm up", id)
		}
	}
}

func TestManager_HTTPBackendWithCredential(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req jsonRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		var params enhanceParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			t.Errorf("decode params: %v", err)
		}

		resp := jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  json.RawMessage(`{"content":"remote answer to ` + params.Query + `"}`),
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer srv.Close()

	m := NewManager([]config.BackendConfig{{
		ID:            "context7",
		Transport:     "http",
		URL:           srv.URL,
		Categories:    []string{"technical_lookup"},
		CredentialKey: "context7_token",
	}}, staticCreds{"context7_token": "tok-123"}, nil)
	defer m.Shutdown()

	content, err := m.Call(context.Background(), "context7", "technical_lookup", "react hooks")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(content) != "remote answer to react hooks" {
		t.Errorf("content = %q", content)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q; want Bearer tok-123", gotAuth)
	}
}

func TestManager_HTTPBackendRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := jsonRPCResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32000, Message: "upstream exploded"},
		}
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	defer srv.Close()

	m := NewManager([]config.BackendConfig{{
		ID:         "context7",
		Transport:  "http",
		URL:        srv.URL,
		Categories: []string{"technical_lookup"},
	}}, nil, nil)
	defer m.Shutdown()

	_, err := m.Call(context.Background(), "context7", "technical_lookup", "q")
	if err == nil {
		t.Fatal("expected rpc error to surface")
	}
}

func TestManager_MissingCredentialStore(t *testing.T) {
	m := NewManager([]config.BackendConfig{{
		ID:            "context7",
		Transport:     "http",
		URL:           "http://unused.invalid",
		Categories:    []string{"technical_lookup"},
		CredentialKey: "context7_token",
	}}, nil, nil)
	defer m.Shutdown()

	_, err := m.Call(context.Background(), "context7", "technical_lookup", "q")
	if err == nil {
		t.Fatal("expected error when credential store is absent")
	}
}

func TestExtractContent(t *testing.T) {
	got, err := extractContent(json.RawMessage(`{"content":"hello"}`))
	if err != nil || string(got) != "hello" {
		t.Fatalf("extractContent = %q, %v; want hello", got, err)
	}

	if _, err := extractContent(json.RawMessage(`{"content":""}`)); err == nil {
		t.Error("expected error for empty content")
	}
	if _, err := extractContent(json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for malformed result")
	}
}
