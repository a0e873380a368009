package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pori-tunnel/pori/internal/config"
	"github.com/pori-tunnel/pori/internal/stats"
)

func newTestServer(t *testing.T) (*Server, *stats.Bus) {
	t.Helper()
	bus := stats.NewBus()
	opts := config.Default()
	opts.URL, opts.Token = "ws://example.com", "secret-token"

	reconnected := false
	s := New(Config{
		Port:        0,
		BearerToken: "secret-token",
		Counters:    stats.New(),
		Bus:         bus,
		Options:     &opts,
		Reconnect:   func() { reconnected = true },
		Shutdown:    func() {},
	})
	_ = reconnected
	return s, bus
}

func TestHandleStatus_RequiresBearerToken(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestHandleStatus_WithToken(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleConfig_RedactsToken(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	options, ok := body["options"].(map[string]any)
	if !ok {
		t.Fatalf("expected options object, got %v", body["options"])
	}
	if options["token"] != "***" {
		t.Fatalf("expected redacted token, got %v", options["token"])
	}
	if body["version"] == nil || body["version"] == "" {
		t.Fatalf("expected version to be set, got %v", body["version"])
	}
}

func TestHandleReconnect_InvokesCallback(t *testing.T) {
	bus := stats.NewBus()
	opts := config.Default()
	opts.URL, opts.Token = "ws://example.com", "secret-token"
	called := make(chan struct{}, 1)
	s := New(Config{
		BearerToken: "secret-token",
		Counters:    stats.New(),
		Bus:         bus,
		Options:     &opts,
		Reconnect:   func() { called <- struct{}{} },
		Shutdown:    func() {},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/reconnect", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	select {
	case <-called:
	default:
		t.Fatal("expected reconnect callback to be invoked")
	}
}

func TestConsumeEvents_UpdatesStatus(t *testing.T) {
	s, bus := newTestServer(t)
	go s.consumeEvents()
	bus.Publish(stats.ConnectionStatusEvent{State: stats.StatusConnected})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret-token")

	var lastBody string
	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		s.httpServer.Handler.ServeHTTP(rec, req)
		lastBody = rec.Body.String()
		if rec.Code == http.StatusOK && contains(lastBody, `"connectionStatus":"connected"`) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected status to become connected, last body: %s", lastBody)
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
