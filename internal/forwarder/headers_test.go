package forwarder

import (
	"net/http"
	"testing"
)

func TestSanitizeRequestHeaders_StripsHopByHop(t *testing.T) {
	h := http.Header{}
	h.Set("Host", "evil.example")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade", "websocket")
	h.Set("Proxy-Connection", "keep-alive")
	h.Set("Proxy-Authorization", "Basic xyz")
	h.Set("Te", "trailers")
	h.Set("Trailers", "x")
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Content-Length", "10")
	h.Set("Accept", "*/*")

	sanitizeRequestHeaders(h)

	for _, name := range strippedRequestHeaders {
		if h.Get(name) != "" {
			t.Errorf("expected %q stripped, still present: %q", name, h.Get(name))
		}
	}
	if h.Get("Accept") != "*/*" {
		t.Errorf("expected Accept preserved, got %q", h.Get("Accept"))
	}
}

func TestSanitizeResponseHeaders_StripsIdentityAndForwarded(t *testing.T) {
	h := http.Header{}
	h.Set("Server", "nginx")
	h.Set("X-Powered-By", "Express")
	h.Set("X-Request-Id", "abc")
	h.Set("X-Forwarded-Host", "internal.local")
	h.Set("Content-Type", "text/plain")

	sanitizeResponseHeaders(h)

	if h.Get("Server") != "" || h.Get("X-Powered-By") != "" || h.Get("X-Request-Id") != "" || h.Get("X-Forwarded-Host") != "" {
		t.Fatalf("expected identity headers stripped, got %v", h)
	}
	if h.Get("Content-Type") != "text/plain" {
		t.Fatalf("expected Content-Type preserved, got %q", h.Get("Content-Type"))
	}
}

func TestFlattenAndExpandHeaders_RoundTrip(t *testing.T) {
	h := http.Header{}
	h.Set("X-Foo", "bar")
	flat := flattenHeaders(h)
	if flat["X-Foo"] != "bar" {
		t.Fatalf("expected flattened bar, got %q", flat["X-Foo"])
	}
	expanded := expandHeaders(flat)
	if expanded.Get("X-Foo") != "bar" {
		t.Fatalf("expected round-tripped bar, got %q", expanded.Get("X-Foo"))
	}
}
