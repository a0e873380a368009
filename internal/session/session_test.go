package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/pori-tunnel/pori/internal/compressutil"
	"github.com/pori-tunnel/pori/internal/forwarder"
	"github.com/pori-tunnel/pori/internal/protocol"
	"github.com/pori-tunnel/pori/internal/stats"
)

func newTestSession(t *testing.T, baseURL string) *Session {
	t.Helper()
	fwd, err := forwarder.New(forwarder.Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("forwarder.New: %v", err)
	}
	writerCtx, writerCancel := context.WithCancel(context.Background())
	t.Cleanup(writerCancel)
	return &Session{
		cfg:          Config{ClientID: "client-1", TunnelID: "tun-1"},
		deps:         Deps{Forwarder: fwd, Counters: stats.New(), Bus: stats.NewBus()},
		writeCh:      make(chan *protocol.Frame, 16),
		writerCtx:    writerCtx,
		writerCancel: writerCancel,
		inFlight:     xsync.NewMap[string, context.CancelFunc](),
	}
}

func TestDispatch_HTTPRequest_ProducesMatchingResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	reqFrame := protocol.NewHTTPRequestFrame(s.envelope(), &protocol.HTTPRequest{
		Method: "GET", URL: "/ping", Headers: map[string]string{"accept": "*/*"}, RequestID: "R1",
	})

	fatal, err := s.dispatch(context.Background(), reqFrame)
	if fatal || err != nil {
		t.Fatalf("expected non-fatal dispatch, got fatal=%v err=%v", fatal, err)
	}

	select {
	case resp := <-s.writeCh:
		respPayload, ok := resp.Message.Payload.(*protocol.HTTPResponse)
		if !ok {
			t.Fatalf("expected *HTTPResponse, got %T", resp.Message.Payload)
		}
		if respPayload.RequestID != "R1" {
			t.Fatalf("expected requestId R1, got %q", respPayload.RequestID)
		}
		if respPayload.Status != http.StatusOK || string(respPayload.Body) != "pong" {
			t.Fatalf("unexpected response: %+v", respPayload)
		}
		if resp.Message.Metadata.CorrelationID != reqFrame.Message.Metadata.ID {
			t.Fatalf("expected response correlated to request frame id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response frame")
	}

	snap := s.deps.Counters.Snapshot()
	if snap.RequestsSuccessful != 1 {
		t.Fatalf("expected 1 successful request, got %+v", snap)
	}
}

func TestDispatch_HTTPRequest_SynthesizesFailureResponse(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	reqFrame := protocol.NewHTTPRequestFrame(s.envelope(), &protocol.HTTPRequest{
		Method: "GET", URL: "/", RequestID: "R2",
	})

	_, err := s.dispatch(context.Background(), reqFrame)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}

	select {
	case resp := <-s.writeCh:
		respPayload := resp.Message.Payload.(*protocol.HTTPResponse)
		if respPayload.RequestID != "R2" {
			t.Fatalf("expected requestId R2, got %q", respPayload.RequestID)
		}
		if respPayload.Status < 500 {
			t.Fatalf("expected a synthesized 5xx, got %d", respPayload.Status)
		}
		if respPayload.Headers["content-type"] != "text/html; charset=utf-8" {
			t.Fatalf("expected html content type, got %q", respPayload.Headers["content-type"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for synthesized response frame")
	}
}

func TestDispatch_AuthFailure_IsFatal(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	frame := &protocol.Frame{
		Envelope: s.envelope(),
		Message: protocol.Message{
			Metadata: protocol.NewMetadata("Auth.Failure"),
			Payload:  &protocol.AuthFailure{Code: "BAD_TOKEN", Message: "token rejected"},
		},
	}
	fatal, err := s.dispatch(context.Background(), frame)
	if !fatal || err == nil {
		t.Fatalf("expected fatal auth failure, got fatal=%v err=%v", fatal, err)
	}
}

func TestDispatch_ErrorWithRelatedID_IncrementsFailedCount(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	frame := &protocol.Frame{
		Envelope: s.envelope(),
		Message: protocol.Message{
			Metadata: protocol.NewMetadata("Error"),
			Payload:  &protocol.Error{Code: "X", Message: "boom", RelatedID: "R9"},
		},
	}
	fatal, err := s.dispatch(context.Background(), frame)
	if fatal || err != nil {
		t.Fatalf("expected non-fatal dispatch, got fatal=%v err=%v", fatal, err)
	}
	if s.deps.Counters.Snapshot().RequestsFailed != 1 {
		t.Fatalf("expected requestsFailed=1")
	}
}

func TestDispatch_ControlPing_NoOp(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	frame := &protocol.Frame{
		Envelope: s.envelope(),
		Message: protocol.Message{
			Metadata: protocol.NewMetadata("Control.Ping"),
			Payload:  &protocol.Control{ControlKind: protocol.ControlPing},
		},
	}
	fatal, err := s.dispatch(context.Background(), frame)
	if fatal || err != nil {
		t.Fatalf("expected no-op, got fatal=%v err=%v", fatal, err)
	}
}

func TestEncodeFrame_NoCompression_PicksEncodingFromMetadata(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	frame := protocol.NewHTTPRequestFrame(s.envelope(), &protocol.HTTPRequest{Method: "GET", URL: "/", RequestID: "r"})

	data, typ, err := s.encodeFrame(frame)
	if err != nil {
		t.Fatalf("encodeFrame: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("expected text message for default JSON encoding, got %v", typ)
	}
	if string(data[0]) != "{" {
		t.Fatalf("expected JSON object, got %q", data)
	}
}

func TestEncodeFrame_Compression_RoundTrips(t *testing.T) {
	s := newTestSession(t, "http://127.0.0.1:1")
	s.cfg.Compression = compressutil.Gzip
	frame := protocol.NewHTTPRequestFrame(s.envelope(), &protocol.HTTPRequest{
		Method: "GET", URL: "/widgets", RequestID: "r1",
	})

	data, typ, err := s.encodeFrame(frame)
	if err != nil {
		t.Fatalf("encodeFrame: %v", err)
	}
	if typ != websocket.MessageBinary {
		t.Fatalf("expected binary message when compressing, got %v", typ)
	}

	raw, err := compressutil.Decompress(compressutil.Gzip, data)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	decoded, err := protocol.DecodeBinary(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	req, ok := decoded.Message.Payload.(*protocol.HTTPRequest)
	if !ok || req.RequestID != "r1" {
		t.Fatalf("expected round-tripped HTTPRequest r1, got %+v", decoded.Message.Payload)
	}
	if decoded.Envelope.Compression != string(compressutil.Gzip) {
		t.Fatalf("expected envelope to record compression algorithm, got %q", decoded.Envelope.Compression)
	}
}

func TestBuildHandshakeURL_AppendsToken(t *testing.T) {
	got, err := buildHandshakeURL("wss://example.com/tunnel", "secret")
	if err != nil {
		t.Fatalf("buildHandshakeURL: %v", err)
	}
	want := "wss://example.com/tunnel?token=secret"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
