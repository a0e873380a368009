// Package session implements the tunnel session (C3): it owns one
// WebSocket connection, authenticates, dispatches incoming frames to the
// local forwarder, and serializes outgoing frames back onto the socket.
package session

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/pori-tunnel/pori/internal/compressutil"
	"github.com/pori-tunnel/pori/internal/dedupe"
	"github.com/pori-tunnel/pori/internal/forwarder"
	"github.com/pori-tunnel/pori/internal/protocol"
	"github.com/pori-tunnel/pori/internal/reconnect"
	"github.com/pori-tunnel/pori/internal/stats"
)

// Config configures a single session attempt.
type Config struct {
	URL              string // ws(s)://host[:port][/path], without token
	Token            string
	TunnelID         string
	ClientID         string
	ProtocolVersion  string
	Compression      compressutil.Algorithm // None disables frame compression
	HandshakeTimeout time.Duration
	RequestTimeout   time.Duration
}

// Deps are the session's collaborators, shared across reconnects.
type Deps struct {
	Forwarder *forwarder.Forwarder
	Counters  *stats.Counters
	Bus       *stats.Bus
	Dedupe    *dedupe.Cache // optional; nil disables duplicate suppression
}

// Session drives one live WebSocket connection end to end.
type Session struct {
	cfg  Config
	deps Deps

	conn *websocket.Conn

	writeCh      chan *protocol.Frame
	writerCtx    context.Context
	writerCancel context.CancelFunc

	closed atomic.Bool

	inFlight *xsync.Map[string, context.CancelFunc]
}

// NewDialer adapts Config/Deps into a reconnect.Dialer.
func NewDialer(cfg Config, deps Deps) reconnect.Dialer {
	return func(ctx context.Context) (reconnect.SessionHandle, error) {
		return dial(ctx, cfg, deps)
	}
}

func buildHandshakeURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("session: invalid websocket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func dial(ctx context.Context, cfg Config, deps Deps) (*Session, error) {
	handshakeURL, err := buildHandshakeURL(cfg.URL, cfg.Token)
	if err != nil {
		return nil, err
	}

	dialCtx := ctx
	var cancel context.CancelFunc = func() {}
	if cfg.HandshakeTimeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, cfg.HandshakeTimeout)
	}
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, handshakeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("session: handshake failed: %w", err)
	}

	writerCtx, writerCancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:          cfg,
		deps:         deps,
		conn:         conn,
		writeCh:      make(chan *protocol.Frame, 256),
		writerCtx:    writerCtx,
		writerCancel: writerCancel,
		inFlight:     xsync.NewMap[string, context.CancelFunc](),
	}
	go s.writerLoop()
	return s, nil
}

func (s *Session) envelope() protocol.Envelope {
	return protocol.Envelope{
		TunnelID:        s.cfg.TunnelID,
		ClientID:        s.cfg.ClientID,
		ProtocolVersion: s.cfg.ProtocolVersion,
		Compression:     string(s.cfg.Compression),
	}
}

// Send queues frame for the writer task. Safe for concurrent callers
// (outbound queue drain, forwarder tasks posting responses).
func (s *Session) Send(frame *protocol.Frame) error {
	if s.closed.Load() {
		return fmt.Errorf("session: closed")
	}
	select {
	case s.writeCh <- frame:
		return nil
	case <-s.writerCtx.Done():
		return fmt.Errorf("session: writer stopped")
	}
}

func (s *Session) writerLoop() {
	for {
		select {
		case frame, ok := <-s.writeCh:
			if !ok {
				return
			}
			data, typ, err := s.encodeFrame(frame)
			if err != nil {
				log.Printf("session: encode failed, dropping frame: %v", err)
				continue
			}
			if err := s.conn.Write(s.writerCtx, typ, data); err != nil {
				log.Printf("session: write failed: %v", err)
				return
			}
		case <-s.writerCtx.Done():
			return
		}
	}
}

// encodeFrame serializes frame per its metadata encoding, compressing the
// result with the session's configured algorithm when enabled. Compressed
// frames always go out as msgpack-encoded binary messages, since compressed
// bytes are not valid UTF-8 text and the receiver needs a fixed codec to
// decode into once it has decompressed.
func (s *Session) encodeFrame(frame *protocol.Frame) ([]byte, websocket.MessageType, error) {
	if s.cfg.Compression == compressutil.None {
		data, isBinary, err := protocol.Encode(frame)
		if err != nil {
			return nil, 0, err
		}
		if isBinary {
			return data, websocket.MessageBinary, nil
		}
		return data, websocket.MessageText, nil
	}

	raw, err := protocol.EncodeBinary(frame)
	if err != nil {
		return nil, 0, err
	}
	compressed, err := compressutil.Compress(s.cfg.Compression, raw)
	if err != nil {
		return nil, 0, err
	}
	return compressed, websocket.MessageBinary, nil
}

// Run blocks reading and dispatching frames until the connection closes,
// the context is cancelled, or a non-recoverable condition (auth failure)
// is reached.
func (s *Session) Run(ctx context.Context) (authenticated bool, recoverable bool, err error) {
	for {
		msgType, data, readErr := s.conn.Read(ctx)
		if readErr != nil {
			if ctx.Err() != nil {
				return authenticated, false, ctx.Err()
			}
			return authenticated, true, fmt.Errorf("session: read failed: %w", readErr)
		}

		if msgType == websocket.MessageText {
			if lm, ok := parseLegacyMessage(data); ok {
				switch lm.Type {
				case "auth":
					if lm.Status == "authenticated" {
						authenticated = true
						s.setStatus(stats.StatusConnected)
					}
					continue
				case "error":
					return authenticated, false, fmt.Errorf("session: auth rejected: %s", lm.Message)
				}
			}
		}

		isBinary := msgType == websocket.MessageBinary
		if isBinary && s.cfg.Compression != compressutil.None {
			decompressed, err := compressutil.Decompress(s.cfg.Compression, data)
			if err != nil {
				log.Printf("session: discarding undecompressable frame: %v", err)
				continue
			}
			data = decompressed
		}

		frame, decodeErr := protocol.Decode(data, isBinary)
		if decodeErr != nil {
			log.Printf("session: discarding unparseable frame: %v", decodeErr)
			continue
		}

		fatal, fatalErr := s.dispatch(ctx, frame)
		if fatal {
			if fatalErr != nil {
				return authenticated, false, fatalErr
			}
			return authenticated, false, nil
		}
		if frame.Message.Payload != nil {
			if _, ok := frame.Message.Payload.(*protocol.AuthSuccess); ok {
				authenticated = true
			}
		}
	}
}

// Close tears down the writer and the socket. Idempotent.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.inFlight.Range(func(id string, cancel context.CancelFunc) bool {
		cancel()
		return true
	})
	s.writerCancel()
	_ = s.conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Session) setStatus(status stats.ConnectionStatus) {
	if s.deps.Counters != nil {
		s.deps.Counters.SetConnectionStatus(status)
	}
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(stats.ConnectionStatusEvent{State: status})
	}
}
