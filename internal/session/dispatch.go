package session

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pori-tunnel/pori/internal/protocol"
	"github.com/pori-tunnel/pori/internal/stats"
)

// dispatch routes one decoded incoming frame per the session's dispatch
// table. fatal reports whether the session must terminate (non-recoverable
// auth failure); err carries the reason when fatal.
func (s *Session) dispatch(ctx context.Context, frame *protocol.Frame) (fatal bool, err error) {
	switch p := frame.Message.Payload.(type) {
	case *protocol.HTTPRequest:
		s.handleHTTPRequest(ctx, frame, p)
		return false, nil
	case *protocol.HTTPResponse:
		log.Printf("session: dropping unexpected Http.Response for request %s", p.RequestID)
		return false, nil
	case *protocol.AuthSuccess:
		s.setStatus(stats.StatusConnected)
		return false, nil
	case *protocol.AuthFailure:
		return true, fmt.Errorf("session: auth failure: %s (%s)", p.Message, p.Code)
	case *protocol.Control:
		s.handleControl(p)
		return false, nil
	case *protocol.Error:
		s.handleError(p)
		return false, nil
	case *protocol.Stats:
		log.Printf("session: ignoring Stats payload")
		return false, nil
	case *protocol.Stream:
		log.Printf("session: ignoring Stream payload")
		return false, nil
	case *protocol.Custom:
		log.Printf("session: ignoring Custom payload")
		return false, nil
	default:
		log.Printf("session: ignoring unknown payload type %T", p)
		return false, nil
	}
}

// handleHTTPRequest spawns an independent task to forward req to the local
// origin; request processing never blocks the read loop.
func (s *Session) handleHTTPRequest(ctx context.Context, frame *protocol.Frame, req *protocol.HTTPRequest) {
	if s.deps.Dedupe != nil && frame.Message.Metadata.DeliveryMode != protocol.DeliveryAtMostOnce {
		if s.deps.Dedupe.SeenBefore(frame.Message.Metadata.ID) {
			log.Printf("session: retransmit detected for frame %s", frame.Message.Metadata.ID)
		}
	}

	reqCtx, cancel := context.WithCancel(s.writerCtx)
	if s.cfg.RequestTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(reqCtx, s.cfg.RequestTimeout)
	}
	s.inFlight.Store(req.RequestID, cancel)

	go func() {
		defer func() {
			s.inFlight.Delete(req.RequestID)
			cancel()
		}()

		if s.deps.Bus != nil {
			s.deps.Bus.Publish(stats.RequestForwardedEvent{Line: fmt.Sprintf("%s %s", req.Method, req.URL)})
		}
		if s.deps.Counters != nil {
			s.deps.Counters.RequestStarted()
		}

		start := time.Now()
		resp := s.forward(reqCtx, req)
		elapsed := time.Since(start)

		success := resp.Status < 400
		if s.deps.Counters != nil {
			s.deps.Counters.RequestFinished(success, float64(elapsed.Milliseconds()), len(resp.Body))
		}
		if s.deps.Bus != nil {
			s.deps.Bus.Publish(stats.ResponseReceivedEvent{Status: resp.Status, BodyLen: len(resp.Body)})
		}

		responseFrame := protocol.NewHTTPResponseFrame(s.envelope(), resp, frame.Message.Metadata.ID)
		if err := s.Send(responseFrame); err != nil {
			log.Printf("session: failed to send response for %s: %v", req.RequestID, err)
		}
	}()
}

// forward calls the local forwarder and converts any Failure into a
// synthesized HTTPResponse per the taxonomy in the error handling design.
func (s *Session) forward(ctx context.Context, req *protocol.HTTPRequest) *protocol.HTTPResponse {
	if s.deps.Forwarder == nil {
		return synthesizeResponse(req.RequestID, http.StatusInternalServerError, "no forwarder configured")
	}

	resp, failure := s.deps.Forwarder.Forward(ctx, req)
	if failure == nil {
		return resp
	}

	log.Printf("session: forward failed for %s: %v", req.RequestID, failure)
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(stats.ErrorEvent{Message: failure.Error()})
	}
	return synthesizeFailureResponse(req.RequestID, failure)
}

func (s *Session) handleControl(c *protocol.Control) {
	switch c.ControlKind {
	case protocol.ControlPing, protocol.ControlPong:
		// App-level ping/pong is a no-op in this deployment; the
		// WebSocket transport's own ping/pong handles liveness.
	case protocol.ControlStatus:
		log.Printf("session: control status: %s", c.State)
		if s.deps.Bus != nil {
			s.deps.Bus.Publish(stats.ConnectionStatusEvent{State: stats.ConnectionStatus(c.State)})
		}
	case protocol.ControlShutdown:
		log.Printf("session: server requested shutdown: %s", c.Reason)
	default:
		log.Printf("session: unknown control kind %q", c.ControlKind)
	}
}

func (s *Session) handleError(e *protocol.Error) {
	log.Printf("session: error frame: %s (%s)", e.Message, e.Code)
	if e.RelatedID != "" && s.deps.Counters != nil {
		s.deps.Counters.RequestFailed()
	}
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(stats.ErrorEvent{Message: e.Message})
	}
}
