// Package reconnect implements the reconnect supervisor (C4): it owns the
// lifecycle of tunnel sessions, applies the backoff policy between
// attempts, and buffers outbound frames while no session is live.
package reconnect

import (
	"context"
	"log"
	"time"

	"github.com/pori-tunnel/pori/internal/protocol"
	"github.com/pori-tunnel/pori/internal/stats"
)

// SessionHandle is the supervisor's view of a live tunnel session. The
// concrete implementation lives in the session package; reconnect only
// depends on this interface to avoid an import cycle.
type SessionHandle interface {
	// Send queues frame for the session's writer task. Used to drain the
	// outbound queue before the session starts reading, and for any
	// send that arrives while the session is live.
	Send(frame *protocol.Frame) error
	// Run blocks until the session terminates. authenticated reports
	// whether the session ever reached the Authenticated state.
	// recoverable reports whether the supervisor should back off and
	// retry (true) or stop entirely (false, e.g. auth failure).
	Run(ctx context.Context) (authenticated bool, recoverable bool, err error)
	Close()
}

// Dialer opens a new tunnel session. Implemented by *session.Session's
// package-level constructor in production; swappable in tests.
type Dialer func(ctx context.Context) (SessionHandle, error)

// Config configures a Supervisor.
type Config struct {
	Dial       Dialer
	Policy     Policy
	MaxAttempts uint // 0 = unbounded
	Counters   *stats.Counters
	Bus        *stats.Bus
}

// Supervisor drives the reconnect state machine described in the spec's
// component design: Idle -> Connecting -> Authenticating -> Authenticated,
// with a Backoff loop on recoverable failure and a Terminated exit on
// fatal failure or attempt exhaustion.
type Supervisor struct {
	dial        Dialer
	policy      Policy
	maxAttempts uint
	counters    *stats.Counters
	bus         *stats.Bus

	queue   *OutboundQueue
	attempt uint
}

// NewSupervisor builds a Supervisor. If cfg.Policy is nil, DefaultPolicy()
// is used.
func NewSupervisor(cfg Config) *Supervisor {
	policy := cfg.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Supervisor{
		dial:        cfg.Dial,
		policy:      policy,
		maxAttempts: cfg.MaxAttempts,
		counters:    cfg.Counters,
		bus:         cfg.Bus,
		queue:       NewOutboundQueue(),
	}
}

// Send appends frame to the outbound queue, which Run drains into the next
// session it dials. Frames are never handed to a session that is already
// live: one sent while a session runs waits for the following session.
// Callers outside a session (rare, per spec) use this entry point.
func (s *Supervisor) Send(frame *protocol.Frame) {
	s.queue.Enqueue(frame)
}

// Run drives the supervisor loop until ctx is cancelled or a fatal failure
// or attempt-exhaustion occurs. It returns the terminal ConnectionStatus.
func (s *Supervisor) Run(ctx context.Context) stats.ConnectionStatus {
	for {
		if ctx.Err() != nil {
			s.setStatus(stats.StatusDisconnected)
			return stats.StatusDisconnected
		}
		if s.maxAttempts > 0 && s.attempt >= s.maxAttempts {
			s.setStatus(stats.StatusDisconnected)
			return stats.StatusDisconnected
		}

		s.setStatus(stats.StatusConnecting)
		session, err := s.dial(ctx)
		if err != nil {
			if !s.backoffAndContinue(ctx) {
				s.setStatus(stats.StatusDisconnected)
				return stats.StatusDisconnected
			}
			continue
		}

		for _, frame := range s.queue.DrainAll() {
			if sendErr := session.Send(frame); sendErr != nil {
				log.Printf("reconnect: failed to drain queued frame: %v", sendErr)
				break
			}
		}

		authenticated, recoverable, runErr := session.Run(ctx)
		session.Close()

		if authenticated {
			s.setStatus(stats.StatusConnected)
			// Supplemented behavior: the attempt counter only resets after a
			// session actually reached Authenticated, not merely on dial
			// success, so a server that accepts TCP/WS but never
			// authenticates does not reset backoff.
			s.attempt = 0
		}

		if runErr != nil {
			s.emitError(runErr)
		}

		if ctx.Err() != nil {
			s.setStatus(stats.StatusDisconnected)
			return stats.StatusDisconnected
		}

		if !recoverable {
			s.setStatus(stats.StatusError)
			return stats.StatusError
		}

		if !s.backoffAndContinue(ctx) {
			s.setStatus(stats.StatusDisconnected)
			return stats.StatusDisconnected
		}
	}
}

// backoffAndContinue sleeps the policy's delay for the current attempt,
// incrementing the attempt counter, and reports whether the caller should
// loop again (false if ctx was cancelled mid-sleep).
func (s *Supervisor) backoffAndContinue(ctx context.Context) bool {
	if s.counters != nil {
		s.counters.ReconnectAttempted()
	}
	delay := s.policy.Delay(s.attempt)
	s.attempt++
	s.setStatus(stats.StatusReconnecting)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Supervisor) setStatus(status stats.ConnectionStatus) {
	if s.counters != nil {
		s.counters.SetConnectionStatus(status)
	}
	if s.bus != nil {
		s.bus.Publish(stats.ConnectionStatusEvent{State: status})
	}
}

func (s *Supervisor) emitError(err error) {
	log.Printf("reconnect: session terminated: %v", err)
	if s.bus != nil {
		s.bus.Publish(stats.ErrorEvent{Message: err.Error()})
	}
}

// Attempt returns the current attempt counter, for tests/diagnostics.
func (s *Supervisor) Attempt() uint { return s.attempt }

// QueueLen returns the number of frames currently buffered awaiting a live
// session, for tests/diagnostics.
func (s *Supervisor) QueueLen() int { return s.queue.Len() }
