package reconnect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pori-tunnel/pori/internal/protocol"
	"github.com/pori-tunnel/pori/internal/stats"
)

type fakeSession struct {
	authenticated bool
	recoverable   bool
	err           error
	sent          *[]*protocol.Frame
}

func (f *fakeSession) Send(frame *protocol.Frame) error {
	*f.sent = append(*f.sent, frame)
	return nil
}

func (f *fakeSession) Run(ctx context.Context) (bool, bool, error) {
	return f.authenticated, f.recoverable, f.err
}

func (f *fakeSession) Close() {}

func TestSupervisor_DrainsQueueInFIFOOrder(t *testing.T) {
	var sent []*protocol.Frame
	dialCount := 0

	dial := func(ctx context.Context) (SessionHandle, error) {
		dialCount++
		if dialCount == 1 {
			return &fakeSession{authenticated: false, recoverable: false, err: nil, sent: &sent}, nil
		}
		return nil, errors.New("should not dial again")
	}

	sup := NewSupervisor(Config{Dial: dial, Policy: Fixed{Delay_: 0}, Counters: stats.New(), Bus: stats.NewBus()})

	envA := envelopeFrame("A")
	envB := envelopeFrame("B")
	envC := envelopeFrame("C")
	sup.Send(envA)
	sup.Send(envB)
	sup.Send(envC)

	sup.Run(context.Background())

	if len(sent) != 3 {
		t.Fatalf("expected 3 frames sent, got %d", len(sent))
	}
	if sent[0] != envA || sent[1] != envB || sent[2] != envC {
		t.Fatalf("expected FIFO order A,B,C, got %v,%v,%v", sent[0], sent[1], sent[2])
	}
}

func TestSupervisor_AttemptResetsOnlyAfterAuthenticated(t *testing.T) {
	var sent []*protocol.Frame
	calls := 0

	dial := func(ctx context.Context) (SessionHandle, error) {
		calls++
		switch calls {
		case 1:
			// Dial succeeds but never authenticates: recoverable failure.
			return &fakeSession{authenticated: false, recoverable: true, err: errors.New("handshake dropped"), sent: &sent}, nil
		case 2:
			// Authenticates, then a recoverable disconnect.
			return &fakeSession{authenticated: true, recoverable: true, err: errors.New("server closed"), sent: &sent}, nil
		default:
			return nil, errors.New("stop")
		}
	}

	sup := NewSupervisor(Config{Dial: dial, Policy: Fixed{Delay_: 0}, MaxAttempts: 3, Counters: stats.New(), Bus: stats.NewBus()})
	sup.Run(context.Background())

	// dial#1 fails unauthenticated -> attempt 0->1. dial#2 authenticates,
	// then disconnects -> attempt resets to 0 before the post-disconnect
	// backoff increments it back to 1. dial#3 and dial#4 then fail to dial
	// at all, incrementing attempt to 2 then 3, at which point MaxAttempts
	// is reached and the supervisor stops.
	if sup.Attempt() != 3 {
		t.Fatalf("expected attempt counter 3 after sequence, got %d", sup.Attempt())
	}
	// Without the reset, attempt would reach 3 after dial#3 and dial#4
	// would never happen.
	if calls != 4 {
		t.Fatalf("expected 4 dials (attempt reset after authenticated session), got %d", calls)
	}
}

func envelopeFrame(id string) *protocol.Frame {
	return protocol.NewPingFrame(protocol.Envelope{TunnelID: "t", ClientID: id})
}
