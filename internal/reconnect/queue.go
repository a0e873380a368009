package reconnect

import (
	"sync"

	"github.com/pori-tunnel/pori/internal/protocol"
)

// OutboundQueue is an unbounded FIFO of frames awaiting a live session. Not
// persisted: a process restart discards anything still queued.
type OutboundQueue struct {
	mu    sync.Mutex
	items []*protocol.Frame
}

// NewOutboundQueue returns an empty queue.
func NewOutboundQueue() *OutboundQueue {
	return &OutboundQueue{}
}

// Enqueue appends frame to the tail of the queue.
func (q *OutboundQueue) Enqueue(frame *protocol.Frame) {
	q.mu.Lock()
	q.items = append(q.items, frame)
	q.mu.Unlock()
}

// Len reports the number of queued frames.
func (q *OutboundQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// DrainAll removes and returns every queued frame, in FIFO order.
func (q *OutboundQueue) DrainAll() []*protocol.Frame {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}
