// Package stats holds the process-wide StatsCounters and the dashboard
// event bus shared by every tunnel component.
package stats

import (
	"sync"
	"sync/atomic"
)

// ConnectionStatus mirrors the reconnect supervisor's externally visible
// state.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusReconnecting ConnectionStatus = "reconnecting"
	StatusError        ConnectionStatus = "error"
)

// Snapshot is a consistent point-in-time copy of Counters, safe to read
// without further synchronization.
type Snapshot struct {
	RequestsProcessed  int64
	RequestsSuccessful int64
	RequestsFailed     int64
	BytesForwarded     int64
	AvgResponseMs      float64
	ActiveRequests     int64
	Reconnects         int64
	ConnectionStatus   ConnectionStatus
}

// Counters is the process-wide StatsCounters record. Per-counter fields use
// atomics; ConnectionStatus and the running average use a short exclusive
// lock, since an average update reads-then-writes two related fields.
type Counters struct {
	requestsProcessed  atomic.Int64
	requestsSuccessful atomic.Int64
	requestsFailed     atomic.Int64
	bytesForwarded     atomic.Int64
	activeRequests     atomic.Int64
	reconnects         atomic.Int64

	mu               sync.Mutex
	avgResponseMs    float64
	responseSamples  int64
	connectionStatus ConnectionStatus
}

// New returns a zeroed Counters with ConnectionStatus=disconnected.
func New() *Counters {
	return &Counters{connectionStatus: StatusDisconnected}
}

// RequestStarted records a forward attempt beginning.
func (c *Counters) RequestStarted() {
	c.requestsProcessed.Add(1)
	c.activeRequests.Add(1)
}

// RequestFinished records a forward attempt ending, updating the success
// counters, running average response time, and bytes-forwarded total.
func (c *Counters) RequestFinished(success bool, responseMs float64, bodyBytes int) {
	c.activeRequests.Add(-1)
	if success {
		c.requestsSuccessful.Add(1)
	} else {
		c.requestsFailed.Add(1)
	}
	c.bytesForwarded.Add(int64(bodyBytes))

	c.mu.Lock()
	c.responseSamples++
	c.avgResponseMs += (responseMs - c.avgResponseMs) / float64(c.responseSamples)
	c.mu.Unlock()
}

// RequestFailed increments requestsFailed without a completed forward
// attempt (e.g. a protocol-level Error frame referencing a relatedId).
func (c *Counters) RequestFailed() {
	c.requestsFailed.Add(1)
}

// ReconnectAttempted increments the reconnect counter.
func (c *Counters) ReconnectAttempted() {
	c.reconnects.Add(1)
}

// SetConnectionStatus updates the connection status field.
func (c *Counters) SetConnectionStatus(s ConnectionStatus) {
	c.mu.Lock()
	c.connectionStatus = s
	c.mu.Unlock()
}

// Snapshot returns a consistent copy of all counters.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	avg := c.avgResponseMs
	status := c.connectionStatus
	c.mu.Unlock()

	return Snapshot{
		RequestsProcessed:  c.requestsProcessed.Load(),
		RequestsSuccessful: c.requestsSuccessful.Load(),
		RequestsFailed:     c.requestsFailed.Load(),
		BytesForwarded:     c.bytesForwarded.Load(),
		AvgResponseMs:      avg,
		ActiveRequests:     c.activeRequests.Load(),
		Reconnects:         c.reconnects.Load(),
		ConnectionStatus:   status,
	}
}
