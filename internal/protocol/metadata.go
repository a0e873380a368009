package protocol

import "time"

// Priority is the frame's delivery priority hint.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// DeliveryMode is the frame's acknowledgement contract.
type DeliveryMode string

const (
	DeliveryAtMostOnce  DeliveryMode = "at_most_once"
	DeliveryAtLeastOnce DeliveryMode = "at_least_once"
	DeliveryExactlyOnce DeliveryMode = "exactly_once"
)

// Encoding selects the wire form of the payload.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// Defaults applied to metadata fields absent on decode.
const (
	DefaultPriority     = PriorityNormal
	DefaultDeliveryMode = DeliveryAtLeastOnce
	DefaultEncoding     = EncodingJSON
	DefaultMaxRetries   = 3
	DefaultVersion      = "1.0.0"
)

// Metadata describes one frame: identity, routing hints, and retry state.
// Unknown fields on decode are ignored (forward-compatible); fields absent
// on decode take the Default* values above.
type Metadata struct {
	ID            string            `json:"id" msgpack:"id"`
	MessageType   string            `json:"message_type" msgpack:"message_type"`
	Version       string            `json:"version" msgpack:"version"`
	TimestampMs   int64             `json:"timestamp" msgpack:"timestamp"`
	Priority      Priority          `json:"priority" msgpack:"priority"`
	DeliveryMode  DeliveryMode      `json:"delivery_mode" msgpack:"delivery_mode"`
	Encoding      Encoding          `json:"encoding" msgpack:"encoding"`
	CorrelationID string            `json:"correlation_id,omitempty" msgpack:"correlation_id,omitempty"`
	SessionID     string            `json:"session_id,omitempty" msgpack:"session_id,omitempty"`
	Headers       map[string]string `json:"headers" msgpack:"headers"`
	Tags          []string          `json:"tags" msgpack:"tags"`
	RetryCount    int               `json:"retry_count" msgpack:"retry_count"`
	MaxRetries    int               `json:"max_retries" msgpack:"max_retries"`
	TTLSeconds    int64             `json:"ttl_seconds,omitempty" msgpack:"ttl_seconds,omitempty"`
}

// applyDefaults fills in zero-valued fields with their defaults above.
// Called on decode so every in-memory Metadata is fully populated.
func (m *Metadata) applyDefaults() {
	if m.Priority == "" {
		m.Priority = DefaultPriority
	}
	if m.DeliveryMode == "" {
		m.DeliveryMode = DefaultDeliveryMode
	}
	if m.Encoding == "" {
		m.Encoding = DefaultEncoding
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	if m.MaxRetries == 0 {
		m.MaxRetries = DefaultMaxRetries
	}
	if m.Headers == nil {
		m.Headers = map[string]string{}
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
}

// NewMetadata builds a fully-populated Metadata for an outgoing frame of
// the given message type. id and timestamp are auto-filled.
func NewMetadata(messageType string) Metadata {
	m := Metadata{
		ID:           NewFrameID(),
		MessageType:  messageType,
		Version:      DefaultVersion,
		TimestampMs:  time.Now().UnixMilli(),
		Priority:     DefaultPriority,
		DeliveryMode: DefaultDeliveryMode,
		Encoding:     DefaultEncoding,
		Headers:      map[string]string{},
		Tags:         []string{},
		MaxRetries:   DefaultMaxRetries,
	}
	return m
}
