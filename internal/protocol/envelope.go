// Package protocol implements the tunnel wire codec: the envelope,
// metadata, and polymorphic payload that make up a TunnelFrame, plus
// JSON/MessagePack encoding and decoding per the body encoding rule.
package protocol

// Envelope carries connection-scoped identifiers alongside a Message.
// Identifiers are opaque strings chosen by the client; ServerID is
// optionally echoed back by the cloud server.
type Envelope struct {
	TunnelID        string `json:"tunnel_id" msgpack:"tunnel_id"`
	ClientID        string `json:"client_id" msgpack:"client_id"`
	ServerID        string `json:"server_id,omitempty" msgpack:"server_id,omitempty"`
	ProtocolVersion string `json:"protocol_version,omitempty" msgpack:"protocol_version,omitempty"`
	Compression     string `json:"compression,omitempty" msgpack:"compression,omitempty"`
	Encryption      string `json:"encryption,omitempty" msgpack:"encryption,omitempty"`
}

// Frame is the unit crossing the WebSocket: one envelope plus one message.
type Frame struct {
	Envelope Envelope `json:"envelope" msgpack:"envelope"`
	Message  Message  `json:"message" msgpack:"message"`
}

// Message pairs metadata with a typed payload.
type Message struct {
	Metadata Metadata `json:"metadata" msgpack:"metadata"`
	Payload  Payload  `json:"payload" msgpack:"payload"`
}

// RequestID returns the cloud-side request correlation id carried by this
// frame's payload, if any (HTTP request/response payloads only).
func (f *Frame) RequestID() (string, bool) {
	switch p := f.Message.Payload.(type) {
	case *HTTPRequest:
		return p.RequestID, true
	case *HTTPResponse:
		return p.RequestID, true
	}
	return "", false
}
