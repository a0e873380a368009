package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// jsonPayloadEnvelope is the {"kind": ..., "data": ...} wrapper used to
// carry a polymorphic Payload inside a JSON-encoded Message.
type jsonPayloadEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type jsonMessage struct {
	Metadata Metadata            `json:"metadata"`
	Payload  jsonPayloadEnvelope `json:"payload"`
}

// MarshalJSON implements the kind/data wrapper around the Message's
// polymorphic Payload.
func (m Message) MarshalJSON() ([]byte, error) {
	topKind, wire, err := payloadToWire(m.Payload)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal payload data: %w", err)
	}
	return json.Marshal(jsonMessage{
		Metadata: m.Metadata,
		Payload:  jsonPayloadEnvelope{Kind: topKind, Data: data},
	})
}

// UnmarshalJSON decodes the kind/data wrapper, applying Metadata defaults
// and dispatching to the concrete Payload type named by the kind.
func (m *Message) UnmarshalJSON(data []byte) error {
	var jm jsonMessage
	if err := json.Unmarshal(data, &jm); err != nil {
		return &ParseError{Reason: "malformed message", Cause: err}
	}
	jm.Metadata.applyDefaults()

	target, err := wireTarget(jm.Payload.Kind)
	if err != nil {
		return err
	}
	if len(jm.Payload.Data) > 0 {
		if err := json.Unmarshal(jm.Payload.Data, target); err != nil {
			return &ParseError{Reason: "malformed payload data for kind " + jm.Payload.Kind, Cause: err}
		}
	}
	payload, err := wireToPayload(jm.Payload.Kind, target)
	if err != nil {
		return err
	}

	m.Metadata = jm.Metadata
	m.Payload = payload
	return nil
}

// msgpackMessage mirrors jsonMessage for the binary codec; msgpack.RawMessage
// defers decoding of the payload data until the kind is known.
type msgpackMessage struct {
	Metadata Metadata `msgpack:"metadata"`
	Kind     string   `msgpack:"kind"`
	Data     msgpack.RawMessage `msgpack:"data"`
}

// EncodeMsgpack implements msgpack.CustomEncoder for Message.
func (m Message) EncodeMsgpack(enc *msgpack.Encoder) error {
	topKind, wire, err := payloadToWire(m.Payload)
	if err != nil {
		return err
	}
	data, err := msgpack.Marshal(wire)
	if err != nil {
		return fmt.Errorf("protocol: marshal payload data: %w", err)
	}
	return enc.Encode(msgpackMessage{Metadata: m.Metadata, Kind: topKind, Data: data})
}

// DecodeMsgpack implements msgpack.CustomDecoder for Message.
func (m *Message) DecodeMsgpack(dec *msgpack.Decoder) error {
	var mm msgpackMessage
	if err := dec.Decode(&mm); err != nil {
		return &ParseError{Reason: "malformed message", Cause: err}
	}
	mm.Metadata.applyDefaults()

	target, err := wireTarget(mm.Kind)
	if err != nil {
		return err
	}
	if len(mm.Data) > 0 {
		if err := msgpack.Unmarshal(mm.Data, target); err != nil {
			return &ParseError{Reason: "malformed payload data for kind " + mm.Kind, Cause: err}
		}
	}
	payload, err := wireToPayload(mm.Kind, target)
	if err != nil {
		return err
	}

	m.Metadata = mm.Metadata
	m.Payload = payload
	return nil
}

// EncodeJSON serializes a frame to its JSON wire form.
func EncodeJSON(f *Frame) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode json: %w", err)
	}
	return b, nil
}

// DecodeJSON parses a frame from its JSON wire form.
func DecodeJSON(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		var pe *ParseError
		if asParseError(err, &pe) {
			return nil, pe
		}
		return nil, &ParseError{Reason: "malformed frame", Cause: err}
	}
	return &f, nil
}

// EncodeBinary serializes a frame to its MessagePack wire form.
func EncodeBinary(f *Frame) ([]byte, error) {
	b, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode msgpack: %w", err)
	}
	return b, nil
}

// DecodeBinary parses a frame from its MessagePack wire form.
func DecodeBinary(data []byte) (*Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		var pe *ParseError
		if asParseError(err, &pe) {
			return nil, pe
		}
		return nil, &ParseError{Reason: "malformed frame", Cause: err}
	}
	return &f, nil
}

// asParseError unwraps err looking for a *ParseError, without pulling in
// errors.As at every call site.
func asParseError(err error, target **ParseError) bool {
	for err != nil {
		if pe, ok := err.(*ParseError); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Encode serializes a frame using the encoding named in its metadata,
// defaulting to JSON when unset.
func Encode(f *Frame) ([]byte, bool, error) {
	switch f.Message.Metadata.Encoding {
	case EncodingMsgpack:
		b, err := EncodeBinary(f)
		return b, true, err
	default:
		b, err := EncodeJSON(f)
		return b, false, err
	}
}

// Decode parses a frame, trying the codec indicated by isBinary (true for a
// WebSocket binary message, false for text).
func Decode(data []byte, isBinary bool) (*Frame, error) {
	if isBinary {
		return DecodeBinary(data)
	}
	return DecodeJSON(data)
}
