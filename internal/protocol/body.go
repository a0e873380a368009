package protocol

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"
)

// Body is the byte-sequence payload body. On the wire it may appear as a
// JSON string, a JSON array of byte integers, a JSON object/value (whose
// serialized text becomes the body bytes), or be absent/null. A nil Body
// marshals to JSON null and unmarshals from JSON null or an absent field.
type Body []byte

// MarshalJSON picks the wire shape best matching the body's apparent
// origin: already-valid JSON text is embedded raw, otherwise valid UTF-8
// becomes a JSON string, otherwise a JSON array of byte integers.
func (b Body) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	if len(b) > 0 && json.Valid(b) {
		return b, nil
	}
	if utf8.Valid(b) {
		return json.Marshal(string(b))
	}
	ints := make([]int, len(b))
	for i, c := range b {
		ints[i] = int(c)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON accepts all four shapes described by the Body Encoding
// Rule and converts them to bytes.
func (b *Body) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*b = nil
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*b = Body(s)
		return nil
	case '[':
		var ints []int
		if err := json.Unmarshal(trimmed, &ints); err != nil {
			return err
		}
		out := make([]byte, len(ints))
		for i, v := range ints {
			out[i] = byte(v)
		}
		*b = out
		return nil
	default:
		// Object, number, or bool: the serialized text itself is the body.
		out := make([]byte, len(trimmed))
		copy(out, trimmed)
		*b = out
		return nil
	}
}

// EncodeMsgpack writes Body as a native MessagePack binary string. The
// binary wire form carries body bytes directly rather than re-deriving a
// JSON shape — the four-shape rule exists for JSON/text interop, and a
// frame already flagged for binary transport has no such ambiguity.
func (b Body) EncodeMsgpack(enc *msgpack.Encoder) error {
	if b == nil {
		return enc.EncodeNil()
	}
	return enc.EncodeBytes(b)
}

// DecodeMsgpack reads Body back from its native MessagePack binary string.
func (b *Body) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeBytes()
	if err != nil {
		return err
	}
	*b = raw
	return nil
}
