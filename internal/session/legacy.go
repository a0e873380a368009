package session

import "encoding/json"

// legacyMessage is the simpler, pre-envelope "TunnelMessage" shape the
// server may still use for the handshake's own auth acknowledgement and
// fatal errors, distinct from the envelope+payload frame schema used for
// everything else. Kept minimal: it exists only to detect auth outcome.
type legacyMessage struct {
	Type    string `json:"type"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// parseLegacyMessage reports whether data looks like a legacy message
// (has a non-empty top-level "type" field, which the envelope frame schema
// never carries at that position).
func parseLegacyMessage(data []byte) (*legacyMessage, bool) {
	var lm legacyMessage
	if err := json.Unmarshal(data, &lm); err != nil {
		return nil, false
	}
	if lm.Type == "" {
		return nil, false
	}
	return &lm, true
}
