package protocol

import "github.com/google/uuid"

// NewFrameID returns a new random identifier suitable for Metadata.ID or
// Envelope client/tunnel identifiers.
func NewFrameID() string {
	return uuid.NewString()
}

// newFrame wraps a payload and message type into a Frame addressed to the
// given envelope, with freshly populated metadata.
func newFrame(env Envelope, messageType string, payload Payload) *Frame {
	return &Frame{
		Envelope: env,
		Message: Message{
			Metadata: NewMetadata(messageType),
			Payload:  payload,
		},
	}
}

// NewHTTPRequestFrame builds an outgoing HTTP.Request frame.
func NewHTTPRequestFrame(env Envelope, req *HTTPRequest) *Frame {
	return newFrame(env, "HTTP.Request", req)
}

// NewHTTPResponseFrame builds an HTTP.Response frame, setting
// Metadata.CorrelationID to correlationID (the ID of the frame it answers).
func NewHTTPResponseFrame(env Envelope, resp *HTTPResponse, correlationID string) *Frame {
	f := newFrame(env, "HTTP.Response", resp)
	f.Message.Metadata.CorrelationID = correlationID
	return f
}

// NewAuthTokenFrame builds the (defensive, see TokenAuth) Auth.TokenAuth
// frame.
func NewAuthTokenFrame(env Envelope, token string, authType string, scopes []string) *Frame {
	return newFrame(env, "Auth.TokenAuth", &TokenAuth{Token: token, Type: authType, Scopes: scopes})
}

// NewPingFrame builds a Control.Ping frame.
func NewPingFrame(env Envelope) *Frame {
	return newFrame(env, "Control.Ping", &Control{ControlKind: ControlPing})
}

// NewPongFrame builds a Control.Pong frame answering ping, correlating it
// via Metadata.CorrelationID.
func NewPongFrame(env Envelope, ping *Frame) *Frame {
	f := newFrame(env, "Control.Pong", &Control{ControlKind: ControlPong})
	if ping != nil {
		f.Message.Metadata.CorrelationID = ping.Message.Metadata.ID
	}
	return f
}

// NewErrorFrame builds an Error frame, optionally correlated to relatedID
// (the request or frame whose handling failed).
func NewErrorFrame(env Envelope, code, message, category, relatedID string, recoveryActions []string) *Frame {
	f := newFrame(env, "Error", &Error{
		Code:            code,
		Message:         message,
		Category:        category,
		RelatedID:       relatedID,
		RecoveryActions: recoveryActions,
	})
	if relatedID != "" {
		f.Message.Metadata.CorrelationID = relatedID
	}
	return f
}
