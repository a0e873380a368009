package protocol

// The wire* structs below are the only place the "kind" discriminator is
// spelled out explicitly; everything else works with the richer Payload
// interface. Each struct carries both `json` and `msgpack` tags so the two
// codecs in codec.go can share one conversion table instead of duplicating
// the dispatch logic.

type wireHTTPRequest struct {
	Kind        string            `json:"kind" msgpack:"kind"`
	Method      string            `json:"method" msgpack:"method"`
	URL         string            `json:"url" msgpack:"url"`
	Headers     map[string]string `json:"headers" msgpack:"headers"`
	Body        Body              `json:"body,omitempty" msgpack:"body,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty" msgpack:"queryParams,omitempty"`
	RequestID   string            `json:"requestId" msgpack:"requestId"`
}

type wireHTTPResponse struct {
	Kind       string            `json:"kind" msgpack:"kind"`
	Status     int               `json:"status" msgpack:"status"`
	StatusText string            `json:"statusText" msgpack:"statusText"`
	Headers    map[string]string `json:"headers" msgpack:"headers"`
	Body       Body              `json:"body,omitempty" msgpack:"body,omitempty"`
	RequestID  string            `json:"requestId" msgpack:"requestId"`
}

type wireTokenAuth struct {
	Kind   string   `json:"kind" msgpack:"kind"`
	Token  string   `json:"token" msgpack:"token"`
	Type   string   `json:"type,omitempty" msgpack:"type,omitempty"`
	Scopes []string `json:"scopes,omitempty" msgpack:"scopes,omitempty"`
}

type wireAuthSuccess struct {
	Kind      string `json:"kind" msgpack:"kind"`
	SessionID string `json:"session_id" msgpack:"session_id"`
}

type wireAuthFailure struct {
	Kind       string `json:"kind" msgpack:"kind"`
	Code       string `json:"code" msgpack:"code"`
	Message    string `json:"message" msgpack:"message"`
	RetryAfter int64  `json:"retry_after,omitempty" msgpack:"retry_after,omitempty"`
}

type wireControl struct {
	Kind   string         `json:"kind" msgpack:"kind"`
	State  string         `json:"state,omitempty" msgpack:"state,omitempty"`
	Detail map[string]any `json:"detail,omitempty" msgpack:"detail,omitempty"`
	Reason string         `json:"reason,omitempty" msgpack:"reason,omitempty"`
}

type wireError struct {
	Code            string   `json:"code" msgpack:"code"`
	Message         string   `json:"message" msgpack:"message"`
	Category        string   `json:"category" msgpack:"category"`
	RelatedID       string   `json:"relatedId,omitempty" msgpack:"relatedId,omitempty"`
	RecoveryActions []string `json:"recoveryActions,omitempty" msgpack:"recoveryActions,omitempty"`
}

type wireBag struct {
	Data map[string]any `json:"data,omitempty" msgpack:"data,omitempty"`
}

// payloadToWire converts a Payload into its top-level kind string plus the
// tagged wire struct to be marshaled as the "data" field.
func payloadToWire(p Payload) (topKind string, data any, err error) {
	switch v := p.(type) {
	case *TokenAuth:
		return kindAuth, &wireTokenAuth{Kind: authVariantToken, Token: v.Token, Type: v.Type, Scopes: v.Scopes}, nil
	case *AuthSuccess:
		return kindAuth, &wireAuthSuccess{Kind: authVariantSuccess, SessionID: v.SessionID}, nil
	case *AuthFailure:
		return kindAuth, &wireAuthFailure{Kind: authVariantFailure, Code: v.Code, Message: v.Message, RetryAfter: v.RetryAfter}, nil
	case *HTTPRequest:
		return kindHTTP, &wireHTTPRequest{
			Kind: httpVariantRequest, Method: v.Method, URL: v.URL, Headers: v.Headers,
			Body: v.Body, QueryParams: v.QueryParams, RequestID: v.RequestID,
		}, nil
	case *HTTPResponse:
		return kindHTTP, &wireHTTPResponse{
			Kind: httpVariantResponse, Status: v.Status, StatusText: v.StatusText,
			Headers: v.Headers, Body: v.Body, RequestID: v.RequestID,
		}, nil
	case *Control:
		return kindControl, &wireControl{Kind: string(v.ControlKind), State: v.State, Detail: v.Detail, Reason: v.Reason}, nil
	case *Error:
		return kindError, &wireError{
			Code: v.Code, Message: v.Message, Category: v.Category,
			RelatedID: v.RelatedID, RecoveryActions: v.RecoveryActions,
		}, nil
	case *Stats:
		return kindStats, &wireBag{Data: v.Data}, nil
	case *Stream:
		return kindStream, &wireBag{Data: v.Data}, nil
	case *Custom:
		return kindCustom, &wireBag{Data: v.Data}, nil
	default:
		return "", nil, &ParseError{Reason: "unknown payload implementation"}
	}
}

// wireTarget returns a fresh, addressable zero value of the wire struct
// that decodes the "data" field for the given top-level kind, or a
// ParseError if the kind is not one of the closed set.
func wireTarget(topKind string) (any, error) {
	switch topKind {
	case kindAuth:
		return &wireAuthAny{}, nil
	case kindHTTP:
		return &wireHTTPAny{}, nil
	case kindControl:
		return &wireControl{}, nil
	case kindError:
		return &wireError{}, nil
	case kindStats, kindStream, kindCustom:
		return &wireBag{}, nil
	default:
		return nil, &ParseError{Reason: "unknown payload kind: " + topKind}
	}
}

// wireAuthAny and wireHTTPAny are decode-time unions: the Auth and HTTP
// top-level kinds each carry a further sub-"kind" that selects which
// concrete fields apply. Decoding into the union first, then branching
// on SubKind, sidesteps needing a second raw-message pass per codec.
type wireAuthAny struct {
	Kind       string   `json:"kind" msgpack:"kind"`
	Token      string   `json:"token" msgpack:"token"`
	Type       string   `json:"type,omitempty" msgpack:"type,omitempty"`
	Scopes     []string `json:"scopes,omitempty" msgpack:"scopes,omitempty"`
	SessionID  string   `json:"session_id,omitempty" msgpack:"session_id,omitempty"`
	Code       string   `json:"code,omitempty" msgpack:"code,omitempty"`
	Message    string   `json:"message,omitempty" msgpack:"message,omitempty"`
	RetryAfter int64    `json:"retry_after,omitempty" msgpack:"retry_after,omitempty"`
}

func (w *wireAuthAny) toPayload() (Payload, error) {
	switch w.Kind {
	case authVariantToken:
		return &TokenAuth{Token: w.Token, Type: w.Type, Scopes: w.Scopes}, nil
	case authVariantSuccess:
		return &AuthSuccess{SessionID: w.SessionID}, nil
	case authVariantFailure:
		return &AuthFailure{Code: w.Code, Message: w.Message, RetryAfter: w.RetryAfter, HasRetryAft: w.RetryAfter != 0}, nil
	default:
		return nil, &ParseError{Reason: "unknown auth sub-kind: " + w.Kind}
	}
}

type wireHTTPAny struct {
	Kind        string            `json:"kind" msgpack:"kind"`
	Method      string            `json:"method,omitempty" msgpack:"method,omitempty"`
	URL         string            `json:"url,omitempty" msgpack:"url,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" msgpack:"headers,omitempty"`
	Body        Body              `json:"body,omitempty" msgpack:"body,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty" msgpack:"queryParams,omitempty"`
	RequestID   string            `json:"requestId,omitempty" msgpack:"requestId,omitempty"`
	Status      int               `json:"status,omitempty" msgpack:"status,omitempty"`
	StatusText  string            `json:"statusText,omitempty" msgpack:"statusText,omitempty"`
}

func (w *wireHTTPAny) toPayload() (Payload, error) {
	switch w.Kind {
	case httpVariantRequest:
		return &HTTPRequest{
			Method: w.Method, URL: w.URL, Headers: w.Headers, Body: w.Body,
			QueryParams: w.QueryParams, RequestID: w.RequestID,
		}, nil
	case httpVariantResponse:
		return &HTTPResponse{
			Status: w.Status, StatusText: w.StatusText, Headers: w.Headers,
			Body: w.Body, RequestID: w.RequestID,
		}, nil
	default:
		return nil, &ParseError{Reason: "unknown http sub-kind: " + w.Kind}
	}
}

func wireToPayload(topKind string, target any) (Payload, error) {
	switch v := target.(type) {
	case *wireAuthAny:
		return v.toPayload()
	case *wireHTTPAny:
		return v.toPayload()
	case *wireControl:
		return &Control{ControlKind: ControlKind(v.Kind), State: v.State, Detail: v.Detail, Reason: v.Reason}, nil
	case *wireError:
		return &Error{Code: v.Code, Message: v.Message, Category: v.Category, RelatedID: v.RelatedID, RecoveryActions: v.RecoveryActions}, nil
	case *wireBag:
		switch topKind {
		case kindStats:
			return &Stats{Data: v.Data}, nil
		case kindStream:
			return &Stream{Data: v.Data}, nil
		case kindCustom:
			return &Custom{Data: v.Data}, nil
		}
	}
	return nil, &ParseError{Reason: "unhandled wire target for kind " + topKind}
}
