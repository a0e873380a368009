// Package forwarder implements the local HTTP forwarder: it takes a decoded
// tunnel HTTPRequest, issues it against the local origin server, and
// produces an HTTPResponse (or a synthesized failure response) to ship back
// over the tunnel.
package forwarder

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
)

// Category classifies a forward failure per the tunnel's error taxonomy.
type Category string

const (
	CategoryConnect Category = "LocalConnectError"
	CategoryTimeout Category = "LocalTimeout"
	CategoryServer  Category = "LocalServerError"
	CategoryParse   Category = "ParseError"
)

// Failure is a structured forward failure, carrying enough detail to
// synthesize an HTTPResponse or an Error payload.
type Failure struct {
	Category Category
	Status   int // synthesized HTTP status to report back over the tunnel
	Message  string
	Cause    error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return string(f.Category) + ": " + f.Message + ": " + f.Cause.Error()
	}
	return string(f.Category) + ": " + f.Message
}

func (f *Failure) Unwrap() error { return f.Cause }

// Predefined failures for the cases that don't need to carry extra detail.
var (
	errInvalidURL = &Failure{Category: CategoryParse, Status: http.StatusBadGateway, Message: "request URL could not be derived"}
)

// classifyOriginError maps a local origin connection/request error into a
// Failure. Returns nil for context.Canceled: a client-cancelled request is
// not an origin health signal.
func classifyOriginError(err error) *Failure {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Category: CategoryTimeout, Status: http.StatusGatewayTimeout, Message: "local origin timed out", Cause: err}
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) && netErr.Op == "dial" {
		return &Failure{Category: CategoryConnect, Status: http.StatusServiceUnavailable, Message: "could not connect to local origin", Cause: err}
	}
	return &Failure{Category: CategoryServer, Status: http.StatusBadGateway, Message: "local origin request failed", Cause: err}
}
