package forwarder

import (
	"net/http"
	"strings"
)

// strippedRequestHeaders are removed from the tunnel-decoded request before
// it is replayed against the local origin: hop-by-hop headers plus the
// proxy-identity headers that would otherwise leak this tunnel's own
// network position.
var strippedRequestHeaders = []string{
	"Host",
	"Connection",
	"Upgrade",
	"Proxy-Connection",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Content-Length",
}

// strippedResponseHeaders are removed from the local origin's response
// before it is shipped back over the tunnel.
var strippedResponseHeaders = []string{
	"Host",
	"Connection",
	"Upgrade",
	"Proxy-Connection",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Content-Length",
	"Server",
	"X-Powered-By",
	"X-Request-Id",
}

// responseForwardedPrefixes are additionally stripped by prefix match
// ("x-forwarded-*").
var responseForwardedPrefixes = []string{"X-Forwarded-"}

// sanitizeRequestHeaders strips hop-by-hop and identity-leaking headers from
// the decoded tunnel request before it is replayed against the local origin.
func sanitizeRequestHeaders(header http.Header) {
	if header == nil {
		return
	}
	for _, h := range strippedRequestHeaders {
		header.Del(h)
	}
}

// sanitizeResponseHeaders strips hop-by-hop headers, plus identifying
// headers, from the local origin's response before it is shipped back over
// the tunnel.
func sanitizeResponseHeaders(header http.Header) {
	if header == nil {
		return
	}
	for _, h := range strippedResponseHeaders {
		header.Del(h)
	}
	for k := range header {
		for _, prefix := range responseForwardedPrefixes {
			if strings.HasPrefix(strings.ToLower(k), strings.ToLower(prefix)) {
				header.Del(k)
			}
		}
	}
}

// flattenHeaders collapses net/http's multi-value header map into the
// single-string-per-key map the tunnel wire format carries, joining
// repeated values with a comma per RFC 7230 §3.2.2.
func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for k, v := range header {
		out[k] = strings.Join(v, ", ")
	}
	return out
}

// expandHeaders converts the wire format's single-string-per-key map back
// into an http.Header. Splitting comma-joined values is deliberately NOT
// performed: the local origin receives exactly one value per header key,
// matching what a browser client would have sent for most header classes.
func expandHeaders(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}
