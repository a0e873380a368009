package forwarder

import "net/http"

// reasonPhrase returns the canonical IANA reason phrase for status, falling
// back to "Unknown" for codes net/http doesn't recognize (custom or
// vendor-specific origin statuses).
func reasonPhrase(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unknown"
}
