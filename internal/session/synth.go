package session

import (
	"fmt"
	"net/http"

	"github.com/pori-tunnel/pori/internal/forwarder"
	"github.com/pori-tunnel/pori/internal/protocol"
)

// synthesizeFailureResponse builds an HTML error response for a classified
// forward Failure, echoing requestID.
func synthesizeFailureResponse(requestID string, f *forwarder.Failure) *protocol.HTTPResponse {
	return synthesizeResponse(requestID, f.Status, f.Message)
}

// synthesizeResponse builds an HTML error body for status/message, used for
// both forwarder failures and session-level InternalError conditions.
func synthesizeResponse(requestID string, status int, message string) *protocol.HTTPResponse {
	reason := http.StatusText(status)
	if reason == "" {
		reason = "Unknown"
	}
	body := fmt.Sprintf(
		"<html><head><title>%d %s</title></head><body><h1>%d %s</h1><p>%s</p></body></html>",
		status, reason, status, reason, message,
	)
	return &protocol.HTTPResponse{
		Status:     status,
		StatusText: reason,
		Headers: map[string]string{
			"content-type":  "text/html; charset=utf-8",
			"cache-control": "no-cache",
		},
		Body:      protocol.Body(body),
		RequestID: requestID,
	}
}
