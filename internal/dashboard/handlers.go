package dashboard

import (
	"net/http"

	"github.com/pori-tunnel/pori/internal/buildinfo"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := s.lastStatus
	lastErr := s.lastError
	recent := append([]string(nil), s.recentEvents...)
	s.mu.RUnlock()

	if status == "" {
		status = "disconnected"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"connectionStatus": status,
		"lastError":        lastErr,
		"recent":           recent,
		"version":          buildinfo.Version,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.counters == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.counters.Snapshot())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if s.options == nil {
		writeJSON(w, http.StatusOK, map[string]any{"version": buildinfo.Version})
		return
	}
	redacted := *s.options
	redacted.Token = "***"
	writeJSON(w, http.StatusOK, map[string]any{
		"options": redacted,
		"version": buildinfo.Version,
	})
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	if s.reconnect == nil {
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "reconnect control is not wired")
		return
	}
	s.reconnect()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reconnect requested"})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if s.shutdown == nil {
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "shutdown control is not wired")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "shutdown requested"})
	go s.shutdown()
}
