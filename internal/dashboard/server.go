package dashboard

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"

	"github.com/pori-tunnel/pori/internal/config"
	"github.com/pori-tunnel/pori/internal/stats"
)

// statsPushInterval is how often the Bus receives a fresh StatisticsEvent,
// independent of any consumer actually draining it.
const statsPushInterval = 5 * time.Second

// Config wires a dashboard Server to the rest of the tunnel client.
type Config struct {
	Port        int
	BearerToken string // reuses the tunnel auth token, see DESIGN.md
	Counters    *stats.Counters
	Bus         *stats.Bus
	Options     *config.Options
	Reconnect   func() // triggered by POST /api/reconnect
	Shutdown    func() // triggered by POST /api/shutdown
}

// Server is the local dashboard's HTTP surface plus its background
// statistics-pusher and bus-subscriber.
type Server struct {
	httpServer *http.Server
	cron       *cron.Cron
	counters   *stats.Counters
	bus        *stats.Bus
	options    *config.Options
	reconnect  func()
	shutdown   func()

	mu           sync.RWMutex
	lastStatus   stats.ConnectionStatus
	lastError    string
	recentEvents []string
}

const maxRecentEvents = 50

// New builds a dashboard Server. It does not start listening or the
// background pusher until Start is called.
func New(cfg Config) *Server {
	s := &Server{
		counters:  cfg.Counters,
		bus:       cfg.Bus,
		options:   cfg.Options,
		reconnect: cfg.Reconnect,
		shutdown:  cfg.Shutdown,
		cron:      cron.New(),
	}

	router := chi.NewRouter()
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.BearerToken, h)
	}
	router.Method(http.MethodGet, "/api/status", authed(s.handleStatus))
	router.Method(http.MethodGet, "/api/stats", authed(s.handleStats))
	router.Method(http.MethodGet, "/api/config", authed(s.handleConfig))
	router.Method(http.MethodPost, "/api/reconnect", authed(s.handleReconnect))
	router.Method(http.MethodPost, "/api/shutdown", authed(s.handleShutdown))

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}
	return s
}

// Start starts both the HTTP listener (in the background) and the
// statistics-pusher cron job. It does not wait for the listener to bind;
// a listen failure is only logged.
func (s *Server) Start() {
	if s.bus != nil {
		go s.consumeEvents()
		if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", statsPushInterval), s.pushStatistics); err != nil {
			log.Printf("dashboard: invalid statistics push schedule: %v", err)
		}
		s.cron.Start()
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("dashboard: listen failed: %v", err)
		}
	}()
}

// Shutdown stops the cron scheduler and gracefully shuts down the HTTP
// server within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cron != nil {
		cronStopCtx := s.cron.Stop()
		<-cronStopCtx.Done()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) pushStatistics() {
	if s.counters == nil {
		return
	}
	s.bus.Publish(stats.StatisticsEvent{Snapshot: s.counters.Snapshot()})
}

// consumeEvents is the dashboard's single Bus subscriber: it keeps just
// enough derived state (last connection status, last error, a short
// recent-activity ring) for the REST handlers to serve without blocking
// the producers.
func (s *Server) consumeEvents() {
	for e := range s.bus.Events() {
		switch ev := e.(type) {
		case stats.ConnectionStatusEvent:
			s.mu.Lock()
			s.lastStatus = ev.State
			s.mu.Unlock()
		case stats.ErrorEvent:
			s.mu.Lock()
			s.lastError = ev.Message
			s.pushRecentLocked(fmt.Sprintf("error: %s", ev.Message))
			s.mu.Unlock()
		case stats.RequestForwardedEvent:
			s.mu.Lock()
			s.pushRecentLocked(fmt.Sprintf("-> %s", ev.Line))
			s.mu.Unlock()
		case stats.ResponseReceivedEvent:
			s.mu.Lock()
			s.pushRecentLocked(fmt.Sprintf("<- %d (%d bytes)", ev.Status, ev.BodyLen))
			s.mu.Unlock()
		case stats.StatisticsEvent:
			// Already reflected in s.counters; nothing further to retain.
		}
	}
}

// pushRecentLocked appends to the recent-activity ring. Caller holds s.mu.
func (s *Server) pushRecentLocked(line string) {
	s.recentEvents = append(s.recentEvents, line)
	if len(s.recentEvents) > maxRecentEvents {
		s.recentEvents = s.recentEvents[len(s.recentEvents)-maxRecentEvents:]
	}
}
