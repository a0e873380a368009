// Command pori is a reverse HTTP tunnel client: it opens an authenticated
// WebSocket to a cloud tunnel server, forwards decoded HTTP requests to a
// local origin, and ships responses back over the same socket.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/pori-tunnel/pori/internal/config"
	"github.com/pori-tunnel/pori/internal/dashboard"
	"github.com/pori-tunnel/pori/internal/dedupe"
	"github.com/pori-tunnel/pori/internal/forwarder"
	"github.com/pori-tunnel/pori/internal/protocol"
	"github.com/pori-tunnel/pori/internal/reconnect"
	"github.com/pori-tunnel/pori/internal/session"
	"github.com/pori-tunnel/pori/internal/stats"
)

// shutdownGrace bounds the dashboard server's graceful shutdown once the
// supervisor has returned. In-flight forwarded requests are not waited
// for: closing their session cancels them.
const shutdownGrace = 10 * time.Second

// Exit codes.
const (
	exitOK                = 0
	exitConfigError       = 1
	exitAuthFailure       = 2
	exitReconnectExhausted = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := config.Load(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pori: %v\n", err)
		return exitConfigError
	}

	logLevel, _ := config.ParseLevel(opts.LogLevel) // already validated by opts.Validate
	if config.Enabled(logLevel, config.LevelDebug) {
		log.Printf("pori: resolved config: url=%s protocol=%s port=%d dashboardPort=%d httpVersion=%s maxReconnects=%d maxConnections=%d",
			opts.URL, opts.Protocol, opts.Port, opts.DashboardPort, opts.HTTPVersion, opts.MaxReconnects, opts.MaxConnections)
	}

	counters := stats.New()
	bus := stats.NewBus()

	fwd, err := forwarder.New(forwarder.Config{
		BaseURL:        fmt.Sprintf("%s://127.0.0.1:%d", opts.Protocol, opts.Port),
		Timeout:        time.Duration(opts.Timeout) * time.Second,
		MaxConnections: opts.MaxConnections,
		VerifySSL:      opts.VerifySSL,
		HTTPVersion:    forwarder.HTTPVersionPolicy(opts.HTTPVersion),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pori: %v\n", err)
		return exitConfigError
	}

	dedupeCache, err := dedupe.New(dedupe.DefaultCapacity, dedupe.DefaultTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pori: dedupe cache: %v\n", err)
		return exitConfigError
	}
	defer dedupeCache.Close()

	sessionCfg := session.Config{
		URL:              opts.URL,
		Token:            opts.Token,
		TunnelID:         uuid.NewString(),
		ClientID:         uuid.NewString(),
		ProtocolVersion:  protocol.DefaultVersion,
		HandshakeTimeout: time.Duration(opts.Timeout) * time.Second,
		RequestTimeout:   time.Duration(opts.Timeout) * time.Second,
	}
	sessionDeps := session.Deps{
		Forwarder: fwd,
		Counters:  counters,
		Bus:       bus,
		Dedupe:    dedupeCache,
	}

	sup := reconnect.NewSupervisor(reconnect.Config{
		Dial:        session.NewDialer(sessionCfg, sessionDeps),
		Policy:      reconnect.DefaultPolicy(),
		MaxAttempts: uint(opts.MaxReconnects),
		Counters:    counters,
		Bus:         bus,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dash *dashboard.Server
	if !opts.NoDashboard {
		dash = dashboard.New(dashboard.Config{
			Port:        opts.DashboardPort,
			BearerToken: opts.Token,
			Counters:    counters,
			Bus:         bus,
			Options:     opts,
			Reconnect:   func() { log.Printf("dashboard: manual reconnect requested (not yet wired to live supervisor restart)") },
			Shutdown:    stop,
		})
		dash.Start()
		log.Printf("pori: dashboard listening on :%d", opts.DashboardPort)
	}

	runDone := make(chan stats.ConnectionStatus, 1)
	go func() {
		runDone <- sup.Run(ctx)
	}()

	finalStatus := <-runDone
	shutdownRequested := ctx.Err() != nil

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if dash != nil {
		if err := dash.Shutdown(shutdownCtx); err != nil {
			log.Printf("pori: dashboard shutdown: %v", err)
		}
	}

	switch {
	case shutdownRequested:
		// SIGINT/SIGTERM triggered ctx cancellation; the supervisor's
		// StatusDisconnected return here is a normal, requested shutdown.
		return exitOK
	case finalStatus == stats.StatusError:
		return exitAuthFailure
	default:
		// StatusDisconnected without a requested shutdown means maxAttempts
		// was reached: reconnect exhaustion.
		return exitReconnectExhausted
	}
}
