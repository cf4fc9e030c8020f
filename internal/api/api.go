// Package api provides HTTP handlers and the main server logic for FinAssist.
//
// It exposes the presentation boundary of the banking assistant: session
// creation, conversation turns, document attachment, captured leads, and
// health. The API wires together the store, session, genai, extract,
// messaging, and flow modules.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/FinAssist/internal/extract"
	"github.com/BTreeMap/FinAssist/internal/flow"
	"github.com/BTreeMap/FinAssist/internal/genai"
	"github.com/BTreeMap/FinAssist/internal/messaging"
	"github.com/BTreeMap/FinAssist/internal/session"
	"github.com/BTreeMap/FinAssist/internal/store"
)

// Server configuration constants.
const (
	// DefaultAddr is the default API listen address.
	DefaultAddr = ":8080"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr      string
	RedisURL  string
	SeedDemo  bool
	SeedCount int
}

// Option configures API server construction.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithRedisURL enables the Redis session backend.
func WithRedisURL(url string) Option {
	return func(o *Opts) { o.RedisURL = url }
}

// WithDemoSeed enables demo customer seeding at startup.
func WithDemoSeed(count int) Option {
	return func(o *Opts) {
		o.SeedDemo = true
		o.SeedCount = count
	}
}

// Server hosts the FinAssist HTTP API.
type Server struct {
	addr       string
	flow       *flow.BankingFlow
	st         store.Store
	msgService messaging.Service
}

// NewServer creates a server over an already constructed flow and store.
// msgService may be nil when no messaging channel is configured.
func NewServer(addr string, bankingFlow *flow.BankingFlow, st store.Store, msgService messaging.Service) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{addr: addr, flow: bankingFlow, st: st, msgService: msgService}
}

// Run constructs all modules from the provided options and serves the API
// until the listener fails. It is the composition root used by cmd/FinAssist.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, twilioOpts []messaging.TwilioOption, apiOpts []Option) error {
	var cfg Opts
	for _, opt := range apiOpts {
		opt(&cfg)
	}

	st, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to build store: %w", err)
	}
	defer st.Close()

	if cfg.SeedDemo {
		if err := store.SeedDemoData(st, cfg.SeedCount, nil); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	sessions, err := buildSessionManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to build session manager: %w", err)
	}

	answerer := buildAnswerer(genaiOpts)
	bankingFlow := flow.NewBankingFlow(st, sessions, answerer, extract.NewTextExtractor())

	var msgService messaging.Service
	var twilioService *messaging.TwilioService
	if len(twilioOpts) > 0 {
		twilioService, err = messaging.NewTwilioService(twilioOpts...)
		if err != nil {
			return fmt.Errorf("failed to build Twilio service: %w", err)
		}
		msgService = twilioService
	}

	server := NewServer(cfg.Addr, bankingFlow, st, msgService)

	mux := http.NewServeMux()
	server.registerRoutes(mux)
	if twilioService != nil {
		mux.HandleFunc("/twilio/webhook", twilioService.WebhookHandler)
		pump := messaging.NewResponseHandler(twilioService, bankingFlow)
		go pump.Run(context.Background())
		slog.Info("api.Run: Twilio channel enabled")
	}

	slog.Info("api.Run: FinAssist API listening", "addr", server.addr)
	return http.ListenAndServe(server.addr, mux)
}

// registerRoutes attaches the server's handlers to mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/sessions", s.createSessionHandler)
	mux.HandleFunc("/sessions/", s.sessionsHandler)
	mux.HandleFunc("/leads", s.leadsHandler)
	mux.HandleFunc("/health", s.healthHandler)
}

// buildStore constructs the store backend implied by the configured DSN.
// Without a DSN the in-memory store is used.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Info("api.buildStore: no DSN configured, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Debug("api.buildStore: using PostgreSQL store")
		return store.NewPostgresStore(storeOpts...)
	}
	slog.Debug("api.buildStore: using SQLite store")
	return store.NewSQLiteStore(storeOpts...)
}

// buildSessionManager selects the Redis session backend when configured,
// falling back to process memory.
func buildSessionManager(cfg Opts) (session.Manager, error) {
	if cfg.RedisURL != "" {
		slog.Debug("api.buildSessionManager: using Redis session backend")
		return session.NewRedisManager(session.WithRedisURL(cfg.RedisURL))
	}
	slog.Debug("api.buildSessionManager: using in-memory session backend")
	return session.NewInMemoryManager(), nil
}

// buildAnswerer constructs the answer engine, or returns nil when no API key
// is configured; document question-answering is then disabled.
func buildAnswerer(genaiOpts []genai.Option) genai.ClientInterface {
	if len(genaiOpts) == 0 {
		slog.Warn("api.buildAnswerer: no GenAI options configured, document Q&A disabled")
		return nil
	}
	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		slog.Warn("api.buildAnswerer: GenAI client unavailable, document Q&A disabled", "error", err)
		return nil
	}
	return client
}
