// ABOUTME: Gateway orchestrator wiring store, note service, tools, and the MCP server.
// ABOUTME: Manages the HTTP server and component lifecycle.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/inkwell-sh/inkwell/internal/auth"
	"github.com/inkwell-sh/inkwell/internal/config"
	"github.com/inkwell-sh/inkwell/internal/mcp"
	"github.com/inkwell-sh/inkwell/internal/notes"
	"github.com/inkwell-sh/inkwell/internal/store"
	"github.com/inkwell-sh/inkwell/internal/tools"
)

// Gateway owns the inkwell server components: the SQLite store, the
// note service, the tool registry, and the MCP endpoint, all served
// from a single HTTP server.
type Gateway struct {
	config     *config.Config
	store      store.Store
	notes      notes.Service
	registry   *tools.Registry
	mcpServer  *mcp.Server
	httpServer *http.Server
	logger     *slog.Logger
}

// initStore creates the store from config, honoring INKWELL_DB_PATH.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("INKWELL_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a gateway from the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gateway")

	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	noteService := notes.NewStoreService(s, logger)
	registry := tools.NewRegistry(logger)

	var verifier auth.TokenVerifier
	requireAuth := false
	if cfg.Auth.JWTSecret != "" {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating JWT verifier: %w", err)
		}
		verifier = jwtVerifier
		requireAuth = true
		logger.Info("bearer token auth enabled")
	} else {
		logger.Warn("auth disabled - no jwt_secret configured")
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Registry:          registry,
		Logger:            logger,
		TokenVerifier:     verifier,
		RequireAuth:       requireAuth,
		SessionTTL:        cfg.MCP.SessionTTL,
		KeepaliveInterval: cfg.MCP.KeepaliveInterval,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	if err := registry.RegisterAll(tools.NotePack(noteService, mcpServer)); err != nil {
		s.Close()
		return nil, fmt.Errorf("registering note tools: %w", err)
	}

	g := &Gateway{
		config:    cfg,
		store:     s,
		notes:     noteService,
		registry:  registry,
		mcpServer: mcpServer,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mcpServer.RegisterRoutes(mux)
	mux.HandleFunc("/health", g.handleHealth)

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g, nil
}

// Start runs the HTTP server until ctx is cancelled or the listener fails.
func (g *Gateway) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.config.Server.HTTPAddr, err)
	}

	g.logger.Info("inkwell listening",
		"addr", ln.Addr().String(),
		"tools", len(g.registry.List()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return g.Stop()
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// Stop gracefully shuts down the HTTP server and closes all components.
func (g *Gateway) Stop() error {
	g.logger.Info("shutting down")

	// Close MCP sessions first so open GET streams unblock and the
	// HTTP server can drain.
	g.mcpServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := g.httpServer.Shutdown(shutdownCtx); err != nil {
		g.logger.Warn("http shutdown", "error", err)
	}

	if err := g.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// handleHealth reports liveness and the current session count.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": g.mcpServer.SessionCount(),
	}); err != nil {
		g.logger.Warn("failed to encode health response", "error", err)
	}
}

// Handler exposes the gateway's HTTP handler, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}
