// ABOUTME: Gateway orchestrator composing store, chat service, and HTTP server
// ABOUTME: Manages startup, bootstrap seeding, and graceful shutdown

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/crewbase/chat-gateway/internal/auth"
	"github.com/crewbase/chat-gateway/internal/chat"
	"github.com/crewbase/chat-gateway/internal/config"
	"github.com/crewbase/chat-gateway/internal/filestore"
	"github.com/crewbase/chat-gateway/internal/permission"
	"github.com/crewbase/chat-gateway/internal/room"
	"github.com/crewbase/chat-gateway/internal/store"
	"github.com/crewbase/chat-gateway/internal/ws"
)

// Gateway orchestrates the chat-gateway server components.
type Gateway struct {
	config     *config.Config
	store      store.Store
	registry   *room.Registry
	events     *chat.Events
	service    *chat.Service
	evaluator  *permission.Evaluator
	verifier   *auth.JWTVerifier
	uploads    *filestore.Local
	httpServer *http.Server
	logger     *slog.Logger
}

// initStore creates the store from config and environment.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("CHAT_GATEWAY_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// seedBootstrapBoss creates a BOSS account when the directory is empty so
// the permission assignment API is reachable on a fresh install. The
// generated id is logged once; mint a token for it with the init command.
func seedBootstrapBoss(ctx context.Context, dir store.Directory, logger *slog.Logger) error {
	existing, err := dir.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("listing employees: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	boss := &store.Employee{
		ID:    uuid.NewString(),
		Name:  "Bootstrap Admin",
		Email: "admin@localhost",
		Role:  permission.RoleBoss,
	}
	if err := dir.UpsertEmployee(ctx, boss); err != nil {
		return fmt.Errorf("seeding bootstrap boss: %w", err)
	}
	logger.Info("seeded bootstrap BOSS account", "employee_id", boss.ID)
	return nil
}

// New creates a Gateway with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := seedBootstrapBoss(context.Background(), s, logger); err != nil {
		_ = s.Close()
		return nil, err
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating JWT verifier: %w", err)
	}

	uploads, err := filestore.NewLocal(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	registry := room.NewRegistry(logger.With("component", "rooms"))
	broadcaster := chat.NewBroadcaster(registry, logger.With("component", "broadcaster"))
	events := chat.NewEvents(logger.With("component", "events"))
	evaluator := permission.NewEvaluator(false)
	service := chat.NewService(s, s, registry, broadcaster, events, evaluator, logger.With("component", "chat"))

	gw := &Gateway{
		config:    cfg,
		store:     s,
		registry:  registry,
		events:    events,
		service:   service,
		evaluator: evaluator,
		verifier:  verifier,
		uploads:   uploads,
		logger:    logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)

	// Websocket sessions authenticate inside the handler (token on the
	// handshake request).
	mux.Handle("/ws", ws.NewHandler(service, verifier, cfg.Server.AllowedOrigins, logger))

	// Attachment uploads and static serving
	mux.Handle("/api/uploads", gw.requireAuth(filestore.UploadHandler(uploads, logger.With("component", "uploads"))))
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploads.Dir()))))

	// Directory API
	mux.Handle("/api/employees", gw.requireAuth(http.HandlerFunc(gw.handleEmployees)))
	mux.Handle("/api/employees/", gw.requireAuth(http.HandlerFunc(gw.handleEmployeeRoutes)))

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	g.events.Close()

	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the store answers queries.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := g.store.ListEmployees(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
