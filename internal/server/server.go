package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/nahidhasan98/autocommit/internal/config"
	"github.com/nahidhasan98/autocommit/internal/handlers"
	"github.com/nahidhasan98/autocommit/internal/logger"
	"github.com/nahidhasan98/autocommit/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	cfg        config.ServerConfig
	log        *logger.Logger
}

// New creates a new HTTP server
func New(cfg config.ServerConfig, apiKeys []string, handler *handlers.Handler, log *logger.Logger) *Server {
	mw := middleware.New(log, middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst))
	mw.SetAPIKeys(apiKeys)
	mw.SetAllowedOrigins(cfg.AllowedOrigins)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      Routes(handler, mw),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		cfg: cfg,
		log: log.Component("server"),
	}
}

// Routes registers the endpoints and applies the middleware chain
func Routes(h *handlers.Handler, mw *middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/draft", h.Draft)
	mux.HandleFunc("/pending", h.Pending)
	mux.HandleFunc("/flush", h.Flush)
	mux.HandleFunc("/history", h.History)
	mux.HandleFunc("/webhook/gitea", h.GiteaWebhook)
	mux.HandleFunc("/webhook/github", h.GitHubWebhook)

	handler := mw.Recovery(mux)
	handler = mw.Logging(handler)
	handler = mw.Security(handler)
	handler = mw.APIKeyAuth(handler)
	handler = mw.RateLimit(handler)
	handler = mw.CORS(handler)
	return handler
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("HTTP server listening on %s", ln.Addr())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("HTTP server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server shutdown complete")
	return nil
}
