// Package server exposes the engine over HTTP with gin. Every /api/v1 route
// requires an HS256 bearer token whose subject is the user ID.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rshade/planetzero/internal/engine"
)

const shutdownTimeout = 10 * time.Second

// Options configure a Server.
type Options struct {
	Addr              string
	Engine            *engine.Engine
	Tokens            *TokenService
	Logger            zerolog.Logger
	LeaderboardLimit  int
	LeaderboardPeriod engine.Period
}

// Server is the planetzero HTTP API.
type Server struct {
	addr    string
	handler http.Handler
	logger  zerolog.Logger
}

// New builds the router.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil || opts.Tokens == nil {
		return nil, errors.New("server requires an engine and a token service")
	}
	return &Server{addr: opts.Addr, handler: newRouter(opts), logger: opts.Logger}, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func newRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(opts.Logger))

	h := &handlers{
		eng:               opts.Engine,
		leaderboardLimit:  opts.LeaderboardLimit,
		leaderboardPeriod: opts.LeaderboardPeriod,
	}
	r.GET("/healthz", h.health)

	api := r.Group("/api/v1", RequireAuth(opts.Tokens, opts.Engine))
	api.POST("/daily-log", h.submitLog)
	api.GET("/daily-log/:date", h.getLog)
	api.GET("/dashboard", h.dashboard)
	api.GET("/summary", h.summary)
	api.GET("/history", h.history)
	api.GET("/leaderboard", h.leaderboard)
	api.GET("/recommendations", h.recommendations)
	api.GET("/profile", h.profile)
	api.POST("/onboarding", h.onboarding)
	api.GET("/factors", h.factors)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("component", "server").Str("addr", s.addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	s.logger.Info().Str("component", "server").Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
