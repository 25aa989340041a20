package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jjudge-oj/userdir/config"
	"github.com/jjudge-oj/userdir/internal/cache"
	"github.com/jjudge-oj/userdir/internal/db"
	"github.com/jjudge-oj/userdir/internal/handlers"
	"github.com/jjudge-oj/userdir/internal/mq"
	"github.com/jjudge-oj/userdir/internal/services"
	"github.com/jjudge-oj/userdir/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	logger     *slog.Logger
	stopEvents context.CancelFunc
}

// New connects to the database and broker and builds the router.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userService := services.NewUserService(store.NewUserRepository(dbConn))
	pages := cache.NewPageCacheWithLimits(cfg.Cache.MaxEntries, cfg.Cache.TTL)

	var events handlers.EventPublisher
	if queue != nil {
		events = queue
	}
	dir := handlers.NewDirectory(userService, pages, events, logger)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	router := NewRouter(dir)
	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		db:     dbConn,
		queue:  queue,
		logger: logger,
	}

	if queue != nil {
		eventsCtx, cancel := context.WithCancel(context.Background())
		s.stopEvents = cancel
		go s.watchEvents(eventsCtx, pages)
	}
	return s, nil
}

// NewRouter builds the chi router for the HTML and JSON surfaces.
func NewRouter(dir *handlers.Directory) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.WebRouter(router, dir)
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserAPIRouter(r, dir)
	})
	return router
}

var resubscribeDelay = 5 * time.Second

// watchEvents drops cached listings whenever any replica changes the
// directory. After a broker error it redials the broker and resubscribes
// until ctx is done.
func (s *Server) watchEvents(ctx context.Context, pages *cache.PageCache) {
	for {
		err := s.queue.SubscribeUserEvents(ctx, func(_ context.Context, event mq.UserEvent) {
			s.logger.Debug("user event", "kind", event.Kind, "user_id", event.UserID)
			pages.Invalidate()
		})
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("user event subscription ended", "error", err)
		// Events may have been missed while disconnected.
		pages.Invalidate()

		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
		if err := s.queue.Reconnect(ctx); err != nil && !errors.Is(err, mq.ErrNoDialer) {
			s.logger.Warn("reconnect to broker", "error", err)
		}
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the broker and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.stopEvents != nil {
		s.stopEvents()
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
