package fixture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/config"
	"github.com/copyleftdev/stagecheck/internal/logging"
)

// Server serves a working copy of the demo wizard for integration tests
// and local runs.
type Server struct {
	httpServer *http.Server
	wizard     *wizard
	logger     *zap.Logger
}

func NewServer(cfg config.FixtureConfig, collections []Collection, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)
	if len(collections) == 0 {
		collections = DemoCollections()
	}
	wz := &wizard{collections: collections, sessions: newStore(), logger: logger}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      newRouter(cfg, wz, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorLog:     zap.NewStdLog(logger),
	}
	return &Server{httpServer: httpServer, wizard: wz, logger: logger}
}

func newRouter(cfg config.FixtureConfig, wz *wizard, logger *zap.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/", wz.handleIndex)
	router.Get("/embark-stage", wz.handleEmbark)
	router.Post("/embark-stage", wz.handleEmbarkSubmit)
	router.Get("/debark-stage", wz.handleDebark)
	router.Post("/debark-stage", wz.handleDebarkSubmit)
	router.Get("/confirm-stage", wz.handleConfirm)
	router.Get("/{collection}/{question}", wz.handleQuestion)
	router.Post("/{collection}/{question}", wz.handleQuestionSubmit)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})
	router.NotFound(wz.handleNotFound)
	return router
}

// Handler exposes the router, for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Addr() string { return s.httpServer.Addr }

func (s *Server) Start() error {
	s.logger.Info("starting fixture wizard", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start fixture server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down fixture wizard")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("fixture server shutdown failed: %w", err)
	}
	return nil
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					zap.String("method", r.Method),
					zap.String("uri", r.RequestURI),
					zap.String("requestId", middleware.GetReqID(r.Context())),
					zap.String("remote", r.RemoteAddr),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
