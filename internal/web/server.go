package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/config"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/interfaces"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Server serves dashboards as JSON and chart PNGs
type Server struct {
	dashboards  interfaces.DashboardServiceInterface
	location    *time.Location
	defaultDate func() time.Time
	validate    *validator.Validate
	cfg         config.HTTPConfig
}

// NewServer creates a new HTTP server
func NewServer(cfg config.HTTPConfig, dashboards interfaces.DashboardServiceInterface, location *time.Location, defaultDate func() time.Time) *Server {
	return &Server{
		dashboards:  dashboards,
		location:    location,
		defaultDate: defaultDate,
		validate:    validator.New(),
		cfg:         cfg,
	}
}

// Handler returns the routes wrapped in CORS and request logging
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/users", s.users).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard", s.dashboardView).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard/sleep.png", s.sleepChart).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard/heart-rate.png", s.heartRateChart).Methods(http.MethodGet)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(loggingMiddleware(r))
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "port", s.cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("HTTP server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
