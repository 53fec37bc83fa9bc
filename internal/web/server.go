package web

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/history"
	"github.com/smegmarip/live-recognition/internal/notify"
	"github.com/smegmarip/live-recognition/internal/session"
	"github.com/smegmarip/live-recognition/internal/settings"
)

// Controller is the session surface the HTTP API drives
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	Toggle(ctx context.Context) error
	CaptureFrame() (string, error)
	Preview(width, height int) (image.Image, bool)
	Snapshot() session.Snapshot
	History() []history.Entry
	Toasts() *notify.Center
	Settings() *settings.Store
	AddListener() chan session.Event
	RemoveListener(ch chan session.Event)
}

// Server represents the web control server
type Server struct {
	ctrl        Controller
	router      *chi.Mux
	httpServer  *http.Server
	broadcaster *EventBroadcaster
	gatherer    prometheus.Gatherer
	version     string
	now         func() time.Time
}

// NewServer creates a new web server listening on addr. Metrics are served
// from gatherer when it is non-nil.
func NewServer(addr string, ctrl Controller, gatherer prometheus.Gatherer, version string) *Server {
	r := chi.NewRouter()

	s := &Server{
		ctrl:        ctrl,
		router:      r,
		broadcaster: NewEventBroadcaster(ctrl),
		gatherer:    gatherer,
		version:     version,
		now:         time.Now,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{Logger: log.StandardLogger(), NoColor: true}))
	r.Use(chiMiddleware.Recoverer)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start forwards controller events to websocket subscribers and serves
// HTTP until Shutdown
func (s *Server) Start(ctx context.Context) error {
	go s.broadcaster.Run(ctx)

	log.Infof("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Broadcaster returns the websocket event broadcaster
func (s *Server) Broadcaster() *EventBroadcaster {
	return s.broadcaster
}
