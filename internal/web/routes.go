package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	s.router.Get("/api/v1/health", s.health)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Session lifecycle
		r.Get("/session", s.getSession)
		r.Post("/session/start", s.startSession)
		r.Post("/session/stop", s.stopSession)
		r.Post("/session/toggle", s.toggleSession)
		r.Post("/session/capture", s.captureFrame)
		r.Get("/session/preview", s.preview)

		// Settings
		r.Get("/settings", s.getSettings)
		r.Put("/settings", s.putSettings)
		r.Get("/settings/schema", s.getSchema)
		r.Get("/settings/export", s.exportSettings)
		r.Post("/settings/import", s.importSettings)
		r.Post("/settings/reset", s.resetSettings)

		// Results and feedback
		r.Get("/history", s.getHistory)
		r.Get("/notifications", s.getNotifications)
		r.Delete("/notifications/{id}", s.dismissNotification)

		// Live events
		r.Get("/events", s.events)
	})

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}
