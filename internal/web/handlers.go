package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/camera"
	"github.com/smegmarip/live-recognition/internal/session"
	"github.com/smegmarip/live-recognition/internal/settings"
)

const (
	errInvalidRequestBody = "invalid request body"
	maxImportSize         = 1 << 20
	defaultPreviewWidth   = 320
	defaultPreviewHeight  = 240
	previewQuality        = 80
)

// settingsResponse carries the applied settings and, when persisting them
// failed, a warning that the change only lives in memory
type settingsResponse struct {
	Settings settings.Settings `json:"settings"`
	Warning  string            `json:"warning,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Debugf("Failed to encode response: %v", err)
		}
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// cameraErrorStatus maps a start failure to an HTTP status
func cameraErrorStatus(err error) int {
	var (
		accessErr   *camera.AccessError
		notFoundErr *camera.NotFoundError
	)
	switch {
	case errors.As(err, &accessErr):
		return http.StatusForbidden
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.Is(err, session.ErrStartAborted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// ============================================================================
// Session
// ============================================================================

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Start(r.Context()); err != nil {
		respondJSON(w, cameraErrorStatus(err), map[string]string{
			"error":   err.Error(),
			"message": camera.UserMessage(err),
		})
		return
	}
	respondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Stop()
	respondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) toggleSession(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Toggle(r.Context()); err != nil {
		respondJSON(w, cameraErrorStatus(err), map[string]string{
			"error":   err.Error(),
			"message": camera.UserMessage(err),
		})
		return
	}
	respondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) captureFrame(w http.ResponseWriter, r *http.Request) {
	path, err := s.ctrl.CaptureFrame()
	if errors.Is(err, session.ErrNotActive) {
		respondError(w, http.StatusConflict, "Start recognition first")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"path": path})
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	width := queryInt(r, "w", defaultPreviewWidth)
	height := queryInt(r, "h", defaultPreviewHeight)

	img, ok := s.ctrl.Preview(width, height)
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "no frame available")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: previewQuality}); err != nil {
		log.Debugf("Failed to write preview: %v", err)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// ============================================================================
// Settings
// ============================================================================

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, settingsResponse{Settings: s.ctrl.Settings().Current()})
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxImportSize)).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	// Accept both a bare settings object and the export document shape
	if inner, ok := raw["settings"].(map[string]any); ok {
		raw = inner
	}

	next, err := s.ctrl.Settings().SaveRaw(raw)
	resp := settingsResponse{Settings: next}
	if err != nil {
		resp.Warning = err.Error()
		s.ctrl.Toasts().Warning("Settings applied but could not be saved")
	} else {
		s.ctrl.Toasts().Success("Settings saved successfully")
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, settings.SchemaInfo())
}

func (s *Server) exportSettings(w http.ResponseWriter, r *http.Request) {
	data, err := s.ctrl.Settings().ExportJSON()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", settings.ExportFileName(s.now())))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Debugf("Failed to write settings export: %v", err)
		return
	}
	s.ctrl.Toasts().Success("Settings exported successfully")
}

func (s *Server) importSettings(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	next, err := s.ctrl.Settings().Import(payload)
	var formatErr *settings.ImportFormatError
	if errors.As(err, &formatErr) {
		s.ctrl.Toasts().Error("Failed to import settings: Invalid file format")
		respondError(w, http.StatusBadRequest, formatErr.Error())
		return
	}

	resp := settingsResponse{Settings: next}
	if err != nil {
		resp.Warning = err.Error()
	}
	s.ctrl.Toasts().Success("Settings imported successfully")
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) resetSettings(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		respondError(w, http.StatusPreconditionRequired, "reset requires confirm=true")
		return
	}

	next, err := s.ctrl.Settings().Reset()
	resp := settingsResponse{Settings: next}
	if err != nil {
		resp.Warning = err.Error()
	}
	s.ctrl.Toasts().Info("Settings reset to defaults")
	respondJSON(w, http.StatusOK, resp)
}

// ============================================================================
// History and notifications
// ============================================================================

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ctrl.History())
}

func (s *Server) getNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ctrl.Toasts().Active())
}

func (s *Server) dismissNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.ctrl.Toasts().Dismiss(id) {
		respondError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
