// Package api provides the HTTP surface display collaborators use to submit
// jobs and observe the live job collection.
package api

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"guidetrack/internal/apperrors"
	"guidetrack/internal/health"
	"guidetrack/internal/track"
)

// maxSubmitBodySize bounds the multipart submission body (PDF + fields).
const maxSubmitBodySize = 25 << 20 // 25 MB

// Handler contains HTTP handlers for the tracker API
type Handler struct {
	tracker *track.Tracker
	health  *health.Checker
}

// NewHandler creates a new API handler
func NewHandler(tracker *track.Tracker, healthChecker *health.Checker) *Handler {
	return &Handler{
		tracker: tracker,
		health:  healthChecker,
	}
}

// SubmitGuide handles POST /v1/guides - multipart submission of one job.
// Form fields mirror the remote contract: website_url, role_title, pdf
// (file), optional company_name and company_context.
func (h *Handler) SubmitGuide(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBodySize)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		h.writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be multipart/form-data")
		return
	}
	if err := r.ParseMultipartForm(maxSubmitBodySize); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	req := track.SubmitRequest{
		WebsiteURL:     r.FormValue("website_url"),
		RoleTitle:      r.FormValue("role_title"),
		CompanyName:    r.FormValue("company_name"),
		CompanyContext: r.FormValue("company_context"),
	}

	// A missing file is a validation failure the tracker reports uniformly,
	// so the absence is passed through rather than rejected here.
	if file, header, err := r.FormFile("pdf"); err == nil {
		defer file.Close()
		req.File = file
		req.Filename = header.Filename
	}

	rec, err := h.tracker.Submit(r.Context(), req)
	if err != nil {
		// Creation failures still produced a tracked record worth returning.
		if rec.LocalID != "" {
			h.writeJSON(w, apperrors.HTTPStatus(err), rec)
			return
		}
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, rec)
}

// ListGuides handles GET /v1/guides - snapshot of the live job collection.
func (h *Handler) ListGuides(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"guides": h.tracker.Snapshot()})
}

// GetGuide handles GET /v1/guides/{localId}
func (h *Handler) GetGuide(w http.ResponseWriter, r *http.Request) {
	localID := r.PathValue("localId")
	if localID == "" {
		h.writeError(w, http.StatusBadRequest, "Local ID is required")
		return
	}

	rec, err := h.tracker.Get(localID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// RefreshGuide handles POST /v1/guides/{localId}/refresh - manual re-check of
// one job's status/results outside the scheduler's cadence.
func (h *Handler) RefreshGuide(w http.ResponseWriter, r *http.Request) {
	localID := r.PathValue("localId")
	if localID == "" {
		h.writeError(w, http.StatusBadRequest, "Local ID is required")
		return
	}

	rec, err := h.tracker.Refresh(r.Context(), localID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// Livez handles GET /livez - liveness probe.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	response := h.health.Liveness(r.Context())
	h.writeJSON(w, http.StatusOK, response)
}

// Readyz handles GET /readyz - readiness probe.
// Returns 503 if the remote guide service is unavailable.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !response.IsHealthy() {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// handleError handles errors from the tracker with appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		slog.Error("Internal error", "error", err, "path", r.URL.Path)
	} else {
		slog.Warn("Client error", "error", err, "path", r.URL.Path, "status", status)
	}
	h.writeError(w, status, err.Error())
}
