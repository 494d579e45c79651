package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lehmann314159/flashcards/internal/models"
	"github.com/lehmann314159/flashcards/internal/services"
)

// CreateSession handles POST /api/v1/study/session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var cfg models.StudyConfig
	if err := h.decodeJSON(w, r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.study.CreateSession(r.Context(), cfg)
	if err != nil {
		h.writeServiceError(w, r, err, "session")
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /api/v1/study/session/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.study.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// UpdateSession handles PATCH /api/v1/study/session/{id}
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSessionRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.study.UpdateSession(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeServiceError(w, r, err, "session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// GetSessionResult handles GET /api/v1/study/session/{id}/result
func (h *Handler) GetSessionResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.study.SessionResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "session")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RecordProgress handles POST /api/v1/study/progress
func (h *Handler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	var req models.RecordProgressRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	progress, err := h.study.RecordProgress(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err, "progress")
		return
	}

	writeJSON(w, http.StatusCreated, progress)
}

// GetSessionProgress handles GET /api/v1/study/progress/{sessionId}
func (h *Handler) GetSessionProgress(w http.ResponseWriter, r *http.Request) {
	rows, err := h.study.ListProgress(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeServiceError(w, r, err, "progress")
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

// BeginRun handles POST /api/v1/study/runs
func (h *Handler) BeginRun(w http.ResponseWriter, r *http.Request) {
	var cfg models.StudyConfig
	if err := h.decodeJSON(w, r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.study.BeginRun(r.Context(), cfg)
	if err != nil {
		h.writeServiceError(w, r, err, "run")
		return
	}

	writeJSON(w, http.StatusCreated, state)
}

// GetRun handles GET /api/v1/study/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	h.writeRunState(w, r)(h.study.GetRun(r.Context(), chi.URLParam(r, "id")))
}

// MarkRequest is the body of a mark call
type MarkRequest struct {
	Remembered *bool `json:"remembered"`
}

// MarkRun handles POST /api/v1/study/runs/{id}/mark
func (h *Handler) MarkRun(w http.ResponseWriter, r *http.Request) {
	var req MarkRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Remembered == nil {
		writeError(w, http.StatusBadRequest, "remembered is required")
		return
	}

	h.writeRunState(w, r)(h.study.Mark(r.Context(), chi.URLParam(r, "id"), *req.Remembered))
}

// SkipRun handles POST /api/v1/study/runs/{id}/skip
func (h *Handler) SkipRun(w http.ResponseWriter, r *http.Request) {
	h.writeRunState(w, r)(h.study.Skip(r.Context(), chi.URLParam(r, "id")))
}

// FinishRun handles POST /api/v1/study/runs/{id}/finish
func (h *Handler) FinishRun(w http.ResponseWriter, r *http.Request) {
	h.writeRunState(w, r)(h.study.Finish(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) writeRunState(w http.ResponseWriter, r *http.Request) func(*services.RunState, error) {
	return func(state *services.RunState, err error) {
		if err != nil {
			h.writeServiceError(w, r, err, "run")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}
