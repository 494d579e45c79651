package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/lehmann314159/flashcards/internal/models"
	"github.com/lehmann314159/flashcards/internal/services"
)

// defaultMaxMemory is how much of a multipart form is held in memory when no upload limit is set
const defaultMaxMemory = 10 << 20

// Handler contains all HTTP handlers
type Handler struct {
	vocabulary     *services.VocabularyService
	study          *services.StudyService
	log            logrus.FieldLogger
	maxUploadBytes int64
}

// NewHandler creates a new handler. Request bodies larger than maxUploadBytes are rejected.
func NewHandler(vocabulary *services.VocabularyService, study *services.StudyService, log logrus.FieldLogger, maxUploadBytes int64) *Handler {
	return &Handler{
		vocabulary:     vocabulary,
		study:          study,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps a service error to its status. Validation messages go back to the
// client, unexpected failures are logged and hidden.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, resource+" not found")
	default:
		h.log.WithError(err).WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("storage failure")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a size-limited JSON body into v
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, models.ErrValidation) {
			return err
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.Invalidf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return models.Invalidf("invalid request body")
	}
	return nil
}

// ListVocabulary handles GET /api/v1/vocabulary
func (h *Handler) ListVocabulary(w http.ResponseWriter, r *http.Request) {
	words, err := h.vocabulary.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "vocabulary")
		return
	}

	writeJSON(w, http.StatusOK, words)
}

// ListVocabularyRange handles GET /api/v1/vocabulary/range/{start}/{end}
func (h *Handler) ListVocabularyRange(w http.ResponseWriter, r *http.Request) {
	start, errStart := strconv.Atoi(chi.URLParam(r, "start"))
	end, errEnd := strconv.Atoi(chi.URLParam(r, "end"))
	if errStart != nil || errEnd != nil {
		writeError(w, http.StatusBadRequest, "start and end must be integers")
		return
	}

	words, err := h.vocabulary.ListRange(r.Context(), start, end)
	if err != nil {
		h.writeServiceError(w, r, err, "vocabulary")
		return
	}

	writeJSON(w, http.StatusOK, words)
}

// GetWord handles GET /api/v1/vocabulary/{id}
func (h *Handler) GetWord(w http.ResponseWriter, r *http.Request) {
	word, err := h.vocabulary.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "word")
		return
	}

	writeJSON(w, http.StatusOK, word)
}

// UploadVocabulary handles POST /api/v1/vocabulary/upload
func (h *Handler) UploadVocabulary(w http.ResponseWriter, r *http.Request) {
	var req models.UploadRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.vocabulary.Upload(r.Context(), req.Words)
	if err != nil {
		h.writeServiceError(w, r, err, "vocabulary")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ImportVocabulary handles POST /api/v1/vocabulary/import
func (h *Handler) ImportVocabulary(w http.ResponseWriter, r *http.Request) {
	maxMemory := int64(defaultMaxMemory)
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		maxMemory = h.maxUploadBytes
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	resp, err := h.vocabulary.Import(r.Context(), header.Filename, file)
	if err != nil {
		h.writeServiceError(w, r, err, "vocabulary")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ExportVocabulary handles GET /api/v1/vocabulary/export
func (h *Handler) ExportVocabulary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=vocabulary.csv")

	if err := h.vocabulary.ExportCSV(r.Context(), w); err != nil {
		// headers may already be on the wire, so the failure can only be logged
		h.log.WithError(err).Error("failed to export vocabulary")
	}
}

// GetReviewWords handles GET /api/v1/vocabulary/review
func (h *Handler) GetReviewWords(w http.ResponseWriter, r *http.Request) {
	items, err := h.study.ReviewSet(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "review words")
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// GetWordDefinition handles GET /api/v1/vocabulary/{id}/definition
func (h *Handler) GetWordDefinition(w http.ResponseWriter, r *http.Request) {
	definition, err := h.vocabulary.GetDefinition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrDefinitionNotFound) {
			writeError(w, http.StatusNotFound, "definition not found in dictionary")
			return
		}
		h.writeServiceError(w, r, err, "word")
		return
	}

	writeJSON(w, http.StatusOK, definition)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	count, err := h.vocabulary.Count(r.Context())
	if err != nil {
		h.log.WithError(err).Error("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"words":      count,
		"activeRuns": h.study.ActiveRuns(),
	})
}
