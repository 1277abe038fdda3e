package api

import (
	"database/sql"
	"net/http"

	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

const recordingSearchLimit = 20

// CompositionsHandler handles composition and recording endpoints.
type CompositionsHandler struct {
	DB *sql.DB
}

type createCompositionRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	DurationSeconds int    `json:"durationSeconds" validate:"required,gt=0"`
	CreationYear    *int   `json:"creationYear" validate:"omitempty,gte=0,lte=9999"`
	Genre           string `json:"genre" validate:"max=100"`
}

type updateCompositionRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	DurationSeconds *int    `json:"durationSeconds" validate:"omitempty,gt=0"`
	CreationYear    *int    `json:"creationYear" validate:"omitempty,gte=0,lte=9999"`
	Genre           *string `json:"genre" validate:"omitempty,max=100"`
}

type createRecordingRequest struct {
	CompositionID int64  `json:"compositionId" validate:"required,gt=0"`
	RecordingDate *Date  `json:"recordingDate" validate:"required"`
	Studio        string `json:"studio" validate:"max=200"`
}

// List handles GET /api/compositions.
func (h *CompositionsHandler) List(w http.ResponseWriter, r *http.Request) {
	compositions, err := store.ListCompositions(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err, "failed to list compositions")
		return
	}
	jsonResponse(w, http.StatusOK, compositions)
}

// Get handles GET /api/compositions/{id}.
func (h *CompositionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid composition id")
		return
	}

	c, err := store.GetComposition(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to get composition")
		return
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "composition not found")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Create handles POST /api/compositions.
func (h *CompositionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCompositionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	c, err := store.CreateComposition(r.Context(), h.DB, model.Composition{
		Title:           req.Title,
		DurationSeconds: req.DurationSeconds,
		CreationYear:    req.CreationYear,
		Genre:           req.Genre,
	})
	if err != nil {
		writeError(w, r, err, "failed to create composition")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("composition_id", c.ID).Str("title", c.Title).Msg("composition created")
	jsonResponse(w, http.StatusCreated, c)
}

// Update handles PUT /api/compositions/{id}.
func (h *CompositionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid composition id")
		return
	}

	var req updateCompositionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	c, err := store.UpdateComposition(r.Context(), h.DB, id, model.CompositionPatch{
		Title:           req.Title,
		DurationSeconds: req.DurationSeconds,
		CreationYear:    req.CreationYear,
		Genre:           req.Genre,
	})
	if err != nil {
		writeError(w, r, err, "failed to update composition")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Delete handles DELETE /api/compositions/{id}.
func (h *CompositionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid composition id")
		return
	}

	if err := store.DeleteComposition(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err, "failed to delete composition")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("composition_id", id).Msg("composition deleted")
	message(w, http.StatusOK, "composition deleted")
}

// ListRecordings handles GET /api/recordings.
func (h *CompositionsHandler) ListRecordings(w http.ResponseWriter, r *http.Request) {
	recordings, err := store.ListRecordings(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err, "failed to list recordings")
		return
	}
	jsonResponse(w, http.StatusOK, recordings)
}

// SearchRecordings handles GET /api/recordings/search?q=.
func (h *CompositionsHandler) SearchRecordings(w http.ResponseWriter, r *http.Request) {
	recordings, err := store.SearchRecordings(r.Context(), h.DB, r.URL.Query().Get("q"), recordingSearchLimit)
	if err != nil {
		writeError(w, r, err, "failed to search recordings")
		return
	}
	jsonResponse(w, http.StatusOK, recordings)
}

// CreateRecording handles POST /api/recordings.
func (h *CompositionsHandler) CreateRecording(w http.ResponseWriter, r *http.Request) {
	var req createRecordingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	rec, err := store.CreateRecording(r.Context(), h.DB, model.Recording{
		CompositionID: req.CompositionID,
		RecordingDate: req.RecordingDate.Time,
		Studio:        req.Studio,
	})
	if err != nil {
		writeError(w, r, err, "failed to create recording")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("recording_id", rec.ID).Int64("composition_id", rec.CompositionID).Msg("recording created")
	jsonResponse(w, http.StatusCreated, rec)
}
