package api

import (
	"database/sql"
	"net/http"

	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

const ensembleSearchLimit = 10

// EnsemblesHandler handles ensemble endpoints.
type EnsemblesHandler struct {
	DB *sql.DB
}

type memberRequest struct {
	MusicianID int64  `json:"musicianId" validate:"required,gt=0"`
	Role       string `json:"role" validate:"max=100"`
	StartDate  *Date  `json:"startDate"`
	EndDate    *Date  `json:"endDate"`
}

type createEnsembleRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	FormationDate *Date           `json:"formationDate" validate:"required"`
	Type          string          `json:"type" validate:"required,ensembletype"`
	Members       []memberRequest `json:"members" validate:"required,min=1,dive"`
}

// List handles GET /api/ensembles.
func (h *EnsemblesHandler) List(w http.ResponseWriter, r *http.Request) {
	ensembles, err := store.ListEnsembles(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err, "failed to list ensembles")
		return
	}
	jsonResponse(w, http.StatusOK, ensembles)
}

// Search handles GET /api/ensembles/search?q=.
func (h *EnsemblesHandler) Search(w http.ResponseWriter, r *http.Request) {
	ensembles, err := store.SearchEnsembles(r.Context(), h.DB, r.URL.Query().Get("q"), ensembleSearchLimit)
	if err != nil {
		writeError(w, r, err, "failed to search ensembles")
		return
	}
	jsonResponse(w, http.StatusOK, ensembles)
}

// Get handles GET /api/ensembles/{id}.
func (h *EnsemblesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid ensemble id")
		return
	}

	e, err := store.GetEnsemble(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to get ensemble")
		return
	}
	if e == nil {
		jsonError(w, http.StatusNotFound, "ensemble not found")
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Create handles POST /api/ensembles.
func (h *EnsemblesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEnsembleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	e := model.Ensemble{
		Name:          req.Name,
		FormationDate: req.FormationDate.Time,
		Type:          req.Type,
	}
	for _, m := range req.Members {
		ms := model.Membership{
			MusicianID: m.MusicianID,
			Role:       m.Role,
			EndDate:    timeOf(m.EndDate),
		}
		if m.StartDate != nil {
			ms.StartDate = m.StartDate.Time
		}
		e.Members = append(e.Members, ms)
	}

	created, err := store.CreateEnsemble(r.Context(), h.DB, e)
	if err != nil {
		writeError(w, r, err, "failed to create ensemble")
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("ensemble_id", created.ID).
		Str("name", created.Name).
		Int("members", len(created.Members)).
		Msg("ensemble created")
	jsonResponse(w, http.StatusCreated, created)
}

// Albums handles GET /api/ensembles/{id}/albums.
func (h *EnsemblesHandler) Albums(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid ensemble id")
		return
	}

	albums, err := store.EnsembleAlbums(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to list ensemble albums")
		return
	}
	jsonResponse(w, http.StatusOK, albums)
}

// CompositionsCount handles GET /api/ensembles/{id}/compositions-count.
func (h *EnsemblesHandler) CompositionsCount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid ensemble id")
		return
	}

	n, err := store.CountEnsembleCompositions(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to count compositions")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"ensembleId": id, "compositionsCount": n})
}
