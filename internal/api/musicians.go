package api

import (
	"database/sql"
	"net/http"

	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

// musicianSearchLimit caps musician search results.
const musicianSearchLimit = 10

// MusiciansHandler handles musician endpoints.
type MusiciansHandler struct {
	DB *sql.DB
}

type createMusicianRequest struct {
	Name      string   `json:"name" validate:"required,max=200"`
	BirthDate *Date    `json:"birthDate"`
	Country   string   `json:"country" validate:"max=100"`
	Bio       string   `json:"bio" validate:"max=5000"`
	Roles     []string `json:"roles" validate:"dive,musicianrole"`
}

type updateMusicianRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=200"`
	BirthDate *Date    `json:"birthDate"`
	Country   *string  `json:"country" validate:"omitempty,max=100"`
	Bio       *string  `json:"bio" validate:"omitempty,max=5000"`
	Roles     []string `json:"roles" validate:"omitempty,dive,musicianrole"`
}

// List handles GET /api/musicians.
func (h *MusiciansHandler) List(w http.ResponseWriter, r *http.Request) {
	musicians, err := store.ListMusicians(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err, "failed to list musicians")
		return
	}
	jsonResponse(w, http.StatusOK, musicians)
}

// Search handles GET /api/musicians/search?q=.
func (h *MusiciansHandler) Search(w http.ResponseWriter, r *http.Request) {
	musicians, err := store.SearchMusicians(r.Context(), h.DB, r.URL.Query().Get("q"), musicianSearchLimit)
	if err != nil {
		writeError(w, r, err, "failed to search musicians")
		return
	}
	jsonResponse(w, http.StatusOK, musicians)
}

// Get handles GET /api/musicians/{id}.
func (h *MusiciansHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid musician id")
		return
	}

	m, err := store.GetMusician(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to get musician")
		return
	}
	if m == nil {
		jsonError(w, http.StatusNotFound, "musician not found")
		return
	}
	jsonResponse(w, http.StatusOK, m)
}

// Create handles POST /api/musicians.
func (h *MusiciansHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMusicianRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	roles := req.Roles
	if roles == nil {
		roles = []string{}
	}
	m, err := store.CreateMusician(r.Context(), h.DB, model.Musician{
		Name:      req.Name,
		BirthDate: timeOf(req.BirthDate),
		Country:   req.Country,
		Bio:       req.Bio,
		Roles:     roles,
	})
	if err != nil {
		writeError(w, r, err, "failed to create musician")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("musician_id", m.ID).Str("name", m.Name).Msg("musician created")
	jsonResponse(w, http.StatusCreated, m)
}

// Update handles PUT /api/musicians/{id}.
func (h *MusiciansHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid musician id")
		return
	}

	var req updateMusicianRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	m, err := store.UpdateMusician(r.Context(), h.DB, id, model.MusicianPatch{
		Name:      req.Name,
		BirthDate: timeOf(req.BirthDate),
		Country:   req.Country,
		Bio:       req.Bio,
		Roles:     req.Roles,
	})
	if err != nil {
		writeError(w, r, err, "failed to update musician")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("musician_id", id).Msg("musician updated")
	jsonResponse(w, http.StatusOK, m)
}
