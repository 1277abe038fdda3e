package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/danicaoo/musicShop/internal/imaging"
	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

const albumSearchLimit = 20

// AlbumsHandler handles album endpoints.
type AlbumsHandler struct {
	DB *sql.DB
}

type trackRequest struct {
	Position    int   `json:"position" validate:"required,gt=0"`
	RecordingID int64 `json:"recordingId" validate:"required,gt=0"`
}

type inventoryDataRequest struct {
	WholesalePrice  *decimal.Decimal `json:"wholesalePrice" validate:"required,gte=0"`
	RetailPrice     *decimal.Decimal `json:"retailPrice" validate:"required,gte=0"`
	InitialQuantity int              `json:"initialQuantity" validate:"gte=0"`
}

type createAlbumRequest struct {
	Title         string               `json:"title" validate:"required,max=200"`
	CatalogNumber string               `json:"catalogNumber" validate:"required,max=50"`
	ReleaseDate   *Date                `json:"releaseDate" validate:"required"`
	MusicianID    *int64               `json:"musicianId" validate:"omitempty,gt=0"`
	EnsembleID    *int64               `json:"ensembleId" validate:"omitempty,gt=0"`
	Tracks        []trackRequest       `json:"tracks" validate:"dive"`
	InventoryData inventoryDataRequest `json:"inventoryData"`
}

type updateAlbumRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=200"`
	CatalogNumber *string `json:"catalogNumber" validate:"omitempty,min=1,max=50"`
	ReleaseDate   *Date   `json:"releaseDate"`
	MusicianID    *int64  `json:"musicianId" validate:"omitempty,gte=0"`
	EnsembleID    *int64  `json:"ensembleId" validate:"omitempty,gte=0"`
}

type albumListResponse struct {
	Albums     []model.Album    `json:"albums"`
	Pagination model.Pagination `json:"pagination"`
}

// List handles GET /api/albums?page=&pageSize=.
func (h *AlbumsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, r, err, "invalid page")
		return
	}
	pageSize, err := queryInt(r, "pageSize", store.DefaultPageSize)
	if err != nil {
		writeError(w, r, err, "invalid page size")
		return
	}

	albums, pagination, err := store.ListAlbums(r.Context(), h.DB, page, pageSize)
	if err != nil {
		writeError(w, r, err, "failed to list albums")
		return
	}
	jsonResponse(w, http.StatusOK, albumListResponse{Albums: albums, Pagination: pagination})
}

// Search handles GET /api/albums/search?q=.
func (h *AlbumsHandler) Search(w http.ResponseWriter, r *http.Request) {
	albums, err := store.SearchAlbums(r.Context(), h.DB, r.URL.Query().Get("q"), albumSearchLimit)
	if err != nil {
		writeError(w, r, err, "failed to search albums")
		return
	}
	jsonResponse(w, http.StatusOK, albums)
}

// CheckCatalogNumber handles GET /api/albums/catalog-number/check?catalogNumber=&excludeId=.
func (h *AlbumsHandler) CheckCatalogNumber(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("catalogNumber")
	var excludeID int64
	if s := r.URL.Query().Get("excludeId"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "excludeId must be an integer")
			return
		}
		excludeID = id
	}

	available, err := store.CatalogNumberAvailable(r.Context(), h.DB, number, excludeID)
	if err != nil {
		writeError(w, r, err, "failed to check catalog number")
		return
	}

	msg := "catalog number is available"
	if !available {
		msg = "catalog number is already used"
	}
	jsonResponse(w, http.StatusOK, map[string]any{"available": available, "message": msg})
}

// Get handles GET /api/albums/{id}.
func (h *AlbumsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid album id")
		return
	}

	album, err := store.GetAlbum(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to get album")
		return
	}
	if album == nil {
		jsonError(w, http.StatusNotFound, "album not found")
		return
	}
	jsonResponse(w, http.StatusOK, album)
}

// Create handles POST /api/albums. The album, its tracks and its inventory
// are created together.
func (h *AlbumsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	na := model.NewAlbum{
		Title:          req.Title,
		CatalogNumber:  req.CatalogNumber,
		ReleaseDate:    req.ReleaseDate.Time,
		MusicianID:     req.MusicianID,
		EnsembleID:     req.EnsembleID,
		WholesalePrice: *req.InventoryData.WholesalePrice,
		RetailPrice:    *req.InventoryData.RetailPrice,
		InitialStock:   req.InventoryData.InitialQuantity,
	}
	for _, t := range req.Tracks {
		na.Tracks = append(na.Tracks, model.TrackInput{Position: t.Position, RecordingID: t.RecordingID})
	}

	album, err := store.CreateAlbum(r.Context(), h.DB, na)
	if err != nil {
		writeError(w, r, err, "failed to create album")
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("album_id", album.ID).
		Str("catalog_number", album.CatalogNumber).
		Int("tracks", len(album.Tracks)).
		Int("initial_stock", na.InitialStock).
		Msg("album created")
	jsonResponse(w, http.StatusCreated, album)
}

// Update handles PUT /api/albums/{id}.
func (h *AlbumsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid album id")
		return
	}

	var req updateAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	album, err := store.UpdateAlbum(r.Context(), h.DB, id, model.AlbumPatch{
		Title:         req.Title,
		CatalogNumber: req.CatalogNumber,
		ReleaseDate:   timeOf(req.ReleaseDate),
		MusicianID:    req.MusicianID,
		EnsembleID:    req.EnsembleID,
	})
	if err != nil {
		writeError(w, r, err, "failed to update album")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("album_id", id).Msg("album updated")
	jsonResponse(w, http.StatusOK, album)
}

// UploadCover handles PUT /api/albums/{id}/cover.
func (h *AlbumsHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid album id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1)
	defer r.Body.Close()

	cover, err := imaging.ProcessCover(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, imaging.ErrTooLarge), errors.As(err, &tooLarge):
			jsonError(w, http.StatusRequestEntityTooLarge, imaging.ErrTooLarge.Error())
		case errors.Is(err, imaging.ErrUnsupportedFormat):
			jsonError(w, http.StatusBadRequest, err.Error())
		default:
			jsonError(w, http.StatusBadRequest, "invalid image")
		}
		return
	}

	if err := store.SetAlbumCover(r.Context(), h.DB, id, cover.Data, cover.MIME); err != nil {
		writeError(w, r, err, "failed to save cover")
		return
	}

	logging.Ctx(r.Context()).Info().Int64("album_id", id).Int("bytes", len(cover.Data)).Msg("album cover updated")
	message(w, http.StatusOK, "cover updated")
}

// GetCover handles GET /api/albums/{id}/cover.
func (h *AlbumsHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid album id")
		return
	}

	data, mime, err := store.GetAlbumCover(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err, "failed to get cover")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "album has no cover")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
