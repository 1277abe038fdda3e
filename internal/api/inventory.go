package api

import (
	"database/sql"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

// topSellingLimit is the length of the best-sellers list.
const topSellingLimit = 10

// InventoryHandler handles inventory endpoints.
type InventoryHandler struct {
	DB *sql.DB
}

type adjustInventoryRequest struct {
	WholesalePrice *decimal.Decimal `json:"wholesalePrice" validate:"omitempty,gte=0"`
	RetailPrice    *decimal.Decimal `json:"retailPrice" validate:"omitempty,gte=0"`
	Unsold         *int             `json:"unsold" validate:"omitempty,gte=0"`
}

// List handles GET /api/inventories.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	inventory, err := store.ListInventory(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err, "failed to list inventory")
		return
	}
	jsonResponse(w, http.StatusOK, inventory)
}

// Adjust handles PUT /api/albums/inventory/{id}.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, "invalid inventory id")
		return
	}

	var req adjustInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "invalid request body")
		return
	}

	inv, err := store.AdjustInventory(r.Context(), h.DB, id, model.InventoryAdjustment{
		WholesalePrice: req.WholesalePrice,
		RetailPrice:    req.RetailPrice,
		Unsold:         req.Unsold,
	})
	if err != nil {
		writeError(w, r, err, "failed to update inventory")
		return
	}

	logging.Ctx(r.Context()).Info().
		Int64("inventory_id", id).
		Str("wholesale_price", inv.WholesalePrice.String()).
		Str("retail_price", inv.RetailPrice.String()).
		Int("unsold", inv.Unsold).
		Msg("inventory adjusted")
	jsonResponse(w, http.StatusOK, inv)
}

// TopSelling handles GET /api/top-selling.
func (h *InventoryHandler) TopSelling(w http.ResponseWriter, r *http.Request) {
	top, err := store.TopSelling(r.Context(), h.DB, topSellingLimit)
	if err != nil {
		writeError(w, r, err, "failed to list top-selling albums")
		return
	}
	jsonResponse(w, http.StatusOK, top)
}
