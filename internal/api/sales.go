package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/metrics"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

// Recent sales list bounds.
const (
	defaultSalesLimit = 50
	maxSalesLimit     = 500
)

// SalesHandler handles sale recording, reporting and the yearly rollover.
type SalesHandler struct {
	DB *sql.DB
}

type createSaleRequest struct {
	InventoryID int64 `json:"inventoryId" validate:"required,gt=0"`
	Quantity    int   `json:"quantity" validate:"required,min=1"`
}

type rolloverResponse struct {
	Message      string `json:"message"`
	AffectedRows int64  `json:"affectedRows"`
}

// Create handles POST /api/sales.
func (h *SalesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		metrics.SalesRejected.WithLabelValues(metrics.ReasonInvalid).Inc()
		writeError(w, r, err, "invalid request body")
		return
	}

	var soldBy *int64
	if claims := GetClaims(r.Context()); claims != nil {
		soldBy = &claims.UserID
	}

	log := logging.Ctx(r.Context())
	receipt, err := store.RecordSale(r.Context(), h.DB, req.InventoryID, req.Quantity, time.Now(), soldBy)
	if err != nil {
		reason := rejectReason(err)
		metrics.SalesRejected.WithLabelValues(reason).Inc()
		if reason != metrics.ReasonError {
			log.Warn().
				Int64("inventory_id", req.InventoryID).
				Int("quantity", req.Quantity).
				Str("reason", reason).
				Msg("sale rejected")
		}
		writeError(w, r, err, "failed to record sale")
		return
	}

	metrics.RecordSale(receipt.Quantity)
	log.Info().
		Int64("sale_id", receipt.ID).
		Int64("inventory_id", receipt.InventoryID).
		Int("quantity", receipt.Quantity).
		Int("remaining", receipt.Remaining).
		Msg("sale recorded")
	jsonResponse(w, http.StatusCreated, receipt)
}

func rejectReason(err error) string {
	var (
		stock   *model.InsufficientStockError
		missing *model.NotFoundError
		invalid *model.ValidationError
	)
	switch {
	case errors.As(err, &stock):
		return metrics.ReasonInsufficientStock
	case errors.As(err, &missing):
		return metrics.ReasonNotFound
	case errors.As(err, &invalid):
		return metrics.ReasonInvalid
	}
	return metrics.ReasonError
}

// List handles GET /api/sales?limit=.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultSalesLimit)
	if err != nil {
		writeError(w, r, err, "invalid limit")
		return
	}
	if limit < 1 || limit > maxSalesLimit {
		jsonError(w, http.StatusBadRequest, "limit must be between 1 and 500")
		return
	}

	sales, err := store.ListSales(r.Context(), h.DB, limit)
	if err != nil {
		writeError(w, r, err, "failed to list sales")
		return
	}
	jsonResponse(w, http.StatusOK, sales)
}

// Report handles GET /api/sales/report?startDate=&endDate=&minQuantity=.
// A plain endDate includes the whole day.
func (h *SalesHandler) Report(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "startDate", false)
	if err != nil {
		writeError(w, r, err, "invalid start date")
		return
	}
	to, err := queryDate(r, "endDate", true)
	if err != nil {
		writeError(w, r, err, "invalid end date")
		return
	}
	minQuantity, err := queryInt(r, "minQuantity", model.DefaultMinQuantity)
	if err != nil {
		writeError(w, r, err, "invalid minimum quantity")
		return
	}

	report, err := store.SalesReport(r.Context(), h.DB, model.ReportFilter{
		From:        from,
		To:          to,
		MinQuantity: minQuantity,
	})
	if err != nil {
		writeError(w, r, err, "failed to build sales report")
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// Rollover handles POST /api/sales/update-last-year. The store refuses
// callers that are not administrators.
func (h *SalesHandler) Rollover(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	log := logging.Ctx(r.Context())
	affected, err := store.RolloverSales(r.Context(), h.DB, claims.Role)
	if err != nil {
		var forbidden *model.ForbiddenError
		if errors.As(err, &forbidden) {
			log.Warn().Str("role", claims.Role).Msg("rollover refused")
		}
		writeError(w, r, err, "failed to roll over sales")
		return
	}

	metrics.RecordRollover(affected)
	log.Info().Int64("affected", affected).Msg("yearly sales rollover")
	jsonResponse(w, http.StatusOK, rolloverResponse{
		Message:      "last year sales updated",
		AffectedRows: affected,
	})
}

// ResetEvents handles GET /api/sales/reset-events.
func (h *SalesHandler) ResetEvents(w http.ResponseWriter, r *http.Request) {
	events, err := store.ListResetEvents(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err, "failed to list reset events")
		return
	}
	jsonResponse(w, http.StatusOK, events)
}
