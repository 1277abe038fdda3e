package api

import (
	"errors"
	"net/http"

	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
)

// statusOf maps an error to its HTTP status. Unknown errors are store
// failures.
func statusOf(err error) int {
	var (
		invalid   *model.ValidationError
		notFound  *model.NotFoundError
		stock     *model.InsufficientStockError
		forbidden *model.ForbiddenError
		conflict  *model.ConflictError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &stock):
		return http.StatusBadRequest
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &conflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError writes err with its mapped status. Business errors pass their
// message through; store failures are logged and hidden behind msg.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Msg(msg)
		jsonError(w, status, msg)
		return
	}
	jsonError(w, status, err.Error())
}
