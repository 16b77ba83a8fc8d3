// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/order"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/tracking"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeOrderError maps module errors onto the HTTP surface. Policy violations
// (invalid transition, missing reason) surface their message verbatim so the
// UI can show it to the user.
func writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrBadRequest), errors.Is(err, tracking.ErrBadSample), errors.Is(err, tracking.ErrStaleSample):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrInvalidState), errors.Is(err, order.ErrMissingReason):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotYourOrder):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrConflict), errors.Is(err, tracking.ErrNotAssigned), errors.Is(err, tracking.ErrHistoryExists):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
