// README: Tracking handlers: lifecycle timeline and live location payloads.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/order"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/tracking"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

type TrackingHandler struct {
	order    *order.Service
	tracking *tracking.Service
}

func NewTrackingHandler(orderSvc *order.Service, trackingSvc *tracking.Service) *TrackingHandler {
	return &TrackingHandler{order: orderSvc, tracking: trackingSvc}
}

// Timeline serves GET /api/orders/:id/tracking — the discrete lifecycle
// events plus courier metadata.
func (h *TrackingHandler) Timeline(c *gin.Context) {
	id := types.ID(c.Param("id"))
	o, err := h.order.Get(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	events, err := h.tracking.Events(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	if events == nil {
		events = []tracking.TimelineEvent{}
	}
	writeJSON(c, http.StatusOK, gin.H{
		"orderId":     o.ID,
		"orderNumber": o.OrderNumber,
		"status":      o.Status,
		"trackingId":  o.TrackingID,
		"courierName": o.CourierName,
		"events":      events,
	})
}

// Location serves GET /api/orders/:id/location-tracking — the poll payload
// for the live tracking widget. A disabled session is a 200 with
// trackingEnabled=false, never an error.
func (h *TrackingHandler) Location(c *gin.Context) {
	id := types.ID(c.Param("id"))
	sess, err := h.tracking.BuildSession(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sess)
}
