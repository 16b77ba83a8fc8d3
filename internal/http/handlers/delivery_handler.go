// README: Delivery-agent handlers: claim orders, report progress, push GPS samples.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/http/middleware"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/order"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/tracking"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

type DeliveryHandler struct {
	order    *order.Service
	tracking *tracking.Service
}

func NewDeliveryHandler(orderSvc *order.Service, trackingSvc *tracking.Service) *DeliveryHandler {
	return &DeliveryHandler{order: orderSvc, tracking: trackingSvc}
}

// ListAvailable returns PROCESSING orders an agent may claim.
func (h *DeliveryHandler) ListAvailable(c *gin.Context) {
	orders, err := h.order.ListAvailable(c.Request.Context())
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": orderDTOs(orders)})
}

// Accept claims an order for the authenticated agent and enables tracking.
func (h *DeliveryHandler) Accept(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}
	o, err := h.order.Accept(c.Request.Context(), order.AcceptCommand{
		OrderID: types.ID(id),
		AgentID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orderDTO(o))
}

type updateDeliveryStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus lets the assigned agent advance the order (picked up, out for
// delivery, delivered).
func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	var req updateDeliveryStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	target, ok := order.ParseStatus(req.Status)
	if !ok {
		writeError(c, http.StatusBadRequest, "unknown status: "+req.Status)
		return
	}
	uid := types.ID(middleware.CallerUID(c))
	o, err := h.order.Transition(c.Request.Context(), order.TransitionCommand{
		OrderID:   types.ID(id),
		Target:    target,
		ActorType: "delivery",
		ActorID:   &uid,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orderDTO(o))
}

type locationUpdateReq struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Heading   float64 `json:"heading"`
	Address   string  `json:"address"`
	Timestamp string  `json:"timestamp"`
}

// UpdateLocation ingests one GPS sample from the agent's device.
func (h *DeliveryHandler) UpdateLocation(c *gin.Context) {
	id := c.Param("id")
	var req locationUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	point := tracking.LocationPoint{
		Lat:     req.Lat,
		Lng:     req.Lng,
		Heading: req.Heading,
		Address: req.Address,
	}
	if req.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid timestamp")
			return
		}
		point.Timestamp = t
	}
	err := h.tracking.RecordLocation(c.Request.Context(), tracking.RecordCommand{
		OrderID: types.ID(id),
		AgentID: types.ID(middleware.CallerUID(c)),
		Point:   point,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// SimulateLocations seeds fake history for development and demos.
func (h *DeliveryHandler) SimulateLocations(c *gin.Context) {
	id := c.Param("id")
	points, err := h.tracking.SimulateRoute(c.Request.Context(), types.ID(id), 5)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"generated": len(points), "locations": points})
}
