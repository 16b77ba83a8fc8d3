// README: Order handlers: create, fetch, admin list, status transitions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/http/middleware"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/order"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

type OrderHandler struct {
	order *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{order: svc}
}

type createOrderReq struct {
	TotalAmount     int64  `json:"totalAmount"`
	Currency        string `json:"currency"`
	DeliveryName    string `json:"deliveryName"`
	DeliveryAddress string `json:"deliveryAddress"`
	DeliveryPincode string `json:"deliveryPincode"`
}

type updateStatusReq struct {
	Status             string `json:"status"`
	CancellationReason string `json:"cancellationReason"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	o, err := h.order.Create(c.Request.Context(), order.CreateCommand{
		CustomerID:      types.ID(middleware.CallerUID(c)),
		TotalAmount:     types.Money{Amount: req.TotalAmount, Currency: currency},
		DeliveryName:    req.DeliveryName,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryPincode: req.DeliveryPincode,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, orderDTO(o))
}

func (h *OrderHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}
	o, err := h.order.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	// Customers may only read their own orders.
	if middleware.CallerRole(c) == "" && string(o.CustomerID) != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(c, http.StatusOK, orderDTO(o))
}

func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, err := h.order.ListAll(c.Request.Context())
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": orderDTOs(orders)})
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.order.ListByCustomer(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": orderDTOs(orders)})
}

// UpdateStatus is the admin status-transition endpoint. The updated order in
// the response is authoritative; callers must not trust optimistic local
// state after a transition.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}
	var req updateStatusReq
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
		Reason:    req.CancellationReason,
		ActorType: "admin",
		ActorID:   &uid,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orderDTO(o))
}

func orderDTO(o *order.Order) gin.H {
	out := gin.H{
		"id":              o.ID,
		"orderNumber":     o.OrderNumber,
		"customerId":      o.CustomerID,
		"status":          o.Status,
		"totalAmount":     o.TotalAmount,
		"deliveryName":    o.DeliveryName,
		"deliveryAddress": o.DeliveryAddress,
		"deliveryPincode": o.DeliveryPincode,
		"trackingId":      o.TrackingID,
		"courierName":     o.CourierName,
		"createdAt":       o.CreatedAt,
	}
	if o.AgentID != nil {
		out["agentId"] = *o.AgentID
	}
	if o.CancelReason != nil {
		out["cancellationReason"] = *o.CancelReason
	}
	if o.AcceptedAt != nil {
		out["acceptedAt"] = *o.AcceptedAt
	}
	if o.PickedUpAt != nil {
		out["pickedUpAt"] = *o.PickedUpAt
	}
	if o.OutForDeliverAt != nil {
		out["outForDeliveryAt"] = *o.OutForDeliverAt
	}
	if o.DeliveredAt != nil {
		out["deliveredAt"] = *o.DeliveredAt
	}
	if o.CancelledAt != nil {
		out["cancelledAt"] = *o.CancelledAt
	}
	return out
}

func orderDTOs(orders []*order.Order) []gin.H {
	out := make([]gin.H, len(orders))
	for i, o := range orders {
		out[i] = orderDTO(o)
	}
	return out
}
