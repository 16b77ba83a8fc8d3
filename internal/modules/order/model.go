// README: Order aggregate and status definitions.
package order

import (
	"time"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

type Status string

const (
	StatusNone           Status = "NONE"
	StatusPending        Status = "PENDING"
	StatusConfirmed      Status = "CONFIRMED"
	StatusProcessing     Status = "PROCESSING"
	StatusShipped        Status = "SHIPPED"
	StatusAccepted       Status = "ACCEPTED"
	StatusPickedUp       Status = "PICKED_UP"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// Statuses lists every order status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusAccepted,
	StatusPickedUp,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

type Order struct {
	ID              types.ID
	OrderNumber     string
	CustomerID      types.ID
	Status          Status
	StatusVersion   int
	TotalAmount     types.Money
	DeliveryName    string
	DeliveryAddress string
	DeliveryPincode string
	TrackingID      string
	CourierName     string
	AgentID         *types.ID
	Pickup          *types.Point
	PickupAddress   string
	Delivery        *types.Point
	DeliveryGeoAddr string
	CreatedAt       time.Time
	AcceptedAt      *time.Time
	PickedUpAt      *time.Time
	OutForDeliverAt *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    *string
}

type Event struct {
	ID         int64
	OrderID    types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the order state flow (diagram) as code.
// SHIPPED covers third-party couriers; ACCEPTED/PICKED_UP cover in-house
// delivery agents. Both branches converge on OUT_FOR_DELIVERY.
var AllowedTransitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusShipped, StatusAccepted, StatusCancelled},
	StatusShipped:        {StatusOutForDelivery, StatusCancelled},
	StatusAccepted:       {StatusPickedUp, StatusCancelled},
	StatusPickedUp:       {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// AllowedNext returns the set of statuses an order may legally move to.
// Total over Status: unknown values get an empty set, never nil.
func AllowedNext(from Status) []Status {
	next, ok := AllowedTransitions[from]
	if !ok {
		return []Status{}
	}
	return next
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedNext(from) {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status has no outgoing transitions.
func Terminal(s Status) bool {
	return len(AllowedNext(s)) == 0
}

// ParseStatus maps a wire string onto a known Status.
func ParseStatus(v string) (Status, bool) {
	for _, s := range Statuses {
		if string(s) == v {
			return s, true
		}
	}
	return StatusNone, false
}
