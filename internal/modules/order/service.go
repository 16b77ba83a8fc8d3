// README: Order service implements state transitions and persistence.
package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

var (
	ErrInvalidState  = errors.New("invalid state transition")
	ErrMissingReason = errors.New("cancellation reason is required")
	ErrNotFound      = errors.New("order not found")
	ErrConflict      = errors.New("order state conflict")
	ErrBadRequest    = errors.New("bad request")
	ErrNotYourOrder  = errors.New("order is not assigned to you")
)

// Geocoder resolves a postal pincode to a coordinate. Implemented by the maps
// module; nil disables delivery-location seeding.
type Geocoder interface {
	GeocodePincode(ctx context.Context, pincode string) (types.Point, string, error)
}

// EventRecorder receives discrete lifecycle events for the tracking timeline.
type EventRecorder interface {
	Record(ctx context.Context, orderID types.ID, eventType, description string) error
}

type Warehouse struct {
	Position types.Point
	Address  string
}

type Service struct {
	store     *Store
	geocoder  Geocoder
	events    EventRecorder
	warehouse Warehouse
}

func NewService(store *Store, geocoder Geocoder, events EventRecorder, warehouse Warehouse) *Service {
	return &Service{store: store, geocoder: geocoder, events: events, warehouse: warehouse}
}

type CreateCommand struct {
	CustomerID      types.ID
	TotalAmount     types.Money
	DeliveryName    string
	DeliveryAddress string
	DeliveryPincode string
}

type TransitionCommand struct {
	OrderID   types.ID
	Target    Status
	Reason    string
	ActorType string
	ActorID   *types.ID
}

type AcceptCommand struct {
	OrderID types.ID
	AgentID types.ID
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if cmd.CustomerID == "" || cmd.DeliveryAddress == "" {
		return nil, ErrBadRequest
	}
	now := time.Now()
	o := &Order{
		ID:              newID(),
		OrderNumber:     fmt.Sprintf("ORD-%d-%s", now.Year(), strings.ToUpper(string(newID())[:6])),
		CustomerID:      cmd.CustomerID,
		Status:          StatusPending,
		StatusVersion:   0,
		TotalAmount:     cmd.TotalAmount,
		DeliveryName:    cmd.DeliveryName,
		DeliveryAddress: cmd.DeliveryAddress,
		DeliveryPincode: cmd.DeliveryPincode,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "customer",
		ActorID:    &cmd.CustomerID,
		CreatedAt:  now,
	})
	if s.events != nil {
		_ = s.events.Record(ctx, o.ID, "ORDER_PLACED", "Order placed, awaiting confirmation")
	}
	return o, nil
}

// Transition moves an order along the status machine. Policy violations are
// rejected before any write: an illegal edge yields ErrInvalidState, a
// cancellation without a usable reason yields ErrMissingReason, and a delivery
// actor who is not the assigned agent yields ErrNotYourOrder. The returned
// order is re-read after the update and is the authoritative state.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Order, error) {
	if _, known := ParseStatus(string(cmd.Target)); !known {
		return nil, ErrBadRequest
	}
	reason := strings.TrimSpace(cmd.Reason)
	if cmd.Target == StatusCancelled && reason == "" {
		return nil, ErrMissingReason
	}

	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	// Delivery agents may only advance orders assigned to them. Checked
	// before the edge so a foreign agent learns nothing about legal moves.
	if cmd.ActorType == "delivery" {
		if o.AgentID == nil || cmd.ActorID == nil || *o.AgentID != *cmd.ActorID {
			return nil, ErrNotYourOrder
		}
	}
	if !CanTransition(o.Status, cmd.Target) {
		return nil, ErrInvalidState
	}

	var reasonPtr *string
	if cmd.Target == StatusCancelled {
		reasonPtr = &reason
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, cmd.Target, o.StatusVersion, reasonPtr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   cmd.Target,
		ActorType:  cmd.ActorType,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now(),
	})
	s.recordLifecycleEvent(ctx, o.ID, cmd.Target, reason)

	return s.store.Get(ctx, o.ID)
}

// Accept assigns a delivery agent to a PROCESSING order, which enables live
// location tracking. Pickup defaults to the warehouse; the delivery coordinate
// is geocoded from the order's pincode when not already known.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Order, error) {
	if cmd.AgentID == "" {
		return nil, ErrBadRequest
	}
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, StatusAccepted) {
		return nil, ErrInvalidState
	}

	pickup := o.Pickup
	pickupAddr := o.PickupAddress
	if pickup == nil {
		p := s.warehouse.Position
		pickup = &p
		pickupAddr = s.warehouse.Address
	}
	delivery := o.Delivery
	deliveryAddr := o.DeliveryGeoAddr
	if delivery == nil && o.DeliveryPincode != "" && s.geocoder != nil {
		if p, addr, err := s.geocoder.GeocodePincode(ctx, o.DeliveryPincode); err == nil {
			delivery = &p
			deliveryAddr = addr
		}
	}

	ok, err := s.store.AssignAgent(ctx, o.ID, o.Status, o.StatusVersion, cmd.AgentID, pickup, pickupAddr, delivery, deliveryAddr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   StatusAccepted,
		ActorType:  "delivery",
		ActorID:    &cmd.AgentID,
		CreatedAt:  time.Now(),
	})
	if s.events != nil {
		_ = s.events.Record(ctx, o.ID, "ACCEPTED", "Order accepted by delivery agent")
	}
	return s.store.Get(ctx, o.ID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]*Order, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// ListAvailable returns orders a delivery agent can claim.
func (s *Service) ListAvailable(ctx context.Context) ([]*Order, error) {
	return s.store.ListByStatus(ctx, StatusProcessing)
}

func (s *Service) recordLifecycleEvent(ctx context.Context, id types.ID, to Status, reason string) {
	if s.events == nil {
		return
	}
	switch to {
	case StatusConfirmed:
		_ = s.events.Record(ctx, id, "CONFIRMED", "Order confirmed")
	case StatusPickedUp:
		_ = s.events.Record(ctx, id, "PICKED", "Package picked up")
	case StatusShipped:
		_ = s.events.Record(ctx, id, "IN_TRANSIT", "Package handed to courier")
	case StatusOutForDelivery:
		_ = s.events.Record(ctx, id, "OUT_FOR_DELIVERY", "Package is out for delivery")
	case StatusDelivered:
		_ = s.events.Record(ctx, id, "DELIVERED", "Package delivered")
	case StatusCancelled:
		_ = s.events.Record(ctx, id, "CANCELLED", "Order cancelled: "+reason)
	}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
