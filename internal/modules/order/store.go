// README: Order store backed by PostgreSQL.
package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const orderColumns = `
	id, order_number, customer_id, status, status_version,
	total_amount, currency,
	delivery_name, delivery_address, delivery_pincode,
	tracking_id, courier_name, agent_id,
	pickup_lat, pickup_lng, pickup_address,
	delivery_lat, delivery_lng, delivery_geo_address,
	created_at, accepted_at, picked_up_at, out_for_delivery_at,
	delivered_at, cancelled_at, cancellation_reason`

func (s *Store) Create(ctx context.Context, o *Order) error {
	var pickupLat, pickupLng, deliveryLat, deliveryLng *float64
	if o.Pickup != nil {
		pickupLat, pickupLng = &o.Pickup.Lat, &o.Pickup.Lng
	}
	if o.Delivery != nil {
		deliveryLat, deliveryLng = &o.Delivery.Lat, &o.Delivery.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, customer_id, status, status_version,
			total_amount, currency,
			delivery_name, delivery_address, delivery_pincode,
			tracking_id, courier_name, agent_id,
			pickup_lat, pickup_lng, pickup_address,
			delivery_lat, delivery_lng, delivery_geo_address,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7,
			$8, $9, $10,
			$11, $12, $13,
			$14, $15, $16,
			$17, $18, $19,
			$20
		)`,
		string(o.ID), o.OrderNumber, string(o.CustomerID), string(o.Status), o.StatusVersion,
		o.TotalAmount.Amount, o.TotalAmount.Currency,
		o.DeliveryName, o.DeliveryAddress, o.DeliveryPincode,
		o.TrackingID, o.CourierName, toStringPtr(o.AgentID),
		pickupLat, pickupLng, o.PickupAddress,
		deliveryLat, deliveryLng, o.DeliveryGeoAddr,
		o.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, string(id))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus applies a single transition with optimistic locking on both the
// expected status and the status version. Per-status timestamps are set at most
// once; the cancellation reason is written only on the CANCELLED edge and never
// overwritten.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, cancelReason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    status_version = status_version + 1,
		    accepted_at = CASE WHEN $1 = 'ACCEPTED' AND accepted_at IS NULL THEN NOW() ELSE accepted_at END,
		    picked_up_at = CASE WHEN $1 = 'PICKED_UP' AND picked_up_at IS NULL THEN NOW() ELSE picked_up_at END,
		    out_for_delivery_at = CASE WHEN $1 = 'OUT_FOR_DELIVERY' AND out_for_delivery_at IS NULL THEN NOW() ELSE out_for_delivery_at END,
		    delivered_at = CASE WHEN $1 = 'DELIVERED' AND delivered_at IS NULL THEN NOW() ELSE delivered_at END,
		    cancelled_at = CASE WHEN $1 = 'CANCELLED' AND cancelled_at IS NULL THEN NOW() ELSE cancelled_at END,
		    cancellation_reason = COALESCE(cancellation_reason, $2)
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), cancelReason, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AssignAgent claims an order for a delivery agent (→ ACCEPTED) and seeds the
// fixed pickup/delivery coordinates in the same compare-and-swap.
func (s *Store) AssignAgent(ctx context.Context, id types.ID, from Status, version int, agentID types.ID, pickup *types.Point, pickupAddr string, delivery *types.Point, deliveryAddr string) (bool, error) {
	var pickupLat, pickupLng, deliveryLat, deliveryLng *float64
	if pickup != nil {
		pickupLat, pickupLng = &pickup.Lat, &pickup.Lng
	}
	if delivery != nil {
		deliveryLat, deliveryLng = &delivery.Lat, &delivery.Lng
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = 'ACCEPTED',
		    status_version = status_version + 1,
		    agent_id = $1,
		    accepted_at = COALESCE(accepted_at, NOW()),
		    pickup_lat = COALESCE(pickup_lat, $2),
		    pickup_lng = COALESCE(pickup_lng, $3),
		    pickup_address = CASE WHEN pickup_lat IS NULL THEN $4 ELSE pickup_address END,
		    delivery_lat = COALESCE(delivery_lat, $5),
		    delivery_lng = COALESCE(delivery_lng, $6),
		    delivery_geo_address = CASE WHEN delivery_lat IS NULL THEN $7 ELSE delivery_geo_address END
		WHERE id = $8 AND status = $9 AND status_version = $10`,
		string(agentID), pickupLat, pickupLng, pickupAddr,
		deliveryLat, deliveryLng, deliveryAddr,
		string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListAll(ctx context.Context) ([]*Order, error) {
	rows, err := s.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	rows, err := s.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`, string(customerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Order, error) {
	rows, err := s.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_state_events (
			order_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.OrderID), string(e.FromStatus), string(e.ToStatus),
		e.ActorType, toStringPtr(e.ActorID), e.CreatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var agentID, cancelReason sql.NullString
	var pickupLat, pickupLng, deliveryLat, deliveryLng sql.NullFloat64
	var acceptedAt, pickedUpAt, outForDeliveryAt, deliveredAt, cancelledAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.StatusVersion,
		&o.TotalAmount.Amount, &o.TotalAmount.Currency,
		&o.DeliveryName, &o.DeliveryAddress, &o.DeliveryPincode,
		&o.TrackingID, &o.CourierName, &agentID,
		&pickupLat, &pickupLng, &o.PickupAddress,
		&deliveryLat, &deliveryLng, &o.DeliveryGeoAddr,
		&o.CreatedAt, &acceptedAt, &pickedUpAt, &outForDeliveryAt,
		&deliveredAt, &cancelledAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}
	if agentID.Valid {
		a := types.ID(agentID.String)
		o.AgentID = &a
	}
	if pickupLat.Valid && pickupLng.Valid {
		o.Pickup = &types.Point{Lat: pickupLat.Float64, Lng: pickupLng.Float64}
	}
	if deliveryLat.Valid && deliveryLng.Valid {
		o.Delivery = &types.Point{Lat: deliveryLat.Float64, Lng: deliveryLng.Float64}
	}
	o.AcceptedAt = toTimePtr(acceptedAt)
	o.PickedUpAt = toTimePtr(pickedUpAt)
	o.OutForDeliverAt = toTimePtr(outForDeliveryAt)
	o.DeliveredAt = toTimePtr(deliveredAt)
	o.CancelledAt = toTimePtr(cancelledAt)
	if cancelReason.Valid {
		o.CancelReason = &cancelReason.String
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]*Order, error) {
	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
