// README: Tracking service: agent GPS ingestion and poll-payload assembly.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/order"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

var (
	ErrBadSample   = errors.New("invalid location sample")
	ErrStaleSample = errors.New("location sample older than recorded history")
	ErrNotAssigned = errors.New("order has no assigned delivery agent")
	// ErrHistoryExists rejects simulated routes once real samples are stored.
	ErrHistoryExists = errors.New("order already has recorded location history")
)

// OrderReader is the slice of the order module the tracker needs.
type OrderReader interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
}

// RoutePlanner computes a current→delivery route for rendering. Implemented by
// the maps module; nil disables route attachment.
type RoutePlanner interface {
	Route(ctx context.Context, from, to types.Point) (*Route, error)
}

type Service struct {
	store  *Store
	orders OrderReader
	routes RoutePlanner
}

func NewService(store *Store, orders OrderReader, routes RoutePlanner) *Service {
	return &Service{store: store, orders: orders, routes: routes}
}

type RecordCommand struct {
	OrderID types.ID
	AgentID types.ID
	Point   LocationPoint
}

// RecordLocation ingests one GPS sample from the assigned delivery agent.
// Samples must carry finite in-range coordinates and may not move backwards in
// time relative to the recorded history.
func (s *Service) RecordLocation(ctx context.Context, cmd RecordCommand) error {
	p := cmd.Point
	if !p.Valid() {
		return ErrBadSample
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}

	o, err := s.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.AgentID == nil {
		return ErrNotAssigned
	}
	if cmd.AgentID != "" && *o.AgentID != cmd.AgentID {
		return order.ErrBadRequest
	}

	last, ok, err := s.store.LastHistoryTime(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if ok && p.Timestamp.Before(last) {
		return ErrStaleSample
	}

	if err := s.store.AppendHistory(ctx, cmd.OrderID, p); err != nil {
		return err
	}
	return s.store.SetCurrent(ctx, cmd.OrderID, *o.AgentID, p)
}

// BuildSession assembles the location-tracking poll payload for an order.
// A session is disabled (and carries no location data) until an agent has been
// assigned. Route attachment is best effort: a maps failure drops the route,
// never the session.
func (s *Service) BuildSession(ctx context.Context, orderID types.ID) (*Session, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.AgentID == nil {
		return &Session{OrderID: orderID, Enabled: false, History: []LocationPoint{}}, nil
	}

	sess := &Session{OrderID: orderID, Enabled: true, History: []LocationPoint{}}
	if o.Pickup != nil {
		sess.Pickup = &LocationPoint{Lat: o.Pickup.Lat, Lng: o.Pickup.Lng, Address: o.PickupAddress}
	}
	if o.Delivery != nil {
		sess.Delivery = &LocationPoint{Lat: o.Delivery.Lat, Lng: o.Delivery.Lng, Address: o.DeliveryGeoAddr}
	}

	history, err := s.store.History(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if history != nil {
		sess.History = history
	}

	if cur, ok, err := s.store.Current(ctx, orderID); err != nil {
		return nil, err
	} else if ok {
		sess.Current = &cur
	} else if n := len(history); n > 0 {
		// Hot position expired; fall back to the newest recorded sample so
		// the widget keeps a stale-but-plausible marker.
		p := history[n-1]
		sess.Current = &p
	}

	if sess.Current != nil && sess.Delivery != nil {
		if s.routes != nil {
			route, err := s.routes.Route(ctx, sess.Current.Point(), sess.Delivery.Point())
			if err != nil {
				log.Printf("tracking: route for order %s unavailable: %v", orderID, err)
			} else {
				sess.Route = route
			}
		}
		if sess.Route == nil {
			// Directions unavailable; fall back to straight-line distance so
			// the widget still shows something meaningful.
			km := haversineKm(sess.Current.Point(), sess.Delivery.Point())
			sess.Route = &Route{DistanceText: fmt.Sprintf("%.1f km", km)}
		}
	}
	return sess, nil
}

// Events returns the order's discrete lifecycle timeline, oldest first.
func (s *Service) Events(ctx context.Context, orderID types.ID) ([]TimelineEvent, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.store.TimelineEvents(ctx, orderID)
}

// Record implements order.EventRecorder.
func (s *Service) Record(ctx context.Context, orderID types.ID, eventType, description string) error {
	return s.store.AppendTimelineEvent(ctx, TimelineEvent{
		OrderID:     orderID,
		EventType:   eventType,
		Description: description,
		EventTime:   time.Now(),
	})
}

// RunAgentJanitor periodically drops agents from the GEO set once their last
// sample is older than the hot-position TTL.
func (s *Service) RunAgentJanitor(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stale, err := s.store.StaleAgents(ctx, currentTTL)
			if err != nil {
				log.Printf("tracking: stale agent scan: %v", err)
				continue
			}
			for _, agent := range stale {
				if err := s.store.RemoveAgent(ctx, agent); err != nil {
					log.Printf("tracking: remove agent %s: %v", agent, err)
				}
			}
		}
	}
}

// SimulateRoute seeds n fake history samples stepping from the pickup point
// toward the delivery point, three minutes apart. Development helper for
// exercising the tracking widget without a real agent in the field; refuses
// to run once real history exists.
func (s *Service) SimulateRoute(ctx context.Context, orderID types.ID, n int) ([]LocationPoint, error) {
	if n <= 0 {
		n = 5
	}
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.AgentID == nil {
		return nil, ErrNotAssigned
	}
	if o.Pickup == nil || o.Delivery == nil {
		return nil, ErrBadSample
	}
	// Samples are backdated, so seeding on top of real history would break
	// its time ordering and could roll the hot position backward.
	if _, ok, err := s.store.LastHistoryTime(ctx, orderID); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrHistoryExists
	}

	base := time.Now().Add(-time.Duration(n) * 3 * time.Minute)
	points := make([]LocationPoint, 0, n)
	for i := 0; i < n; i++ {
		frac := float64(i+1) / float64(n)
		p := LocationPoint{
			Lat:       o.Pickup.Lat + (o.Delivery.Lat-o.Pickup.Lat)*frac,
			Lng:       o.Pickup.Lng + (o.Delivery.Lng-o.Pickup.Lng)*frac,
			Heading:   bearing(*o.Pickup, *o.Delivery),
			Timestamp: base.Add(time.Duration(i) * 3 * time.Minute),
			Address:   "Near delivery location",
		}
		if err := s.store.AppendHistory(ctx, orderID, p); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	lastPoint := points[len(points)-1]
	if err := s.store.SetCurrent(ctx, orderID, *o.AgentID, lastPoint); err != nil {
		return nil, err
	}
	return points, nil
}
