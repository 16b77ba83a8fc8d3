// README: Tracking service tests (sample ingestion + session assembly).
package tracking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/order"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

// stubOrders serves fixed orders without the order store.
type stubOrders map[types.ID]*order.Order

func (s stubOrders) Get(_ context.Context, id types.ID) (*order.Order, error) {
	o, ok := s[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

// stubPlanner returns a canned route or a fixed error.
type stubPlanner struct {
	route *Route
	err   error
}

func (s stubPlanner) Route(context.Context, types.Point, types.Point) (*Route, error) {
	return s.route, s.err
}

func TestRecordLocationRejectsBadSamples(t *testing.T) {
	svc := NewService(nil, nil, nil)
	bad := []LocationPoint{
		{Lat: math.NaN(), Lng: 77.5},
		{Lat: 12.9, Lng: math.Inf(-1)},
		{Lat: 91, Lng: 77.5},
		{Lat: 12.9, Lng: -181},
	}
	for _, p := range bad {
		err := svc.RecordLocation(context.Background(), RecordCommand{OrderID: "o1", Point: p})
		if err != ErrBadSample {
			t.Fatalf("point %+v: expected ErrBadSample, got %v", p, err)
		}
	}
}

func TestRecordLocationUnassignedOrder(t *testing.T) {
	orders := stubOrders{"o1": {ID: "o1", Status: order.StatusProcessing}}
	svc := NewService(nil, orders, nil)

	err := svc.RecordLocation(context.Background(), RecordCommand{
		OrderID: "o1",
		Point:   LocationPoint{Lat: 12.9, Lng: 77.5, Timestamp: time.Now()},
	})
	if err != ErrNotAssigned {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}
}

func TestRecordLocationAgentMismatch(t *testing.T) {
	agent := types.ID("agent_1")
	orders := stubOrders{"o1": {ID: "o1", Status: order.StatusAccepted, AgentID: &agent}}
	svc := NewService(nil, orders, nil)

	err := svc.RecordLocation(context.Background(), RecordCommand{
		OrderID: "o1",
		AgentID: "agent_2",
		Point:   LocationPoint{Lat: 12.9, Lng: 77.5, Timestamp: time.Now()},
	})
	if err != order.ErrBadRequest {
		t.Fatalf("expected ErrBadRequest for wrong agent, got %v", err)
	}
}

func TestBuildSessionDisabledBeforeAssignment(t *testing.T) {
	orders := stubOrders{"o1": {ID: "o1", Status: order.StatusPending}}
	svc := NewService(nil, orders, nil)

	sess, err := svc.BuildSession(context.Background(), "o1")
	if err != nil {
		t.Fatalf("build session: %v", err)
	}
	if sess.Enabled {
		t.Error("expected tracking disabled before agent assignment")
	}
	if sess.History == nil {
		t.Error("history must be an empty slice, not nil")
	}
	if sess.HasAnyLocation() {
		t.Error("disabled session must carry no location data")
	}
}

func TestBuildSessionUnknownOrder(t *testing.T) {
	svc := NewService(nil, stubOrders{}, nil)
	if _, err := svc.BuildSession(context.Background(), "missing"); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordAndBuildSession(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	agent := types.ID("agent_live")
	o := insertTestOrder(t, db, "o_live", agent)
	orders := stubOrders{o.ID: o}
	svc := NewService(store, orders, stubPlanner{route: &Route{
		Polyline:     "abc123",
		DistanceText: "4.2 km",
		DurationText: "12 mins",
	}})

	base := time.Now().Add(-10 * time.Minute).Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		err := svc.RecordLocation(ctx, RecordCommand{
			OrderID: o.ID,
			AgentID: agent,
			Point: LocationPoint{
				Lat:       12.95 + float64(i)*0.01,
				Lng:       77.60 + float64(i)*0.01,
				Heading:   45,
				Timestamp: base.Add(time.Duration(i) * time.Minute),
			},
		})
		if err != nil {
			t.Fatalf("record sample %d: %v", i, err)
		}
	}

	// A sample older than the recorded history is rejected.
	err := svc.RecordLocation(ctx, RecordCommand{
		OrderID: o.ID,
		AgentID: agent,
		Point:   LocationPoint{Lat: 12.94, Lng: 77.59, Timestamp: base.Add(-time.Minute)},
	})
	if err != ErrStaleSample {
		t.Fatalf("expected ErrStaleSample, got %v", err)
	}

	sess, err := svc.BuildSession(ctx, o.ID)
	if err != nil {
		t.Fatalf("build session: %v", err)
	}
	if !sess.Enabled {
		t.Fatal("expected tracking enabled")
	}
	if len(sess.History) != 3 {
		t.Fatalf("expected 3 history samples, got %d", len(sess.History))
	}
	for i := 1; i < len(sess.History); i++ {
		if sess.History[i].Timestamp.Before(sess.History[i-1].Timestamp) {
			t.Fatal("history must be ordered oldest first")
		}
	}
	if sess.Current == nil {
		t.Fatal("expected current location")
	}
	if sess.Current.Lat != sess.History[2].Lat || sess.Current.Lng != sess.History[2].Lng {
		t.Errorf("current %+v does not match newest sample %+v", sess.Current, sess.History[2])
	}
	if sess.Pickup == nil || sess.Delivery == nil {
		t.Fatal("expected pickup and delivery endpoints")
	}
	if sess.Route == nil || sess.Route.Polyline != "abc123" {
		t.Fatalf("expected planner route, got %+v", sess.Route)
	}
}

func TestBuildSessionRouteFallback(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	agent := types.ID("agent_fallback")
	o := insertTestOrder(t, db, "o_fallback", agent)
	orders := stubOrders{o.ID: o}
	svc := NewService(store, orders, stubPlanner{err: errors.New("quota exceeded")})

	if err := svc.RecordLocation(ctx, RecordCommand{
		OrderID: o.ID,
		AgentID: agent,
		Point:   LocationPoint{Lat: 12.96, Lng: 77.60, Timestamp: time.Now()},
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	sess, err := svc.BuildSession(ctx, o.ID)
	if err != nil {
		t.Fatalf("build session: %v", err)
	}
	// Planner failure degrades to a straight-line distance, never an error.
	if sess.Route == nil {
		t.Fatal("expected fallback route")
	}
	if sess.Route.Polyline != "" {
		t.Errorf("fallback route must carry no polyline, got %q", sess.Route.Polyline)
	}
	if !strings.HasSuffix(sess.Route.DistanceText, "km") {
		t.Errorf("expected straight-line distance text, got %q", sess.Route.DistanceText)
	}
}

func TestTimelineEvents(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	agent := types.ID("agent_tl")
	o := insertTestOrder(t, db, "o_timeline", agent)
	svc := NewService(store, stubOrders{o.ID: o}, nil)

	steps := []struct{ eventType, description string }{
		{"ORDER_PLACED", "Order placed, awaiting confirmation"},
		{"CONFIRMED", "Order confirmed"},
		{"OUT_FOR_DELIVERY", "Package is out for delivery"},
	}
	for _, s := range steps {
		if err := svc.Record(ctx, o.ID, s.eventType, s.description); err != nil {
			t.Fatalf("record %s: %v", s.eventType, err)
		}
	}

	events, err := svc.Events(ctx, o.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != len(steps) {
		t.Fatalf("expected %d events, got %d", len(steps), len(events))
	}
	for i, e := range events {
		if e.EventType != steps[i].eventType {
			t.Errorf("event %d: expected %s, got %s", i, steps[i].eventType, e.EventType)
		}
		if e.Sequence != i+1 {
			t.Errorf("event %d: expected sequence %d, got %d", i, i+1, e.Sequence)
		}
	}
}

func TestSimulateRoute(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	agent := types.ID("agent_sim")
	o := insertTestOrder(t, db, "o_sim", agent)
	svc := NewService(store, stubOrders{o.ID: o}, nil)

	points, err := svc.SimulateRoute(ctx, o.ID, 5)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	last := points[len(points)-1]
	if math.Abs(last.Lat-o.Delivery.Lat) > 0.0001 || math.Abs(last.Lng-o.Delivery.Lng) > 0.0001 {
		t.Errorf("last simulated point %+v should reach delivery %+v", last, o.Delivery)
	}

	sess, err := svc.BuildSession(ctx, o.ID)
	if err != nil {
		t.Fatalf("build session: %v", err)
	}
	if len(sess.History) != 5 {
		t.Fatalf("expected 5 history samples, got %d", len(sess.History))
	}
	if sess.Current == nil || sess.Current.Lat != last.Lat {
		t.Error("expected current to be the final simulated point")
	}
}

// Simulated samples are backdated; once real history exists they must be
// refused so history stays time-ordered and the hot position never rolls back.
func TestSimulateRouteRejectsExistingHistory(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	agent := types.ID("agent_seed")
	o := insertTestOrder(t, db, "o_seed", agent)
	svc := NewService(store, stubOrders{o.ID: o}, nil)

	real := LocationPoint{Lat: 12.9800, Lng: 77.6000, Timestamp: time.Now()}
	if err := svc.RecordLocation(ctx, RecordCommand{OrderID: o.ID, AgentID: agent, Point: real}); err != nil {
		t.Fatalf("record location: %v", err)
	}

	if _, err := svc.SimulateRoute(ctx, o.ID, 5); !errors.Is(err, ErrHistoryExists) {
		t.Fatalf("expected ErrHistoryExists, got %v", err)
	}

	sess, err := svc.BuildSession(ctx, o.ID)
	if err != nil {
		t.Fatalf("build session: %v", err)
	}
	if len(sess.History) != 1 {
		t.Fatalf("expected history untouched, got %d samples", len(sess.History))
	}
	if sess.Current == nil || sess.Current.Lat != real.Lat {
		t.Errorf("current position changed: %+v", sess.Current)
	}
}

func insertTestOrder(t *testing.T, db *pgxpool.Pool, id string, agentID types.ID) *order.Order {
	t.Helper()
	o := &order.Order{
		ID:            types.ID(id),
		OrderNumber:   fmt.Sprintf("ORD-TEST-%s", id),
		CustomerID:    "c_test",
		Status:        order.StatusAccepted,
		AgentID:       &agentID,
		Pickup:        &types.Point{Lat: 12.9716, Lng: 77.5946},
		PickupAddress: "Central Warehouse, Bengaluru",
		Delivery:      &types.Point{Lat: 13.0100, Lng: 77.6500},
		CreatedAt:     time.Now(),
	}
	_, err := db.Exec(context.Background(), `
		INSERT INTO orders (
			id, order_number, customer_id, status, status_version, agent_id,
			pickup_lat, pickup_lng, pickup_address, delivery_lat, delivery_lng, created_at
		) VALUES ($1, $2, $3, $4, 2, $5, $6, $7, $8, $9, $10, $11)`,
		string(o.ID), o.OrderNumber, string(o.CustomerID), string(o.Status), string(agentID),
		o.Pickup.Lat, o.Pickup.Lng, o.PickupAddress, o.Delivery.Lat, o.Delivery.Lng, o.CreatedAt,
	)
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}
	return o
}

func setupTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("STOCK_TEST_DSN")
	if dsn == "" {
		t.Skip("STOCK_TEST_DSN not set; skipping DB-backed tests")
	}
	redisAddr := os.Getenv("STOCK_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("STOCK_REDIS_ADDR not set; skipping Redis-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { rdb.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE tracking_events, location_history, order_state_events, orders"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return NewStore(db, rdb), db
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	for _, stmt := range strings.Split(b.String(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}
