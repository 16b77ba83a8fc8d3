// README: Tracking store: Postgres history and timeline, Redis hot position and agent GEO set.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

const (
	agentGeoKey      = "tracking:agents"
	agentSeenKey     = "tracking:agents:seen"
	currentKeyPrefix = "tracking:order:"
	// A current position older than this is considered gone; the session
	// then falls back to the newest history sample.
	currentTTL = 10 * time.Minute
)

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// AppendHistory persists one GPS sample to the order's travelled path.
func (s *Store) AppendHistory(ctx context.Context, orderID types.ID, p LocationPoint) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO location_history (order_id, lat, lng, heading, address, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(orderID), p.Lat, p.Lng, p.Heading, p.Address, p.Timestamp,
	)
	return err
}

// History returns the order's samples oldest first.
func (s *Store) History(ctx context.Context, orderID types.ID) ([]LocationPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT lat, lng, heading, address, recorded_at
		FROM location_history
		WHERE order_id = $1
		ORDER BY recorded_at ASC, id ASC`, string(orderID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LocationPoint
	for rows.Next() {
		var p LocationPoint
		if err := rows.Scan(&p.Lat, &p.Lng, &p.Heading, &p.Address, &p.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LastHistoryTime returns the newest recorded sample time for the order.
func (s *Store) LastHistoryTime(ctx context.Context, orderID types.ID) (time.Time, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT recorded_at FROM location_history
		WHERE order_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`, string(orderID),
	)
	var t time.Time
	if err := row.Scan(&t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return t, true, nil
}

// SetCurrent replaces the order's hot current position and refreshes the agent
// GEO entry in one round trip.
func (s *Store) SetCurrent(ctx context.Context, orderID types.ID, agentID types.ID, p LocationPoint) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	pipe := s.redis.Pipeline()
	pipe.Set(ctx, currentKey(orderID), payload, currentTTL)
	if agentID != "" {
		pipe.GeoAdd(ctx, agentGeoKey, &redis.GeoLocation{
			Name:      string(agentID),
			Longitude: p.Lng,
			Latitude:  p.Lat,
		})
		pipe.HSet(ctx, agentSeenKey, string(agentID), time.Now().UnixMilli())
	}
	_, err = pipe.Exec(ctx)
	return err
}

// StaleAgents returns agents whose last sample is older than the cutoff.
func (s *Store) StaleAgents(ctx context.Context, olderThan time.Duration) ([]types.ID, error) {
	seen, err := s.redis.HGetAll(ctx, agentSeenKey).Result()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-olderThan).UnixMilli()
	var out []types.ID
	for agent, raw := range seen {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < cutoff {
			out = append(out, types.ID(agent))
		}
	}
	return out, nil
}

// Current fetches the hot position; ok is false when none is stored or the
// TTL has lapsed.
func (s *Store) Current(ctx context.Context, orderID types.ID) (LocationPoint, bool, error) {
	val, err := s.redis.Get(ctx, currentKey(orderID)).Result()
	if err == redis.Nil {
		return LocationPoint{}, false, nil
	}
	if err != nil {
		return LocationPoint{}, false, err
	}
	var p LocationPoint
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return LocationPoint{}, false, err
	}
	return p, true, nil
}

// RemoveAgent drops an agent from the GEO set (delivery finished or agent idle).
func (s *Store) RemoveAgent(ctx context.Context, agentID types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.ZRem(ctx, agentGeoKey, string(agentID))
	pipe.HDel(ctx, agentSeenKey, string(agentID))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) AppendTimelineEvent(ctx context.Context, e TimelineEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tracking_events (order_id, event_type, description, location, event_time, sequence)
		VALUES ($1, $2, $3, $4, $5,
			COALESCE((SELECT MAX(sequence) FROM tracking_events WHERE order_id = $1), 0) + 1)`,
		string(e.OrderID), e.EventType, e.Description, e.Location, e.EventTime,
	)
	return err
}

func (s *Store) TimelineEvents(ctx context.Context, orderID types.ID) ([]TimelineEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, event_type, description, location, event_time, sequence
		FROM tracking_events
		WHERE order_id = $1
		ORDER BY sequence ASC`, string(orderID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelineEvent
	for rows.Next() {
		var e TimelineEvent
		if err := rows.Scan(&e.ID, &e.OrderID, &e.EventType, &e.Description, &e.Location, &e.EventTime, &e.Sequence); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func currentKey(orderID types.ID) string {
	return currentKeyPrefix + string(orderID) + ":current"
}
