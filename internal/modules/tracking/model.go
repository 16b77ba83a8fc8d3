// README: Tracking session aggregate and location types.
package tracking

import (
	"math"
	"time"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

// LocationPoint is a single GPS sample. Heading is in degrees clockwise from
// north; zero when the device did not report one.
type LocationPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Heading   float64   `json:"heading,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Address   string    `json:"address,omitempty"`
}

// Point returns the bare coordinate pair.
func (p LocationPoint) Point() types.Point {
	return types.Point{Lat: p.Lat, Lng: p.Lng}
}

// Valid reports whether the coordinates are finite and within range.
func (p LocationPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Route is an externally computed current→delivery route. Opaque here: the
// polyline is rendered, never interpreted.
type Route struct {
	Polyline     string `json:"polyline,omitempty"`
	DistanceText string `json:"distanceText,omitempty"`
	DurationText string `json:"durationText,omitempty"`
}

// Session is the poll-refreshed aggregate of one order's delivery-agent
// location data. It is ephemeral: rebuilt wholesale from every successful
// poll, never merged field by field.
type Session struct {
	OrderID  types.ID        `json:"orderId"`
	Enabled  bool            `json:"trackingEnabled"`
	Pickup   *LocationPoint  `json:"pickupLocation,omitempty"`
	Delivery *LocationPoint  `json:"deliveryLocation,omitempty"`
	Current  *LocationPoint  `json:"currentLocation,omitempty"`
	History  []LocationPoint `json:"locationHistory"`
	Route    *Route          `json:"route,omitempty"`
}

// HasAnyLocation reports whether the session carries anything renderable.
func (s *Session) HasAnyLocation() bool {
	return s.Current != nil || s.Pickup != nil || s.Delivery != nil || len(s.History) > 0
}

// IsReady reports whether a delivery agent has been assigned and location
// rendering may proceed.
func (s *Session) IsReady() bool {
	return s.Enabled
}

// TimelineEvent is one discrete lifecycle event for the tracking timeline
// (label created, picked, in transit, out for delivery, delivered).
type TimelineEvent struct {
	ID          int64     `json:"id"`
	OrderID     types.ID  `json:"orderId"`
	EventType   string    `json:"eventType"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	EventTime   time.Time `json:"eventTime"`
	Sequence    int       `json:"sequence"`
}
