// README: Map provider capability interface; adapters translate these calls
// into provider-specific drawing commands.
package livemap

import (
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

type MarkerRole string

const (
	RolePickup   MarkerRole = "pickup"
	RoleDelivery MarkerRole = "delivery"
	RoleCurrent  MarkerRole = "current"
)

type Marker struct {
	Role     MarkerRole
	Position types.Point
	// Heading rotates the marker glyph (degrees clockwise from north).
	// Only meaningful for RoleCurrent.
	Heading float64
	Label   string
}

type PathStyle string

const (
	// PathTraveled is the solid line through recorded GPS samples.
	PathTraveled PathStyle = "traveled"
	// PathRouted is a road route supplied by the directions service.
	PathRouted PathStyle = "routed"
	// PathProjected is the dashed straight-line fallback from the current
	// position to the delivery address.
	PathProjected PathStyle = "projected"
)

type Viewport struct {
	Center types.Point
	Zoom   int
}

// Provider is the minimal drawing surface the reconciler needs. At most one
// marker per role and at most one path exist at a time: PlaceMarker replaces
// any marker of the same role and DrawPath replaces any existing path.
type Provider interface {
	PlaceMarker(m Marker) error
	RemoveMarker(role MarkerRole) error
	DrawPath(points []types.Point, style PathStyle) error
	ClearPath() error
	FitBounds(points []types.Point, padding int) error
	SetView(v Viewport) error
	Close() error
}
