// README: Reconciles a tracking session onto map primitives with minimal churn.
package livemap

import (
	"sync"

	"googlemaps.github.io/maps"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/tracking"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

const boundsPadding = 50

// Reconciler owns one visible tracking widget's map state: at most one marker
// per role and one active path. Pickup and delivery markers are placed once
// and never moved (their coordinates are fixed for the session); the current
// marker is destroyed and recreated on every update so heading changes never
// animate through invalid intermediate states.
type Reconciler struct {
	boot        *Bootstrap
	defaultView Viewport

	mu       sync.Mutex
	provider Provider
	placed   map[MarkerRole]bool
	hasPath  bool
	pending  *tracking.Session
	closed   bool
}

func NewReconciler(boot *Bootstrap, defaultView Viewport) *Reconciler {
	return &Reconciler{
		boot:        boot,
		defaultView: defaultView,
		placed:      make(map[MarkerRole]bool),
	}
}

// Apply renders a session update. While the provider is still booting the
// update is queued (latest wins) and flushed by the next Apply or Flush call
// after readiness; this covers the race between data arriving and the map
// finishing its own async boot. A terminal provider failure is returned as
// ErrProviderLoadFailed.
func (r *Reconciler) Apply(sess *tracking.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if err := r.ensureProvider(); err != nil {
		if err == ErrProviderNotReady {
			r.pending = sess
			return nil
		}
		return err
	}
	r.pending = nil
	return r.render(sess)
}

// Flush re-attempts a queued update, if any.
func (r *Reconciler) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.pending == nil {
		return nil
	}
	if err := r.ensureProvider(); err != nil {
		if err == ErrProviderNotReady {
			return nil
		}
		return err
	}
	sess := r.pending
	r.pending = nil
	return r.render(sess)
}

// Close tears down every map object this widget created. Idempotent; Apply
// calls after Close are no-ops so late poll results cannot resurrect state.
func (r *Reconciler) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.provider == nil {
		return nil
	}
	for role := range r.placed {
		_ = r.provider.RemoveMarker(role)
	}
	if r.hasPath {
		_ = r.provider.ClearPath()
	}
	return r.provider.Close()
}

func (r *Reconciler) ensureProvider() error {
	if r.provider != nil {
		return nil
	}
	p, err := r.boot.Provider()
	if err != nil {
		return err
	}
	r.provider = p
	return nil
}

func (r *Reconciler) render(sess *tracking.Session) error {
	// A disabled session carries no location data; either way there is
	// nothing to draw, so reset to the default viewport.
	if !sess.IsReady() || !sess.HasAnyLocation() {
		return r.clearAll()
	}

	if sess.Pickup != nil && !r.placed[RolePickup] {
		if err := r.provider.PlaceMarker(Marker{
			Role:     RolePickup,
			Position: sess.Pickup.Point(),
			Label:    "Pickup Location",
		}); err != nil {
			return err
		}
		r.placed[RolePickup] = true
	}
	if sess.Delivery != nil && !r.placed[RoleDelivery] {
		if err := r.provider.PlaceMarker(Marker{
			Role:     RoleDelivery,
			Position: sess.Delivery.Point(),
			Label:    "Delivery Location",
		}); err != nil {
			return err
		}
		r.placed[RoleDelivery] = true
	}

	if sess.Current != nil {
		if r.placed[RoleCurrent] {
			if err := r.provider.RemoveMarker(RoleCurrent); err != nil {
				return err
			}
		}
		if err := r.provider.PlaceMarker(Marker{
			Role:     RoleCurrent,
			Position: sess.Current.Point(),
			Heading:  sess.Current.Heading,
			Label:    "Current Location",
		}); err != nil {
			return err
		}
		r.placed[RoleCurrent] = true
	}

	path, style := buildPath(sess)
	if len(path) > 0 {
		if err := r.provider.DrawPath(path, style); err != nil {
			return err
		}
		r.hasPath = true
	} else if r.hasPath {
		if err := r.provider.ClearPath(); err != nil {
			return err
		}
		r.hasPath = false
	}

	bounds := markerPoints(sess)
	if len(bounds) > 0 {
		return r.provider.FitBounds(bounds, boundsPadding)
	}
	return nil
}

func (r *Reconciler) clearAll() error {
	for role := range r.placed {
		if err := r.provider.RemoveMarker(role); err != nil {
			return err
		}
		delete(r.placed, role)
	}
	if r.hasPath {
		if err := r.provider.ClearPath(); err != nil {
			return err
		}
		r.hasPath = false
	}
	return r.provider.SetView(r.defaultView)
}

// buildPath chooses what line to draw, in strict preference order: the
// travelled history (with the current position appended) whenever any history
// exists, then the directions-service route, then a straight projected line
// from current to delivery. The result always replaces the previous path
// wholesale; history can be re-ordered or truncated upstream, so incremental
// appends are unsafe.
func buildPath(sess *tracking.Session) ([]types.Point, PathStyle) {
	if len(sess.History) > 0 {
		path := make([]types.Point, 0, len(sess.History)+1)
		for _, p := range sess.History {
			path = append(path, p.Point())
		}
		if sess.Current != nil {
			path = append(path, sess.Current.Point())
		}
		return path, PathTraveled
	}

	if sess.Current == nil || sess.Delivery == nil {
		return nil, ""
	}

	if sess.Route != nil && sess.Route.Polyline != "" {
		if decoded, err := maps.DecodePolyline(sess.Route.Polyline); err == nil && len(decoded) > 0 {
			path := make([]types.Point, len(decoded))
			for i, ll := range decoded {
				path[i] = types.Point{Lat: ll.Lat, Lng: ll.Lng}
			}
			return path, PathRouted
		}
		// Undecodable polyline falls through to the projected line.
	}

	return []types.Point{sess.Current.Point(), sess.Delivery.Point()}, PathProjected
}

func markerPoints(sess *tracking.Session) []types.Point {
	var pts []types.Point
	if sess.Pickup != nil {
		pts = append(pts, sess.Pickup.Point())
	}
	if sess.Delivery != nil {
		pts = append(pts, sess.Delivery.Point())
	}
	if sess.Current != nil {
		pts = append(pts, sess.Current.Point())
	}
	return pts
}
