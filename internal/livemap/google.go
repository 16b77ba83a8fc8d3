// README: Vector-API (Google-style) provider adapter.
package livemap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"googlemaps.github.io/maps"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

// googleProvider emits Google-style drawing commands as JSON lines to the
// widget bridge. Paths travel as encoded polylines; the current marker carries
// a rotation for the arrow glyph.
type googleProvider struct {
	mu   sync.Mutex
	sink io.Writer
}

type googleCommand struct {
	Op       string     `json:"op"`
	Role     MarkerRole `json:"role,omitempty"`
	Lat      float64    `json:"lat,omitempty"`
	Lng      float64    `json:"lng,omitempty"`
	Rotation float64    `json:"rotation,omitempty"`
	Title    string     `json:"title,omitempty"`
	Style    PathStyle  `json:"style,omitempty"`
	Polyline string     `json:"polyline,omitempty"`
	Padding  int        `json:"padding,omitempty"`
	Zoom     int        `json:"zoom,omitempty"`
}

// NewGoogleFactory returns a bootstrap factory for the vector-API provider.
// Loading fetches the Maps JS bootstrap URL once — the script-load analogue —
// so a blocked or misconfigured key fails the bootstrap terminally.
func NewGoogleFactory(apiKey string, sink io.Writer, client *http.Client) Factory {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (Provider, error) {
		url := "https://maps.googleapis.com/maps/api/js?key=" + apiKey + "&libraries=geometry"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("maps script unreachable: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("maps script returned status %d", resp.StatusCode)
		}

		p := &googleProvider{sink: sink}
		if err := p.emit(googleCommand{Op: "init"}); err != nil {
			return nil, err
		}
		return p, nil
	}
}

func (p *googleProvider) emit(cmd googleCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.sink, string(payload))
	return err
}

func (p *googleProvider) PlaceMarker(m Marker) error {
	return p.emit(googleCommand{
		Op:       "marker",
		Role:     m.Role,
		Lat:      m.Position.Lat,
		Lng:      m.Position.Lng,
		Rotation: m.Heading,
		Title:    m.Label,
	})
}

func (p *googleProvider) RemoveMarker(role MarkerRole) error {
	return p.emit(googleCommand{Op: "removeMarker", Role: role})
}

func (p *googleProvider) DrawPath(points []types.Point, style PathStyle) error {
	path := make([]maps.LatLng, len(points))
	for i, pt := range points {
		path[i] = maps.LatLng{Lat: pt.Lat, Lng: pt.Lng}
	}
	return p.emit(googleCommand{
		Op:       "path",
		Style:    style,
		Polyline: maps.Encode(path),
	})
}

func (p *googleProvider) ClearPath() error {
	return p.emit(googleCommand{Op: "clearPath"})
}

func (p *googleProvider) FitBounds(points []types.Point, padding int) error {
	path := make([]maps.LatLng, len(points))
	for i, pt := range points {
		path[i] = maps.LatLng{Lat: pt.Lat, Lng: pt.Lng}
	}
	return p.emit(googleCommand{Op: "fitBounds", Polyline: maps.Encode(path), Padding: padding})
}

func (p *googleProvider) SetView(v Viewport) error {
	return p.emit(googleCommand{Op: "setView", Lat: v.Center.Lat, Lng: v.Center.Lng, Zoom: v.Zoom})
}

func (p *googleProvider) Close() error {
	return p.emit(googleCommand{Op: "destroy"})
}
