// README: Tile-based (Leaflet-style) provider adapter.
package livemap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

// leafletProvider emits Leaflet-style drawing commands as JSON lines to the
// widget bridge. Paths travel as raw [lat, lng] arrays; the tile layer is
// declared by the init command.
type leafletProvider struct {
	mu   sync.Mutex
	sink io.Writer
}

type leafletCommand struct {
	Op      string       `json:"op"`
	Role    MarkerRole   `json:"role,omitempty"`
	Lat     float64      `json:"lat,omitempty"`
	Lng     float64      `json:"lng,omitempty"`
	Heading float64      `json:"heading,omitempty"`
	Label   string       `json:"label,omitempty"`
	Style   PathStyle    `json:"style,omitempty"`
	Dashed  bool         `json:"dashed,omitempty"`
	Points  [][2]float64 `json:"points,omitempty"`
	Padding int          `json:"padding,omitempty"`
	Zoom    int          `json:"zoom,omitempty"`
	TileURL string       `json:"tileUrl,omitempty"`
}

// NewLeafletFactory returns a bootstrap factory for the tile-based provider.
// Loading probes one tile from the configured tile server — the analogue of
// waiting for the mapping script to load — so an unreachable tile source is a
// terminal bootstrap failure, not a blank canvas later.
func NewLeafletFactory(tileURL string, sink io.Writer, client *http.Client) Factory {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (Provider, error) {
		probe := strings.NewReplacer("{z}", "0", "{x}", "0", "{y}", "0").Replace(tileURL)
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, probe, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("tile server unreachable: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("tile server returned status %d", resp.StatusCode)
		}

		p := &leafletProvider{sink: sink}
		if err := p.emit(leafletCommand{Op: "init", TileURL: tileURL}); err != nil {
			return nil, err
		}
		return p, nil
	}
}

func (p *leafletProvider) emit(cmd leafletCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.sink, string(payload))
	return err
}

func (p *leafletProvider) PlaceMarker(m Marker) error {
	return p.emit(leafletCommand{
		Op:      "marker",
		Role:    m.Role,
		Lat:     m.Position.Lat,
		Lng:     m.Position.Lng,
		Heading: m.Heading,
		Label:   m.Label,
	})
}

func (p *leafletProvider) RemoveMarker(role MarkerRole) error {
	return p.emit(leafletCommand{Op: "removeMarker", Role: role})
}

func (p *leafletProvider) DrawPath(points []types.Point, style PathStyle) error {
	pts := make([][2]float64, len(points))
	for i, pt := range points {
		pts[i] = [2]float64{pt.Lat, pt.Lng}
	}
	return p.emit(leafletCommand{
		Op:     "path",
		Style:  style,
		Dashed: style == PathProjected,
		Points: pts,
	})
}

func (p *leafletProvider) ClearPath() error {
	return p.emit(leafletCommand{Op: "clearPath"})
}

func (p *leafletProvider) FitBounds(points []types.Point, padding int) error {
	pts := make([][2]float64, len(points))
	for i, pt := range points {
		pts[i] = [2]float64{pt.Lat, pt.Lng}
	}
	return p.emit(leafletCommand{Op: "fitBounds", Points: pts, Padding: padding})
}

func (p *leafletProvider) SetView(v Viewport) error {
	return p.emit(leafletCommand{Op: "setView", Lat: v.Center.Lat, Lng: v.Center.Lng, Zoom: v.Zoom})
}

func (p *leafletProvider) Close() error {
	return p.emit(leafletCommand{Op: "destroy"})
}
