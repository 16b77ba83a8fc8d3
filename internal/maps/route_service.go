package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

// RouteResult is the renderable subset of a Directions response.
type RouteResult struct {
	Polyline     string
	DistanceText string
	DurationText string
}

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Route returns the driving route from origin to destination: the overview
// polyline plus human-readable distance and duration.
func (s *RouteService) Route(ctx context.Context, origin, destination types.Point) (*RouteResult, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", destination.Lat, destination.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return &RouteResult{
		Polyline:     routes[0].OverviewPolyline.Points,
		DistanceText: leg.Distance.HumanReadable,
		DurationText: leg.Duration.String(),
	}, nil
}
