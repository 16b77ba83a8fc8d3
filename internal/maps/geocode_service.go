package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

// GeocodeService resolves postal pincodes to coordinates for orders that were
// placed with an address but no explicit delivery location.
type GeocodeService struct {
	client *maps.Client
	region string
}

// NewGeocodeService creates a GeocodeService with the given API key. region is
// a ccTLD bias ("in", "tw", ...); empty disables biasing.
func NewGeocodeService(apiKey, region string) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client, region: region}, nil
}

// GeocodePincode returns the coordinate and formatted address for a pincode.
func (s *GeocodeService) GeocodePincode(ctx context.Context, pincode string) (types.Point, string, error) {
	r := &maps.GeocodingRequest{
		Address: pincode,
		Region:  s.region,
	}
	results, err := s.client.Geocode(ctx, r)
	if err != nil {
		return types.Point{}, "", fmt.Errorf("geocode api error: %w", err)
	}
	if len(results) == 0 {
		return types.Point{}, "", fmt.Errorf("pincode %q not found", pincode)
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, results[0].FormattedAddress, nil
}
