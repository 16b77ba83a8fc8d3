// README: Common identifier and coordinate value objects used across modules.
package types

// ID is an opaque entity identifier (hex string from the ID generator,
// or a Firebase UID for users).
type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
