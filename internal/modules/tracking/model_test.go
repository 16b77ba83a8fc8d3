package tracking

import (
	"math"
	"testing"
	"time"
)

func TestLocationPointValid(t *testing.T) {
	cases := []struct {
		name string
		p    LocationPoint
		want bool
	}{
		{"origin", LocationPoint{Lat: 0, Lng: 0}, true},
		{"bengaluru", LocationPoint{Lat: 12.9716, Lng: 77.5946}, true},
		{"lat upper bound", LocationPoint{Lat: 90, Lng: 0}, true},
		{"lng lower bound", LocationPoint{Lat: 0, Lng: -180}, true},
		{"lat out of range", LocationPoint{Lat: 90.01, Lng: 0}, false},
		{"lng out of range", LocationPoint{Lat: 0, Lng: 180.5}, false},
		{"nan lat", LocationPoint{Lat: math.NaN(), Lng: 77}, false},
		{"inf lng", LocationPoint{Lat: 12, Lng: math.Inf(1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSessionHasAnyLocation(t *testing.T) {
	empty := &Session{OrderID: "o1", Enabled: true, History: []LocationPoint{}}
	if empty.HasAnyLocation() {
		t.Error("empty session must report no location")
	}

	p := LocationPoint{Lat: 12.9, Lng: 77.5, Timestamp: time.Now()}
	cases := []struct {
		name string
		sess *Session
	}{
		{"current only", &Session{Enabled: true, Current: &p}},
		{"pickup only", &Session{Enabled: true, Pickup: &p}},
		{"delivery only", &Session{Enabled: true, Delivery: &p}},
		{"history only", &Session{Enabled: true, History: []LocationPoint{p}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.sess.HasAnyLocation() {
				t.Error("expected HasAnyLocation() = true")
			}
		})
	}
}

func TestSessionIsReady(t *testing.T) {
	p := LocationPoint{Lat: 12.9, Lng: 77.5}
	// An unassigned order is not ready even if stray coordinates are present.
	sess := &Session{OrderID: "o1", Enabled: false, Pickup: &p}
	if sess.IsReady() {
		t.Error("disabled session must not be ready")
	}
	sess.Enabled = true
	if !sess.IsReady() {
		t.Error("enabled session must be ready")
	}
}
