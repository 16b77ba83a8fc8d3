package livemap

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

func newLeafletProvider(t *testing.T) (Provider, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD probe, got %s", r.Method)
		}
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	factory := NewLeafletFactory(srv.URL+"/{z}/{x}/{y}.png", &buf, srv.Client())
	p, err := factory(context.Background())
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	return p, &buf
}

func decodeCommands(t *testing.T, buf *bytes.Buffer) []leafletCommand {
	t.Helper()
	var out []leafletCommand
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var cmd leafletCommand
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			t.Fatalf("bad command line %q: %v", scanner.Text(), err)
		}
		out = append(out, cmd)
	}
	return out
}

func TestLeafletFactoryEmitsInit(t *testing.T) {
	_, buf := newLeafletProvider(t)
	cmds := decodeCommands(t, buf)
	if len(cmds) != 1 || cmds[0].Op != "init" {
		t.Fatalf("expected a single init command, got %v", cmds)
	}
	if cmds[0].TileURL == "" {
		t.Error("init must carry the tile URL")
	}
}

func TestLeafletFactoryUnreachableTiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	factory := NewLeafletFactory(srv.URL+"/{z}/{x}/{y}.png", &buf, srv.Client())
	if _, err := factory(context.Background()); err == nil {
		t.Fatal("expected terminal factory error for a failing tile server")
	}
	if buf.Len() != 0 {
		t.Error("no commands may be emitted on a failed bootstrap")
	}
}

func TestLeafletProviderCommands(t *testing.T) {
	p, buf := newLeafletProvider(t)
	buf.Reset()

	if err := p.PlaceMarker(Marker{Role: RoleCurrent, Position: types.Point{Lat: 12.99, Lng: 77.62}, Heading: 45, Label: "Current Location"}); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := p.DrawPath([]types.Point{{Lat: 12.99, Lng: 77.62}, {Lat: 13.01, Lng: 77.65}}, PathProjected); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if err := p.DrawPath([]types.Point{{Lat: 12.99, Lng: 77.62}, {Lat: 13.01, Lng: 77.65}}, PathTraveled); err != nil {
		t.Fatalf("draw traveled: %v", err)
	}
	if err := p.FitBounds([]types.Point{{Lat: 12.99, Lng: 77.62}}, 50); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cmds := decodeCommands(t, buf)
	if len(cmds) != 5 {
		t.Fatalf("expected 5 commands, got %d", len(cmds))
	}
	if cmds[0].Op != "marker" || cmds[0].Role != RoleCurrent || cmds[0].Heading != 45 {
		t.Errorf("unexpected marker command: %+v", cmds[0])
	}
	// The projected fallback renders dashed, the traveled line solid.
	if cmds[1].Op != "path" || !cmds[1].Dashed {
		t.Errorf("projected path must be dashed: %+v", cmds[1])
	}
	if cmds[2].Dashed {
		t.Errorf("traveled path must be solid: %+v", cmds[2])
	}
	if cmds[3].Op != "fitBounds" || cmds[3].Padding != 50 {
		t.Errorf("unexpected fitBounds command: %+v", cmds[3])
	}
	if cmds[4].Op != "destroy" {
		t.Errorf("expected destroy command, got %+v", cmds[4])
	}
}
