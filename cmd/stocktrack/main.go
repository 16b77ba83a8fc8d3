// README: Console tracking client; polls an order's live location and renders
// map commands to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/config"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/livemap"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/tracking"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

func main() {
	var (
		baseURL  = flag.String("base-url", "http://localhost:8080", "API base URL")
		orderID  = flag.String("order", "", "order id to track")
		token    = flag.String("token", os.Getenv("STOCK_TOKEN"), "bearer token")
		provider = flag.String("provider", "console", "map provider: console, leaflet or google")
		interval = flag.Duration("interval", 0, "poll interval (0 uses STOCK_TRACK_POLL_SECONDS)")
	)
	flag.Parse()
	if *orderID == "" {
		log.Fatal("-order is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *interval <= 0 {
		*interval = time.Duration(cfg.Tracking.PollSeconds) * time.Second
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.Tracking.TimeoutSeconds) * time.Second}

	var factory livemap.Factory
	switch *provider {
	case "console":
		factory = func(context.Context) (livemap.Provider, error) {
			return &consoleProvider{out: os.Stdout}, nil
		}
	case "leaflet":
		factory = livemap.NewLeafletFactory(cfg.Maps.TileURL, os.Stdout, httpClient)
	case "google":
		if cfg.Maps.APIKey == "" {
			log.Fatal("STOCK_MAPS_API_KEY is required for the google provider")
		}
		factory = livemap.NewGoogleFactory(cfg.Maps.APIKey, os.Stdout, httpClient)
	default:
		log.Fatalf("unknown provider %q", *provider)
	}

	boot := livemap.NewBootstrap(factory)
	boot.Start(ctx)

	view := livemap.Viewport{
		Center: types.Point{Lat: cfg.Tracking.WarehouseLat, Lng: cfg.Tracking.WarehouseLng},
		Zoom:   cfg.Tracking.DefaultZoom,
	}
	rec := livemap.NewReconciler(boot, view)

	fetcher := livemap.NewFetcher(*baseURL, *token, httpClient.Timeout)
	poller := livemap.NewPoller(fetcher, types.ID(*orderID), *interval, livemap.Handler{
		OnSession: func(s *tracking.Session) {
			if err := rec.Apply(s); err != nil {
				log.Printf("render: %v", err)
				stop()
			}
		},
		OnWaiting: func() {
			log.Print("tracking not available yet")
		},
		OnError: func(err error) {
			log.Printf("poll: %v", err)
		},
	})
	poller.Start(ctx)

	// Render queued sessions once the provider finishes loading.
	go func() {
		if _, err := boot.Wait(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("map provider: %v", err)
			}
			stop()
			return
		}
		if err := rec.Flush(); err != nil {
			log.Printf("render: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	poller.Stop()
	if err := rec.Close(); err != nil {
		log.Printf("close: %v", err)
	}
}

// consoleProvider renders map updates as plain text lines.
type consoleProvider struct {
	out io.Writer
}

func (p *consoleProvider) PlaceMarker(m livemap.Marker) error {
	if m.Role == livemap.RoleCurrent {
		_, err := fmt.Fprintf(p.out, "%s at %.5f,%.5f heading %.0f\n", m.Label, m.Position.Lat, m.Position.Lng, m.Heading)
		return err
	}
	_, err := fmt.Fprintf(p.out, "%s at %.5f,%.5f\n", m.Label, m.Position.Lat, m.Position.Lng)
	return err
}

func (p *consoleProvider) RemoveMarker(livemap.MarkerRole) error { return nil }

func (p *consoleProvider) DrawPath(points []types.Point, style livemap.PathStyle) error {
	_, err := fmt.Fprintf(p.out, "path (%s): %d points\n", style, len(points))
	return err
}

func (p *consoleProvider) ClearPath() error {
	_, err := fmt.Fprintln(p.out, "path cleared")
	return err
}

func (p *consoleProvider) FitBounds(points []types.Point, _ int) error {
	_, err := fmt.Fprintf(p.out, "view fit to %d points\n", len(points))
	return err
}

func (p *consoleProvider) SetView(v livemap.Viewport) error {
	_, err := fmt.Fprintf(p.out, "view %.5f,%.5f zoom %d\n", v.Center.Lat, v.Center.Lng, v.Zoom)
	return err
}

func (p *consoleProvider) Close() error { return nil }
