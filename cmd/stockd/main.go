// README: API entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/config"
	httptransport "github.com/BOOPATHI12-M/stockmanagement-sub000/internal/http"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/infra"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/maps"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/order"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/tracking"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("STOCK_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var geocoder order.Geocoder
	var routes tracking.RoutePlanner
	if cfg.Maps.APIKey != "" {
		geo, err := maps.NewGeocodeService(cfg.Maps.APIKey, "in")
		if err != nil {
			log.Fatalf("maps geocode init: %v", err)
		}
		geocoder = geo
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps route init: %v", err)
		}
		routes = routePlanner{svc: routeSvc}
	} else {
		log.Print("STOCK_MAPS_API_KEY not set; geocoding and route attachment disabled")
	}

	orderStore := order.NewStore(dbPool)
	trackingStore := tracking.NewStore(dbPool, redisClient)

	trackingSvc := tracking.NewService(trackingStore, orderStore, routes)
	orderSvc := order.NewService(orderStore, geocoder, trackingSvc, order.Warehouse{
		Position: types.Point{Lat: cfg.Tracking.WarehouseLat, Lng: cfg.Tracking.WarehouseLng},
		Address:  cfg.Tracking.WarehouseAddress,
	})

	go trackingSvc.RunAgentJanitor(ctx)

	handler := httptransport.NewRouter(orderSvc, trackingSvc, verifier)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// routePlanner adapts the maps route service to the tracking module.
type routePlanner struct {
	svc *maps.RouteService
}

func (r routePlanner) Route(ctx context.Context, from, to types.Point) (*tracking.Route, error) {
	res, err := r.svc.Route(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &tracking.Route{
		Polyline:     res.Polyline,
		DistanceText: res.DistanceText,
		DurationText: res.DurationText,
	}, nil
}
