// README: HTTP router registration.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/http/handlers"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/http/middleware"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/infra"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/order"
	"github.com/BOOPATHI12-M/stockmanagement-sub000/internal/modules/tracking"
)

func NewRouter(
	orderService *order.Service,
	trackingService *tracking.Service,
	verifier infra.TokenVerifier,
) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	orderHandler := handlers.NewOrderHandler(orderService)
	trackingHandler := handlers.NewTrackingHandler(orderService, trackingService)
	deliveryHandler := handlers.NewDeliveryHandler(orderService, trackingService)

	api := r.Group("/api", middleware.Auth(verifier))

	api.POST("/orders", orderHandler.Create)
	api.GET("/orders/all", middleware.RequireRole("admin"), orderHandler.ListAll)
	api.GET("/orders/customer/me", orderHandler.ListMine)
	api.GET("/orders/:id", orderHandler.Get)
	api.PATCH("/orders/:id/status", middleware.RequireRole("admin"), orderHandler.UpdateStatus)
	api.GET("/orders/:id/tracking", trackingHandler.Timeline)
	api.GET("/orders/:id/location-tracking", trackingHandler.Location)

	delivery := api.Group("/delivery", middleware.RequireRole("delivery"))
	delivery.GET("/available-orders", deliveryHandler.ListAvailable)
	delivery.POST("/orders/:id/accept", deliveryHandler.Accept)
	delivery.POST("/orders/:id/update-status", deliveryHandler.UpdateStatus)
	delivery.POST("/orders/:id/update-location", deliveryHandler.UpdateLocation)
	delivery.POST("/orders/:id/generate-fake-locations", deliveryHandler.SimulateLocations)

	return r
}
