package api

import (
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/config"
	"github.com/gin-gonic/gin"
)

type Controller struct {
	Engine  *gin.Engine
	Handler *Handler
}

// NewController wires the full route table. Every route sits behind the API
// key middleware except the liveness probe.
func NewController(handler *Handler, keys []config.APIKey) *Controller {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", handler.Health)

	authed := router.Group("/", KeyAuth(keys))

	tracking := authed.Group("/tracking")
	{
		tracking.POST("/location", handler.SaveFix)
		tracking.POST("/telemetry", handler.SaveTelemetry)
		tracking.GET("/vehicle/:id/location", handler.GetLatestLocation)
		tracking.GET("/vehicle/:id/history", handler.GetLocationHistory)
		tracking.GET("/vehicle/:id/telemetry", handler.GetTelemetryHistory)
		tracking.GET("/shipment/:id/location", handler.GetShipmentLocation)
		tracking.GET("/shipment/:id/eta", handler.GetShipmentEta)
		tracking.GET("/vehicles/active", handler.GetActiveVehicles)
		tracking.GET("/geofences", handler.ListZones)
		tracking.POST("/geofences", handler.UpsertZone)
		tracking.DELETE("/geofences/:id", handler.DeleteZone)
	}

	accidents := authed.Group("/accidents")
	{
		accidents.GET("/heatmap", handler.GetHeatmap)
		accidents.GET("/nearby", handler.GetNearbyZones)
		accidents.GET("/alerts", handler.GetAlerts)
		accidents.GET("/stats", handler.GetAlertStats)
		accidents.PATCH("/alerts/:id/ack", handler.AcknowledgeAlert)
		accidents.PATCH("/alerts/:id/resolve", handler.ResolveAlert)
	}

	authed.GET("/ws", handler.ServeWS)

	return &Controller{Engine: router, Handler: handler}
}

// Run serves until the listener fails.
func (c *Controller) Run(addr string) error {
	return c.Engine.Run(addr)
}
