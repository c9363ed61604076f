package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/api/dto/request"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/api/dto/response"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/domain"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/hub"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
	"github.com/gin-gonic/gin"
)

const (
	historyLimitDefault = 100
	historyLimitMax     = 1000
	nearbyRadiusCapM    = 50000
)

type Handler struct {
	tracker  *domain.Tracker
	hub      *hub.Hub
	deadline time.Duration
}

func NewHandler(tracker *domain.Tracker, h *hub.Hub, deadline time.Duration) *Handler {
	return &Handler{tracker: tracker, hub: h, deadline: deadline}
}

func (h *Handler) requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.deadline)
}

func (h *Handler) SaveFix(c *gin.Context) {
	req := request.SaveFix{}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%v: %w", err, util.ErrValidation))
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	res, err := h.tracker.SaveFix(ctx, principalFrom(c), req.ToFix())
	if err != nil {
		abortWithError(c, err)
		return
	}

	ack := "ok"
	if res.Stale {
		ack = "stale"
	}
	c.JSON(http.StatusOK, response.Ack{Ack: ack, AlertsEmitted: len(res.Alerts)})
}

func (h *Handler) SaveTelemetry(c *gin.Context) {
	req := request.SaveTelemetry{}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%v: %w", err, util.ErrValidation))
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	if err := h.tracker.SaveTelemetry(ctx, principalFrom(c), req.ToRecord()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Ack{Ack: "ok"})
}

func (h *Handler) GetLatestLocation(c *gin.Context) {
	fix, err := h.tracker.Latest(principalFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromFix(fix))
}

func (h *Handler) GetLocationHistory(c *gin.Context) {
	from, to, limit, err := historyParams(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	fixes, err := h.tracker.History(ctx, principalFrom(c), c.Param("id"), from, to, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromFixes(fixes))
}

func (h *Handler) GetTelemetryHistory(c *gin.Context) {
	from, to, limit, err := historyParams(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	records, err := h.tracker.TelemetryHistory(ctx, principalFrom(c), c.Param("id"), from, to, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) GetShipmentLocation(c *gin.Context) {
	fix, err := h.tracker.ShipmentLocation(principalFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromFix(fix))
}

func (h *Handler) GetShipmentEta(c *gin.Context) {
	eta, err := h.tracker.ShipmentEta(principalFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromEta(eta))
}

func (h *Handler) GetActiveVehicles(c *gin.Context) {
	var box *geo.BBox
	if raw := c.Query("bounds"); raw != "" {
		parsed, err := parseBounds(raw)
		if err != nil {
			abortWithError(c, err)
			return
		}
		box = parsed
	}

	freshness := time.Duration(0)
	if raw := c.Query("freshness"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			abortWithError(c, fmt.Errorf("bad freshness %q: %w", raw, util.ErrValidation))
			return
		}
		freshness = time.Duration(seconds) * time.Second
	}

	fixes := h.tracker.FleetWithin(principalFrom(c), freshness, box)
	c.JSON(http.StatusOK, response.FromFixes(fixes))
}

func (h *Handler) ListZones(c *gin.Context) {
	c.JSON(http.StatusOK, response.FromZones(h.tracker.Heatmap()))
}

func (h *Handler) UpsertZone(c *gin.Context) {
	req := request.UpsertZone{}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%v: %w", err, util.ErrValidation))
		return
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	if err := h.tracker.UpsertZone(ctx, principalFrom(c), req.ToZone()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

func (h *Handler) DeleteZone(c *gin.Context) {
	ctx, cancel := h.requestCtx(c)
	defer cancel()

	if err := h.tracker.DeleteZone(ctx, principalFrom(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetHeatmap(c *gin.Context) {
	c.JSON(http.StatusOK, response.FromZones(h.tracker.Heatmap()))
}

func (h *Handler) GetNearbyZones(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		abortWithError(c, fmt.Errorf("bad lat: %w", util.ErrValidation))
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		abortWithError(c, fmt.Errorf("bad lng: %w", util.ErrValidation))
		return
	}

	radius := float64(1000)
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			abortWithError(c, fmt.Errorf("bad radius: %w", util.ErrValidation))
			return
		}
	}
	if radius > nearbyRadiusCapM {
		radius = nearbyRadiusCapM
	}

	hits, err := h.tracker.ZonesNear(geo.Point{Latitude: lat, Longitude: lng}, radius)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromZoneHits(hits))
}

func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	ctx, cancel := h.requestCtx(c)
	defer cancel()

	p := principalFrom(c)
	var body struct {
		AcknowledgedBy string `json:"acknowledgedBy"`
	}
	if err := c.ShouldBindJSON(&body); err == nil && body.AcknowledgedBy != "" {
		p.ID = body.AcknowledgedBy
	}

	alert, err := h.tracker.AcknowledgeAlert(ctx, p, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromAlert(alert))
}

func (h *Handler) ResolveAlert(c *gin.Context) {
	ctx, cancel := h.requestCtx(c)
	defer cancel()

	alert, err := h.tracker.ResolveAlert(ctx, principalFrom(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromAlert(alert))
}

func (h *Handler) GetAlerts(c *gin.Context) {
	q := store.AlertQuery{
		VehicleID: c.Query("vehicleId"),
		DriverID:  c.Query("driverId"),
		Limit:     historyLimitDefault,
	}
	if raw := c.Query("status"); raw != "" {
		q.Status = types.AlertStatus(raw)
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, fmt.Errorf("bad from %q: %w", raw, util.ErrValidation))
			return
		}
		q.From = ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, fmt.Errorf("bad to %q: %w", raw, util.ErrValidation))
			return
		}
		q.To = ts
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			abortWithError(c, fmt.Errorf("bad limit %q: %w", raw, util.ErrValidation))
			return
		}
		if n > historyLimitMax {
			n = historyLimitMax
		}
		q.Limit = n
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithError(c, fmt.Errorf("bad offset %q: %w", raw, util.ErrValidation))
			return
		}
		q.Offset = n
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	alerts, err := h.tracker.QueryAlerts(ctx, principalFrom(c), q)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromAlerts(alerts))
}

func (h *Handler) GetAlertStats(c *gin.Context) {
	window := 24 * time.Hour
	if raw := c.Query("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			abortWithError(c, fmt.Errorf("bad hours %q: %w", raw, util.ErrValidation))
			return
		}
		window = time.Duration(hours) * time.Hour
	}

	ctx, cancel := h.requestCtx(c)
	defer cancel()

	stats, err := h.tracker.AlertStatistics(ctx, window)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromStats(stats))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"zones":    h.tracker.ZoneCount(),
		"sessions": h.hub.SessionCount(),
	})
}

func historyParams(c *gin.Context) (from, to time.Time, limit int, err error) {
	if raw := c.Query("startDate"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, 0, fmt.Errorf("bad startDate %q: %w", raw, util.ErrValidation)
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return from, to, 0, fmt.Errorf("bad endDate %q: %w", raw, util.ErrValidation)
		}
	}

	limit = historyLimitDefault
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return from, to, 0, fmt.Errorf("bad limit %q: %w", raw, util.ErrValidation)
		}
		if limit > historyLimitMax {
			limit = historyLimitMax
		}
	}
	return from, to, limit, nil
}

// parseBounds reads "S,W,N,E" into a bounding box.
func parseBounds(raw string) (*geo.BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounds must be S,W,N,E: %w", util.ErrValidation)
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad bounds component %q: %w", part, util.ErrValidation)
		}
		vals[i] = v
	}
	box := geo.BBox{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}
	if box.MinLat > box.MaxLat {
		return nil, fmt.Errorf("bounds south above north: %w", util.ErrValidation)
	}
	return &box, nil
}
