package domain

import (
	"context"
	"testing"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
	"github.com/stretchr/testify/assert"
)

type staticDirectory map[string]string

func (d staticDirectory) CompanyOf(vehicleID string) (string, bool) {
	c, ok := d[vehicleID]
	return c, ok
}

func TestLatestUnknownVehicle(t *testing.T) {
	rig := newTestRig(nil)
	_, err := rig.tracker.Latest(types.Principal{ID: "op"}, "ghost")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestActiveFleetFreshnessAndScoping(t *testing.T) {
	rig := newTestRig(nil)
	rig.tracker.WithDirectory(staticDirectory{
		"truck-acme":   "acme",
		"truck-globex": "globex",
	})
	p := types.Principal{ID: "drv-1"}

	_, err := rig.tracker.SaveFix(context.Background(), p, fixAt("truck-acme", basePoint, rig.now))
	assert.NoError(t, err)
	_, err = rig.tracker.SaveFix(context.Background(), p, fixAt("truck-globex", basePoint, rig.now))
	assert.NoError(t, err)
	_, err = rig.tracker.SaveFix(context.Background(), p, fixAt("truck-idle", basePoint, rig.now))
	assert.NoError(t, err)

	// truck-idle goes quiet for longer than the freshness window.
	rig.advance(6 * time.Minute)
	_, err = rig.tracker.SaveFix(context.Background(), p, fixAt("truck-acme", basePoint, rig.now))
	assert.NoError(t, err)
	_, err = rig.tracker.SaveFix(context.Background(), p, fixAt("truck-globex", basePoint, rig.now))
	assert.NoError(t, err)

	admin := rig.tracker.ActiveFleet(types.Principal{ID: "root", Admin: true})
	ids := make([]string, 0, len(admin))
	for _, f := range admin {
		ids = append(ids, f.VehicleID)
	}
	assert.Equal(t, []string{"truck-acme", "truck-globex"}, ids)

	scoped := rig.tracker.ActiveFleet(types.Principal{ID: "op", CompanyID: "acme"})
	if assert.Len(t, scoped, 1) {
		assert.Equal(t, "truck-acme", scoped[0].VehicleID)
	}
}

func TestHistoryWindowValidation(t *testing.T) {
	rig := newTestRig(nil)
	p := types.Principal{ID: "op"}

	from := rig.now
	to := rig.now.Add(-time.Hour)
	_, err := rig.tracker.History(context.Background(), p, "truck-7", from, to, 10)
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestEstimateEta(t *testing.T) {
	rig := newTestRig(nil)
	p := types.Principal{ID: "drv-1"}

	// Pune -> Delhi is roughly 1179 km great-circle.
	pune := geo.Point{Latitude: 18.5204, Longitude: 73.8567}
	delhi := geo.Point{Latitude: 28.7041, Longitude: 77.1025}

	_, err := rig.tracker.SaveFix(context.Background(), p, fixAt("truck-7", pune, rig.now))
	assert.NoError(t, err)

	eta, err := rig.tracker.EstimateEta(p, "truck-7", delhi)
	assert.NoError(t, err)
	assert.InDelta(t, 1179, eta.DistanceKm, 20)
	assert.Equal(t, float64(40), eta.AvgSpeedKmh)
	assert.InDelta(t, 29.5, eta.Duration.Hours(), 0.6)
	assert.Equal(t, rig.now.Add(eta.Duration), eta.ArrivalAt)

	_, err = rig.tracker.EstimateEta(p, "truck-7", geo.Point{Latitude: 91, Longitude: 0})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = rig.tracker.EstimateEta(p, "ghost", delhi)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestAlertLifecycle(t *testing.T) {
	zone := types.HazardZone{ID: "zone-ff", Position: basePoint, AccidentCount: 8}
	rig := newTestRig([]types.HazardZone{zone})
	p := types.Principal{ID: "dispatcher"}

	res, err := rig.tracker.SaveFix(context.Background(), types.Principal{ID: "drv-1"},
		fixAt("truck-7", pointAtMeters(75), rig.now))
	assert.NoError(t, err)
	if !assert.Len(t, res.Alerts, 1) {
		return
	}
	id := res.Alerts[0].ID

	rig.advance(time.Minute)
	acked, err := rig.tracker.AcknowledgeAlert(context.Background(), p, id)
	assert.NoError(t, err)
	assert.Equal(t, types.AlertAcknowledged, acked.Status)
	assert.Equal(t, "dispatcher", acked.AcknowledgedBy)
	if assert.NotNil(t, acked.AcknowledgedAt) {
		assert.Equal(t, rig.now, *acked.AcknowledgedAt)
	}

	// Re-acknowledging is a no-op.
	again, err := rig.tracker.AcknowledgeAlert(context.Background(), p, id)
	assert.NoError(t, err)
	assert.Equal(t, types.AlertAcknowledged, again.Status)

	rig.advance(time.Minute)
	resolved, err := rig.tracker.ResolveAlert(context.Background(), p, id)
	assert.NoError(t, err)
	assert.Equal(t, types.AlertResolved, resolved.Status)

	// Resolved is terminal: acknowledging again moves backwards.
	_, err = rig.tracker.AcknowledgeAlert(context.Background(), p, id)
	assert.ErrorIs(t, err, util.ErrInvalidState)

	_, err = rig.tracker.AcknowledgeAlert(context.Background(), p, "no-such-alert")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

type ownVehicleOnly map[string]string

func (a ownVehicleOnly) CanAccessVehicle(p types.Principal, vehicleID string) bool {
	if p.Admin {
		return true
	}
	return a[vehicleID] == p.CompanyID
}

func TestQueryAlertsScopedToAccessibleVehicles(t *testing.T) {
	zone := types.HazardZone{ID: "zone-ff", Position: basePoint, AccidentCount: 8}
	rig := newTestRig([]types.HazardZone{zone})

	_, err := rig.tracker.SaveFix(context.Background(), types.Principal{ID: "drv-1"},
		fixAt("truck-acme", pointAtMeters(75), rig.now))
	assert.NoError(t, err)
	_, err = rig.tracker.SaveFix(context.Background(), types.Principal{ID: "drv-2"},
		fixAt("truck-globex", pointAtMeters(80), rig.now))
	assert.NoError(t, err)

	rig.tracker.WithAuthorizer(ownVehicleOnly{"truck-acme": "acme", "truck-globex": "globex"})

	all, err := rig.tracker.QueryAlerts(context.Background(), types.Principal{ID: "root", Admin: true}, store.AlertQuery{})
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := rig.tracker.QueryAlerts(context.Background(), types.Principal{ID: "op", CompanyID: "acme"}, store.AlertQuery{})
	assert.NoError(t, err)
	if assert.Len(t, scoped, 1) {
		assert.Equal(t, "truck-acme", scoped[0].VehicleID)
	}

	_, err = rig.tracker.QueryAlerts(context.Background(), types.Principal{ID: "op", CompanyID: "acme"},
		store.AlertQuery{VehicleID: "truck-globex"})
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, err = rig.tracker.QueryAlerts(context.Background(), types.Principal{ID: "root", Admin: true},
		store.AlertQuery{Status: "sleeping"})
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestZonesNearValidation(t *testing.T) {
	zone := types.HazardZone{ID: "zone-ff", Position: basePoint, AccidentCount: 8}
	rig := newTestRig([]types.HazardZone{zone})

	hits, err := rig.tracker.ZonesNear(pointAtMeters(300), 1000)
	assert.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = rig.tracker.ZonesNear(geo.Point{Latitude: 91, Longitude: 0}, 1000)
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = rig.tracker.ZonesNear(basePoint, 0)
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestRoomGate(t *testing.T) {
	gate := RoomGate{Authz: ownVehicleOnly{"truck-acme": "acme"}}

	operator := types.Principal{ID: "op", CompanyID: "acme"}
	assert.True(t, gate.CanJoinRoom(operator, "fleet"))
	assert.True(t, gate.CanJoinRoom(operator, "vehicle:truck-acme"))
	assert.False(t, gate.CanJoinRoom(operator, "vehicle:truck-globex"))
	assert.True(t, gate.CanJoinRoom(operator, "company:acme"))
	assert.False(t, gate.CanJoinRoom(operator, "company:globex"))
	assert.False(t, gate.CanJoinRoom(operator, "lobby"))
	assert.False(t, gate.CanJoinRoom(operator, "vehicle:"))

	admin := types.Principal{ID: "root", Admin: true}
	assert.True(t, gate.CanJoinRoom(admin, "company:globex"))
}
