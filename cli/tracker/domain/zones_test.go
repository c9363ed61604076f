package domain

import (
	"context"
	"testing"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/dedupe"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/hazard"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/hub"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
	"github.com/stretchr/testify/assert"
)

func newZoneRig(seed []types.HazardZone) (*Tracker, *store.MemoryZoneStore) {
	zoneStore := store.NewMemoryZoneStore(seed)
	index := hazard.NewIndex(zoneStore)
	index.Reload(context.Background())

	tracker := New(
		Params{AlertRadiusM: 1000, ActiveFreshness: 5 * time.Minute, EtaAvgSpeedKmh: 40},
		store.NewMemoryFixStore(100),
		store.NewMemoryTelemetryStore(100),
		store.NewMemoryAlertStore(),
		index,
		dedupe.NewGuard(time.Minute),
		hub.New(16, time.Minute, nil),
	).WithZoneStore(zoneStore)

	return tracker, zoneStore
}

func TestUpsertZoneRebuildsIndex(t *testing.T) {
	tracker, _ := newZoneRig(nil)
	admin := types.Principal{ID: "root", Admin: true}

	assert.Equal(t, 0, tracker.ZoneCount())

	err := tracker.UpsertZone(context.Background(), admin, types.HazardZone{
		ID:            "zone-ff",
		Position:      basePoint,
		Severity:      types.SeverityHigh,
		AccidentCount: 8,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, tracker.ZoneCount())

	// The new zone is live for ingest without a restart.
	hits, err := tracker.ZonesNear(pointAtMeters(100), 1000)
	assert.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestUpsertZoneValidation(t *testing.T) {
	tracker, _ := newZoneRig(nil)
	admin := types.Principal{ID: "root", Admin: true}

	cases := []struct {
		name string
		zone types.HazardZone
	}{
		{"missing id", types.HazardZone{Position: basePoint, Severity: types.SeverityLow}},
		{"bad coordinates", types.HazardZone{ID: "z", Position: geo.Point{Latitude: 91}, Severity: types.SeverityLow}},
		{"unknown severity", types.HazardZone{ID: "z", Position: basePoint, Severity: "extreme"}},
		{"negative count", types.HazardZone{ID: "z", Position: basePoint, Severity: types.SeverityLow, AccidentCount: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tracker.UpsertZone(context.Background(), admin, tc.zone)
			assert.ErrorIs(t, err, util.ErrValidation)
		})
	}

	err := tracker.UpsertZone(context.Background(), types.Principal{ID: "op"}, types.HazardZone{})
	assert.ErrorIs(t, err, util.ErrForbidden)
}

func TestDeleteZone(t *testing.T) {
	seed := []types.HazardZone{{ID: "zone-ff", Position: basePoint, Severity: types.SeverityHigh, AccidentCount: 8}}
	tracker, _ := newZoneRig(seed)
	admin := types.Principal{ID: "root", Admin: true}

	assert.Equal(t, 1, tracker.ZoneCount())
	assert.NoError(t, tracker.DeleteZone(context.Background(), admin, "zone-ff"))
	assert.Equal(t, 0, tracker.ZoneCount())

	assert.ErrorIs(t, tracker.DeleteZone(context.Background(), admin, "zone-ff"), util.ErrNotFound)
	assert.ErrorIs(t, tracker.DeleteZone(context.Background(), types.Principal{ID: "op"}, "x"), util.ErrForbidden)
}
