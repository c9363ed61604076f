package domain

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/dedupe"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/hazard"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/hub"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/storage"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func init() {
	log.SetOutput(io.Discard)
}

// Pune city centre; offsets below are chosen in latitude so that the
// haversine distance equals the metre offset almost exactly.
var basePoint = geo.Point{Latitude: 18.5204, Longitude: 73.8567}

func pointAtMeters(north float64) geo.Point {
	return geo.Point{Latitude: basePoint.Latitude + north/111320.0, Longitude: basePoint.Longitude}
}

type recordingMirror struct {
	mu       sync.Mutex
	subjects []string
}

func (m *recordingMirror) Save(msg storage.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, msg.Subject())
	return true
}

func (m *recordingMirror) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subjects...)
}

type testRig struct {
	tracker *Tracker
	alerts  *store.MemoryAlertStore
	fixes   *store.MemoryFixStore
	hub     *hub.Hub
	mirror  *recordingMirror
	now     time.Time
}

func (r *testRig) advance(d time.Duration) { r.now = r.now.Add(d) }

func newTestRig(zones []types.HazardZone) *testRig {
	rig := &testRig{
		alerts: store.NewMemoryAlertStore(),
		fixes:  store.NewMemoryFixStore(1000),
		mirror: &recordingMirror{},
		now:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return rig.now }

	rig.hub = hub.New(64, time.Minute, nil)
	guard := dedupe.NewGuard(60 * time.Second).WithClock(clock)

	rig.tracker = New(
		Params{
			AlertRadiusM:    1000,
			ActiveFreshness: 5 * time.Minute,
			HistoryTTL:      7 * 24 * time.Hour,
			AlertRetention:  90 * 24 * time.Hour,
			EtaAvgSpeedKmh:  40,
		},
		rig.fixes,
		store.NewMemoryTelemetryStore(1000),
		rig.alerts,
		hazard.NewStaticIndex(zones),
		guard,
		rig.hub,
	).WithMirror(rig.mirror).WithClock(clock)

	return rig
}

func fixAt(vehicleID string, p geo.Point, capturedAt time.Time) types.Fix {
	return types.Fix{
		VehicleID:  vehicleID,
		DriverID:   "drv-1",
		Position:   p,
		SpeedKmh:   42,
		HeadingDeg: 90,
		CapturedAt: capturedAt,
	}
}

func nextEvent(t *testing.T, s *hub.Session) types.Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event within a second")
	}
	return types.Event{}
}

func assertNoEvent(t *testing.T, s *hub.Session) {
	t.Helper()
	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected event %s", ev.Name)
	default:
	}
}

func TestSaveFixRaisesAlertOnZoneEntry(t *testing.T) {
	zone := types.HazardZone{
		ID:            "zone-ff",
		Position:      basePoint,
		Severity:      types.SeverityHigh,
		AccidentCount: 8,
	}
	rig := newTestRig([]types.HazardZone{zone})

	vehicleRoom := rig.hub.NewSession(types.Principal{ID: "dispatcher"})
	assert.NoError(t, rig.hub.Join(vehicleRoom, "vehicle:truck-7"))
	fleetRoom := rig.hub.NewSession(types.Principal{ID: "ops"})
	assert.NoError(t, rig.hub.Join(fleetRoom, "fleet"))

	res, err := rig.tracker.SaveFix(context.Background(), types.Principal{ID: "drv-1"},
		fixAt("truck-7", pointAtMeters(75), rig.now))
	assert.NoError(t, err)
	assert.False(t, res.Stale)

	if !assert.Len(t, res.Alerts, 1) {
		return
	}
	alert := res.Alerts[0]
	assert.Equal(t, "zone-ff", alert.ZoneID)
	assert.Equal(t, types.AlertActive, alert.Status)
	assert.InDelta(t, 75, alert.DistanceM, 15)
	// score = 8 * (1 - 75/1000) = 7.4
	assert.Equal(t, types.SeverityHigh, alert.Severity)

	// Persisted before fan-out.
	stored, err := rig.alerts.Get(context.Background(), alert.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.AlertActive, stored.Status)

	// Location and alert both reach the fleet room and the vehicle room.
	for _, s := range []*hub.Session{vehicleRoom, fleetRoom} {
		assert.Equal(t, "fleet:location", nextEvent(t, s).Name)
		assert.Equal(t, "vehicle:accident-zone-alert", nextEvent(t, s).Name)
	}

	assert.Equal(t, []string{"fleet:location", "vehicle:accident-zone-alert"}, rig.mirror.all())
}

func TestSaveFixFanOutRooms(t *testing.T) {
	rig := newTestRig(nil)
	rig.tracker.WithDirectory(staticDirectory{"truck-2": "acme"})
	p := types.Principal{ID: "drv-1"}

	a := rig.hub.NewSession(types.Principal{ID: "a"})
	assert.NoError(t, rig.hub.Join(a, "fleet"))
	c := rig.hub.NewSession(types.Principal{ID: "c"})
	assert.NoError(t, rig.hub.Join(c, "vehicle:truck-2"))
	co := rig.hub.NewSession(types.Principal{ID: "co"})
	assert.NoError(t, rig.hub.Join(co, "company:acme"))

	_, err := rig.tracker.SaveFix(context.Background(), p, fixAt("truck-1", basePoint, rig.now))
	assert.NoError(t, err)
	assert.Equal(t, "fleet:location", nextEvent(t, a).Name)
	assertNoEvent(t, c)
	assertNoEvent(t, co)

	_, err = rig.tracker.SaveFix(context.Background(), p, fixAt("truck-2", basePoint, rig.now))
	assert.NoError(t, err)
	for _, s := range []*hub.Session{a, c, co} {
		ev := nextEvent(t, s)
		assert.Equal(t, "fleet:location", ev.Name)
	}
}

func TestSaveFixDedupesRepeatAlerts(t *testing.T) {
	zone := types.HazardZone{ID: "zone-ff", Position: basePoint, AccidentCount: 8}
	rig := newTestRig([]types.HazardZone{zone})
	p := types.Principal{ID: "drv-1"}

	res, err := rig.tracker.SaveFix(context.Background(), p, fixAt("truck-7", pointAtMeters(75), rig.now))
	assert.NoError(t, err)
	assert.Len(t, res.Alerts, 1)

	// Still inside the 60 s window: suppressed.
	rig.advance(30 * time.Second)
	res, err = rig.tracker.SaveFix(context.Background(), p, fixAt("truck-7", pointAtMeters(80), rig.now))
	assert.NoError(t, err)
	assert.Empty(t, res.Alerts)

	// 70 s after the last emission: a fresh alert.
	rig.advance(70 * time.Second)
	res, err = rig.tracker.SaveFix(context.Background(), p, fixAt("truck-7", pointAtMeters(70), rig.now))
	assert.NoError(t, err)
	assert.Len(t, res.Alerts, 1)

	// A different vehicle in the same zone is never suppressed.
	res, err = rig.tracker.SaveFix(context.Background(), p, fixAt("truck-8", pointAtMeters(75), rig.now))
	assert.NoError(t, err)
	assert.Len(t, res.Alerts, 1)
}

func TestSaveFixSeverityScaling(t *testing.T) {
	zone := types.HazardZone{ID: "zone-m", Position: basePoint, AccidentCount: 3}
	rig := newTestRig([]types.HazardZone{zone})
	p := types.Principal{ID: "drv-1"}

	// 3 * (1 - 200/1000) = 2.4
	res, err := rig.tracker.SaveFix(context.Background(), p, fixAt("truck-a", pointAtMeters(200), rig.now))
	assert.NoError(t, err)
	if assert.Len(t, res.Alerts, 1) {
		assert.Equal(t, types.SeverityMedium, res.Alerts[0].Severity)
	}

	// 3 * (1 - 900/1000) = 0.3
	res, err = rig.tracker.SaveFix(context.Background(), p, fixAt("truck-b", pointAtMeters(900), rig.now))
	assert.NoError(t, err)
	if assert.Len(t, res.Alerts, 1) {
		assert.Equal(t, types.SeverityLow, res.Alerts[0].Severity)
	}
}

func TestSaveFixOutOfOrderIsStale(t *testing.T) {
	rig := newTestRig(nil)
	p := types.Principal{ID: "drv-1"}

	current := fixAt("truck-7", pointAtMeters(0), rig.now)
	_, err := rig.tracker.SaveFix(context.Background(), p, current)
	assert.NoError(t, err)

	// Captured a minute earlier but delivered later, as a buffering device
	// flushing its backlog would.
	rig.advance(10 * time.Second)
	late := fixAt("truck-7", pointAtMeters(500), rig.now.Add(-70*time.Second))
	res, err := rig.tracker.SaveFix(context.Background(), p, late)
	assert.NoError(t, err)
	assert.True(t, res.Stale)

	// Latest state is untouched, history keeps both.
	latest, err := rig.tracker.Latest(p, "truck-7")
	assert.NoError(t, err)
	assert.Equal(t, current.Position, latest.Position)

	history, err := rig.fixes.LatestN(context.Background(), "truck-7", 10)
	assert.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSaveFixOutsideRadiusRaisesNothing(t *testing.T) {
	zone := types.HazardZone{ID: "zone-far", Position: basePoint, AccidentCount: 9}
	rig := newTestRig([]types.HazardZone{zone})

	res, err := rig.tracker.SaveFix(context.Background(), types.Principal{ID: "drv-1"},
		fixAt("truck-7", pointAtMeters(1500), rig.now))
	assert.NoError(t, err)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, []string{"fleet:location"}, rig.mirror.all())
}

func TestSaveFixValidation(t *testing.T) {
	rig := newTestRig(nil)
	p := types.Principal{ID: "drv-1"}

	cases := []struct {
		name string
		fix  types.Fix
	}{
		{"missing vehicle", fixAt("", basePoint, rig.now)},
		{"latitude out of range", fixAt("truck-7", geo.Point{Latitude: 90.5, Longitude: 0}, rig.now)},
		{"negative speed", func() types.Fix {
			f := fixAt("truck-7", basePoint, rig.now)
			f.SpeedKmh = -1
			return f
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rig.tracker.SaveFix(context.Background(), p, tc.fix)
			assert.ErrorIs(t, err, util.ErrValidation)
		})
	}
}

type denyAll struct{}

func (denyAll) CanAccessVehicle(types.Principal, string) bool { return false }

func TestSaveFixForbidden(t *testing.T) {
	rig := newTestRig(nil)
	rig.tracker.WithAuthorizer(denyAll{})

	_, err := rig.tracker.SaveFix(context.Background(), types.Principal{ID: "drv-1"},
		fixAt("truck-7", basePoint, rig.now))
	assert.ErrorIs(t, err, util.ErrForbidden)
}

func TestSaveFixNormalizesHeading(t *testing.T) {
	rig := newTestRig(nil)
	p := types.Principal{ID: "drv-1"}

	fix := fixAt("truck-7", basePoint, rig.now)
	fix.HeadingDeg = 360

	_, err := rig.tracker.SaveFix(context.Background(), p, fix)
	assert.NoError(t, err)

	latest, err := rig.tracker.Latest(p, "truck-7")
	assert.NoError(t, err)
	assert.Equal(t, float64(0), latest.HeadingDeg)
}

func TestSaveFixStampsMissingTimestamp(t *testing.T) {
	rig := newTestRig(nil)
	p := types.Principal{ID: "drv-1"}

	_, err := rig.tracker.SaveFix(context.Background(), p, fixAt("truck-7", basePoint, time.Time{}))
	assert.NoError(t, err)

	latest, err := rig.tracker.Latest(p, "truck-7")
	assert.NoError(t, err)
	assert.Equal(t, rig.now, latest.CapturedAt)
	assert.Equal(t, rig.now, latest.ReceivedAt)
}

type explodingAlertStore struct {
	*store.MemoryAlertStore
	fail bool
}

func (s *explodingAlertStore) Create(ctx context.Context, a types.Alert) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.MemoryAlertStore.Create(ctx, a)
}

func TestSaveFixAlertPersistFailureIsRetryable(t *testing.T) {
	zone := types.HazardZone{ID: "zone-ff", Position: basePoint, AccidentCount: 8}
	rig := newTestRig([]types.HazardZone{zone})
	exploding := &explodingAlertStore{MemoryAlertStore: rig.alerts, fail: true}
	clock := func() time.Time { return rig.now }

	tracker := New(
		Params{AlertRadiusM: 1000, EtaAvgSpeedKmh: 40},
		rig.fixes,
		store.NewMemoryTelemetryStore(1000),
		exploding,
		hazard.NewStaticIndex([]types.HazardZone{zone}),
		dedupe.NewGuard(60*time.Second).WithClock(clock),
		rig.hub,
	).WithMirror(rig.mirror).WithClock(clock)

	session := rig.hub.NewSession(types.Principal{ID: "ops"})
	assert.NoError(t, rig.hub.Join(session, "fleet"))
	p := types.Principal{ID: "drv-1"}

	_, err := tracker.SaveFix(context.Background(), p, fixAt("truck-7", pointAtMeters(75), rig.now))
	assert.ErrorIs(t, err, util.ErrUnavailable)

	// Nothing fanned out or mirrored on a failed ingest.
	assertNoEvent(t, session)
	assert.Empty(t, rig.mirror.all())

	// The dedupe mark was released, so the retry raises the alert straight
	// away instead of losing the crossing for a full window.
	exploding.fail = false
	rig.advance(time.Second)
	res, err := tracker.SaveFix(context.Background(), p, fixAt("truck-7", pointAtMeters(75), rig.now))
	assert.NoError(t, err)
	assert.Len(t, res.Alerts, 1)
}

func TestSaveTelemetry(t *testing.T) {
	rig := newTestRig(nil)
	p := types.Principal{ID: "drv-1"}

	session := rig.hub.NewSession(types.Principal{ID: "dispatcher"})
	assert.NoError(t, rig.hub.Join(session, "vehicle:truck-7"))

	err := rig.tracker.SaveTelemetry(context.Background(), p, types.TelemetryRecord{
		VehicleID:    "truck-7",
		EngineStatus: "running",
		FuelLevelPct: 63.5,
		CapturedAt:   rig.now,
	})
	assert.NoError(t, err)

	select {
	case ev := <-session.Events():
		assert.Equal(t, "vehicle:telemetry", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("vehicle room never received telemetry")
	}

	// A record without a capture time is stamped, not rejected.
	err = rig.tracker.SaveTelemetry(context.Background(), p, types.TelemetryRecord{VehicleID: "truck-7"})
	assert.NoError(t, err)

	err = rig.tracker.SaveTelemetry(context.Background(), p, types.TelemetryRecord{CapturedAt: rig.now})
	assert.ErrorIs(t, err, util.ErrValidation)
}
