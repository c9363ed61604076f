package domain

import (
	"context"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/dedupe"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/hazard"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/hub"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/storage"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
)

// Authorizer decides whether a principal may act on a vehicle's data.
type Authorizer interface {
	CanAccessVehicle(principal types.Principal, vehicleID string) bool
}

// VehicleDirectory resolves fleet metadata that does not travel with fixes.
type VehicleDirectory interface {
	CompanyOf(vehicleID string) (string, bool)
}

// ShipmentAssignment binds a shipment to the vehicle carrying it and its
// drop-off point.
type ShipmentAssignment struct {
	VehicleID   string
	Destination geo.Point
}

// ShipmentDirectory resolves shipment assignments.
type ShipmentDirectory interface {
	AssignmentFor(shipmentID string) (ShipmentAssignment, bool)
}

// EventMirror forwards events to the configured brokers without blocking.
type EventMirror interface {
	Save(storage.Message) bool
}

// StateMirror pushes the latest vehicle state to an external cache.
type StateMirror interface {
	Mirror(ctx context.Context, fix types.Fix) error
}

// Params are the tunables of the tracking engine.
type Params struct {
	AlertRadiusM    float64
	ActiveFreshness time.Duration
	HistoryTTL      time.Duration
	AlertRetention  time.Duration
	EtaAvgSpeedKmh  float64
}

// Tracker is the core engine: it ingests fixes, evaluates them against the
// hazard index, persists what must survive and fans the rest out.
type Tracker struct {
	params Params

	latest    *store.LatestCache
	fixes     store.FixStore
	telemetry store.TelemetryStore
	alerts    store.AlertStore
	zones     *hazard.Index
	guard     *dedupe.Guard
	hub       *hub.Hub

	authz       Authorizer
	directory   VehicleDirectory
	shipments   ShipmentDirectory
	zoneStore   store.ZoneStore
	mirror      EventMirror
	stateMirror StateMirror

	now func() time.Time
}

func New(params Params, fixes store.FixStore, telemetry store.TelemetryStore,
	alerts store.AlertStore, zones *hazard.Index, guard *dedupe.Guard, h *hub.Hub) *Tracker {
	return &Tracker{
		params:    params,
		latest:    store.NewLatestCache(),
		fixes:     fixes,
		telemetry: telemetry,
		alerts:    alerts,
		zones:     zones,
		guard:     guard,
		hub:       h,
		now:       time.Now,
	}
}

// WithAuthorizer installs vehicle-level access control. Without one every
// principal may touch every vehicle.
func (t *Tracker) WithAuthorizer(a Authorizer) *Tracker {
	t.authz = a
	return t
}

// WithDirectory installs the vehicle-to-company mapping used for room routing
// and fleet scoping.
func (t *Tracker) WithDirectory(d VehicleDirectory) *Tracker {
	t.directory = d
	return t
}

// WithShipments installs the shipment-to-vehicle mapping.
func (t *Tracker) WithShipments(d ShipmentDirectory) *Tracker {
	t.shipments = d
	return t
}

// WithZoneStore installs the durable zone backing used by the geofence
// endpoints. Without one the index is read-only.
func (t *Tracker) WithZoneStore(s store.ZoneStore) *Tracker {
	t.zoneStore = s
	return t
}

// WithMirror installs the async broker fan-out.
func (t *Tracker) WithMirror(m EventMirror) *Tracker {
	t.mirror = m
	return t
}

// WithStateMirror installs the external latest-state cache.
func (t *Tracker) WithStateMirror(m StateMirror) *Tracker {
	t.stateMirror = m
	return t
}

// WithClock replaces the time source. For tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

func (t *Tracker) canAccess(p types.Principal, vehicleID string) bool {
	if t.authz == nil {
		return true
	}
	return t.authz.CanAccessVehicle(p, vehicleID)
}

func (t *Tracker) mirrorEvent(ev types.Event) {
	if t.mirror != nil {
		t.mirror.Save(ev)
	}
}
