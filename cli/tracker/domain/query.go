package domain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
)

// Latest returns the current state of a vehicle.
func (t *Tracker) Latest(p types.Principal, vehicleID string) (types.Fix, error) {
	if vehicleID == "" {
		return types.Fix{}, fmt.Errorf("missing vehicle id: %w", util.ErrValidation)
	}
	if !t.canAccess(p, vehicleID) {
		return types.Fix{}, fmt.Errorf("vehicle %s: %w", vehicleID, util.ErrForbidden)
	}
	fix, ok := t.latest.Get(vehicleID)
	if !ok {
		return types.Fix{}, fmt.Errorf("vehicle %s never reported: %w", vehicleID, util.ErrNotFound)
	}
	return fix, nil
}

// History returns the location trail of a vehicle in [from,to], newest first.
func (t *Tracker) History(ctx context.Context, p types.Principal, vehicleID string, from, to time.Time, limit int) ([]types.Fix, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("missing vehicle id: %w", util.ErrValidation)
	}
	if !to.IsZero() && !from.IsZero() && to.Before(from) {
		return nil, fmt.Errorf("window ends before it starts: %w", util.ErrValidation)
	}
	if !t.canAccess(p, vehicleID) {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, util.ErrForbidden)
	}
	return t.fixes.Range(ctx, vehicleID, from, to, limit)
}

// TelemetryHistory returns the engine-metrics trail of a vehicle.
func (t *Tracker) TelemetryHistory(ctx context.Context, p types.Principal, vehicleID string, from, to time.Time, limit int) ([]types.TelemetryRecord, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("missing vehicle id: %w", util.ErrValidation)
	}
	if !t.canAccess(p, vehicleID) {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, util.ErrForbidden)
	}
	return t.telemetry.Range(ctx, vehicleID, from, to, limit)
}

// ActiveFleet returns the latest fix of every vehicle that reported within the
// freshness window, scoped to the caller's company unless they are an admin.
func (t *Tracker) ActiveFleet(p types.Principal) []types.Fix {
	return t.FleetWithin(p, 0, nil)
}

// FleetWithin is ActiveFleet with an explicit freshness override and an
// optional bounding-box filter.
func (t *Tracker) FleetWithin(p types.Principal, freshness time.Duration, box *geo.BBox) []types.Fix {
	if freshness <= 0 {
		freshness = t.params.ActiveFreshness
	}
	cutoff := t.now().Add(-freshness)

	fixes := t.latest.Snapshot()
	active := fixes[:0]
	for _, fix := range fixes {
		if fix.CapturedAt.Before(cutoff) {
			continue
		}
		if box != nil && !box.Contains(fix.Position) {
			continue
		}
		if !p.Admin && t.directory != nil {
			company, ok := t.directory.CompanyOf(fix.VehicleID)
			if ok && company != p.CompanyID {
				continue
			}
		}
		active = append(active, fix)
	}

	sort.Slice(active, func(i, j int) bool { return active[i].VehicleID < active[j].VehicleID })
	return active
}

// ShipmentLocation returns the latest fix of the vehicle carrying a shipment.
func (t *Tracker) ShipmentLocation(p types.Principal, shipmentID string) (types.Fix, error) {
	assignment, err := t.assignment(shipmentID)
	if err != nil {
		return types.Fix{}, err
	}
	return t.Latest(p, assignment.VehicleID)
}

// ShipmentEta estimates the arrival of a shipment at its drop-off point.
func (t *Tracker) ShipmentEta(p types.Principal, shipmentID string) (Eta, error) {
	assignment, err := t.assignment(shipmentID)
	if err != nil {
		return Eta{}, err
	}
	return t.EstimateEta(p, assignment.VehicleID, assignment.Destination)
}

func (t *Tracker) assignment(shipmentID string) (ShipmentAssignment, error) {
	if shipmentID == "" {
		return ShipmentAssignment{}, fmt.Errorf("missing shipment id: %w", util.ErrValidation)
	}
	if t.shipments == nil {
		return ShipmentAssignment{}, fmt.Errorf("shipment directory not configured: %w", util.ErrUnavailable)
	}
	assignment, ok := t.shipments.AssignmentFor(shipmentID)
	if !ok {
		return ShipmentAssignment{}, fmt.Errorf("shipment %s: %w", shipmentID, util.ErrNotFound)
	}
	return assignment, nil
}

// Eta estimates when a vehicle reaches a destination, assuming the configured
// average road speed over the great-circle distance.
type Eta struct {
	VehicleID   string
	From        geo.Point
	To          geo.Point
	DistanceKm  float64
	AvgSpeedKmh float64
	Duration    time.Duration
	ArrivalAt   time.Time
}

func (t *Tracker) EstimateEta(p types.Principal, vehicleID string, dest geo.Point) (Eta, error) {
	if !dest.Valid() {
		return Eta{}, fmt.Errorf("destination out of range: %w", util.ErrValidation)
	}
	fix, err := t.Latest(p, vehicleID)
	if err != nil {
		return Eta{}, err
	}

	distKm := geo.Distance(fix.Position, dest) / 1000
	hours := distKm / t.params.EtaAvgSpeedKmh
	dur := time.Duration(hours * float64(time.Hour))
	now := t.now()

	return Eta{
		VehicleID:   vehicleID,
		From:        fix.Position,
		To:          dest,
		DistanceKm:  distKm,
		AvgSpeedKmh: t.params.EtaAvgSpeedKmh,
		Duration:    dur,
		ArrivalAt:   now.Add(dur),
	}, nil
}

// ZonesNear lists hazard zones within radiusM of a point, nearest first.
func (t *Tracker) ZonesNear(p geo.Point, radiusM float64) ([]types.ZoneHit, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("coordinates out of range: %w", util.ErrValidation)
	}
	if radiusM <= 0 {
		return nil, fmt.Errorf("radius must be positive: %w", util.ErrValidation)
	}
	return t.zones.Near(p, radiusM), nil
}

// ZonesNearestK lists the k hazard zones closest to a point.
func (t *Tracker) ZonesNearestK(p geo.Point, k int) ([]types.ZoneHit, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("coordinates out of range: %w", util.ErrValidation)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive: %w", util.ErrValidation)
	}
	return t.zones.NearestK(p, k), nil
}

// ZoneCount returns the size of the hazard index.
func (t *Tracker) ZoneCount() int {
	return t.zones.Len()
}
