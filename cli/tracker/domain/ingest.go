package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/dedupe"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// IngestResult reports what an accepted fix caused. Stale means the fix was
// older than the vehicle's current state: it is acknowledged but changes
// nothing.
type IngestResult struct {
	Stale  bool
	Alerts []types.Alert
}

// SaveFix runs the full ingest path for one location fix: validate, authorise,
// update the latest state, persist to history, evaluate hazard zones and fan
// the results out. Alerts are persisted before any subscriber sees them.
func (t *Tracker) SaveFix(ctx context.Context, p types.Principal, fix types.Fix) (IngestResult, error) {
	if err := validateFix(fix); err != nil {
		return IngestResult{}, err
	}
	if !t.canAccess(p, fix.VehicleID) {
		return IngestResult{}, fmt.Errorf("vehicle %s: %w", fix.VehicleID, util.ErrForbidden)
	}

	fix.HeadingDeg = geo.NormalizeHeading(fix.HeadingDeg)
	if fix.CapturedAt.IsZero() {
		fix.CapturedAt = t.now()
	}
	if fix.ReceivedAt.IsZero() {
		fix.ReceivedAt = t.now()
	}

	if !t.latest.Put(fix) {
		// Older than what we already have. Keep it for the history but do
		// not move the fleet state or raise alerts off a past position.
		if err := t.fixes.Append(ctx, fix); err != nil {
			return IngestResult{}, fmt.Errorf("appending stale fix: %w", retryable(err))
		}
		return IngestResult{Stale: true}, nil
	}

	if err := t.fixes.Append(ctx, fix); err != nil {
		return IngestResult{}, fmt.Errorf("appending fix: %w", retryable(err))
	}

	if t.stateMirror != nil {
		if err := t.stateMirror.Mirror(ctx, fix); err != nil {
			log.WithField("vehicle", fix.VehicleID).WithError(err).Warn("state mirror lagging")
		}
	}

	alerts, err := t.evaluateZones(ctx, fix)
	if err != nil {
		return IngestResult{}, err
	}

	rooms := []string{"fleet", "vehicle:" + fix.VehicleID}
	if company, ok := t.companyOf(fix.VehicleID); ok {
		rooms = append(rooms, "company:"+company)
	}

	locEv := LocationEvent(fix)
	for _, room := range rooms {
		t.hub.Publish(room, locEv)
	}
	t.mirrorEvent(locEv)

	for _, alert := range alerts {
		ev := AlertEvent(alert)
		for _, room := range rooms {
			t.hub.Publish(room, ev)
		}
		t.mirrorEvent(ev)
	}

	return IngestResult{Alerts: alerts}, nil
}

// evaluateZones walks the hazard zones around the fix, nearest first, and
// creates one alert per zone that passes the dedupe guard. A persist failure
// aborts the ingest; the failed pair's dedupe mark is released so the crossing
// stays eligible on retry.
func (t *Tracker) evaluateZones(ctx context.Context, fix types.Fix) ([]types.Alert, error) {
	hits := t.zones.Near(fix.Position, t.params.AlertRadiusM)
	if len(hits) == 0 {
		return nil, nil
	}

	var alerts []types.Alert
	for _, hit := range hits {
		if !t.guard.Admit(fix.VehicleID, hit.Zone.ID) {
			continue
		}

		score := dedupe.Score(hit.Zone.AccidentCount, hit.DistanceM, t.params.AlertRadiusM)
		alert := types.Alert{
			ID:              uuid.NewString(),
			VehicleID:       fix.VehicleID,
			DriverID:        fix.DriverID,
			ShipmentID:      fix.ShipmentID,
			ZoneID:          hit.Zone.ID,
			VehicleLocation: fix.Position,
			ZoneLocation:    hit.Zone.Position,
			DistanceM:       hit.DistanceM,
			Severity:        dedupe.SeverityFor(score),
			AccidentCount:   hit.Zone.AccidentCount,
			Status:          types.AlertActive,
			Message: fmt.Sprintf("vehicle %s is %.0f m from accident zone %s (%d recorded accidents)",
				fix.VehicleID, hit.DistanceM, hit.Zone.ID, hit.Zone.AccidentCount),
			CreatedAt: t.now(),
		}

		if err := t.alerts.Create(ctx, alert); err != nil {
			t.guard.Release(fix.VehicleID, hit.Zone.ID)
			return nil, fmt.Errorf("recording alert for zone %s: %w", hit.Zone.ID, retryable(err))
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// retryable maps durable-store failures onto the error kinds callers are told
// to retry on. Deadline errors stay timeouts; everything else reads as the
// store being unavailable.
func retryable(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, util.ErrTimeout) {
		return err
	}
	return fmt.Errorf("%v: %w", err, util.ErrUnavailable)
}

// SaveTelemetry stores one engine-metrics record. Telemetry never touches the
// hazard index.
func (t *Tracker) SaveTelemetry(ctx context.Context, p types.Principal, rec types.TelemetryRecord) error {
	if rec.VehicleID == "" {
		return fmt.Errorf("missing vehicle id: %w", util.ErrValidation)
	}
	if !t.canAccess(p, rec.VehicleID) {
		return fmt.Errorf("vehicle %s: %w", rec.VehicleID, util.ErrForbidden)
	}
	if rec.CapturedAt.IsZero() {
		rec.CapturedAt = t.now()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = t.now()
	}

	if err := t.telemetry.Append(ctx, rec); err != nil {
		return fmt.Errorf("appending telemetry: %w", retryable(err))
	}

	ev := TelemetryEvent(rec)
	t.hub.Publish("vehicle:"+rec.VehicleID, ev)
	t.mirrorEvent(ev)
	return nil
}

func (t *Tracker) companyOf(vehicleID string) (string, bool) {
	if t.directory == nil {
		return "", false
	}
	return t.directory.CompanyOf(vehicleID)
}

func validateFix(fix types.Fix) error {
	if fix.VehicleID == "" {
		return fmt.Errorf("missing vehicle id: %w", util.ErrValidation)
	}
	if !fix.Position.Valid() {
		return fmt.Errorf("coordinates out of range: %w", util.ErrValidation)
	}
	if fix.SpeedKmh < 0 {
		return fmt.Errorf("negative speed: %w", util.ErrValidation)
	}
	if fix.AccuracyM < 0 {
		return fmt.Errorf("negative accuracy: %w", util.ErrValidation)
	}
	return nil
}
