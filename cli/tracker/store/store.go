package store

import (
	"context"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
)

// FixStore is the append-only location history, ordered by captured-at.
type FixStore interface {
	Append(ctx context.Context, fix types.Fix) error
	// Range returns fixes with captured_at in [from,to], newest first,
	// at most limit rows.
	Range(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]types.Fix, error)
	// LatestN returns the n most recent fixes, newest first.
	LatestN(ctx context.Context, vehicleID string, n int) ([]types.Fix, error)
	// Purge drops fixes captured before the cutoff and returns the count.
	Purge(ctx context.Context, olderThan time.Time) (int, error)
}

// TelemetryStore is the parallel append-only series for engine metrics.
type TelemetryStore interface {
	Append(ctx context.Context, rec types.TelemetryRecord) error
	Range(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]types.TelemetryRecord, error)
	Purge(ctx context.Context, olderThan time.Time) (int, error)
}

// AlertQuery filters the alert log. Zero fields are ignored.
type AlertQuery struct {
	VehicleID string
	DriverID  string
	Status    types.AlertStatus
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// HourCount is one bucket of the hourly alert histogram.
type HourCount struct {
	Hour  time.Time
	Count int
}

// ZoneCount ranks a zone by the alerts it produced.
type ZoneCount struct {
	ZoneID string
	Count  int
}

// AlertStats aggregates the alert log over a look-back window.
type AlertStats struct {
	Total      int
	BySeverity map[types.Severity]int
	ByHour     []HourCount
	TopZones   []ZoneCount
}

// AlertStore persists alerts and drives their lifecycle. Transitions only
// move forward; re-applying the current state is a no-op, moving backwards
// fails with util.ErrInvalidState.
type AlertStore interface {
	Create(ctx context.Context, alert types.Alert) error
	Get(ctx context.Context, id string) (types.Alert, error)
	Acknowledge(ctx context.Context, id, actor string, at time.Time) (types.Alert, error)
	Resolve(ctx context.Context, id, actor string, at time.Time) (types.Alert, error)
	Query(ctx context.Context, q AlertQuery) ([]types.Alert, error)
	Stats(ctx context.Context, since time.Time) (AlertStats, error)
	// PurgeResolved drops resolved alerts created before the cutoff.
	PurgeResolved(ctx context.Context, olderThan time.Time) (int, error)
}

// ZoneStore is the durable backing of the hazard index.
type ZoneStore interface {
	LoadAll(ctx context.Context) ([]types.HazardZone, error)
	Get(ctx context.Context, id string) (types.HazardZone, error)
	Upsert(ctx context.Context, zone types.HazardZone) error
	Delete(ctx context.Context, id string) error
}
