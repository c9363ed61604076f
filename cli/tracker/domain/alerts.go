package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
)

// GetAlert returns one alert by id.
func (t *Tracker) GetAlert(ctx context.Context, p types.Principal, id string) (types.Alert, error) {
	alert, err := t.alerts.Get(ctx, id)
	if err != nil {
		return types.Alert{}, err
	}
	if !t.canAccess(p, alert.VehicleID) {
		return types.Alert{}, fmt.Errorf("alert %s: %w", id, util.ErrForbidden)
	}
	return alert, nil
}

// AcknowledgeAlert moves an alert to acknowledged. Re-acknowledging is a
// no-op; acknowledging a resolved alert fails with util.ErrInvalidState.
func (t *Tracker) AcknowledgeAlert(ctx context.Context, p types.Principal, id string) (types.Alert, error) {
	if _, err := t.GetAlert(ctx, p, id); err != nil {
		return types.Alert{}, err
	}
	return t.alerts.Acknowledge(ctx, id, p.ID, t.now())
}

// ResolveAlert moves an alert to resolved, its terminal state.
func (t *Tracker) ResolveAlert(ctx context.Context, p types.Principal, id string) (types.Alert, error) {
	if _, err := t.GetAlert(ctx, p, id); err != nil {
		return types.Alert{}, err
	}
	return t.alerts.Resolve(ctx, id, p.ID, t.now())
}

// QueryAlerts filters the alert log. Non-admin callers are pinned to their
// own vehicles by the per-alert access check in the store results.
func (t *Tracker) QueryAlerts(ctx context.Context, p types.Principal, q store.AlertQuery) ([]types.Alert, error) {
	if q.Status != "" && q.Status != types.AlertActive &&
		q.Status != types.AlertAcknowledged && q.Status != types.AlertResolved {
		return nil, fmt.Errorf("unknown status %q: %w", q.Status, util.ErrValidation)
	}
	if q.VehicleID != "" && !t.canAccess(p, q.VehicleID) {
		return nil, fmt.Errorf("vehicle %s: %w", q.VehicleID, util.ErrForbidden)
	}

	alerts, err := t.alerts.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if q.VehicleID == "" && t.authz != nil {
		visible := alerts[:0]
		for _, a := range alerts {
			if t.canAccess(p, a.VehicleID) {
				visible = append(visible, a)
			}
		}
		alerts = visible
	}
	return alerts, nil
}

// AlertStatistics aggregates the alert log over the trailing window.
func (t *Tracker) AlertStatistics(ctx context.Context, window time.Duration) (store.AlertStats, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return t.alerts.Stats(ctx, t.now().Add(-window))
}
