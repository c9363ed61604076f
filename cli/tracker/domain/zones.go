package domain

import (
	"context"
	"fmt"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
)

// Heatmap returns every hazard zone currently indexed.
func (t *Tracker) Heatmap() []types.HazardZone {
	return t.zones.All()
}

// UpsertZone writes a hazard zone through to the durable store and rebuilds
// the index so ingest sees it immediately. Admin only.
func (t *Tracker) UpsertZone(ctx context.Context, p types.Principal, zone types.HazardZone) error {
	if !p.Admin {
		return fmt.Errorf("zone management: %w", util.ErrForbidden)
	}
	if t.zoneStore == nil {
		return fmt.Errorf("zone store not configured: %w", util.ErrUnavailable)
	}
	if zone.ID == "" {
		return fmt.Errorf("missing zone id: %w", util.ErrValidation)
	}
	if !zone.Position.Valid() {
		return fmt.Errorf("zone coordinates out of range: %w", util.ErrValidation)
	}
	if !types.ValidSeverity(zone.Severity) {
		return fmt.Errorf("unknown severity %q: %w", zone.Severity, util.ErrValidation)
	}
	if zone.AccidentCount < 0 {
		return fmt.Errorf("negative accident count: %w", util.ErrValidation)
	}
	if zone.LastUpdated.IsZero() {
		zone.LastUpdated = t.now()
	}

	if err := t.zoneStore.Upsert(ctx, zone); err != nil {
		return err
	}
	return t.zones.Reload(ctx)
}

// DeleteZone removes a hazard zone. Admin only.
func (t *Tracker) DeleteZone(ctx context.Context, p types.Principal, id string) error {
	if !p.Admin {
		return fmt.Errorf("zone management: %w", util.ErrForbidden)
	}
	if t.zoneStore == nil {
		return fmt.Errorf("zone store not configured: %w", util.ErrUnavailable)
	}
	if id == "" {
		return fmt.Errorf("missing zone id: %w", util.ErrValidation)
	}

	if err := t.zoneStore.Delete(ctx, id); err != nil {
		return err
	}
	return t.zones.Reload(ctx)
}
