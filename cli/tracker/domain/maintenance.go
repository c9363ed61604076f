package domain

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// PurgeHistory drops location and telemetry rows older than the retention
// window. Wired to a cron in main.
func (t *Tracker) PurgeHistory(ctx context.Context) {
	cutoff := t.now().Add(-t.params.HistoryTTL)

	n, err := t.fixes.Purge(ctx, cutoff)
	if err != nil {
		log.WithError(err).Error("fix history purge failed")
	} else if n > 0 {
		log.Infof("purged %d location fixes", n)
	}

	n, err = t.telemetry.Purge(ctx, cutoff)
	if err != nil {
		log.WithError(err).Error("telemetry purge failed")
	} else if n > 0 {
		log.Infof("purged %d telemetry records", n)
	}
}

// PurgeAlerts drops resolved alerts older than the alert retention window.
// Active and acknowledged alerts are kept regardless of age.
func (t *Tracker) PurgeAlerts(ctx context.Context) {
	cutoff := t.now().Add(-t.params.AlertRetention)
	n, err := t.alerts.PurgeResolved(ctx, cutoff)
	if err != nil {
		log.WithError(err).Error("alert purge failed")
	} else if n > 0 {
		log.Infof("purged %d resolved alerts", n)
	}
}

// SweepDedupe evicts expired entries from the dedupe guard.
func (t *Tracker) SweepDedupe() {
	if n := t.guard.Sweep(); n > 0 {
		log.Debugf("dedupe sweep evicted %d pairs", n)
	}
}

// ReloadZones rebuilds the hazard index from its backing store.
func (t *Tracker) ReloadZones(ctx context.Context) {
	if err := t.zones.Reload(ctx); err != nil {
		log.WithError(err).Error("hazard index reload failed")
	}
}
