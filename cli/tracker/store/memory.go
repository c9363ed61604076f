package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
)

// MemoryFixStore keeps the location history in process memory with the same
// retention rules as the durable store: per-vehicle cap, oldest evicted first.
// It backs tests and the standalone mode.
type MemoryFixStore struct {
	mu     sync.RWMutex
	series map[string][]types.Fix
	cap    int
}

func NewMemoryFixStore(capPerVehicle int) *MemoryFixStore {
	return &MemoryFixStore{
		series: make(map[string][]types.Fix),
		cap:    capPerVehicle,
	}
}

func (s *MemoryFixStore) Append(_ context.Context, fix types.Fix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	series := append(s.series[fix.VehicleID], fix)
	// Keep captured-at order; ingest may deliver near-simultaneous fixes
	// slightly out of order.
	sort.SliceStable(series, func(i, j int) bool {
		if series[i].CapturedAt.Equal(series[j].CapturedAt) {
			return series[i].ReceivedAt.Before(series[j].ReceivedAt)
		}
		return series[i].CapturedAt.Before(series[j].CapturedAt)
	})
	if s.cap > 0 && len(series) > s.cap {
		series = series[len(series)-s.cap:]
	}
	s.series[fix.VehicleID] = series
	return nil
}

func (s *MemoryFixStore) Range(_ context.Context, vehicleID string, from, to time.Time, limit int) ([]types.Fix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Fix
	series := s.series[vehicleID]
	for i := len(series) - 1; i >= 0; i-- {
		f := series[i]
		if !from.IsZero() && f.CapturedAt.Before(from) {
			continue
		}
		if !to.IsZero() && f.CapturedAt.After(to) {
			continue
		}
		out = append(out, f)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryFixStore) LatestN(ctx context.Context, vehicleID string, n int) ([]types.Fix, error) {
	return s.Range(ctx, vehicleID, time.Time{}, time.Time{}, n)
}

func (s *MemoryFixStore) Purge(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, series := range s.series {
		kept := series[:0]
		for _, f := range series {
			if f.CapturedAt.Before(olderThan) {
				removed++
				continue
			}
			kept = append(kept, f)
		}
		if len(kept) == 0 {
			delete(s.series, id)
		} else {
			s.series[id] = kept
		}
	}
	return removed, nil
}

// MemoryTelemetryStore mirrors MemoryFixStore for engine metrics.
type MemoryTelemetryStore struct {
	mu     sync.RWMutex
	series map[string][]types.TelemetryRecord
	cap    int
}

func NewMemoryTelemetryStore(capPerVehicle int) *MemoryTelemetryStore {
	return &MemoryTelemetryStore{
		series: make(map[string][]types.TelemetryRecord),
		cap:    capPerVehicle,
	}
}

func (s *MemoryTelemetryStore) Append(_ context.Context, rec types.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	series := append(s.series[rec.VehicleID], rec)
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].CapturedAt.Before(series[j].CapturedAt)
	})
	if s.cap > 0 && len(series) > s.cap {
		series = series[len(series)-s.cap:]
	}
	s.series[rec.VehicleID] = series
	return nil
}

func (s *MemoryTelemetryStore) Range(_ context.Context, vehicleID string, from, to time.Time, limit int) ([]types.TelemetryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.TelemetryRecord
	series := s.series[vehicleID]
	for i := len(series) - 1; i >= 0; i-- {
		r := series[i]
		if !from.IsZero() && r.CapturedAt.Before(from) {
			continue
		}
		if !to.IsZero() && r.CapturedAt.After(to) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryTelemetryStore) Purge(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, series := range s.series {
		kept := series[:0]
		for _, r := range series {
			if r.CapturedAt.Before(olderThan) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(s.series, id)
		} else {
			s.series[id] = kept
		}
	}
	return removed, nil
}

// MemoryAlertStore is the in-memory alert log with the full lifecycle.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[string]types.Alert
}

func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{alerts: make(map[string]types.Alert)}
}

func (s *MemoryAlertStore) Create(_ context.Context, alert types.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alerts[alert.ID]; exists {
		return fmt.Errorf("alert %s already exists: %w", alert.ID, util.ErrInvalidState)
	}
	alert.Status = types.AlertActive
	s.alerts[alert.ID] = alert
	return nil
}

func (s *MemoryAlertStore) Get(_ context.Context, id string) (types.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[id]
	if !ok {
		return types.Alert{}, fmt.Errorf("alert %s: %w", id, util.ErrNotFound)
	}
	return a, nil
}

func (s *MemoryAlertStore) Acknowledge(_ context.Context, id, actor string, at time.Time) (types.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return types.Alert{}, fmt.Errorf("alert %s: %w", id, util.ErrNotFound)
	}

	switch a.Status {
	case types.AlertActive:
		a.Status = types.AlertAcknowledged
		a.AcknowledgedAt = &at
		a.AcknowledgedBy = actor
		s.alerts[id] = a
		return a, nil
	case types.AlertAcknowledged:
		// Idempotent re-apply.
		return a, nil
	default:
		return types.Alert{}, fmt.Errorf("alert %s is %s: %w", id, a.Status, util.ErrInvalidState)
	}
}

func (s *MemoryAlertStore) Resolve(_ context.Context, id, actor string, at time.Time) (types.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return types.Alert{}, fmt.Errorf("alert %s: %w", id, util.ErrNotFound)
	}

	switch a.Status {
	case types.AlertActive, types.AlertAcknowledged:
		a.Status = types.AlertResolved
		a.ResolvedAt = &at
		a.ResolvedBy = actor
		s.alerts[id] = a
		return a, nil
	case types.AlertResolved:
		return a, nil
	default:
		return types.Alert{}, fmt.Errorf("alert %s is %s: %w", id, a.Status, util.ErrInvalidState)
	}
}

func (s *MemoryAlertStore) Query(_ context.Context, q AlertQuery) ([]types.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Alert
	for _, a := range s.alerts {
		if q.VehicleID != "" && a.VehicleID != q.VehicleID {
			continue
		}
		if q.DriverID != "" && a.DriverID != q.DriverID {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if !q.From.IsZero() && a.CreatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && a.CreatedAt.After(q.To) {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryAlertStore) Stats(_ context.Context, since time.Time) (AlertStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := AlertStats{BySeverity: make(map[types.Severity]int)}
	hourly := make(map[time.Time]int)
	zones := make(map[string]int)

	for _, a := range s.alerts {
		if a.CreatedAt.Before(since) {
			continue
		}
		stats.Total++
		stats.BySeverity[a.Severity]++
		hourly[a.CreatedAt.Truncate(time.Hour)]++
		zones[a.ZoneID]++
	}

	for h, n := range hourly {
		stats.ByHour = append(stats.ByHour, HourCount{Hour: h, Count: n})
	}
	sort.Slice(stats.ByHour, func(i, j int) bool { return stats.ByHour[i].Hour.Before(stats.ByHour[j].Hour) })

	for z, n := range zones {
		stats.TopZones = append(stats.TopZones, ZoneCount{ZoneID: z, Count: n})
	}
	sort.Slice(stats.TopZones, func(i, j int) bool {
		if stats.TopZones[i].Count == stats.TopZones[j].Count {
			return stats.TopZones[i].ZoneID < stats.TopZones[j].ZoneID
		}
		return stats.TopZones[i].Count > stats.TopZones[j].Count
	})

	return stats, nil
}

func (s *MemoryAlertStore) PurgeResolved(_ context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, a := range s.alerts {
		if a.Status == types.AlertResolved && a.CreatedAt.Before(olderThan) {
			delete(s.alerts, id)
			removed++
		}
	}
	return removed, nil
}

// MemoryZoneStore is the in-memory zone backing for tests and standalone mode.
type MemoryZoneStore struct {
	mu    sync.RWMutex
	zones map[string]types.HazardZone
}

func NewMemoryZoneStore(seed []types.HazardZone) *MemoryZoneStore {
	s := &MemoryZoneStore{zones: make(map[string]types.HazardZone)}
	for _, z := range seed {
		s.zones[z.ID] = z
	}
	return s
}

func (s *MemoryZoneStore) LoadAll(_ context.Context) ([]types.HazardZone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.HazardZone, 0, len(s.zones))
	for _, z := range s.zones {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryZoneStore) Get(_ context.Context, id string) (types.HazardZone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok := s.zones[id]
	if !ok {
		return types.HazardZone{}, fmt.Errorf("zone %s: %w", id, util.ErrNotFound)
	}
	return z, nil
}

func (s *MemoryZoneStore) Upsert(_ context.Context, zone types.HazardZone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[zone.ID] = zone
	return nil
}

func (s *MemoryZoneStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.zones[id]; !ok {
		return fmt.Errorf("zone %s: %w", id, util.ErrNotFound)
	}
	delete(s.zones, id)
	return nil
}
