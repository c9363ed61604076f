package store

import (
	"sync"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
)

type latestEntry struct {
	mu  sync.Mutex
	fix types.Fix
	set bool
}

// LatestCache holds the most recent accepted fix per vehicle. The conditional
// put serialises per vehicle only; lookups and writes for distinct vehicles
// never contend.
type LatestCache struct {
	entries sync.Map // vehicleID -> *latestEntry
}

func NewLatestCache() *LatestCache {
	return &LatestCache{}
}

func (c *LatestCache) entry(vehicleID string) *latestEntry {
	if e, ok := c.entries.Load(vehicleID); ok {
		return e.(*latestEntry)
	}
	e, _ := c.entries.LoadOrStore(vehicleID, &latestEntry{})
	return e.(*latestEntry)
}

// Put stores the fix unless the vehicle already holds one captured later, so
// a delayed upload can never move the fleet state backwards. Equal capture
// times fall back to received-at; a redelivered copy of the current fix is a
// no-op. Returns whether the fix was accepted.
func (c *LatestCache) Put(fix types.Fix) bool {
	e := c.entry(fix.VehicleID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.set {
		switch {
		case fix.CapturedAt.After(e.fix.CapturedAt):
		case fix.CapturedAt.Equal(e.fix.CapturedAt) && fix.ReceivedAt.After(e.fix.ReceivedAt):
		default:
			return false
		}
	}
	e.fix = fix
	e.set = true
	return true
}

// Get returns the latest fix for the vehicle, if it ever reported.
func (c *LatestCache) Get(vehicleID string) (types.Fix, bool) {
	e, ok := c.entries.Load(vehicleID)
	if !ok {
		return types.Fix{}, false
	}
	entry := e.(*latestEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.fix, entry.set
}

// Snapshot copies every latest fix. The active-fleet query filters this.
func (c *LatestCache) Snapshot() []types.Fix {
	var fixes []types.Fix
	c.entries.Range(func(_, v interface{}) bool {
		e := v.(*latestEntry)
		e.mu.Lock()
		if e.set {
			fixes = append(fixes, e.fix)
		}
		e.mu.Unlock()
		return true
	})
	return fixes
}
