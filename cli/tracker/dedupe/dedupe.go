package dedupe

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
)

// Score computes the hazard score for a zone hit: the accident count scaled
// by how deep inside the alert radius the vehicle is. A hit on the perimeter
// scores 0, a hit on the zone itself scores the full count.
func Score(accidentCount int, distanceM, radiusM float64) float64 {
	if radiusM <= 0 {
		return 0
	}
	dFactor := 1 - distanceM/radiusM
	if dFactor < 0 {
		dFactor = 0
	}
	return float64(accidentCount) * dFactor
}

// SeverityFor maps a score onto a severity level. Boundary scores take the
// higher level.
func SeverityFor(score float64) types.Severity {
	switch {
	case score >= 5:
		return types.SeverityHigh
	case score >= 2:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

const stripes = 64

type key struct {
	vehicleID string
	zoneID    string
}

// Guard suppresses repeat alerts for the same (vehicle, zone) pair inside the
// dedupe window. The check-and-set is atomic per key; keys hash onto striped
// locks so ingests for different pairs do not contend on one mutex.
type Guard struct {
	window time.Duration
	now    func() time.Time

	mu       [stripes]sync.Mutex
	lastEmit [stripes]map[key]time.Time
}

func NewGuard(window time.Duration) *Guard {
	g := &Guard{window: window, now: time.Now}
	for i := range g.lastEmit {
		g.lastEmit[i] = make(map[key]time.Time)
	}
	return g
}

// WithClock replaces the time source. For tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

func stripeFor(k key) int {
	h := fnv.New32a()
	h.Write([]byte(k.vehicleID))
	h.Write([]byte{0})
	h.Write([]byte(k.zoneID))
	return int(h.Sum32() % stripes)
}

// Admit reports whether an alert for (vehicleID, zoneID) may be emitted now.
// On admission the last-emit time is set in the same critical section, so two
// concurrent ingests for one pair cannot both pass.
func (g *Guard) Admit(vehicleID, zoneID string) bool {
	k := key{vehicleID: vehicleID, zoneID: zoneID}
	s := stripeFor(k)
	now := g.now()

	g.mu[s].Lock()
	defer g.mu[s].Unlock()

	if last, ok := g.lastEmit[s][k]; ok && now.Sub(last) < g.window {
		return false
	}
	g.lastEmit[s][k] = now
	return true
}

// Release forgets the last-emit mark for a pair, reopening its window. Used
// when recording an admitted alert fails and the crossing must stay eligible.
func (g *Guard) Release(vehicleID, zoneID string) {
	k := key{vehicleID: vehicleID, zoneID: zoneID}
	s := stripeFor(k)

	g.mu[s].Lock()
	delete(g.lastEmit[s], k)
	g.mu[s].Unlock()
}

// Sweep drops entries older than the window. Eviction only ever permits a new
// alert, so running it at any time is safe.
func (g *Guard) Sweep() int {
	now := g.now()
	removed := 0
	for s := 0; s < stripes; s++ {
		g.mu[s].Lock()
		for k, last := range g.lastEmit[s] {
			if now.Sub(last) >= g.window {
				delete(g.lastEmit[s], k)
				removed++
			}
		}
		g.mu[s].Unlock()
	}
	return removed
}

// Len returns the number of tracked pairs. For tests and diagnostics.
func (g *Guard) Len() int {
	n := 0
	for s := 0; s < stripes; s++ {
		g.mu[s].Lock()
		n += len(g.lastEmit[s])
		g.mu[s].Unlock()
	}
	return n
}
