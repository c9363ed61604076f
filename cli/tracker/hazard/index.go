package hazard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
	log "github.com/sirupsen/logrus"
)

// Source is the durable backing the index is rebuilt from.
type Source interface {
	LoadAll(ctx context.Context) ([]types.HazardZone, error)
}

// cellSizeDeg buckets zones into ~5.5 km grid cells. A radius query touches
// only the cells covered by the bounding box of the query circle.
const cellSizeDeg = 0.05

type cellKey struct {
	row int
	col int
}

// snapshot is an immutable view of the zone set. Readers load it once and
// keep using it even while a reload swaps in a replacement.
type snapshot struct {
	cells map[cellKey][]types.HazardZone
	all   []types.HazardZone
}

// Index keeps every hazard zone in memory for proximity queries. Reload
// replaces the whole snapshot atomically; partial updates are not supported.
type Index struct {
	source  Source
	current atomic.Value // *snapshot
}

func NewIndex(source Source) *Index {
	idx := &Index{source: source}
	idx.current.Store(newSnapshot(nil))
	return idx
}

// NewStaticIndex builds an index over a fixed zone set, without a backing
// source. Used by tests and by the standalone mode.
func NewStaticIndex(zones []types.HazardZone) *Index {
	idx := &Index{}
	idx.current.Store(newSnapshot(zones))
	return idx
}

func newSnapshot(zones []types.HazardZone) *snapshot {
	s := &snapshot{
		cells: make(map[cellKey][]types.HazardZone),
		all:   zones,
	}
	for _, z := range zones {
		k := keyFor(z.Position)
		s.cells[k] = append(s.cells[k], z)
	}
	return s
}

func keyFor(p geo.Point) cellKey {
	return cellKey{
		row: int(math.Floor(p.Latitude / cellSizeDeg)),
		col: int(math.Floor(p.Longitude / cellSizeDeg)),
	}
}

// Reload rebuilds the snapshot from the source and swaps it in. A canceled
// context discards the partial rebuild and keeps the previous snapshot.
func (idx *Index) Reload(ctx context.Context) error {
	if idx.source == nil {
		return fmt.Errorf("index has no backing source")
	}

	zones, err := idx.source.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading hazard zones: %w", err)
	}

	valid := make([]types.HazardZone, 0, len(zones))
	for _, z := range zones {
		if !z.Position.Valid() {
			log.WithField("zone", z.ID).Warn("dropping zone with invalid coordinates")
			continue
		}
		valid = append(valid, z)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	idx.current.Store(newSnapshot(valid))
	log.Infof("hazard index reloaded, %d zones", len(valid))
	return nil
}

// Replace swaps in a fixed zone set directly, bypassing the source.
func (idx *Index) Replace(zones []types.HazardZone) {
	idx.current.Store(newSnapshot(zones))
}

// Near returns every zone within radiusM meters of p, sorted ascending by
// distance. An empty index yields an empty slice; Near itself never fails.
func (idx *Index) Near(p geo.Point, radiusM float64) []types.ZoneHit {
	snap := idx.current.Load().(*snapshot)
	if len(snap.all) == 0 || radiusM <= 0 {
		return nil
	}

	box := geo.BoundingBox(p, radiusM)
	hits := []types.ZoneHit{}

	minRow := int(math.Floor(box.MinLat / cellSizeDeg))
	maxRow := int(math.Floor(box.MaxLat / cellSizeDeg))

	for row := minRow; row <= maxRow; row++ {
		for _, col := range colRange(box) {
			for _, z := range snap.cells[cellKey{row: row, col: col}] {
				if !box.Contains(z.Position) {
					continue
				}
				d := geo.Distance(p, z.Position)
				if d <= radiusM {
					hits = append(hits, types.ZoneHit{Zone: z, DistanceM: d})
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].DistanceM < hits[j].DistanceM })
	return hits
}

// NearestK returns up to k zones closest to p, nearest first. It widens the
// search radius geometrically until enough hits are found or the whole globe
// is covered.
func (idx *Index) NearestK(p geo.Point, k int) []types.ZoneHit {
	snap := idx.current.Load().(*snapshot)
	if len(snap.all) == 0 || k <= 0 {
		return nil
	}
	if k > len(snap.all) {
		k = len(snap.all)
	}

	// Half the Earth's circumference bounds any great-circle distance.
	const maxRadius = math.Pi * geo.EarthRadiusMeters

	for radius := 10000.0; ; radius *= 4 {
		hits := idx.Near(p, radius)
		if len(hits) >= k {
			return hits[:k]
		}
		if radius >= maxRadius {
			return hits
		}
	}
}

// All returns the zones of the current snapshot.
func (idx *Index) All() []types.HazardZone {
	snap := idx.current.Load().(*snapshot)
	return snap.all
}

// Len returns the number of indexed zones.
func (idx *Index) Len() int {
	return len(idx.current.Load().(*snapshot).all)
}

// colRange lists the grid columns covered by the box, walking across the
// antimeridian when the box wraps.
func colRange(box geo.BBox) []int {
	minCol := int(math.Floor(box.MinLon / cellSizeDeg))
	maxCol := int(math.Floor(box.MaxLon / cellSizeDeg))

	if box.MinLon <= box.MaxLon {
		cols := make([]int, 0, maxCol-minCol+1)
		for c := minCol; c <= maxCol; c++ {
			cols = append(cols, c)
		}
		return cols
	}

	// Wrapped box: [MinLon,180] plus [-180,MaxLon].
	eastEnd := int(math.Floor(180.0 / cellSizeDeg))
	westStart := int(math.Floor(-180.0 / cellSizeDeg))
	var cols []int
	for c := minCol; c <= eastEnd; c++ {
		cols = append(cols, c)
	}
	for c := westStart; c <= maxCol; c++ {
		cols = append(cols, c)
	}
	return cols
}
