package geo

import "math"

// EarthRadiusMeters is the WGS-84 mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Point is a geodetic coordinate in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// BBox is a latitude/longitude rectangle. MinLat <= MaxLat always holds;
// MinLon may exceed MaxLon when the box crosses the antimeridian.
type BBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Valid reports whether the point is inside the WGS-84 coordinate ranges.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial bearing from a to b in degrees, normalised to [0,360).
func Bearing(a, b Point) float64 {
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return NormalizeHeading(deg)
}

// BoundingBox returns a conservative rectangle that contains the circle of
// radiusM meters around center. Longitude degrees shrink with cos(lat), so the
// offset grows toward the poles; near the poles the box degenerates to the
// full longitude range.
func BoundingBox(center Point, radiusM float64) BBox {
	latOff := radiusM / 111320.0
	cosLat := math.Cos(toRad(center.Latitude))

	box := BBox{
		MinLat: math.Max(center.Latitude-latOff, -90),
		MaxLat: math.Min(center.Latitude+latOff, 90),
	}

	if cosLat < 1e-6 {
		box.MinLon, box.MaxLon = -180, 180
		return box
	}

	lonOff := radiusM / (111320.0 * cosLat)
	if lonOff >= 180 {
		box.MinLon, box.MaxLon = -180, 180
		return box
	}

	box.MinLon = wrapLon(center.Longitude - lonOff)
	box.MaxLon = wrapLon(center.Longitude + lonOff)
	return box
}

// Contains reports whether the point lies inside the box, handling boxes that
// wrap across the antimeridian.
func (b BBox) Contains(p Point) bool {
	if p.Latitude < b.MinLat || p.Latitude > b.MaxLat {
		return false
	}
	if b.MinLon <= b.MaxLon {
		return p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
	}
	return p.Longitude >= b.MinLon || p.Longitude <= b.MaxLon
}

// NormalizeHeading maps any angle in degrees onto [0,360). 360 becomes 0.
func NormalizeHeading(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
