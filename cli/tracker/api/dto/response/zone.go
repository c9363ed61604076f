package response

import (
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
)

type Zone struct {
	ID            string    `json:"id"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Severity      string    `json:"severity"`
	AccidentCount int       `json:"accidentCount"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

type ZoneHit struct {
	Zone      Zone    `json:"zone"`
	DistanceM float64 `json:"distanceM"`
}

func FromZone(z types.HazardZone) Zone {
	return Zone{
		ID:            z.ID,
		Latitude:      z.Position.Latitude,
		Longitude:     z.Position.Longitude,
		Severity:      string(z.Severity),
		AccidentCount: z.AccidentCount,
		LastUpdated:   z.LastUpdated,
	}
}

func FromZones(zones []types.HazardZone) []Zone {
	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		out = append(out, FromZone(z))
	}
	return out
}

func FromZoneHits(hits []types.ZoneHit) []ZoneHit {
	out := make([]ZoneHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, ZoneHit{Zone: FromZone(h.Zone), DistanceM: h.DistanceM})
	}
	return out
}
