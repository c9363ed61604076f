package request

import (
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
)

type UpsertZone struct {
	ID            string   `json:"id" binding:"required"`
	Latitude      *float64 `json:"latitude" binding:"required"`
	Longitude     *float64 `json:"longitude" binding:"required"`
	Severity      string   `json:"severity" binding:"required"`
	AccidentCount int      `json:"accidentCount"`
}

func (r UpsertZone) ToZone() types.HazardZone {
	return types.HazardZone{
		ID:            r.ID,
		Position:      geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude},
		Severity:      types.Severity(r.Severity),
		AccidentCount: r.AccidentCount,
	}
}
