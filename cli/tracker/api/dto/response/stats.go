package response

import (
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store"
)

type HourCount struct {
	Hour  time.Time `json:"hour"`
	Count int       `json:"count"`
}

type ZoneCount struct {
	ZoneID string `json:"zoneId"`
	Count  int    `json:"count"`
}

type AlertStats struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"bySeverity"`
	ByHour     []HourCount    `json:"byHour"`
	TopZones   []ZoneCount    `json:"topZones"`
}

func FromStats(s store.AlertStats) AlertStats {
	out := AlertStats{
		Total:      s.Total,
		BySeverity: make(map[string]int, len(s.BySeverity)),
		ByHour:     make([]HourCount, 0, len(s.ByHour)),
		TopZones:   make([]ZoneCount, 0, len(s.TopZones)),
	}
	for sev, n := range s.BySeverity {
		out.BySeverity[string(sev)] = n
	}
	for _, h := range s.ByHour {
		out.ByHour = append(out.ByHour, HourCount{Hour: h.Hour, Count: h.Count})
	}
	for _, z := range s.TopZones {
		out.TopZones = append(out.TopZones, ZoneCount{ZoneID: z.ZoneID, Count: z.Count})
	}
	return out
}
