package response

import (
	"fmt"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/domain"
)

type Eta struct {
	VehicleID    string    `json:"vehicleId"`
	DistanceKm   float64   `json:"distanceKm"`
	AvgSpeedKmh  float64   `json:"avgSpeedKmh"`
	Eta          time.Time `json:"eta"`
	EtaFormatted string    `json:"etaFormatted"`
}

func FromEta(e domain.Eta) Eta {
	return Eta{
		VehicleID:    e.VehicleID,
		DistanceKm:   e.DistanceKm,
		AvgSpeedKmh:  e.AvgSpeedKmh,
		Eta:          e.ArrivalAt,
		EtaFormatted: formatDuration(e.Duration),
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
