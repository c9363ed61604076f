package response

import (
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
)

type Alert struct {
	ID             string     `json:"id"`
	VehicleID      string     `json:"vehicleId"`
	DriverID       string     `json:"driverId,omitempty"`
	ShipmentID     string     `json:"shipmentId,omitempty"`
	ZoneID         string     `json:"zoneId"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	ZoneLatitude   float64    `json:"zoneLatitude"`
	ZoneLongitude  float64    `json:"zoneLongitude"`
	DistanceM      float64    `json:"distanceM"`
	Severity       string     `json:"severity"`
	AccidentCount  int        `json:"accidentCount"`
	Status         string     `json:"status"`
	Message        string     `json:"message"`
	CreatedAt      time.Time  `json:"createdAt"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy     string     `json:"resolvedBy,omitempty"`
}

func FromAlert(a types.Alert) Alert {
	return Alert{
		ID:             a.ID,
		VehicleID:      a.VehicleID,
		DriverID:       a.DriverID,
		ShipmentID:     a.ShipmentID,
		ZoneID:         a.ZoneID,
		Latitude:       a.VehicleLocation.Latitude,
		Longitude:      a.VehicleLocation.Longitude,
		ZoneLatitude:   a.ZoneLocation.Latitude,
		ZoneLongitude:  a.ZoneLocation.Longitude,
		DistanceM:      a.DistanceM,
		Severity:       string(a.Severity),
		AccidentCount:  a.AccidentCount,
		Status:         string(a.Status),
		Message:        a.Message,
		CreatedAt:      a.CreatedAt,
		AcknowledgedAt: a.AcknowledgedAt,
		AcknowledgedBy: a.AcknowledgedBy,
		ResolvedAt:     a.ResolvedAt,
		ResolvedBy:     a.ResolvedBy,
	}
}

func FromAlerts(alerts []types.Alert) []Alert {
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, FromAlert(a))
	}
	return out
}
