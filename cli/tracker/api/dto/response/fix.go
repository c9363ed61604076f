package response

import (
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
)

type Fix struct {
	VehicleID  string    `json:"vehicleId"`
	DriverID   string    `json:"driverId,omitempty"`
	ShipmentID string    `json:"shipmentId,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKmh   float64   `json:"speedKmh"`
	HeadingDeg float64   `json:"headingDeg"`
	AccuracyM  float64   `json:"accuracyM,omitempty"`
	AltitudeM  float64   `json:"altitudeM,omitempty"`
	CapturedAt time.Time `json:"capturedAt"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func FromFix(f types.Fix) Fix {
	return Fix{
		VehicleID:  f.VehicleID,
		DriverID:   f.DriverID,
		ShipmentID: f.ShipmentID,
		Latitude:   f.Position.Latitude,
		Longitude:  f.Position.Longitude,
		SpeedKmh:   f.SpeedKmh,
		HeadingDeg: f.HeadingDeg,
		AccuracyM:  f.AccuracyM,
		AltitudeM:  f.AltitudeM,
		CapturedAt: f.CapturedAt,
		ReceivedAt: f.ReceivedAt,
	}
}

func FromFixes(fixes []types.Fix) []Fix {
	out := make([]Fix, 0, len(fixes))
	for _, f := range fixes {
		out = append(out, FromFix(f))
	}
	return out
}
