package request

import (
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
)

type SaveFix struct {
	VehicleID  string    `json:"vehicleId" binding:"required"`
	DriverID   string    `json:"driverId"`
	ShipmentID string    `json:"shipmentId"`
	Latitude   *float64  `json:"latitude" binding:"required"`
	Longitude  *float64  `json:"longitude" binding:"required"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	Accuracy   float64   `json:"accuracy"`
	Altitude   float64   `json:"altitude"`
	// Timestamp is the device capture time; the server stamps it when absent.
	Timestamp time.Time `json:"timestamp"`
}

func (r SaveFix) ToFix() types.Fix {
	return types.Fix{
		VehicleID:  r.VehicleID,
		DriverID:   r.DriverID,
		ShipmentID: r.ShipmentID,
		Position:   geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude},
		SpeedKmh:   r.Speed,
		HeadingDeg: r.Heading,
		AccuracyM:  r.Accuracy,
		AltitudeM:  r.Altitude,
		CapturedAt: r.Timestamp,
	}
}
