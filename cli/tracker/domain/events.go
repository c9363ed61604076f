package domain

import (
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
)

// locationPayload is the wire shape of a fleet:location event.
type locationPayload struct {
	VehicleID  string    `json:"vehicle_id"`
	DriverID   string    `json:"driver_id,omitempty"`
	ShipmentID string    `json:"shipment_id,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKmh   float64   `json:"speed_kmh"`
	HeadingDeg float64   `json:"heading_deg"`
	AccuracyM  float64   `json:"accuracy_m,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
	ReceivedAt time.Time `json:"received_at"`
}

// alertPayload is the wire shape of a vehicle:accident-zone-alert event.
type alertPayload struct {
	AlertID       string            `json:"alert_id"`
	VehicleID     string            `json:"vehicle_id"`
	DriverID      string            `json:"driver_id,omitempty"`
	ShipmentID    string            `json:"shipment_id,omitempty"`
	ZoneID        string            `json:"zone_id"`
	Latitude      float64           `json:"latitude"`
	Longitude     float64           `json:"longitude"`
	ZoneLatitude  float64           `json:"zone_latitude"`
	ZoneLongitude float64           `json:"zone_longitude"`
	DistanceM     float64           `json:"distance_m"`
	Severity      types.Severity    `json:"severity"`
	AccidentCount int               `json:"accident_count"`
	Status        types.AlertStatus `json:"status"`
	Message       string            `json:"message"`
	CreatedAt     time.Time         `json:"created_at"`
}

// telemetryPayload is the wire shape of a vehicle:telemetry event.
type telemetryPayload struct {
	VehicleID      string    `json:"vehicle_id"`
	EngineStatus   string    `json:"engine_status"`
	FuelLevelPct   float64   `json:"fuel_level_pct"`
	OdometerKm     float64   `json:"odometer_km"`
	EngineTempC    float64   `json:"engine_temp_c"`
	BatteryVoltage float64   `json:"battery_voltage"`
	CapturedAt     time.Time `json:"captured_at"`
}

// LocationEvent builds the fleet:location event for an accepted fix.
func LocationEvent(fix types.Fix) types.Event {
	return types.Event{
		Name: "fleet:location",
		Data: locationPayload{
			VehicleID:  fix.VehicleID,
			DriverID:   fix.DriverID,
			ShipmentID: fix.ShipmentID,
			Latitude:   fix.Position.Latitude,
			Longitude:  fix.Position.Longitude,
			SpeedKmh:   fix.SpeedKmh,
			HeadingDeg: fix.HeadingDeg,
			AccuracyM:  fix.AccuracyM,
			CapturedAt: fix.CapturedAt,
			ReceivedAt: fix.ReceivedAt,
		},
	}
}

// AlertEvent builds the vehicle:accident-zone-alert event for a new alert.
func AlertEvent(alert types.Alert) types.Event {
	return types.Event{
		Name: "vehicle:accident-zone-alert",
		Data: alertPayload{
			AlertID:       alert.ID,
			VehicleID:     alert.VehicleID,
			DriverID:      alert.DriverID,
			ShipmentID:    alert.ShipmentID,
			ZoneID:        alert.ZoneID,
			Latitude:      alert.VehicleLocation.Latitude,
			Longitude:     alert.VehicleLocation.Longitude,
			ZoneLatitude:  alert.ZoneLocation.Latitude,
			ZoneLongitude: alert.ZoneLocation.Longitude,
			DistanceM:     alert.DistanceM,
			Severity:      alert.Severity,
			AccidentCount: alert.AccidentCount,
			Status:        alert.Status,
			Message:       alert.Message,
			CreatedAt:     alert.CreatedAt,
		},
	}
}

// TelemetryEvent builds the vehicle:telemetry event for a stored record.
func TelemetryEvent(rec types.TelemetryRecord) types.Event {
	return types.Event{
		Name: "vehicle:telemetry",
		Data: telemetryPayload{
			VehicleID:      rec.VehicleID,
			EngineStatus:   rec.EngineStatus,
			FuelLevelPct:   rec.FuelLevelPct,
			OdometerKm:     rec.OdometerKm,
			EngineTempC:    rec.EngineTempC,
			BatteryVoltage: rec.BatteryVoltage,
			CapturedAt:     rec.CapturedAt,
		},
	}
}
