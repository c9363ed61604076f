package request

import (
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
)

type SaveTelemetry struct {
	VehicleID         string  `json:"vehicleId" binding:"required"`
	EngineStatus      string  `json:"engineStatus"`
	FuelLevel         float64 `json:"fuelLevel"`
	Odometer          float64 `json:"odometer"`
	EngineTemperature float64 `json:"engineTemperature"`
	BatteryVoltage    float64 `json:"batteryVoltage"`
	// Timestamp is optional; the server stamps it when absent.
	Timestamp time.Time `json:"timestamp"`
}

func (r SaveTelemetry) ToRecord() types.TelemetryRecord {
	return types.TelemetryRecord{
		VehicleID:      r.VehicleID,
		EngineStatus:   r.EngineStatus,
		FuelLevelPct:   r.FuelLevel,
		OdometerKm:     r.Odometer,
		EngineTempC:    r.EngineTemperature,
		BatteryVoltage: r.BatteryVoltage,
		CapturedAt:     r.Timestamp,
	}
}
