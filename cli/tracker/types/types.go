package types

import (
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
)

// Fix is a single immutable location reading from a vehicle.
type Fix struct {
	VehicleID  string
	DriverID   string
	ShipmentID string
	Position   geo.Point
	SpeedKmh   float64
	HeadingDeg float64
	AccuracyM  float64
	AltitudeM  float64
	CapturedAt time.Time
	ReceivedAt time.Time
}

// TelemetryRecord is one engine/fuel/odometer reading, persisted next to the
// location history but never evaluated against hazard zones.
type TelemetryRecord struct {
	VehicleID      string
	EngineStatus   string
	FuelLevelPct   float64
	OdometerKm     float64
	EngineTempC    float64
	BatteryVoltage float64
	CapturedAt     time.Time
	ReceivedAt     time.Time
}

// HazardZone is a point flagged as elevated accident risk.
type HazardZone struct {
	ID            string
	Position      geo.Point
	Severity      Severity
	AccidentCount int
	LastUpdated   time.Time
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ValidSeverity reports whether s is one of the three known levels.
func ValidSeverity(s Severity) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Alert is a persisted accident-zone proximity event. Lifecycle moves only
// forward: active -> acknowledged -> resolved.
type Alert struct {
	ID              string
	VehicleID       string
	DriverID        string
	ShipmentID      string
	ZoneID          string
	VehicleLocation geo.Point
	ZoneLocation    geo.Point
	DistanceM       float64
	Severity        Severity
	AccidentCount   int
	Status          AlertStatus
	Message         string
	CreatedAt       time.Time
	AcknowledgedAt  *time.Time
	AcknowledgedBy  string
	ResolvedAt      *time.Time
	ResolvedBy      string
}

// ZoneHit pairs a hazard zone with the distance from a queried point.
type ZoneHit struct {
	Zone      HazardZone
	DistanceM float64
}

// Principal is the authenticated caller of an ingress request or websocket
// session. Admins may join any room.
type Principal struct {
	ID        string
	CompanyID string
	Admin     bool
}
