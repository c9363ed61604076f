package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/store"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"

	_ "github.com/lib/pq"
)

// Source owns the PostgreSQL connection shared by the per-table stores.
type Source struct {
	db *sql.DB
}

// New opens and pings the database. The settings map uses the same keys as
// the config storage section: host, port, user, password, database, sslmode.
func New(cfg map[string]string) (*Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgresql storage settings missing")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg["host"], cfg["port"], cfg["user"], cfg["password"], cfg["database"], cfg["sslmode"])

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening PostgreSQL connection: %v", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("PostgreSQL unreachable: %v", err)
	}

	return &Source{db: db}, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) Fixes() *FixSource           { return &FixSource{db: s.db} }
func (s *Source) Telemetry() *TelemetrySource { return &TelemetrySource{db: s.db} }
func (s *Source) Alerts() *AlertSource        { return &AlertSource{db: s.db} }
func (s *Source) Zones() *ZoneSource          { return &ZoneSource{db: s.db} }

// storeErr classifies a driver error into the shared taxonomy.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", util.ErrTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v", util.ErrUnavailable, op, err)
}

// FixSource implements store.FixStore over the vehicle_fix table.
type FixSource struct {
	db *sql.DB
}

func (s *FixSource) Append(ctx context.Context, fix types.Fix) error {
	const q = `
		INSERT INTO vehicle_fix
			(vehicle_id, driver_id, shipment_id, latitude, longitude,
			 speed_kmh, heading_deg, accuracy_m, altitude_m, captured_at, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, q,
		fix.VehicleID, nullStr(fix.DriverID), nullStr(fix.ShipmentID),
		fix.Position.Latitude, fix.Position.Longitude,
		fix.SpeedKmh, fix.HeadingDeg, fix.AccuracyM, fix.AltitudeM,
		fix.CapturedAt, fix.ReceivedAt)
	if err != nil {
		return storeErr("insert fix", err)
	}
	return nil
}

func (s *FixSource) Range(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]types.Fix, error) {
	const q = `
		SELECT vehicle_id, COALESCE(driver_id, ''), COALESCE(shipment_id, ''),
		       latitude, longitude, speed_kmh, heading_deg, accuracy_m, altitude_m,
		       captured_at, received_at
		FROM vehicle_fix
		WHERE vehicle_id = $1
		  AND ($2::timestamptz IS NULL OR captured_at >= $2)
		  AND ($3::timestamptz IS NULL OR captured_at <= $3)
		ORDER BY captured_at DESC, received_at DESC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, q, vehicleID, nullTime(from), nullTime(to), limit)
	if err != nil {
		return nil, storeErr("query fix history", err)
	}
	defer rows.Close()

	var fixes []types.Fix
	for rows.Next() {
		var f types.Fix
		if err := rows.Scan(&f.VehicleID, &f.DriverID, &f.ShipmentID,
			&f.Position.Latitude, &f.Position.Longitude,
			&f.SpeedKmh, &f.HeadingDeg, &f.AccuracyM, &f.AltitudeM,
			&f.CapturedAt, &f.ReceivedAt); err != nil {
			return nil, storeErr("scan fix row", err)
		}
		fixes = append(fixes, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate fix rows", err)
	}
	return fixes, nil
}

func (s *FixSource) LatestN(ctx context.Context, vehicleID string, n int) ([]types.Fix, error) {
	return s.Range(ctx, vehicleID, time.Time{}, time.Time{}, n)
}

func (s *FixSource) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM vehicle_fix WHERE captured_at < $1", olderThan)
	if err != nil {
		return 0, storeErr("purge fixes", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// TelemetrySource implements store.TelemetryStore over vehicle_telemetry.
type TelemetrySource struct {
	db *sql.DB
}

func (s *TelemetrySource) Append(ctx context.Context, rec types.TelemetryRecord) error {
	const q = `
		INSERT INTO vehicle_telemetry
			(vehicle_id, engine_status, fuel_level_pct, odometer_km,
			 engine_temp_c, battery_voltage, captured_at, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, q,
		rec.VehicleID, rec.EngineStatus, rec.FuelLevelPct, rec.OdometerKm,
		rec.EngineTempC, rec.BatteryVoltage, rec.CapturedAt, rec.ReceivedAt)
	if err != nil {
		return storeErr("insert telemetry", err)
	}
	return nil
}

func (s *TelemetrySource) Range(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]types.TelemetryRecord, error) {
	const q = `
		SELECT vehicle_id, engine_status, fuel_level_pct, odometer_km,
		       engine_temp_c, battery_voltage, captured_at, received_at
		FROM vehicle_telemetry
		WHERE vehicle_id = $1
		  AND ($2::timestamptz IS NULL OR captured_at >= $2)
		  AND ($3::timestamptz IS NULL OR captured_at <= $3)
		ORDER BY captured_at DESC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, q, vehicleID, nullTime(from), nullTime(to), limit)
	if err != nil {
		return nil, storeErr("query telemetry history", err)
	}
	defer rows.Close()

	var recs []types.TelemetryRecord
	for rows.Next() {
		var r types.TelemetryRecord
		if err := rows.Scan(&r.VehicleID, &r.EngineStatus, &r.FuelLevelPct, &r.OdometerKm,
			&r.EngineTempC, &r.BatteryVoltage, &r.CapturedAt, &r.ReceivedAt); err != nil {
			return nil, storeErr("scan telemetry row", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate telemetry rows", err)
	}
	return recs, nil
}

func (s *TelemetrySource) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM vehicle_telemetry WHERE captured_at < $1", olderThan)
	if err != nil {
		return 0, storeErr("purge telemetry", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// AlertSource implements store.AlertStore over accident_alert.
type AlertSource struct {
	db *sql.DB
}

const alertColumns = `
	id, vehicle_id, COALESCE(driver_id, ''), COALESCE(shipment_id, ''), zone_id,
	vehicle_lat, vehicle_lon, zone_lat, zone_lon, distance_m,
	severity, accident_count, status, message,
	created_at, acknowledged_at, COALESCE(acknowledged_by, ''),
	resolved_at, COALESCE(resolved_by, '')
`

func scanAlert(scan func(...interface{}) error) (types.Alert, error) {
	var a types.Alert
	var ackAt, resAt sql.NullTime
	err := scan(&a.ID, &a.VehicleID, &a.DriverID, &a.ShipmentID, &a.ZoneID,
		&a.VehicleLocation.Latitude, &a.VehicleLocation.Longitude,
		&a.ZoneLocation.Latitude, &a.ZoneLocation.Longitude, &a.DistanceM,
		&a.Severity, &a.AccidentCount, &a.Status, &a.Message,
		&a.CreatedAt, &ackAt, &a.AcknowledgedBy, &resAt, &a.ResolvedBy)
	if err != nil {
		return a, err
	}
	if ackAt.Valid {
		a.AcknowledgedAt = &ackAt.Time
	}
	if resAt.Valid {
		a.ResolvedAt = &resAt.Time
	}
	return a, nil
}

func (s *AlertSource) Create(ctx context.Context, alert types.Alert) error {
	const q = `
		INSERT INTO accident_alert
			(id, vehicle_id, driver_id, shipment_id, zone_id,
			 vehicle_lat, vehicle_lon, zone_lat, zone_lon, distance_m,
			 severity, accident_count, status, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'active', $13, $14)
	`
	_, err := s.db.ExecContext(ctx, q,
		alert.ID, alert.VehicleID, nullStr(alert.DriverID), nullStr(alert.ShipmentID), alert.ZoneID,
		alert.VehicleLocation.Latitude, alert.VehicleLocation.Longitude,
		alert.ZoneLocation.Latitude, alert.ZoneLocation.Longitude, alert.DistanceM,
		string(alert.Severity), alert.AccidentCount, alert.Message, alert.CreatedAt)
	if err != nil {
		return storeErr("insert alert", err)
	}
	return nil
}

func (s *AlertSource) Get(ctx context.Context, id string) (types.Alert, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+alertColumns+" FROM accident_alert WHERE id = $1", id)
	a, err := scanAlert(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Alert{}, fmt.Errorf("alert %s: %w", id, util.ErrNotFound)
	}
	if err != nil {
		return types.Alert{}, storeErr("get alert", err)
	}
	return a, nil
}

func (s *AlertSource) Acknowledge(ctx context.Context, id, actor string, at time.Time) (types.Alert, error) {
	return s.transition(ctx, id, func(a *types.Alert) error {
		switch a.Status {
		case types.AlertActive:
			a.Status = types.AlertAcknowledged
			a.AcknowledgedAt = &at
			a.AcknowledgedBy = actor
			return nil
		case types.AlertAcknowledged:
			return nil
		default:
			return fmt.Errorf("alert %s is %s: %w", id, a.Status, util.ErrInvalidState)
		}
	})
}

func (s *AlertSource) Resolve(ctx context.Context, id, actor string, at time.Time) (types.Alert, error) {
	return s.transition(ctx, id, func(a *types.Alert) error {
		switch a.Status {
		case types.AlertActive, types.AlertAcknowledged:
			a.Status = types.AlertResolved
			a.ResolvedAt = &at
			a.ResolvedBy = actor
			return nil
		case types.AlertResolved:
			return nil
		default:
			return fmt.Errorf("alert %s is %s: %w", id, a.Status, util.ErrInvalidState)
		}
	})
}

// transition applies a lifecycle change inside one transaction, locking the
// row so concurrent operators cannot interleave.
func (s *AlertSource) transition(ctx context.Context, id string, apply func(*types.Alert) error) (types.Alert, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Alert{}, storeErr("begin alert transition", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+alertColumns+" FROM accident_alert WHERE id = $1 FOR UPDATE", id)
	a, err := scanAlert(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Alert{}, fmt.Errorf("alert %s: %w", id, util.ErrNotFound)
	}
	if err != nil {
		return types.Alert{}, storeErr("load alert for transition", err)
	}

	if err := apply(&a); err != nil {
		return types.Alert{}, err
	}

	const q = `
		UPDATE accident_alert
		SET status = $2, acknowledged_at = $3, acknowledged_by = $4,
		    resolved_at = $5, resolved_by = $6
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, q, a.ID, string(a.Status),
		nullTimePtr(a.AcknowledgedAt), nullStr(a.AcknowledgedBy),
		nullTimePtr(a.ResolvedAt), nullStr(a.ResolvedBy))
	if err != nil {
		return types.Alert{}, storeErr("update alert", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Alert{}, storeErr("commit alert transition", err)
	}
	return a, nil
}

func (s *AlertSource) Query(ctx context.Context, q store.AlertQuery) ([]types.Alert, error) {
	const sqlQ = `
		SELECT ` + alertColumns + `
		FROM accident_alert
		WHERE ($1 = '' OR vehicle_id = $1)
		  AND ($2 = '' OR driver_id = $2)
		  AND ($3 = '' OR status = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7
	`
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, sqlQ, q.VehicleID, q.DriverID, string(q.Status),
		nullTime(q.From), nullTime(q.To), limit, q.Offset)
	if err != nil {
		return nil, storeErr("query alerts", err)
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, storeErr("scan alert row", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate alert rows", err)
	}
	return alerts, nil
}

func (s *AlertSource) Stats(ctx context.Context, since time.Time) (store.AlertStats, error) {
	stats := store.AlertStats{BySeverity: make(map[types.Severity]int)}

	rows, err := s.db.QueryContext(ctx,
		"SELECT severity, COUNT(*) FROM accident_alert WHERE created_at >= $1 GROUP BY severity", since)
	if err != nil {
		return stats, storeErr("alert severity stats", err)
	}
	for rows.Next() {
		var sev string
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			rows.Close()
			return stats, storeErr("scan severity stats", err)
		}
		stats.BySeverity[types.Severity(sev)] = n
		stats.Total += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, storeErr("iterate severity stats", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT date_trunc('hour', created_at) AS hour, COUNT(*)
		FROM accident_alert
		WHERE created_at >= $1
		GROUP BY hour ORDER BY hour
	`, since)
	if err != nil {
		return stats, storeErr("alert hourly stats", err)
	}
	for rows.Next() {
		var hc store.HourCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			rows.Close()
			return stats, storeErr("scan hourly stats", err)
		}
		stats.ByHour = append(stats.ByHour, hc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, storeErr("iterate hourly stats", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT zone_id, COUNT(*) AS n
		FROM accident_alert
		WHERE created_at >= $1
		GROUP BY zone_id ORDER BY n DESC, zone_id
		LIMIT 10
	`, since)
	if err != nil {
		return stats, storeErr("alert top zones", err)
	}
	for rows.Next() {
		var zc store.ZoneCount
		if err := rows.Scan(&zc.ZoneID, &zc.Count); err != nil {
			rows.Close()
			return stats, storeErr("scan top zones", err)
		}
		stats.TopZones = append(stats.TopZones, zc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, storeErr("iterate top zones", err)
	}

	return stats, nil
}

func (s *AlertSource) PurgeResolved(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM accident_alert WHERE status = 'resolved' AND created_at < $1", olderThan)
	if err != nil {
		return 0, storeErr("purge resolved alerts", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ZoneSource implements store.ZoneStore over hazard_zone.
type ZoneSource struct {
	db *sql.DB
}

func (s *ZoneSource) LoadAll(ctx context.Context) ([]types.HazardZone, error) {
	const q = `
		SELECT id, latitude, longitude, severity, accident_count, last_updated
		FROM hazard_zone ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storeErr("load zones", err)
	}
	defer rows.Close()

	var zones []types.HazardZone
	for rows.Next() {
		var z types.HazardZone
		var sev string
		if err := rows.Scan(&z.ID, &z.Position.Latitude, &z.Position.Longitude,
			&sev, &z.AccidentCount, &z.LastUpdated); err != nil {
			return nil, storeErr("scan zone row", err)
		}
		z.Severity = types.Severity(sev)
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate zone rows", err)
	}
	return zones, nil
}

func (s *ZoneSource) Get(ctx context.Context, id string) (types.HazardZone, error) {
	const q = `
		SELECT id, latitude, longitude, severity, accident_count, last_updated
		FROM hazard_zone WHERE id = $1
	`
	var z types.HazardZone
	var sev string
	err := s.db.QueryRowContext(ctx, q, id).Scan(&z.ID, &z.Position.Latitude,
		&z.Position.Longitude, &sev, &z.AccidentCount, &z.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return types.HazardZone{}, fmt.Errorf("zone %s: %w", id, util.ErrNotFound)
	}
	if err != nil {
		return types.HazardZone{}, storeErr("get zone", err)
	}
	z.Severity = types.Severity(sev)
	return z, nil
}

func (s *ZoneSource) Upsert(ctx context.Context, zone types.HazardZone) error {
	const q = `
		INSERT INTO hazard_zone (id, latitude, longitude, severity, accident_count, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
		    severity = EXCLUDED.severity, accident_count = EXCLUDED.accident_count,
		    last_updated = EXCLUDED.last_updated
	`
	_, err := s.db.ExecContext(ctx, q, zone.ID, zone.Position.Latitude, zone.Position.Longitude,
		string(zone.Severity), zone.AccidentCount, zone.LastUpdated)
	if err != nil {
		return storeErr("upsert zone", err)
	}
	return nil
}

func (s *ZoneSource) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM hazard_zone WHERE id = $1", id)
	if err != nil {
		return storeErr("delete zone", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("zone %s: %w", id, util.ErrNotFound)
	}
	return nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
