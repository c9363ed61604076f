package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"

	"github.com/go-redis/redis/v8"
)

// LatestMirror publishes every accepted fix into Redis so external dashboards
// can read the fleet state without touching the engine. The in-process
// LatestCache stays authoritative; the mirror is best-effort.
type LatestMirror struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects using the config storage section keys: host, port, password,
// db, state_ttl_s.
func New(ctx context.Context, cfg map[string]string) (*LatestMirror, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis storage settings missing")
	}

	db := 0
	if raw := cfg["db"]; raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q: %v", raw, err)
		}
		db = parsed
	}

	ttl := 30 * time.Second
	if raw := cfg["state_ttl_s"]; raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid redis state_ttl_s %q: %v", raw, err)
		}
		ttl = time.Duration(parsed) * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg["host"] + ":" + cfg["port"],
		Password: cfg["password"],
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable: %v", err)
	}

	return &LatestMirror{client: client, ttl: ttl}, nil
}

func (m *LatestMirror) Close() error {
	return m.client.Close()
}

// Mirror writes the vehicle state hash and the fleet geo set in one pipeline
// round trip.
func (m *LatestMirror) Mirror(ctx context.Context, fix types.Fix) error {
	stateKey := fmt.Sprintf("vehicle:%s:state", fix.VehicleID)

	pipe := m.client.Pipeline()
	pipe.HSet(ctx, stateKey, map[string]interface{}{
		"vehicle_id":  fix.VehicleID,
		"lat":         fix.Position.Latitude,
		"lng":         fix.Position.Longitude,
		"speed_kmh":   fix.SpeedKmh,
		"heading":     fix.HeadingDeg,
		"captured_at": fix.CapturedAt.Unix(),
		"received_at": fix.ReceivedAt.Unix(),
	})
	pipe.Expire(ctx, stateKey, m.ttl)
	pipe.GeoAdd(ctx, "fleet:geo", &redis.GeoLocation{
		Name:      fix.VehicleID,
		Longitude: fix.Position.Longitude,
		Latitude:  fix.Position.Latitude,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis state mirror failed: %w", err)
	}
	return nil
}
