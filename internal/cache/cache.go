// Package cache implements the latest-vitals side channel: set/get-latest
// and a bounded recent-readings list, backed by go-redis/v9.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/config"
)

const (
	latestKeyPrefix = "vitals:latest:"
	recentKeyPrefix = "vitals:recent:"
	recentMaxLen    = 100

	// GlobalDeviceKey is the reserved device id under which SetLatest also
	// mirrors every snapshot, so the single-tenant /api/vitals/latest read
	// path has one denormalized "vitals:latest:_global" row to read
	// regardless of which device produced the most recent reading.
	GlobalDeviceKey = "_global"
)

// Snapshot is the cached representation of a device's latest reading. The
// /api/vitals/latest logic converts it to the response body (unix-seconds
// timestamp, no device id).
type Snapshot struct {
	DeviceID     string    `json:"deviceId"`
	HeartRate    *int      `json:"heartRate,omitempty"`
	SpO2         *int      `json:"spo2,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	QualityScore float64   `json:"quality_score"`
	MlAlert      string    `json:"ml_alert,omitempty"`
}

// Cache is the narrow surface the ingestion and query logic depend on.
type Cache interface {
	SetLatest(ctx context.Context, snap Snapshot) error
	GetLatest(ctx context.Context, deviceID string) (*Snapshot, error)
	GetRecent(ctx context.Context, deviceID string, n int) ([]Snapshot, error)
	Close() error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open dials Redis and verifies connectivity. The cache is a best-effort
// side channel, never the record of truth.
func Open(cfg config.CacheConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logx.Errorf("cache: failed to connect to redis: %v", err)
		return nil, fmt.Errorf("cache: connect: %w", err)
	}

	ttl := cfg.SnapshotTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisCache{client: client, ttl: ttl}, nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

func latestKey(deviceID string) string {
	return latestKeyPrefix + deviceID
}

func recentKey(deviceID string) string {
	return recentKeyPrefix + deviceID
}

// SetLatest overwrites the device's latest snapshot and appends it to the
// bounded recent-history list, trimmed to the newest recentMaxLen entries.
func (c *redisCache) SetLatest(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache: marshal snapshot: %w", err)
	}

	if err := c.writeLatest(ctx, snap.DeviceID, payload); err != nil {
		return err
	}
	if snap.DeviceID != GlobalDeviceKey {
		if err := c.writeLatest(ctx, GlobalDeviceKey, payload); err != nil {
			return err
		}
	}
	return nil
}

func (c *redisCache) writeLatest(ctx context.Context, deviceID string, payload []byte) error {
	if err := c.client.Set(ctx, latestKey(deviceID), payload, c.ttl).Err(); err != nil {
		logx.WithContext(ctx).Errorf("cache: set_latest failed for device %s: %v", deviceID, err)
		return fmt.Errorf("cache: set_latest: %w", err)
	}

	pipe := c.client.TxPipeline()
	key := recentKey(deviceID)
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, recentMaxLen-1)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logx.WithContext(ctx).Errorf("cache: recent-list maintenance failed for device %s: %v", deviceID, err)
		return fmt.Errorf("cache: push_recent: %w", err)
	}
	return nil
}

// GetLatest returns the cached snapshot for a device, or nil if absent —
// a cache miss is not an error.
func (c *redisCache) GetLatest(ctx context.Context, deviceID string) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, latestKey(deviceID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		logx.WithContext(ctx).Errorf("cache: get_latest failed for device %s: %v", deviceID, err)
		return nil, fmt.Errorf("cache: get_latest: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("cache: unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// GetRecent returns up to n of the device's most recent snapshots, newest first.
func (c *redisCache) GetRecent(ctx context.Context, deviceID string, n int) ([]Snapshot, error) {
	if n <= 0 || n > recentMaxLen {
		n = recentMaxLen
	}
	raws, err := c.client.LRange(ctx, recentKey(deviceID), 0, int64(n-1)).Result()
	if err != nil {
		logx.WithContext(ctx).Errorf("cache: get_recent failed for device %s: %v", deviceID, err)
		return nil, fmt.Errorf("cache: get_recent: %w", err)
	}

	snaps := make([]Snapshot, 0, len(raws))
	for _, raw := range raws {
		var snap Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}
