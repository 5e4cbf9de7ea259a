package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/invpulse/internal/config"
	"github.com/andresuchdata/invpulse/internal/inventory"
)

const (
	metricsKeyPrefix     = "invpulse:metrics"
	metricsScanBatchSize = 100
)

// MetricsCache stores computed dashboard metrics by spreadsheet digest.
type MetricsCache interface {
	GetMetrics(ctx context.Context, key string) (inventory.Metrics, bool, error)
	SetMetrics(ctx context.Context, key string, m inventory.Metrics) error
	InvalidateAll(ctx context.Context) error
}

type redisMetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopMetricsCache struct{}

// NewMetricsCache connects to Redis when caching is enabled and falls back
// to a no-op cache otherwise.
func NewMetricsCache(cfg config.CacheConfig) (MetricsCache, error) {
	if !cfg.Enabled {
		return &noopMetricsCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisMetricsCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopMetricsCache() MetricsCache {
	return &noopMetricsCache{}
}

// MetricsKey identifies the metrics of a spreadsheet's bytes reconciled with
// the given overstock margin.
func MetricsKey(content []byte, margin float64) string {
	sum := sha1.Sum(content)
	return fmt.Sprintf("%s:%s:%s", metricsKeyPrefix, hex.EncodeToString(sum[:]),
		strconv.FormatFloat(margin, 'g', -1, 64))
}

func (c *redisMetricsCache) GetMetrics(ctx context.Context, key string) (inventory.Metrics, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return inventory.Metrics{}, false, nil
	}
	if err != nil {
		return inventory.Metrics{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var m inventory.Metrics
	if err := json.Unmarshal(payload, &m); err != nil {
		return inventory.Metrics{}, false, fmt.Errorf("decode metrics cache: %w", err)
	}
	return m, true, nil
}

func (c *redisMetricsCache) SetMetrics(ctx context.Context, key string, m inventory.Metrics) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode metrics cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisMetricsCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, metricsKeyPrefix, metricsScanBatchSize)
}

func (n *noopMetricsCache) GetMetrics(ctx context.Context, key string) (inventory.Metrics, bool, error) {
	return inventory.Metrics{}, false, nil
}

func (n *noopMetricsCache) SetMetrics(ctx context.Context, key string, m inventory.Metrics) error {
	return nil
}

func (n *noopMetricsCache) InvalidateAll(ctx context.Context) error {
	return nil
}
