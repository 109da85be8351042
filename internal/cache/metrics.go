package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"

	"github.com/redis/go-redis/v9"
)

const dashboardKey = "loan-tracker:metrics:dashboard"

// Client is the subset of *redis.Client the metrics cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// MetricsCache stores the dashboard aggregate between mutations.
type MetricsCache struct {
	client Client
	ttl    time.Duration
}

func NewMetricsCache(client Client, ttl time.Duration) *MetricsCache {
	return &MetricsCache{client: client, ttl: ttl}
}

// NewRedisClient builds the client used by the cache and the readiness check.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Dashboard returns the cached metrics. ok is false on a miss.
func (c *MetricsCache) Dashboard(ctx context.Context) (metrics *domain.DashboardMetrics, ok bool, err error) {
	raw, err := c.client.Get(ctx, dashboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", dashboardKey, err)
	}

	var m domain.DashboardMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", dashboardKey, err)
	}
	return &m, true, nil
}

// StoreDashboard caches metrics for the configured TTL.
func (c *MetricsCache) StoreDashboard(ctx context.Context, metrics *domain.DashboardMetrics) error {
	raw, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("encode %s: %w", dashboardKey, err)
	}
	return c.client.Set(ctx, dashboardKey, raw, c.ttl).Err()
}

// Invalidate drops the cached metrics; called after every mutation.
func (c *MetricsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, dashboardKey).Err()
}

// Ping checks the Redis connection.
func (c *MetricsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
