package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// currentWeekTTL keeps the live week fresh enough while absorbing repeat
	// requests from the calendar UI
	currentWeekTTL = 5 * time.Minute
	// pastWeekTTL covers weeks that only change when a log is backdated,
	// which also invalidates the entry explicitly
	pastWeekTTL = 24 * time.Hour
)

// WeeklyCache is a read-through cache for rendered weekly analytics payloads,
// keyed by user and week start date.
type WeeklyCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewWeeklyCache creates a weekly analytics cache backed by Redis
func NewWeeklyCache(client *redis.Client, logger *zap.Logger) *WeeklyCache {
	return &WeeklyCache{client: client, logger: logger}
}

func weeklyKey(userID uuid.UUID, weekStart time.Time) string {
	return fmt.Sprintf("dosetrack:weekly:%s:%s", userID, weekStart.Format("2006-01-02"))
}

// Get returns the cached payload for a user's week, or (nil, false) on a miss.
// Redis errors degrade to a miss so analytics keep working without the cache.
func (c *WeeklyCache) Get(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, weeklyKey(userID, weekStart)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logger != nil {
			c.logger.Warn("weekly_cache_get_failed", zap.Error(err))
		}
		return nil, false
	}

	return data, true
}

// Set stores the rendered payload for a user's week. The current week gets a
// short TTL; settled weeks keep their entry longer.
func (c *WeeklyCache) Set(ctx context.Context, userID uuid.UUID, weekStart time.Time, data []byte, isCurrentWeek bool) {
	if c == nil || c.client == nil {
		return
	}

	ttl := pastWeekTTL
	if isCurrentWeek {
		ttl = currentWeekTTL
	}

	if err := c.client.Set(ctx, weeklyKey(userID, weekStart), data, ttl).Err(); err != nil {
		if c.logger != nil {
			c.logger.Warn("weekly_cache_set_failed", zap.Error(err))
		}
	}
}

// Invalidate drops the cached week containing the given instant, for when a
// new or backdated dose log changes a week that may already be cached.
func (c *WeeklyCache) Invalidate(ctx context.Context, userID uuid.UUID, weekStart time.Time) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, weeklyKey(userID, weekStart)).Err(); err != nil {
		if c.logger != nil {
			c.logger.Warn("weekly_cache_invalidate_failed", zap.Error(err))
		}
	}
}
