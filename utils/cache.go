package utils

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL = 5 * time.Minute
	cacheOpTimeout  = 2 * time.Second
	balanceKeyPfx   = "agp:balance:"
)

// BalanceCache stores user balances in Redis. Failures are logged and
// treated as misses so the database stays authoritative.
type BalanceCache struct {
	rc     *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewBalanceCache(rc *redis.Client, ttl time.Duration, logger *zap.Logger) *BalanceCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceCache{rc: rc, ttl: ttl, logger: logger}
}

func balanceKey(userID string) string {
	return balanceKeyPfx + userID
}

func (c *BalanceCache) GetBalance(ctx context.Context, userID string) (int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	s, err := c.rc.Get(ctx, balanceKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("cache get failed", zap.String("user_id", userID), zap.Error(err))
		}
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *BalanceCache) SetBalance(ctx context.Context, userID string, points int64) {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := c.rc.Set(ctx, balanceKey(userID), strconv.FormatInt(points, 10), c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (c *BalanceCache) Invalidate(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := c.rc.Del(ctx, balanceKey(userID)).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Flush drops every cached balance using SCAN.
func (c *BalanceCache) Flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // limit rounds to avoid long loops
		keys, cur, err := c.rc.Scan(ctx, cursor, balanceKeyPfx+"*", 1000).Result()
		if err != nil {
			c.logger.Warn("cache flush failed", zap.Error(err))
			return
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			return
		}
	}
}
