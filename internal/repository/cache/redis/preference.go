package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/repository/cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{
		rdb: rdb,
	}
}

func (c *Cache) Get(ctx context.Context, investorID string) (domain.Preferences, error) {
	key := cache.PreferenceKey(investorID)
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// 键不存在
			return domain.Preferences{}, cache.ErrKeyNotFound
		}
		return domain.Preferences{}, fmt.Errorf("failed to get preference from redis %w", err)
	}

	var pref domain.Preferences
	err = json.Unmarshal([]byte(val), &pref)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("failed to unmarshal preference data %w", err)
	}

	return pref, nil
}

func (c *Cache) Set(ctx context.Context, pref domain.Preferences) error {
	key := cache.PreferenceKey(pref.InvestorID)

	data, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("failed to marshal preference data %w", err)
	}

	err = c.rdb.Set(ctx, key, data, cache.DefaultExpiredTime).Err()
	if err != nil {
		return fmt.Errorf("failed to set preference to redis %w", err)
	}
	return nil
}

func (c *Cache) Del(ctx context.Context, investorID string) error {
	return c.rdb.Del(ctx, cache.PreferenceKey(investorID)).Err()
}
