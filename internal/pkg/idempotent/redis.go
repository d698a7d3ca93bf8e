package idempotent

import (
	"context"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyService 基于 SETNX 的幂等服务，key 首次出现时写入并设置过期时间
type RedisIdempotencyService struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

func NewRedisIdempotencyService(client redis.Cmdable, keyPrefix string, ttl time.Duration) *RedisIdempotencyService {
	return &RedisIdempotencyService{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisIdempotencyService) Exists(ctx context.Context, key string) (bool, error) {
	created, err := s.client.SetNX(ctx, s.key(key), 1, s.ttl).Result()
	if err != nil {
		return false, err
	}
	// 写入成功说明是第一次出现
	return !created, nil
}

func (s *RedisIdempotencyService) MExists(ctx context.Context, keys ...string) ([]bool, error) {
	if len(keys) == 0 {
		return nil, errors.New("empty keys")
	}
	pipe := s.client.Pipeline()
	cmds := slice.Map(keys, func(_ int, src string) *redis.BoolCmd {
		return pipe.SetNX(ctx, s.key(src), 1, s.ttl)
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return slice.Map(cmds, func(_ int, cmd *redis.BoolCmd) bool {
		return !cmd.Val()
	}), nil
}

func (s *RedisIdempotencyService) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RedisIdempotencyService) key(key string) string {
	return s.keyPrefix + ":" + key
}
