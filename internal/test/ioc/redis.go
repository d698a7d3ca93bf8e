package ioc

import (
	"time"

	ca "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

func InitRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
}

func InitGoCache() *ca.Cache {
	const (
		defaultExpiration = time.Minute
		cleanupInterval   = 2 * time.Minute
	)
	return ca.New(defaultExpiration, cleanupInterval)
}
