package ratelimit

import "context"

//go:generate mockgen -source=./types.go -package=limitmocks -destination=./mocks/limiter.mock.go Limiter
type Limiter interface {
	// Limit 判断 key 对应的动作当前是否应该被限流
	Limit(ctx context.Context, key string) (bool, error)
}
