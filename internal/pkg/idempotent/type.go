package idempotent

import "context"

//go:generate mockgen -source=./type.go -package=idempotentmocks -destination=./mocks/idempotent.mock.go IdempotencyService
type IdempotencyService interface {
	// Exists 返回 key 是否已经出现过，没出现过的话同时记录下来
	Exists(ctx context.Context, key string) (bool, error)
	// MExists 批量版本，返回值与 keys 一一对应
	MExists(ctx context.Context, keys ...string) ([]bool, error)
	// Remove 撤销 key 的出现记录，业务处理失败后回滚用
	Remove(ctx context.Context, key string) error
}
