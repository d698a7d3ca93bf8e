package cache

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"github.com/pkg/errors"
)

const (
	PreferencePrefix = "preference"

	// DefaultExpiredTime redis 中偏好配置的过期时间
	DefaultExpiredTime = 10 * time.Minute
)

var ErrKeyNotFound = errors.New("key not found")

// PreferenceCache 投资人偏好缓存
type PreferenceCache interface {
	Get(ctx context.Context, investorID string) (domain.Preferences, error)
	Set(ctx context.Context, pref domain.Preferences) error
	Del(ctx context.Context, investorID string) error
}

func PreferenceKey(investorID string) string {
	return fmt.Sprintf("%s:%s", PreferencePrefix, investorID)
}
