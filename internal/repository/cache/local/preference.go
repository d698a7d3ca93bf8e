package local

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/repository/cache"
	"github.com/gotomicro/ego/core/elog"
	ca "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 3 * time.Second

// Cache 进程内偏好缓存，通过 redis 键空间通知保持与远端一致
type Cache struct {
	rdb    *redis.Client
	logger *elog.Component
	c      *ca.Cache
}

func NewLocalCache(rdb *redis.Client, c *ca.Cache) *Cache {
	l := &Cache{
		rdb:    rdb,
		logger: elog.DefaultLogger,
		c:      c,
	}
	go l.loop(context.Background())
	return l
}

func (l *Cache) Get(_ context.Context, investorID string) (domain.Preferences, error) {
	key := cache.PreferenceKey(investorID)
	v, ok := l.c.Get(key)
	if !ok {
		return domain.Preferences{}, cache.ErrKeyNotFound
	}
	return v.(domain.Preferences), nil
}

func (l *Cache) Set(_ context.Context, pref domain.Preferences) error {
	key := cache.PreferenceKey(pref.InvestorID)
	l.c.Set(key, pref, ca.NoExpiration)
	return nil
}

func (l *Cache) Del(_ context.Context, investorID string) error {
	l.c.Delete(cache.PreferenceKey(investorID))
	return nil
}

// loop 监控redis里偏好键的变更事件
func (l *Cache) loop(ctx context.Context) {
	pubsub := l.rdb.PSubscribe(ctx, "__keyspace@*__:"+cache.PreferencePrefix+":*")
	defer pubsub.Close()
	ch := pubsub.Channel()
	for msg := range ch {
		channel := msg.Channel
		event := msg.Payload
		// __keyspace@0__:preference:<investorID>
		idx := strings.Index(channel, ":")
		if idx < 0 {
			l.logger.Error("监听redis键不正确", elog.String("channel", channel))
			continue
		}
		key := channel[idx+1:]
		hctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		l.handlePreferenceChange(hctx, key, event)
		cancel()
	}
}

func (l *Cache) handlePreferenceChange(ctx context.Context, key string, event string) {
	switch event {
	case "set":
		res := l.rdb.Get(ctx, key)
		if res.Err() != nil {
			l.logger.Error("订阅完获取键失败", elog.String("key", key))
			return
		}
		var pref domain.Preferences
		err := json.Unmarshal([]byte(res.Val()), &pref)
		if err != nil {
			l.logger.Error("序列化失败", elog.String("key", key), elog.String("val", res.Val()))
			return
		}
		l.c.Set(key, pref, ca.NoExpiration)
	case "del", "expired":
		l.c.Delete(key)
	}
}
