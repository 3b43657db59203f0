// Package lock 提供按 key 的跨实例互斥，用来减少同一学员/同一用户的并发写冲突。
// 正确性始终由数据库事务、行锁和唯一索引保证，锁只是前置的排队手段。
package lock

import (
	"context"
	"errors"
	"learning_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotAcquired = errors.New("lock not acquired")

type Unlock func()

type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Noop 未配置 Redis 时使用
type Noop struct{}

func (Noop) Lock(context.Context, string) (Unlock, error) {
	return func() {}, nil
}

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	rdb   *redis.Client
	ttl   time.Duration
	wait  time.Duration
	retry time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, wait: wait, retry: 20 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// 请求上下文可能已取消，释放锁用独立的短超时
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil {
					logger.Log.Warn("release lock failed", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// Acquire 获取锁；失败时记录告警并返回空的 Unlock，调用方继续依赖数据库串行化
func Acquire(ctx context.Context, l Locker, key string) Unlock {
	if l == nil {
		return func() {}
	}
	unlock, err := l.Lock(ctx, key)
	if err != nil {
		logger.Log.Warn("lock degraded to database serialization", zap.String("key", key), zap.Error(err))
		return func() {}
	}
	return unlock
}
