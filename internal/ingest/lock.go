package ingest

import (
	"context"
	"time"

	"github.com/iceymoss/mdrdr/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const lockPrefix = "mdrdr:ingest:"

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SETNX 的入库锁，TTL 兜底进程崩溃的情况
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockPrefix+key, token, l.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		// 调用方的 ctx 可能已取消，释放锁使用独立的超时
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{lockPrefix + key}, token).Err(); err != nil && err != redis.Nil {
			logger.Warn("release ingest lock failed", zap.String("key", key), zap.Error(err))
		}
	}
	return release, true, nil
}
