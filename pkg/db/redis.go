package db

import (
	"sync"

	conf "github.com/iceymoss/mdrdr/pkg/config"

	"github.com/go-redis/redis/v8"
)

var redisConn = make(map[string]*redis.Client)
var redisMutex sync.Mutex

// GetRedisConn 未配置 redis 时返回 nil
func GetRedisConn(cfg conf.RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		return nil
	}
	redisMutex.Lock()
	defer redisMutex.Unlock()
	if rdb, ok := redisConn[cfg.Addr]; ok {
		return rdb
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	redisConn[cfg.Addr] = rdb
	return rdb
}
