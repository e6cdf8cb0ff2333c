package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iceymoss/mdrdr/pkg/db/objects"

	"github.com/go-redis/redis/v8"
)

// ArticleCache 文章详情缓存，不包含客户端相关的 liked 字段
type ArticleCache interface {
	Get(ctx context.Context, id uint64) (*objects.Article, error)
	Set(ctx context.Context, a *objects.Article) error
	Delete(ctx context.Context, id uint64) error
}

const articleCachePrefix = "mdrdr:article:"

type RedisArticleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisArticleCache(rdb *redis.Client, ttl time.Duration) *RedisArticleCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisArticleCache{rdb: rdb, ttl: ttl}
}

func cacheKey(id uint64) string {
	return fmt.Sprintf("%s%d", articleCachePrefix, id)
}

// Get 未命中时返回 nil, nil
func (c *RedisArticleCache) Get(ctx context.Context, id uint64) (*objects.Article, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a objects.Article
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *RedisArticleCache) Set(ctx context.Context, a *objects.Article) error {
	cp := *a
	cp.Liked = false
	raw, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(a.ID), raw, c.ttl).Err()
}

func (c *RedisArticleCache) Delete(ctx context.Context, id uint64) error {
	return c.rdb.Del(ctx, cacheKey(id)).Err()
}
