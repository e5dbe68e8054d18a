// Package cache 提供基于 Redis 的排行榜结果缓存。
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	opTimeout    = 2 * time.Second
	scanTimeout  = 3 * time.Second
	scanBatch    = 1000
	maxScanRound = 10
)

// Options 描述 Redis 连接参数。
type Options struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache 实现 service.LeaderboardCache；任何 Redis 错误都按未命中处理。
type RedisCache struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewRedis 建立连接并探活，Addr 为空时返回 nil。
func NewRedis(ctx context.Context, opts Options, logger *zap.Logger) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return New(client, logger), nil
}

// New 包装已有的客户端，便于测试替换。
func New(client redis.UniversalClient, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, logger: logger}
}

// Get 读取缓存。
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return b, true
}

// Set 写入缓存，失败只记录日志。
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidatePrefix 用 SCAN 找出前缀匹配的 key 并批量删除。
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) {
	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	var cursor uint64
	for i := 0; i < maxScanRound; i++ {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			c.logger.Warn("cache scan failed", zap.String("prefix", prefix), zap.Error(err))
			return
		}
		cursor = next
		if len(keys) > 0 {
			pipe := c.client.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				c.logger.Warn("cache invalidate failed", zap.String("prefix", prefix), zap.Error(err))
			}
		}
		if cursor == 0 {
			return
		}
	}
}

// Close 关闭底层连接。
func (c *RedisCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
