package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// SetClient 设置 Redis 客户端（由 internal/initial 调用）
func SetClient(c *redis.Client) {
	client = c
}

// Close 关闭 Redis 连接
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// IsConnected 检查 Redis 是否已连接
func IsConnected() bool {
	return client != nil
}

// checkClient 检查客户端是否可用
func checkClient() error {
	if client == nil {
		return fmt.Errorf("Redis 未连接")
	}
	return nil
}

// SetNX 仅在 key 不存在时设置值
func SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if err := checkClient(); err != nil {
		return false, err
	}
	return client.SetNX(ctx, key, value, expiration).Result()
}

// Del 删除 key
func Del(ctx context.Context, keys ...string) (int64, error) {
	if err := checkClient(); err != nil {
		return 0, err
	}
	return client.Del(ctx, keys...).Result()
}

// ==================== 分布式锁 ====================

// 只删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock 获取分布式锁, owner 用于释放时校验持有者
func Lock(ctx context.Context, key, owner string, expiration time.Duration) (bool, error) {
	return SetNX(ctx, key, owner, expiration)
}

// Unlock 释放分布式锁, 锁已过期或被他人持有时返回 false
func Unlock(ctx context.Context, key, owner string) (bool, error) {
	if err := checkClient(); err != nil {
		return false, err
	}
	n, err := unlockScript.Run(ctx, client, []string{key}, owner).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
