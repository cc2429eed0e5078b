package initial

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"OrgCalendar/internal/config"
	"OrgCalendar/pkg/redis"
	"OrgCalendar/pkg/zlog"
)

func init() {
	setupLog()
	conf := config.GetConfig().RedisConfig
	// 未配置主机时跳过, 通知去重与扫描锁退回数据库实现
	if conf.Host == "" {
		zlog.Info("redis not configured, dedup and sweep lock fall back to database")
		return
	}
	client, err := connectRedis(conf)
	if err != nil {
		zlog.Error("redis connect failed, fall back to database", zap.Error(err))
		return
	}
	redis.SetClient(client)
}

func connectRedis(conf config.RedisConfig) (*goredis.Client, error) {
	port := conf.Port
	if port == 0 {
		port = 6379
	}
	addr := fmt.Sprintf("%s:%d", conf.Host, port)
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     conf.Password,
		DB:           conf.DB,
		PoolSize:     conf.PoolSize,
		MinIdleConns: conf.MinIdleConns,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping %s: %w", addr, err)
	}
	zlog.Info("redis connected", zap.String("addr", addr), zap.Int("db", conf.DB))
	return client, nil
}
