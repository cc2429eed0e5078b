// Package dedup keeps notification markers so the same reminder is not sent
// twice to one recipient inside a window.
package dedup

import (
	"context"
	"time"

	"OrgCalendar/internal/modules/notification/application/service"
	"OrgCalendar/internal/modules/notification/domain/repository"
	"OrgCalendar/pkg/redis"
	"OrgCalendar/pkg/storetime"
)

const keyPrefix = "calendar:notify:dedup:"

func markerKey(userID, typ, timeKey string) string {
	return keyPrefix + userID + ":" + typ + ":" + timeKey
}

// redisDeduper 使用 SETNX 标记, 过期即窗口
type redisDeduper struct{}

func (redisDeduper) Claim(ctx context.Context, userID, typ, timeKey string, window time.Duration) (bool, error) {
	return redis.SetNX(ctx, markerKey(userID, typ, timeKey), 1, window)
}

func (redisDeduper) Release(ctx context.Context, userID, typ, timeKey string) {
	_, _ = redis.Del(ctx, markerKey(userID, typ, timeKey))
}

// storeDeduper 没有 Redis 时回查通知表
type storeDeduper struct {
	repo  repository.NotificationRepository
	clock *storetime.Clock
}

func (d storeDeduper) Claim(ctx context.Context, userID, typ, timeKey string, window time.Duration) (bool, error) {
	exists, err := d.repo.ExistsSince(ctx, userID, typ, timeKey, d.clock.Now().Add(-window))
	return !exists, err
}

func (storeDeduper) Release(context.Context, string, string, string) {}

// auto 每次调用时根据 Redis 连接状态选择实现
type auto struct {
	store storeDeduper
}

// New 返回去重器, Redis 可用时使用 Redis, 否则查库
func New(repo repository.NotificationRepository, clock *storetime.Clock) service.Deduper {
	return &auto{store: storeDeduper{repo: repo, clock: clock}}
}

func (a *auto) pick() service.Deduper {
	if redis.IsConnected() {
		return redisDeduper{}
	}
	return a.store
}

func (a *auto) Claim(ctx context.Context, userID, typ, timeKey string, window time.Duration) (bool, error) {
	return a.pick().Claim(ctx, userID, typ, timeKey, window)
}

func (a *auto) Release(ctx context.Context, userID, typ, timeKey string) {
	a.pick().Release(ctx, userID, typ, timeKey)
}
