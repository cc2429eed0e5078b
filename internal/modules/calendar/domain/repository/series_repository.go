package repository

import (
	"context"
	"time"

	"OrgCalendar/internal/modules/calendar/domain/entity"
)

type EventSeriesRepository interface {
	Create(ctx context.Context, series *entity.EventSeries) error
	Save(ctx context.Context, series *entity.EventSeries) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.EventSeries, error)
	// ListInRange 返回可能在窗口内有实例的系列
	ListInRange(ctx context.Context, q ListQuery) ([]*entity.EventSeries, error)
	Search(ctx context.Context, q SearchQuery) ([]*entity.EventSeries, error)
	// ListActive 未完成且在日期窗口内仍有效的系列, 供提醒扫描使用
	ListActive(ctx context.Context, from, to time.Time) ([]*entity.EventSeries, error)
}

type EventExceptionRepository interface {
	Create(ctx context.Context, ex *entity.EventException) error
	Exists(ctx context.Context, seriesID string, date time.Time) (bool, error)
	ListBySeries(ctx context.Context, seriesID string) ([]*entity.EventException, error)
	// ListDates 按系列分组返回窗口内的例外日期
	ListDates(ctx context.Context, seriesIDs []string, from, to time.Time) (map[string][]time.Time, error)
	DeleteBySeries(ctx context.Context, seriesID string) error
}

type SharedTargetRepository interface {
	// Replace 用 targets 整体替换实体的共享目标
	Replace(ctx context.Context, entityType, entityID string, targets []entity.SharedTarget) error
	DeleteByEntity(ctx context.Context, entityType, entityID string) error
}
