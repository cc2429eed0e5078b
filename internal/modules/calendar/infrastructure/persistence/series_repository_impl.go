package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/calendar/domain/repository"
)

type seriesRepositoryImpl struct {
	db *gorm.DB
}

func NewEventSeriesRepository(db *gorm.DB) repository.EventSeriesRepository {
	return &seriesRepositoryImpl{db: db}
}

func (r *seriesRepositoryImpl) Create(ctx context.Context, series *entity.EventSeries) error {
	return r.db.WithContext(ctx).Omit("SharedTargets").Create(series).Error
}

func (r *seriesRepositoryImpl) Save(ctx context.Context, series *entity.EventSeries) error {
	return r.db.WithContext(ctx).Omit("SharedTargets").Save(series).Error
}

func (r *seriesRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.EventSeries{}).Error
}

func (r *seriesRepositoryImpl) GetByID(ctx context.Context, id string) (*entity.EventSeries, error) {
	var series entity.EventSeries
	if err := r.db.WithContext(ctx).Preload("SharedTargets").First(&series, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &series, nil
}

// 系列在窗口内可能有实例: 首次日期不晚于窗口结束, 且结束日期为空或不早于窗口开始
func activeInWindow(db *gorm.DB, from, to time.Time) *gorm.DB {
	return db.Where("first_occurrence_date <= ?", datatypes.Date(to)).
		Where("(recurrence_end_date IS NULL OR recurrence_end_date >= ?)", datatypes.Date(from))
}

func (r *seriesRepositoryImpl) ListInRange(ctx context.Context, q repository.ListQuery) ([]*entity.EventSeries, error) {
	var list []*entity.EventSeries
	// 跨天实例可能从窗口之前开始
	db := activeInWindow(r.db.WithContext(ctx).Preload("SharedTargets"), q.From.AddDate(0, 0, -occurrence.MaxDurationDays), q.To)
	err := applyScope(db, entity.SharedEntitySeries, q.Scope, q.ShareOfficeID).
		Order("first_occurrence_date ASC").
		Find(&list).Error
	return list, err
}

func (r *seriesRepositoryImpl) Search(ctx context.Context, q repository.SearchQuery) ([]*entity.EventSeries, error) {
	var list []*entity.EventSeries
	p := likePattern(q.Keyword)
	db := r.db.WithContext(ctx).Preload("SharedTargets").
		Where("(title LIKE ? OR content LIKE ?)", p, p)
	err := applyScope(db, entity.SharedEntitySeries, q.Scope, q.ShareOfficeID).
		Order("first_occurrence_date DESC").
		Limit(q.Limit).
		Find(&list).Error
	return list, err
}

func (r *seriesRepositoryImpl) ListActive(ctx context.Context, from, to time.Time) ([]*entity.EventSeries, error) {
	var list []*entity.EventSeries
	err := activeInWindow(r.db.WithContext(ctx), from, to).
		Where("status = ?", entity.StatusPending).
		Find(&list).Error
	return list, err
}
