package persistence

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/repository"
)

type exceptionRepositoryImpl struct {
	db *gorm.DB
}

func NewEventExceptionRepository(db *gorm.DB) repository.EventExceptionRepository {
	return &exceptionRepositoryImpl{db: db}
}

func (r *exceptionRepositoryImpl) Create(ctx context.Context, ex *entity.EventException) error {
	return r.db.WithContext(ctx).Create(ex).Error
}

func (r *exceptionRepositoryImpl) Exists(ctx context.Context, seriesID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.EventException{}).
		Where("series_id = ? AND exception_date = ?", seriesID, datatypes.Date(date)).
		Count(&count).Error
	return count > 0, err
}

func (r *exceptionRepositoryImpl) ListBySeries(ctx context.Context, seriesID string) ([]*entity.EventException, error) {
	var list []*entity.EventException
	err := r.db.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("exception_date ASC").
		Find(&list).Error
	return list, err
}

func (r *exceptionRepositoryImpl) ListDates(ctx context.Context, seriesIDs []string, from, to time.Time) (map[string][]time.Time, error) {
	out := make(map[string][]time.Time, len(seriesIDs))
	if len(seriesIDs) == 0 {
		return out, nil
	}
	var list []*entity.EventException
	err := r.db.WithContext(ctx).
		Where("series_id IN ? AND exception_date >= ? AND exception_date <= ?",
			seriesIDs, datatypes.Date(from), datatypes.Date(to)).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	for _, ex := range list {
		out[ex.SeriesId] = append(out[ex.SeriesId], time.Time(ex.ExceptionDate))
	}
	return out, nil
}

func (r *exceptionRepositoryImpl) DeleteBySeries(ctx context.Context, seriesID string) error {
	return r.db.WithContext(ctx).Where("series_id = ?", seriesID).Delete(&entity.EventException{}).Error
}
