package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/repository"
)

type eventRepositoryImpl struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) repository.EventRepository {
	return &eventRepositoryImpl{db: db}
}

func (r *eventRepositoryImpl) Create(ctx context.Context, event *entity.Event) error {
	return r.db.WithContext(ctx).Omit("SharedTargets").Create(event).Error
}

func (r *eventRepositoryImpl) Save(ctx context.Context, event *entity.Event) error {
	return r.db.WithContext(ctx).Omit("SharedTargets").Save(event).Error
}

func (r *eventRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Event{}).Error
}

func (r *eventRepositoryImpl) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	var event entity.Event
	if err := r.db.WithContext(ctx).Preload("SharedTargets").First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepositoryImpl) GetByOccurrence(ctx context.Context, seriesID string, date time.Time) (*entity.Event, error) {
	var event entity.Event
	err := r.db.WithContext(ctx).Preload("SharedTargets").
		Where("original_series_id = ? AND original_date = ?", seriesID, datatypes.Date(date)).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepositoryImpl) ListInRange(ctx context.Context, q repository.ListQuery) ([]*entity.Event, error) {
	var events []*entity.Event
	db := r.db.WithContext(ctx).Preload("SharedTargets").
		Where("start_time <= ? AND end_time >= ?", q.To, q.From)
	err := applyScope(db, entity.SharedEntityEvent, q.Scope, q.ShareOfficeID).
		Order("start_time ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepositoryImpl) Search(ctx context.Context, q repository.SearchQuery) ([]*entity.Event, error) {
	var events []*entity.Event
	p := likePattern(q.Keyword)
	db := r.db.WithContext(ctx).Preload("SharedTargets").
		Where("(title LIKE ? OR content LIKE ?)", p, p)
	err := applyScope(db, entity.SharedEntityEvent, q.Scope, q.ShareOfficeID).
		Order("start_time DESC").
		Limit(q.Limit).
		Find(&events).Error
	return events, err
}

func (r *eventRepositoryImpl) ListByOriginalSeries(ctx context.Context, seriesID string) ([]*entity.Event, error) {
	var events []*entity.Event
	err := r.db.WithContext(ctx).
		Where("original_series_id = ?", seriesID).
		Order("original_date ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepositoryImpl) DeleteByOriginalSeries(ctx context.Context, seriesID string) error {
	return r.db.WithContext(ctx).
		Where("original_series_id = ?", seriesID).
		Delete(&entity.Event{}).Error
}

func (r *eventRepositoryImpl) MarkDoneByOriginalSeries(ctx context.Context, seriesID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Event{}).
		Where("original_series_id = ? AND status <> ?", seriesID, entity.StatusDone).
		Updates(map[string]any{
			"status":       entity.StatusDone,
			"completed_at": at,
		}).Error
}

func (r *eventRepositoryImpl) ListPendingStartingBetween(ctx context.Context, from, to time.Time) ([]*entity.Event, error) {
	var events []*entity.Event
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time >= ? AND start_time <= ?", entity.StatusPending, from, to).
		Find(&events).Error
	return events, err
}

func (r *eventRepositoryImpl) ListPendingStartedEndingAfter(ctx context.Context, now, endAfter time.Time) ([]*entity.Event, error) {
	var events []*entity.Event
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time < ? AND end_time >= ?", entity.StatusPending, now, endAfter).
		Find(&events).Error
	return events, err
}
