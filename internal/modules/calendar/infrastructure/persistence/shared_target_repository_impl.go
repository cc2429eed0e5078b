package persistence

import (
	"context"

	"gorm.io/gorm"

	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/repository"
)

type sharedTargetRepositoryImpl struct {
	db *gorm.DB
}

func NewSharedTargetRepository(db *gorm.DB) repository.SharedTargetRepository {
	return &sharedTargetRepositoryImpl{db: db}
}

func (r *sharedTargetRepositoryImpl) Replace(ctx context.Context, entityType, entityID string, targets []entity.SharedTarget) error {
	if err := r.DeleteByEntity(ctx, entityType, entityID); err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}
	rows := make([]entity.SharedTarget, 0, len(targets))
	for _, t := range targets {
		t.Id = 0
		t.EntityType = entityType
		t.EntityID = entityID
		rows = append(rows, t)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *sharedTargetRepositoryImpl) DeleteByEntity(ctx context.Context, entityType, entityID string) error {
	return r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Delete(&entity.SharedTarget{}).Error
}
