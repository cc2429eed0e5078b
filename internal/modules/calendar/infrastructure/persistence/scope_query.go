package persistence

import (
	"gorm.io/gorm"

	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/scope"
)

// applyScope 把可见范围转成查询条件. 共享只按办公室预过滤, 结果是超集
func applyScope(db *gorm.DB, entityType string, f scope.Filter, shareOfficeID string) *gorm.DB {
	if f.All {
		return db
	}
	fresh := db.Session(&gorm.Session{NewDB: true})
	cond := fresh.Where(f.Column+" = ?", f.Value)
	if shareOfficeID != "" {
		shared := fresh.Model(&entity.SharedTarget{}).
			Select("entity_id").
			Where("entity_type = ? AND office_id = ?", entityType, shareOfficeID)
		cond = cond.Or("id IN (?)", shared)
	}
	return db.Where(cond)
}

func likePattern(keyword string) string {
	return "%" + keyword + "%"
}
