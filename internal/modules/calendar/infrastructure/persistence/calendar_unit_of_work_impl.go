package persistence

import (
	"context"

	"gorm.io/gorm"

	"OrgCalendar/internal/modules/calendar/domain/repository"
)

type calendarUnitOfWorkImpl struct {
	db *gorm.DB
}

func NewCalendarUnitOfWork(db *gorm.DB) repository.CalendarUnitOfWork {
	return &calendarUnitOfWorkImpl{db: db}
}

func (u *calendarUnitOfWorkImpl) Transaction(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewTxRepos(tx))
	})
}

// NewTxRepos 在同一个连接上组装全部仓储
func NewTxRepos(db *gorm.DB) repository.TxRepos {
	return repository.TxRepos{
		Events:     NewEventRepository(db),
		Series:     NewEventSeriesRepository(db),
		Exceptions: NewEventExceptionRepository(db),
		Shares:     NewSharedTargetRepository(db),
	}
}
