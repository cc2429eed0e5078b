package persistence

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"OrgCalendar/internal/modules/reminder/domain/job"
	"OrgCalendar/internal/modules/reminder/domain/repository"
)

type jobRepositoryImpl struct {
	db *gorm.DB
}

func NewReminderJobRepository(db *gorm.DB) repository.ReminderJobRepository {
	return &jobRepositoryImpl{db: db}
}

func (r *jobRepositoryImpl) Insert(ctx context.Context, j *job.ReminderJob) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "job_key"}}, DoNothing: true}).
		Create(j)
	return res.RowsAffected > 0, res.Error
}

func (r *jobRepositoryImpl) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("job_key LIKE ?", prefix+"%").
		Delete(&job.ReminderJob{})
	return res.RowsAffected, res.Error
}

func (r *jobRepositoryImpl) ListByPrefix(ctx context.Context, prefix string) ([]*job.ReminderJob, error) {
	var list []*job.ReminderJob
	err := r.db.WithContext(ctx).
		Where("job_key LIKE ?", prefix+"%").
		Order("scheduled_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *jobRepositoryImpl) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*job.ReminderJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*job.ReminderJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list []*job.ReminderJob
		err := tx.Model(&job.ReminderJob{}).
			Where("status = ? AND scheduled_at <= ?", job.StatusPending, now).
			Order("scheduled_at ASC, id ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Find(&list).Error
		if err != nil || len(list) == 0 {
			out = []*job.ReminderJob{}
			return err
		}

		ids := make([]int64, 0, len(list))
		for _, j := range list {
			ids = append(ids, j.Id)
		}
		if err := tx.Model(&job.ReminderJob{}).
			Where("id IN ? AND status = ?", ids, job.StatusPending).
			Updates(map[string]any{"status": job.StatusRunning, "claimed_at": now, "updated_at": now}).Error; err != nil {
			return err
		}
		for _, j := range list {
			j.Status = job.StatusRunning
			claimed := now
			j.ClaimedAt = &claimed
		}
		out = list
		return nil
	})
	return out, err
}

func (r *jobRepositoryImpl) MarkFired(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&job.ReminderJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      job.StatusFired,
			"last_error":  "",
			"finished_at": at,
			"updated_at":  at,
		}).Error
}

func (r *jobRepositoryImpl) MarkRetry(ctx context.Context, id int64, next time.Time, errMsg string) error {
	return r.db.WithContext(ctx).Model(&job.ReminderJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       job.StatusPending,
			"retry_count":  gorm.Expr("retry_count + ?", 1),
			"scheduled_at": next,
			"claimed_at":   nil,
			"last_error":   truncate(errMsg),
		}).Error
}

func (r *jobRepositoryImpl) MarkFailed(ctx context.Context, id int64, at time.Time, errMsg string) error {
	return r.db.WithContext(ctx).Model(&job.ReminderJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      job.StatusFailed,
			"retry_count": gorm.Expr("retry_count + ?", 1),
			"last_error":  truncate(errMsg),
			"finished_at": at,
			"updated_at":  at,
		}).Error
}

func (r *jobRepositoryImpl) ReleaseStale(ctx context.Context, before, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&job.ReminderJob{}).
		Where("status = ? AND (claimed_at IS NULL OR claimed_at < ?)", job.StatusRunning, before).
		Updates(map[string]any{
			"status":     job.StatusPending,
			"claimed_at": nil,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *jobRepositoryImpl) PurgeFinished(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status IN ? AND finished_at < ?", []string{job.StatusFired, job.StatusFailed}, before).
		Delete(&job.ReminderJob{})
	return res.RowsAffected, res.Error
}

func truncate(msg string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) > 255 {
		msg = msg[:255]
	}
	return msg
}
