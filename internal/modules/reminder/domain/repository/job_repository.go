package repository

import (
	"context"
	"time"

	"OrgCalendar/internal/modules/reminder/domain/job"
)

type ReminderJobRepository interface {
	// Insert 幂等写入, 键已存在时返回 false
	Insert(ctx context.Context, j *job.ReminderJob) (bool, error)
	// DeleteByPrefix 删除 job_key 以 prefix 开头的全部任务
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	ListByPrefix(ctx context.Context, prefix string) ([]*job.ReminderJob, error)
	// ClaimDue 领取到期的待执行任务并标记为 running
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*job.ReminderJob, error)
	MarkFired(ctx context.Context, id int64, at time.Time) error
	// MarkRetry 重试次数加一并推迟执行
	MarkRetry(ctx context.Context, id int64, next time.Time, errMsg string) error
	MarkFailed(ctx context.Context, id int64, at time.Time, errMsg string) error
	// ReleaseStale 把领取时间早于 before 的 running 任务放回队列
	ReleaseStale(ctx context.Context, before, now time.Time) (int64, error)
	// PurgeFinished 清理结束时间早于 before 的已触发/失败任务
	PurgeFinished(ctx context.Context, before time.Time) (int64, error)
}
