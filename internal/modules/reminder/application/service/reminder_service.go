package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	calendarEntity "OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	calendarRepository "OrgCalendar/internal/modules/calendar/domain/repository"
	notificationService "OrgCalendar/internal/modules/notification/application/service"
	notificationEntity "OrgCalendar/internal/modules/notification/domain/entity"
	notificationRepository "OrgCalendar/internal/modules/notification/domain/repository"
	"OrgCalendar/internal/modules/reminder/domain/job"
	"OrgCalendar/internal/modules/reminder/domain/repository"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/metrics"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/xerr"
	"OrgCalendar/pkg/zlog"
)

// Report 一次回填/扫描的结果
type Report struct {
	Targets   int   `json:"targets"`
	Scheduled int   `json:"scheduled"`
	Purged    int64 `json:"purged"`
}

func (r *Report) merge(o Report) {
	r.Targets += o.Targets
	r.Scheduled += o.Scheduled
	r.Purged += o.Purged
}

type ReminderService interface {
	// Schedule 为实体计算并写入提醒任务, 已存在的任务保持不变; 系列引用会扫描前瞻窗口内的全部实例
	Schedule(ctx context.Context, ref occurrence.Ref) (int, error)
	ScheduleTarget(ctx context.Context, t Target) (int, error)
	// Cancel 删除实体的提醒任务, 以及刚产生不久的未读提醒通知
	Cancel(ctx context.Context, ref occurrence.Ref) error
	Backfill(ctx context.Context) (Report, error)
	SweepSeries(ctx context.Context) (Report, error)
	Purge(ctx context.Context) (int64, error)
	// CheckNow 回填 + 系列扫描 + 过期清理
	CheckNow(ctx context.Context) (Report, error)
	ListJobs(ctx context.Context, ref occurrence.Ref) ([]*job.ReminderJob, error)
	// ListVisibleJobs 同 ListJobs, 目标不存在或对 actor 不可见时返回 xerr.ErrNotFound
	ListVisibleJobs(ctx context.Context, a userEntity.Actor, ref occurrence.Ref) ([]*job.ReminderJob, error)
}

type reminderServiceImpl struct {
	jobs          repository.ReminderJobRepository
	events        calendarRepository.EventRepository
	series        calendarRepository.EventSeriesRepository
	notifications notificationRepository.NotificationRepository
	dedup         notificationService.Deduper
	resolver      targetResolver
	settings      Settings
	clock         *storetime.Clock
}

func NewReminderService(
	jobs repository.ReminderJobRepository,
	events calendarRepository.EventRepository,
	series calendarRepository.EventSeriesRepository,
	exceptions calendarRepository.EventExceptionRepository,
	notifications notificationRepository.NotificationRepository,
	dedup notificationService.Deduper,
	settings Settings,
	clock *storetime.Clock,
) ReminderService {
	return &reminderServiceImpl{
		jobs:          jobs,
		events:        events,
		series:        series,
		notifications: notifications,
		dedup:         dedup,
		resolver:      targetResolver{events: events, series: series, exceptions: exceptions},
		settings:      settings,
		clock:         clock,
	}
}

func (s *reminderServiceImpl) Schedule(ctx context.Context, ref occurrence.Ref) (int, error) {
	if ref.Kind == occurrence.KindSeries {
		sr, err := s.series.GetByID(ctx, ref.SeriesID)
		if err != nil || sr == nil || sr.IsDone() {
			return 0, err
		}
		rep, err := s.sweepOne(ctx, sr)
		return rep.Scheduled, err
	}
	t, ok, err := s.resolver.resolve(ctx, ref)
	if err != nil || !ok {
		return 0, err
	}
	return s.ScheduleTarget(ctx, t)
}

func (s *reminderServiceImpl) ScheduleTarget(ctx context.Context, t Target) (int, error) {
	created := 0
	for _, j := range Plan(t, s.settings, s.clock) {
		ok, err := s.jobs.Insert(ctx, j)
		if err != nil {
			return created, fmt.Errorf("insert reminder job %s: %w", j.JobKey, err)
		}
		if ok {
			created++
			metrics.ReminderJobsScheduled.WithLabelValues(j.TriggerType).Inc()
		}
	}
	return created, nil
}

func (s *reminderServiceImpl) Cancel(ctx context.Context, ref occurrence.Ref) error {
	removed, err := s.jobs.DeleteByPrefix(ctx, ref.Prefix())
	if err != nil {
		return fmt.Errorf("cancel reminder jobs of %s: %w", ref, err)
	}
	since := s.clock.Now().Add(-s.settings.CancelTrail)
	cleared, err := s.notifications.DeleteRecentUnread(ctx, ref.Pattern(), notificationEntity.ReminderTypes, since)
	if err != nil {
		return fmt.Errorf("clear recent reminders of %s: %w", ref, err)
	}
	// 通知删掉后去重标记也要释放, 否则重新调度的任务会被拦下
	if s.dedup != nil {
		for _, n := range cleared {
			if n.TimeKey != "" {
				s.dedup.Release(ctx, n.UserId, n.Type, n.TimeKey)
			}
		}
	}
	if removed > 0 || len(cleared) > 0 {
		zlog.Info("reminders cancelled",
			zap.String("ref", ref.String()),
			zap.Int64("jobs", removed),
			zap.Int("notifications", len(cleared)))
	}
	return nil
}

func (s *reminderServiceImpl) Backfill(ctx context.Context) (Report, error) {
	var rep Report
	now := s.clock.StoredNow()

	upcoming, err := s.events.ListPendingStartingBetween(ctx, now, now.Add(s.settings.Horizon))
	if err != nil {
		return rep, err
	}
	running, err := s.events.ListPendingStartedEndingAfter(ctx, now, now.Add(-s.settings.Retention))
	if err != nil {
		return rep, err
	}

	var errs *multierror.Error
	for _, ev := range append(upcoming, running...) {
		rep.Targets++
		n, err := s.ScheduleTarget(ctx, EventTarget(ev))
		rep.Scheduled += n
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return rep, errs.ErrorOrNil()
}

func (s *reminderServiceImpl) SweepSeries(ctx context.Context) (Report, error) {
	var rep Report
	today := s.clock.Today()
	horizonEnd := storetime.DateOf(s.clock.StoredNow().Add(s.settings.Horizon))

	list, err := s.series.ListActive(ctx, today.AddDate(0, 0, -occurrence.MaxDurationDays), horizonEnd)
	if err != nil {
		return rep, err
	}
	var errs *multierror.Error
	for _, sr := range list {
		one, err := s.sweepOne(ctx, sr)
		rep.merge(one)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return rep, errs.ErrorOrNil()
}

// sweepOne 逐日扫描前瞻窗口, 跳过不在周期上的日期和例外日期
func (s *reminderServiceImpl) sweepOne(ctx context.Context, sr *calendarEntity.EventSeries) (Report, error) {
	var rep Report
	rec := sr.Recurrence()
	storedNow := s.clock.StoredNow()
	limit := storedNow.Add(s.settings.Horizon)
	from := storetime.DateOf(storedNow).AddDate(0, 0, -maxInt(sr.DurationDays, 0))
	to := storetime.DateOf(limit)

	excepted := map[string]struct{}{}
	exList, err := s.resolver.exceptions.ListDates(ctx, []string{sr.Id}, from, to)
	if err != nil {
		return rep, err
	}
	for _, d := range exList[sr.Id] {
		excepted[storetime.FormatDate(d)] = struct{}{}
	}

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !occurrence.IsOccurrenceDate(rec, d) {
			continue
		}
		if _, ok := excepted[storetime.FormatDate(d)]; ok {
			continue
		}
		t := OccurrenceTarget(sr, d)
		// 已结束的实例不再补发, 之前写入的任务仍会执行
		if t.Start.After(limit) || !t.End.After(storedNow) {
			continue
		}
		rep.Targets++
		n, err := s.ScheduleTarget(ctx, t)
		rep.Scheduled += n
		if err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func (s *reminderServiceImpl) Purge(ctx context.Context) (int64, error) {
	return s.jobs.PurgeFinished(ctx, s.clock.Now().Add(-s.settings.Retention))
}

func (s *reminderServiceImpl) CheckNow(ctx context.Context) (Report, error) {
	var (
		rep  Report
		errs *multierror.Error
	)
	started := time.Now()

	one, err := s.Backfill(ctx)
	rep.merge(one)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("backfill: %w", err))
	}
	one, err = s.SweepSeries(ctx)
	rep.merge(one)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("series sweep: %w", err))
	}
	purged, err := s.Purge(ctx)
	rep.Purged = purged
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("purge: %w", err))
	}

	zlog.Info("reminder check finished",
		zap.Int("targets", rep.Targets),
		zap.Int("scheduled", rep.Scheduled),
		zap.Int64("purged", rep.Purged),
		zap.Duration("cost", time.Since(started)))
	return rep, errs.ErrorOrNil()
}

func (s *reminderServiceImpl) ListJobs(ctx context.Context, ref occurrence.Ref) ([]*job.ReminderJob, error) {
	return s.jobs.ListByPrefix(ctx, ref.Prefix())
}

func (s *reminderServiceImpl) ListVisibleJobs(ctx context.Context, a userEntity.Actor, ref occurrence.Ref) ([]*job.ReminderJob, error) {
	ok, err := s.resolver.visible(ctx, a, ref)
	if err != nil {
		return nil, fmt.Errorf("load target %s: %w", ref, err)
	}
	if !ok {
		return nil, xerr.ErrNotFound
	}
	return s.ListJobs(ctx, ref)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
