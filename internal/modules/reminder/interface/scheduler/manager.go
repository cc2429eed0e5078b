package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"OrgCalendar/internal/config"
	"OrgCalendar/internal/modules/reminder/application/service"
	"OrgCalendar/internal/modules/reminder/domain/job"
	"OrgCalendar/internal/modules/reminder/domain/repository"
	"OrgCalendar/pkg/metrics"
	"OrgCalendar/pkg/redis"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/util"
	"OrgCalendar/pkg/zlog"
)

const sweepLockKey = "calendar:reminder:sweep:lock"

// Options 调度器参数
type Options struct {
	Workers    int
	Poll       time.Duration
	MaxRetries int
	SweepCron  string
	// StaleAfter running 状态超过该时长视为执行者已崩溃
	StaleAfter time.Duration
	// RetryBackoff 第 n 次重试推迟 n*RetryBackoff
	RetryBackoff time.Duration
}

func OptionsFrom(conf config.ReminderConfig) Options {
	o := Options{
		Workers:      4,
		Poll:         5 * time.Second,
		MaxRetries:   3,
		SweepCron:    "@every 30m",
		StaleAfter:   5 * time.Minute,
		RetryBackoff: 30 * time.Second,
	}
	if conf.Workers > 0 {
		o.Workers = conf.Workers
	}
	if conf.PollSeconds > 0 {
		o.Poll = time.Duration(conf.PollSeconds) * time.Second
	}
	if conf.MaxRetries > 0 {
		o.MaxRetries = conf.MaxRetries
	}
	if conf.SweepCron != "" {
		o.SweepCron = conf.SweepCron
	}
	return o
}

type SchedulerManager struct {
	cron     *cron.Cron
	jobRepo  repository.ReminderJobRepository
	reminder service.ReminderService
	handler  service.JobHandler
	clock    *storetime.Clock
	opts     Options
	// owner 扫描锁的持有者标识
	owner string

	queue    chan *job.ReminderJob
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewSchedulerManager(repo repository.ReminderJobRepository, reminder service.ReminderService, handler service.JobHandler, clock *storetime.Clock, opts Options) *SchedulerManager {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &SchedulerManager{
		// 标准5段Cron表达式, 也支持 @every
		cron:     cron.New(),
		jobRepo:  repo,
		reminder: reminder,
		handler:  handler,
		clock:    clock,
		opts:     opts,
		owner:    util.InstanceID(),
		queue:    make(chan *job.ReminderJob, opts.Workers*2),
		stopChan: make(chan struct{}),
	}
}

func (m *SchedulerManager) Start() error {
	ctx := context.Background()
	now := m.clock.Now()
	// 上次进程退出时未执行完的任务重新入队
	if n, err := m.jobRepo.ReleaseStale(ctx, now.Add(-m.opts.StaleAfter), now); err != nil {
		zlog.Warn("release stale reminder jobs failed", zap.Error(err))
	} else if n > 0 {
		zlog.Info("released stale reminder jobs", zap.Int64("count", n))
	}

	if _, err := m.cron.AddFunc(m.opts.SweepCron, m.sweep); err != nil {
		return fmt.Errorf("schedule reminder sweep %q: %w", m.opts.SweepCron, err)
	}
	m.cron.Start()

	for i := 0; i < m.opts.Workers; i++ {
		m.wg.Add(1)
		go m.runWorker()
	}
	m.wg.Add(1)
	go m.runPoller()

	// 启动时回填一次
	go m.sweep()
	zlog.Info("reminder scheduler started", zap.Int("workers", m.opts.Workers), zap.String("sweep", m.opts.SweepCron))
	return nil
}

func (m *SchedulerManager) Stop() {
	m.stopOnce.Do(func() {
		<-m.cron.Stop().Done()
		close(m.stopChan)
		m.wg.Wait()
		zlog.Info("reminder scheduler stopped")
	})
}

// sweep 多实例部署时用 Redis 锁保证同一时刻只有一个实例在扫描
func (m *SchedulerManager) sweep() {
	ctx := context.Background()
	if redis.IsConnected() {
		ok, err := redis.Lock(ctx, sweepLockKey, m.owner, 10*time.Minute)
		if err != nil {
			zlog.Warn("acquire sweep lock failed, sweep anyway", zap.Error(err))
		} else if !ok {
			zlog.Debug("reminder sweep running elsewhere, skip")
			return
		} else {
			defer func() {
				if released, err := redis.Unlock(ctx, sweepLockKey, m.owner); err != nil {
					zlog.Warn("release sweep lock failed", zap.Error(err))
				} else if !released {
					zlog.Warn("sweep lock expired before release")
				}
			}()
		}
	}
	if _, err := m.reminder.CheckNow(ctx); err != nil {
		zlog.Error("reminder sweep failed", zap.Error(err))
	}
}

func (m *SchedulerManager) runPoller() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.opts.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.pollAndDispatch()
		case <-m.stopChan:
			close(m.queue)
			return
		}
	}
}

func (m *SchedulerManager) pollAndDispatch() {
	ctx := context.Background()
	jobs, err := m.jobRepo.ClaimDue(ctx, m.clock.Now(), cap(m.queue))
	if err != nil {
		zlog.Error("claim reminder jobs failed", zap.Error(err))
		return
	}
	for _, j := range jobs {
		select {
		case m.queue <- j:
		case <-m.stopChan:
			// 已领取未执行的任务在下次启动时由 ReleaseStale 放回
			return
		}
	}
}

func (m *SchedulerManager) runWorker() {
	defer m.wg.Done()
	for j := range m.queue {
		m.execute(j)
	}
}

func (m *SchedulerManager) execute(j *job.ReminderJob) {
	ctx := context.Background()
	defer func() {
		if r := recover(); r != nil {
			m.fail(ctx, j, fmt.Sprintf("panic: %v", r))
		}
	}()

	outcome, err := m.handler.Handle(ctx, j)
	if err != nil {
		m.fail(ctx, j, err.Error())
		return
	}
	if err := m.jobRepo.MarkFired(ctx, j.Id, m.clock.Now()); err != nil {
		zlog.Error("mark reminder job fired failed", zap.Int64("id", j.Id), zap.Error(err))
	}
	metrics.ReminderJobsFinished.WithLabelValues(j.TriggerType, outcome).Inc()
}

func (m *SchedulerManager) fail(ctx context.Context, j *job.ReminderJob, msg string) {
	if j.RetryCount+1 >= m.opts.MaxRetries {
		if err := m.jobRepo.MarkFailed(ctx, j.Id, m.clock.Now(), msg); err != nil {
			zlog.Error("mark reminder job failed failed", zap.Int64("id", j.Id), zap.Error(err))
		}
		metrics.ReminderJobsFinished.WithLabelValues(j.TriggerType, "failed").Inc()
		zlog.Error("reminder job gave up", zap.String("job_key", j.JobKey), zap.String("error", msg))
		return
	}
	// 线性退避
	next := m.clock.Now().Add(time.Duration(j.RetryCount+1) * m.opts.RetryBackoff)
	if err := m.jobRepo.MarkRetry(ctx, j.Id, next, msg); err != nil {
		zlog.Error("reschedule reminder job failed", zap.Int64("id", j.Id), zap.Error(err))
	}
	zlog.Warn("reminder job will retry", zap.String("job_key", j.JobKey), zap.Int("retry", j.RetryCount+1), zap.String("error", msg))
}
