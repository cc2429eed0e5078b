package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"OrgCalendar/internal/modules/calendar/application/effect"
	calendarRepository "OrgCalendar/internal/modules/calendar/domain/repository"
	notificationService "OrgCalendar/internal/modules/notification/application/service"
	"OrgCalendar/internal/modules/reminder/domain/job"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/zlog"
)

// 任务执行结果
const (
	OutcomeFired      = "fired"
	OutcomeSuppressed = "suppressed"
)

// Broadcaster 实时变更推送
type Broadcaster interface {
	Broadcast(changeType string, payload any, excludeUser string) int
}

type JobHandler interface {
	// Handle 重新校验目标后发送通知, 返回执行结果; 返回错误时由调度器重试
	Handle(ctx context.Context, j *job.ReminderJob) (string, error)
}

type jobHandlerImpl struct {
	resolver    targetResolver
	notifier    notificationService.FanoutService
	broadcaster Broadcaster
	settings    Settings
	clock       *storetime.Clock
}

func NewJobHandler(
	events calendarRepository.EventRepository,
	series calendarRepository.EventSeriesRepository,
	exceptions calendarRepository.EventExceptionRepository,
	notifier notificationService.FanoutService,
	broadcaster Broadcaster,
	settings Settings,
	clock *storetime.Clock,
) JobHandler {
	return &jobHandlerImpl{
		resolver:    targetResolver{events: events, series: series, exceptions: exceptions},
		notifier:    notifier,
		broadcaster: broadcaster,
		settings:    settings,
		clock:       clock,
	}
}

func (h *jobHandlerImpl) Handle(ctx context.Context, j *job.ReminderJob) (string, error) {
	t, ok, err := h.resolver.resolve(ctx, j.Ref())
	if err != nil {
		return "", fmt.Errorf("resolve target %s: %w", j.JobKey, err)
	}
	if !ok {
		return h.suppress(j, "target gone"), nil
	}
	// 时间已被修改, 新任务会按新时间重新调度
	if !t.Start.Equal(j.TargetStart) || !t.End.Equal(j.TargetEnd) {
		return h.suppress(j, "target moved"), nil
	}
	switch j.TriggerType {
	case job.TriggerOverdue:
		if !h.clock.IsPast(t.End) {
			return h.suppress(j, "not ended"), nil
		}
	default:
		if !t.AlertEnabled {
			return h.suppress(j, "alert disabled"), nil
		}
	}

	title, message := h.render(j, t)
	res, err := h.notifier.Notify(ctx, notificationService.Request{
		Type:    job.NotificationType(j.TriggerType),
		Title:   title,
		Message: message,
		Context: notificationService.Context{
			CreatorID:    t.CreatorID,
			TargetUserID: t.CreatorID,
			Placement:    t.Placement,
			RelatedRef:   t.Ref.String(),
			TimeKey:      j.TimeKey(),
			Metadata: map[string]any{
				"trigger":   j.TriggerType,
				"offset":    j.TriggerOffsetMinutes,
				"startTime": storetime.FormatWall(t.Start),
				"endTime":   storetime.FormatWall(t.End),
			},
			Shares:      t.Shares,
			DedupWindow: h.settings.DedupWindow,
		},
	})
	if err != nil {
		return "", fmt.Errorf("notify %s: %w", j.JobKey, err)
	}

	if res.Total() > 0 && h.broadcaster != nil {
		h.broadcaster.Broadcast(effect.ChangeNotificationCreated, map[string]any{
			"ref":     t.Ref.String(),
			"trigger": j.TriggerType,
		}, "")
	}
	zlog.Info("reminder fired",
		zap.String("job_key", j.JobKey),
		zap.Int("recipients", len(res.Recipients)),
		zap.Int("shared", len(res.Shared)))
	return OutcomeFired, nil
}

func (h *jobHandlerImpl) suppress(j *job.ReminderJob, reason string) string {
	zlog.Debug("reminder suppressed", zap.String("job_key", j.JobKey), zap.String("reason", reason))
	return OutcomeSuppressed
}

func (h *jobHandlerImpl) render(j *job.ReminderJob, t Target) (string, string) {
	start := t.Start.Format("01-02 15:04")
	end := t.End.Format("01-02 15:04")
	switch j.TriggerType {
	case job.TriggerDueSoon:
		return "即将截止: " + t.Title,
			fmt.Sprintf("「%s」将于 %s 截止, 请及时处理", t.Title, end)
	case job.TriggerOverdue:
		return "已逾期: " + t.Title,
			fmt.Sprintf("「%s」已于 %s 截止, 仍未完成", t.Title, end)
	default:
		return "日程提醒: " + t.Title,
			fmt.Sprintf("「%s」将于 %s 开始 (提前 %d 分钟提醒)", t.Title, start, j.TriggerOffsetMinutes)
	}
}
