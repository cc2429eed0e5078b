package dispatch

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"OrgCalendar/internal/modules/calendar/application/effect"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	notificationService "OrgCalendar/internal/modules/notification/application/service"
	"OrgCalendar/pkg/metrics"
	"OrgCalendar/pkg/zlog"
)

type ReminderScheduler interface {
	Schedule(ctx context.Context, ref occurrence.Ref) (int, error)
	Cancel(ctx context.Context, ref occurrence.Ref) error
}

type Notifier interface {
	Notify(ctx context.Context, req notificationService.Request) (notificationService.Result, error)
}

type Broadcaster interface {
	Broadcast(changeType string, payload any, excludeUser string) int
}

// Dispatcher 按顺序执行副作用, 单个失败只记录日志, 不影响后续副作用
type Dispatcher struct {
	reminders   ReminderScheduler
	notifier    Notifier
	broadcaster Broadcaster
}

func NewDispatcher(reminders ReminderScheduler, notifier Notifier, broadcaster Broadcaster) *Dispatcher {
	return &Dispatcher{reminders: reminders, notifier: notifier, broadcaster: broadcaster}
}

// Dispatch 返回汇总后的错误, 仅供调用方记录
func (d *Dispatcher) Dispatch(ctx context.Context, effects []effect.Effect) error {
	if len(effects) == 0 {
		return nil
	}
	// 请求结束不应打断已提交变更的副作用
	ctx = context.WithoutCancel(ctx)

	var errs *multierror.Error
	for _, e := range effects {
		if err := d.run(ctx, e); err != nil {
			metrics.EffectFailures.WithLabelValues(e.Kind()).Inc()
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", e.Kind(), err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		zlog.Warn("calendar side effects failed", zap.Int("total", len(effects)), zap.Error(err))
		return err
	}
	return nil
}

func (d *Dispatcher) run(ctx context.Context, e effect.Effect) error {
	switch v := e.(type) {
	case effect.ScheduleReminders:
		if d.reminders == nil {
			return nil
		}
		_, err := d.reminders.Schedule(ctx, v.Ref)
		return err
	case effect.CancelReminders:
		if d.reminders == nil {
			return nil
		}
		return d.reminders.Cancel(ctx, v.Ref)
	case effect.Notify:
		if d.notifier == nil {
			return nil
		}
		res, err := d.notifier.Notify(ctx, v.Request)
		if err != nil {
			return err
		}
		if res.Total() > 0 && d.broadcaster != nil {
			d.broadcaster.Broadcast(effect.ChangeNotificationCreated, map[string]any{
				"type": v.Request.Type,
				"ref":  v.Request.Context.RelatedRef,
			}, v.Request.Context.ActorID)
		}
		return nil
	case effect.Broadcast:
		if d.broadcaster != nil {
			d.broadcaster.Broadcast(v.ChangeType, v.Payload, v.ExcludeUser)
		}
		return nil
	}
	return fmt.Errorf("unknown effect %T", e)
}
