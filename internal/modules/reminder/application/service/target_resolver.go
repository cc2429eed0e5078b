package service

import (
	"context"
	"time"

	calendarEntity "OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	calendarRepository "OrgCalendar/internal/modules/calendar/domain/repository"
	"OrgCalendar/internal/modules/calendar/domain/scope"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
)

// targetResolver 重新读取提醒目标, 已删除/已完成/已变为例外的返回 false
type targetResolver struct {
	events     calendarRepository.EventRepository
	series     calendarRepository.EventSeriesRepository
	exceptions calendarRepository.EventExceptionRepository
}

func (r targetResolver) resolve(ctx context.Context, ref occurrence.Ref) (Target, bool, error) {
	switch ref.Kind {
	case occurrence.KindEvent:
		ev, err := r.events.GetByID(ctx, ref.EventID)
		if err != nil || ev == nil || ev.IsDone() {
			return Target{}, false, err
		}
		return EventTarget(ev), true, nil
	case occurrence.KindSeriesOccurrence:
		s, err := r.series.GetByID(ctx, ref.SeriesID)
		if err != nil || s == nil || s.IsDone() {
			return Target{}, false, err
		}
		if !occurrence.IsOccurrenceDate(s.Recurrence(), ref.Date) {
			return Target{}, false, nil
		}
		excepted, err := r.exceptions.Exists(ctx, s.Id, ref.Date)
		if err != nil || excepted {
			return Target{}, false, err
		}
		return OccurrenceTarget(s, ref.Date), true, nil
	}
	return Target{}, false, nil
}

// visible 只看目标是否存在以及 actor 能否查看, 不管完成状态
func (r targetResolver) visible(ctx context.Context, a userEntity.Actor, ref occurrence.Ref) (bool, error) {
	switch ref.Kind {
	case occurrence.KindEvent:
		ev, err := r.events.GetByID(ctx, ref.EventID)
		if err != nil || ev == nil {
			return false, err
		}
		return scope.CanView(a, ev.Subject(), ev.Shares()), nil
	case occurrence.KindSeriesOccurrence:
		s, err := r.series.GetByID(ctx, ref.SeriesID)
		if err != nil || s == nil {
			return false, err
		}
		return scope.CanView(a, s.Subject(), s.Shares()), nil
	}
	return false, nil
}

func EventTarget(ev *calendarEntity.Event) Target {
	return Target{
		Ref:           ev.Ref(),
		Title:         ev.Title,
		Start:         ev.StartTime,
		End:           ev.EndTime,
		AlertEnabled:  ev.AlertEnabled,
		RemindOffsets: ev.RemindOffsets,
		CreatorID:     ev.CreatorId,
		Placement:     ev.Placement(),
		Shares:        ev.Shares(),
	}
}

func OccurrenceTarget(s *calendarEntity.EventSeries, date time.Time) Target {
	start, end := occurrence.OccurrenceTimes(s.Recurrence(), date)
	return Target{
		Ref:           occurrence.OccurrenceRef(s.Id, date),
		Title:         s.Title,
		Start:         start,
		End:           end,
		AlertEnabled:  s.AlertEnabled,
		RemindOffsets: s.RemindOffsets,
		CreatorID:     s.CreatorId,
		Placement:     s.Placement(),
		Shares:        s.Shares(),
	}
}
