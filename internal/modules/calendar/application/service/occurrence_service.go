package service

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"

	"OrgCalendar/internal/modules/calendar/application/dto/request"
	"OrgCalendar/internal/modules/calendar/application/dto/respond"
	"OrgCalendar/internal/modules/calendar/application/effect"
	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/calendar/domain/repository"
	notificationEntity "OrgCalendar/internal/modules/notification/domain/entity"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/util"
	"OrgCalendar/pkg/xerr"
)

// OccurrenceService 单次修改/删除/完成系列中的某个实例.
// 修改和完成会把实例物化为独立事件, 并在系列上记录例外日期
type OccurrenceService interface {
	Update(ctx context.Context, a userEntity.Actor, req request.UpdateOccurrenceRequest) (*respond.EventRespond, error)
	Delete(ctx context.Context, a userEntity.Actor, req request.OccurrenceRequest) (*respond.DeletedRespond, error)
	Complete(ctx context.Context, a userEntity.Actor, req request.OccurrenceRequest) (*respond.EventRespond, error)
}

type occurrenceServiceImpl struct {
	core
}

func NewOccurrenceService(repos repository.TxRepos, uow repository.CalendarUnitOfWork, sink EffectSink, clock *storetime.Clock, opts Options) OccurrenceService {
	return &occurrenceServiceImpl{core: newCore(repos, uow, sink, clock, opts)}
}

var errOccurrenceNotFound = xerr.NewWithReason(xerr.NotFound, xerr.ReasonOccurrenceNotFound, "该日期没有可操作的实例")

// locate 校验系列可编辑, 且该日期是尚未被单独处理过的实例
func (s *occurrenceServiceImpl) locate(ctx context.Context, a userEntity.Actor, seriesID, date string) (*entity.EventSeries, time.Time, error) {
	d, err := parseDate("date", date)
	if err != nil {
		return nil, time.Time{}, err
	}
	sr, err := s.loadSeries(ctx, a, seriesID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := requireEdit(a, sr.Subject()); err != nil {
		return nil, time.Time{}, err
	}
	if !occurrence.IsOccurrenceDate(sr.Recurrence(), d) {
		return nil, time.Time{}, errOccurrenceNotFound
	}
	excepted, err := s.repos.Exceptions.Exists(ctx, sr.Id, d)
	if err != nil {
		return nil, time.Time{}, storeError(err)
	}
	if excepted {
		return nil, time.Time{}, errOccurrenceNotFound
	}
	return sr, d, nil
}

// materialize 按系列模板生成该日期的独立事件, 共享目标一并复制
func materialize(sr *entity.EventSeries, date time.Time) (*entity.Event, []entity.SharedTarget) {
	start, end := occurrence.OccurrenceTimes(sr.Recurrence(), date)
	seriesID := sr.Id
	d := datatypes.Date(date)
	ev := &entity.Event{
		Id:               util.GenerateUUID(),
		Title:            sr.Title,
		Content:          sr.Content,
		StartTime:        start,
		EndTime:          end,
		Status:           entity.StatusPending,
		Priority:         sr.Priority,
		AlertEnabled:     sr.AlertEnabled,
		RemindOffsets:    sr.RemindOffsets,
		CreatorId:        sr.CreatorId,
		DepartmentId:     sr.DepartmentId,
		OfficeId:         sr.OfficeId,
		DivisionId:       sr.DivisionId,
		SeriesId:         &seriesID,
		IsException:      true,
		OriginalSeriesId: &seriesID,
		OriginalDate:     &d,
	}
	shares := make([]entity.SharedTarget, 0, len(sr.SharedTargets))
	for _, t := range sr.SharedTargets {
		shares = append(shares, entity.SharedTarget{
			EntityType:   entity.SharedEntityEvent,
			EntityID:     ev.Id,
			OfficeId:     t.OfficeId,
			DepartmentId: t.DepartmentId,
			Positions:    t.Positions,
		})
	}
	return ev, shares
}

// persist 例外和物化事件在同一事务内写入
func (s *occurrenceServiceImpl) persist(ctx context.Context, sr *entity.EventSeries, date time.Time, reason string, ev *entity.Event, shares []entity.SharedTarget) error {
	err := s.uow.Transaction(ctx, func(tx repository.TxRepos) error {
		if err := tx.Exceptions.Create(ctx, &entity.EventException{
			SeriesId:      sr.Id,
			ExceptionDate: datatypes.Date(date),
			Reason:        reason,
		}); err != nil {
			return err
		}
		if ev == nil {
			return nil
		}
		if err := tx.Events.Create(ctx, ev); err != nil {
			return err
		}
		return tx.Shares.Replace(ctx, entity.SharedEntityEvent, ev.Id, shares)
	})
	return storeError(err)
}

func (s *occurrenceServiceImpl) Update(ctx context.Context, a userEntity.Actor, req request.UpdateOccurrenceRequest) (*respond.EventRespond, error) {
	sr, date, err := s.locate(ctx, a, req.SeriesId, req.Date)
	if err != nil {
		return nil, err
	}
	ev, shares := materialize(sr, date)

	if req.Title != nil {
		if ev.Title, err = validTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Content != nil {
		ev.Content = strings.TrimSpace(*req.Content)
	}
	if req.StartTime != nil {
		if ev.StartTime, err = s.parseTime("startTime", *req.StartTime); err != nil {
			return nil, err
		}
	}
	if req.EndTime != nil {
		if ev.EndTime, err = s.parseTime("endTime", *req.EndTime); err != nil {
			return nil, err
		}
	}
	if err := checkRange(ev.StartTime, ev.EndTime); err != nil {
		return nil, err
	}
	if req.Priority != nil {
		if ev.Priority, err = validPriority(*req.Priority); err != nil {
			return nil, err
		}
	}
	if req.AlertEnabled != nil {
		ev.AlertEnabled = *req.AlertEnabled
	}
	if req.RemindOffsets != nil {
		if ev.RemindOffsets, err = validOffsets(*req.RemindOffsets); err != nil {
			return nil, err
		}
	}
	if sr.IsDone() {
		at := s.clock.StoredNow()
		ev.Status = entity.StatusDone
		ev.CompletedAt = &at
	}

	if err := s.persist(ctx, sr, date, entity.ExceptionEdited, ev, shares); err != nil {
		return nil, err
	}
	ev.SharedTargets = shares

	ref := occurrence.OccurrenceRef(sr.Id, date)
	r := s.eventRespond(a, ev)
	effects := []effect.Effect{effect.CancelReminders{Ref: ref}}
	if !ev.IsDone() {
		effects = append(effects, effect.ScheduleReminders{Ref: ev.Ref()})
	}
	effects = append(effects,
		notify(notificationEntity.TypeEventUpdated, "日程已修改: "+ev.Title, timeSpan(ev.StartTime, ev.EndTime),
			a, ev.Subject(), ev.Ref(), ev.Shares(), map[string]any{"occurrence": ref.String()}),
		effect.Broadcast{ChangeType: effect.ChangeOccurrenceUpdated, Payload: map[string]any{
			"ref":   ref.String(),
			"event": r,
		}, ExcludeUser: a.UserID},
	)
	s.dispatch(ctx, effects)
	return &r, nil
}

func (s *occurrenceServiceImpl) Delete(ctx context.Context, a userEntity.Actor, req request.OccurrenceRequest) (*respond.DeletedRespond, error) {
	sr, date, err := s.locate(ctx, a, req.SeriesId, req.Date)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sr, date, entity.ExceptionSkipped, nil, nil); err != nil {
		return nil, err
	}

	ref := occurrence.OccurrenceRef(sr.Id, date)
	start, end := occurrence.OccurrenceTimes(sr.Recurrence(), date)
	out := &respond.DeletedRespond{Ref: ref.String()}
	s.dispatch(ctx, []effect.Effect{
		effect.CancelReminders{Ref: ref},
		notify(notificationEntity.TypeEventDeleted, "日程已删除: "+sr.Title, timeSpan(start, end),
			a, sr.Subject(), ref, sr.Shares(), nil),
		effect.Broadcast{ChangeType: effect.ChangeOccurrenceDeleted, Payload: out, ExcludeUser: a.UserID},
	})
	return out, nil
}

func (s *occurrenceServiceImpl) Complete(ctx context.Context, a userEntity.Actor, req request.OccurrenceRequest) (*respond.EventRespond, error) {
	sr, date, err := s.locate(ctx, a, req.SeriesId, req.Date)
	if err != nil {
		return nil, err
	}
	ev, shares := materialize(sr, date)
	at := s.clock.StoredNow()
	ev.Status = entity.StatusDone
	ev.CompletedAt = &at

	if err := s.persist(ctx, sr, date, entity.ExceptionCompleted, ev, shares); err != nil {
		return nil, err
	}
	ev.SharedTargets = shares

	ref := occurrence.OccurrenceRef(sr.Id, date)
	r := s.eventRespond(a, ev)
	s.dispatch(ctx, []effect.Effect{
		effect.CancelReminders{Ref: ref},
		notify(notificationEntity.TypeEventCompleted, "日程已完成: "+ev.Title, timeSpan(ev.StartTime, ev.EndTime),
			a, ev.Subject(), ev.Ref(), nil, map[string]any{"occurrence": ref.String()}),
		effect.Broadcast{ChangeType: effect.ChangeOccurrenceCompleted, Payload: map[string]any{
			"ref":   ref.String(),
			"event": r,
		}, ExcludeUser: a.UserID},
	})
	return &r, nil
}
