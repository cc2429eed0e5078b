package service

import (
	"context"
	"strings"

	"OrgCalendar/internal/modules/calendar/application/dto/request"
	"OrgCalendar/internal/modules/calendar/application/dto/respond"
	"OrgCalendar/internal/modules/calendar/application/effect"
	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/repository"
	notificationEntity "OrgCalendar/internal/modules/notification/domain/entity"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/util"
)

type EventService interface {
	Get(ctx context.Context, a userEntity.Actor, req request.EventIdRequest) (*respond.EventRespond, error)
	Create(ctx context.Context, a userEntity.Actor, req request.CreateEventRequest) (*respond.EventRespond, error)
	Update(ctx context.Context, a userEntity.Actor, req request.UpdateEventRequest) (*respond.EventRespond, error)
	Delete(ctx context.Context, a userEntity.Actor, req request.EventIdRequest) (*respond.DeletedRespond, error)
	Complete(ctx context.Context, a userEntity.Actor, req request.EventIdRequest) (*respond.EventRespond, error)
	Uncomplete(ctx context.Context, a userEntity.Actor, req request.EventIdRequest) (*respond.EventRespond, error)
}

type eventServiceImpl struct {
	core
}

func NewEventService(repos repository.TxRepos, uow repository.CalendarUnitOfWork, sink EffectSink, clock *storetime.Clock, opts Options) EventService {
	return &eventServiceImpl{core: newCore(repos, uow, sink, clock, opts)}
}

func (s *eventServiceImpl) Get(ctx context.Context, a userEntity.Actor, req request.EventIdRequest) (*respond.EventRespond, error) {
	ev, err := s.loadEvent(ctx, a, req.Id)
	if err != nil {
		return nil, err
	}
	r := s.eventRespond(a, ev)
	return &r, nil
}

func (s *eventServiceImpl) Create(ctx context.Context, a userEntity.Actor, req request.CreateEventRequest) (*respond.EventRespond, error) {
	ev, shares, err := s.buildEvent(a, req)
	if err != nil {
		return nil, err
	}
	err = s.uow.Transaction(ctx, func(tx repository.TxRepos) error {
		if err := tx.Events.Create(ctx, ev); err != nil {
			return err
		}
		return tx.Shares.Replace(ctx, entity.SharedEntityEvent, ev.Id, shares)
	})
	if err != nil {
		return nil, storeError(err)
	}
	ev.SharedTargets = shares

	r := s.eventRespond(a, ev)
	s.dispatch(ctx, []effect.Effect{
		effect.ScheduleReminders{Ref: ev.Ref()},
		notify(notificationEntity.TypeEventCreated, "新日程: "+ev.Title, timeSpan(ev.StartTime, ev.EndTime),
			a, ev.Subject(), ev.Ref(), ev.Shares(), nil),
		effect.Broadcast{ChangeType: effect.ChangeEventCreated, Payload: r, ExcludeUser: a.UserID},
	})
	return &r, nil
}

func (s *eventServiceImpl) buildEvent(a userEntity.Actor, req request.CreateEventRequest) (*entity.Event, []entity.SharedTarget, error) {
	title, err := validTitle(req.Title)
	if err != nil {
		return nil, nil, err
	}
	start, err := s.parseTime("startTime", req.StartTime)
	if err != nil {
		return nil, nil, err
	}
	end, err := s.parseTime("endTime", req.EndTime)
	if err != nil {
		return nil, nil, err
	}
	if err := checkRange(start, end); err != nil {
		return nil, nil, err
	}
	priority, err := validPriority(req.Priority)
	if err != nil {
		return nil, nil, err
	}
	offsets, err := validOffsets(req.RemindOffsets)
	if err != nil {
		return nil, nil, err
	}

	ev := &entity.Event{
		Id:            util.GenerateUUID(),
		Title:         title,
		Content:       strings.TrimSpace(req.Content),
		StartTime:     start,
		EndTime:       end,
		Status:        entity.StatusPending,
		Priority:      priority,
		AlertEnabled:  req.AlertEnabled == nil || *req.AlertEnabled,
		RemindOffsets: offsets,
		CreatorId:     a.UserID,
		DepartmentId:  a.DepartmentID,
		OfficeId:      a.OfficeID,
		DivisionId:    a.DivisionID,
	}
	shares, err := sharedTargets(entity.SharedEntityEvent, ev.Id, req.SharedTargets)
	if err != nil {
		return nil, nil, err
	}
	return ev, shares, nil
}

func (s *eventServiceImpl) Update(ctx context.Context, a userEntity.Actor, req request.UpdateEventRequest) (*respond.EventRespond, error) {
	ev, err := s.loadEvent(ctx, a, req.Id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(a, ev.Subject()); err != nil {
		return nil, err
	}

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
	var shares []entity.SharedTarget
	if req.SharedTargets != nil {
		if shares, err = sharedTargets(entity.SharedEntityEvent, ev.Id, *req.SharedTargets); err != nil {
			return nil, err
		}
	}

	err = s.uow.Transaction(ctx, func(tx repository.TxRepos) error {
		if err := tx.Events.Save(ctx, ev); err != nil {
			return err
		}
		if req.SharedTargets == nil {
			return nil
		}
		return tx.Shares.Replace(ctx, entity.SharedEntityEvent, ev.Id, shares)
	})
	if err != nil {
		return nil, storeError(err)
	}
	if req.SharedTargets != nil {
		ev.SharedTargets = shares
	}

	r := s.eventRespond(a, ev)
	effects := []effect.Effect{}
	if !ev.IsDone() {
		effects = append(effects, effect.Reschedule(ev.Ref())...)
	}
	effects = append(effects,
		notify(notificationEntity.TypeEventUpdated, "日程已修改: "+ev.Title, timeSpan(ev.StartTime, ev.EndTime),
			a, ev.Subject(), ev.Ref(), ev.Shares(), nil),
		effect.Broadcast{ChangeType: effect.ChangeEventUpdated, Payload: r, ExcludeUser: a.UserID},
	)
	s.dispatch(ctx, effects)
	return &r, nil
}

// Delete 删除物化实例时保留系列上的例外, 虚拟实例不会重新出现
func (s *eventServiceImpl) Delete(ctx context.Context, a userEntity.Actor, req request.EventIdRequest) (*respond.DeletedRespond, error) {
	ev, err := s.loadEvent(ctx, a, req.Id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(a, ev.Subject()); err != nil {
		return nil, err
	}
	err = s.uow.Transaction(ctx, func(tx repository.TxRepos) error {
		if err := tx.Shares.DeleteByEntity(ctx, entity.SharedEntityEvent, ev.Id); err != nil {
			return err
		}
		return tx.Events.Delete(ctx, ev.Id)
	})
	if err != nil {
		return nil, storeError(err)
	}

	out := &respond.DeletedRespond{Ref: ev.Ref().String()}
	s.dispatch(ctx, []effect.Effect{
		effect.CancelReminders{Ref: ev.Ref()},
		notify(notificationEntity.TypeEventDeleted, "日程已删除: "+ev.Title, timeSpan(ev.StartTime, ev.EndTime),
			a, ev.Subject(), ev.Ref(), ev.Shares(), nil),
		effect.Broadcast{ChangeType: effect.ChangeEventDeleted, Payload: out, ExcludeUser: a.UserID},
	})
	return out, nil
}

func (s *eventServiceImpl) Complete(ctx context.Context, a userEntity.Actor, req request.EventIdRequest) (*respond.EventRespond, error) {
	ev, err := s.loadEvent(ctx, a, req.Id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(a, ev.Subject()); err != nil {
		return nil, err
	}
	if ev.IsDone() {
		r := s.eventRespond(a, ev)
		return &r, nil
	}

	at := s.clock.StoredNow()
	ev.Status = entity.StatusDone
	ev.CompletedAt = &at
	if err := s.repos.Events.Save(ctx, ev); err != nil {
		return nil, storeError(err)
	}

	r := s.eventRespond(a, ev)
	s.dispatch(ctx, []effect.Effect{
		effect.CancelReminders{Ref: ev.Ref()},
		notify(notificationEntity.TypeEventCompleted, "日程已完成: "+ev.Title, timeSpan(ev.StartTime, ev.EndTime),
			a, ev.Subject(), ev.Ref(), nil, nil),
		effect.Broadcast{ChangeType: effect.ChangeEventCompleted, Payload: r, ExcludeUser: a.UserID},
	})
	return &r, nil
}

func (s *eventServiceImpl) Uncomplete(ctx context.Context, a userEntity.Actor, req request.EventIdRequest) (*respond.EventRespond, error) {
	ev, err := s.loadEvent(ctx, a, req.Id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(a, ev.Subject()); err != nil {
		return nil, err
	}
	if !ev.IsDone() {
		r := s.eventRespond(a, ev)
		return &r, nil
	}

	ev.Status = entity.StatusPending
	ev.CompletedAt = nil
	if err := s.repos.Events.Save(ctx, ev); err != nil {
		return nil, storeError(err)
	}

	r := s.eventRespond(a, ev)
	s.dispatch(ctx, []effect.Effect{
		effect.ScheduleReminders{Ref: ev.Ref()},
		notify(notificationEntity.TypeEventUncompleted, "日程已恢复: "+ev.Title, timeSpan(ev.StartTime, ev.EndTime),
			a, ev.Subject(), ev.Ref(), nil, nil),
		effect.Broadcast{ChangeType: effect.ChangeEventUpdated, Payload: r, ExcludeUser: a.UserID},
	})
	return &r, nil
}
