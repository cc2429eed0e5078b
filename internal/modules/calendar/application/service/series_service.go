package service

import (
	"context"
	"fmt"
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

type SeriesService interface {
	Get(ctx context.Context, a userEntity.Actor, req request.SeriesIdRequest) (*respond.SeriesRespond, error)
	Create(ctx context.Context, a userEntity.Actor, req request.CreateSeriesRequest) (*respond.SeriesRespond, error)
	Update(ctx context.Context, a userEntity.Actor, req request.UpdateSeriesRequest) (*respond.SeriesRespond, error)
	// Delete 级联删除例外和物化实例
	Delete(ctx context.Context, a userEntity.Actor, req request.SeriesIdRequest) (*respond.DeletedRespond, error)
	// Complete 整个系列完成, 已物化的实例一并标记为完成
	Complete(ctx context.Context, a userEntity.Actor, req request.SeriesIdRequest) (*respond.SeriesRespond, error)
}

type seriesServiceImpl struct {
	core
}

func NewSeriesService(repos repository.TxRepos, uow repository.CalendarUnitOfWork, sink EffectSink, clock *storetime.Clock, opts Options) SeriesService {
	return &seriesServiceImpl{core: newCore(repos, uow, sink, clock, opts)}
}

func (s *seriesServiceImpl) Get(ctx context.Context, a userEntity.Actor, req request.SeriesIdRequest) (*respond.SeriesRespond, error) {
	sr, err := s.loadSeries(ctx, a, req.Id)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.repos.Exceptions.ListBySeries(ctx, sr.Id)
	if err != nil {
		return nil, storeError(err)
	}
	r := s.seriesRespond(a, sr)
	for _, ex := range exceptions {
		r.Exceptions = append(r.Exceptions, respond.ExceptionRespond{
			Date:   storetime.FormatDate(time.Time(ex.ExceptionDate)),
			Reason: ex.Reason,
		})
	}
	return &r, nil
}

func (s *seriesServiceImpl) Create(ctx context.Context, a userEntity.Actor, req request.CreateSeriesRequest) (*respond.SeriesRespond, error) {
	title, err := validTitle(req.Title)
	if err != nil {
		return nil, err
	}
	priority, err := validPriority(req.Priority)
	if err != nil {
		return nil, err
	}
	offsets, err := validOffsets(req.RemindOffsets)
	if err != nil {
		return nil, err
	}
	sr := &entity.EventSeries{
		Id:                 util.GenerateUUID(),
		Title:              title,
		Content:            strings.TrimSpace(req.Content),
		RecurrenceUnit:     strings.TrimSpace(req.RecurrenceUnit),
		RecurrenceInterval: req.RecurrenceInterval,
		DurationDays:       req.DurationDays,
		Status:             entity.StatusPending,
		Priority:           priority,
		AlertEnabled:       req.AlertEnabled == nil || *req.AlertEnabled,
		RemindOffsets:      offsets,
		CreatorId:          a.UserID,
		DepartmentId:       a.DepartmentID,
		OfficeId:           a.OfficeID,
		DivisionId:         a.DivisionID,
	}
	first, err := parseDate("firstOccurrenceDate", req.FirstOccurrenceDate)
	if err != nil {
		return nil, err
	}
	sr.FirstOccurrenceDate = datatypes.Date(first)
	if strings.TrimSpace(req.RecurrenceEndDate) != "" {
		end, err := parseDate("recurrenceEndDate", req.RecurrenceEndDate)
		if err != nil {
			return nil, err
		}
		d := datatypes.Date(end)
		sr.RecurrenceEndDate = &d
	}
	if sr.StartClock, err = parseClock("startClock", req.StartClock); err != nil {
		return nil, err
	}
	if sr.EndClock, err = parseClock("endClock", req.EndClock); err != nil {
		return nil, err
	}
	if err := validRecurrence(sr); err != nil {
		return nil, err
	}
	shares, err := sharedTargets(entity.SharedEntitySeries, sr.Id, req.SharedTargets)
	if err != nil {
		return nil, err
	}

	err = s.uow.Transaction(ctx, func(tx repository.TxRepos) error {
		if err := tx.Series.Create(ctx, sr); err != nil {
			return err
		}
		return tx.Shares.Replace(ctx, entity.SharedEntitySeries, sr.Id, shares)
	})
	if err != nil {
		return nil, storeError(err)
	}
	sr.SharedTargets = shares

	r := s.seriesRespond(a, sr)
	s.dispatch(ctx, []effect.Effect{
		effect.ScheduleReminders{Ref: sr.Ref()},
		notify(notificationEntity.TypeSeriesCreated, "新重复日程: "+sr.Title, recurrenceText(sr),
			a, sr.Subject(), sr.Ref(), sr.Shares(), nil),
		effect.Broadcast{ChangeType: effect.ChangeSeriesCreated, Payload: r, ExcludeUser: a.UserID},
	})
	return &r, nil
}

// validRecurrence 校验重复规则, 单日实例的结束时刻不能早于开始时刻
func validRecurrence(sr *entity.EventSeries) error {
	if !occurrence.Unit(sr.RecurrenceUnit).Valid() {
		return xerr.Validation(xerr.ReasonInvalidRecurrence, "重复单位只能是 day/week/month")
	}
	if sr.RecurrenceInterval < 1 {
		return xerr.Validation(xerr.ReasonInvalidRecurrence, "重复间隔必须大于 0")
	}
	if sr.DurationDays < 0 || sr.DurationDays > occurrence.MaxDurationDays {
		return xerr.Validation(xerr.ReasonInvalidRecurrence, "持续天数无效")
	}
	if sr.DurationDays == 0 && sr.EndClock < sr.StartClock {
		return xerr.Validation(xerr.ReasonInvalidTimeRange, "结束时间不能早于开始时间")
	}
	if sr.RecurrenceEndDate != nil && time.Time(*sr.RecurrenceEndDate).Before(time.Time(sr.FirstOccurrenceDate)) {
		return xerr.Validation(xerr.ReasonInvalidRecurrence, "结束日期不能早于首次日期")
	}
	return nil
}

func recurrenceText(sr *entity.EventSeries) string {
	unit := map[string]string{"day": "天", "week": "周", "month": "月"}[sr.RecurrenceUnit]
	text := fmt.Sprintf("每 %d %s, %s 起, %s-%s", sr.RecurrenceInterval, unit,
		storetime.FormatDate(time.Time(sr.FirstOccurrenceDate)), formatClock(sr.StartClock), formatClock(sr.EndClock))
	if sr.RecurrenceEndDate != nil {
		text += ", 至 " + storetime.FormatDate(time.Time(*sr.RecurrenceEndDate))
	}
	return text
}

func (s *seriesServiceImpl) Update(ctx context.Context, a userEntity.Actor, req request.UpdateSeriesRequest) (*respond.SeriesRespond, error) {
	sr, err := s.loadSeries(ctx, a, req.Id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(a, sr.Subject()); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if sr.Title, err = validTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Content != nil {
		sr.Content = strings.TrimSpace(*req.Content)
	}
	if req.RecurrenceUnit != nil {
		sr.RecurrenceUnit = strings.TrimSpace(*req.RecurrenceUnit)
	}
	if req.RecurrenceInterval != nil {
		sr.RecurrenceInterval = *req.RecurrenceInterval
	}
	if req.FirstOccurrenceDate != nil {
		first, err := parseDate("firstOccurrenceDate", *req.FirstOccurrenceDate)
		if err != nil {
			return nil, err
		}
		sr.FirstOccurrenceDate = datatypes.Date(first)
	}
	if req.RecurrenceEndDate != nil {
		sr.RecurrenceEndDate = nil
		if strings.TrimSpace(*req.RecurrenceEndDate) != "" {
			end, err := parseDate("recurrenceEndDate", *req.RecurrenceEndDate)
			if err != nil {
				return nil, err
			}
			d := datatypes.Date(end)
			sr.RecurrenceEndDate = &d
		}
	}
	if req.StartClock != nil {
		if sr.StartClock, err = parseClock("startClock", *req.StartClock); err != nil {
			return nil, err
		}
	}
	if req.EndClock != nil {
		if sr.EndClock, err = parseClock("endClock", *req.EndClock); err != nil {
			return nil, err
		}
	}
	if req.DurationDays != nil {
		sr.DurationDays = *req.DurationDays
	}
	if err := validRecurrence(sr); err != nil {
		return nil, err
	}
	if req.Priority != nil {
		if sr.Priority, err = validPriority(*req.Priority); err != nil {
			return nil, err
		}
	}
	if req.AlertEnabled != nil {
		sr.AlertEnabled = *req.AlertEnabled
	}
	if req.RemindOffsets != nil {
		if sr.RemindOffsets, err = validOffsets(*req.RemindOffsets); err != nil {
			return nil, err
		}
	}
	var shares []entity.SharedTarget
	if req.SharedTargets != nil {
		if shares, err = sharedTargets(entity.SharedEntitySeries, sr.Id, *req.SharedTargets); err != nil {
			return nil, err
		}
	}

	err = s.uow.Transaction(ctx, func(tx repository.TxRepos) error {
		if err := tx.Series.Save(ctx, sr); err != nil {
			return err
		}
		if req.SharedTargets == nil {
			return nil
		}
		return tx.Shares.Replace(ctx, entity.SharedEntitySeries, sr.Id, shares)
	})
	if err != nil {
		return nil, storeError(err)
	}
	if req.SharedTargets != nil {
		sr.SharedTargets = shares
	}

	r := s.seriesRespond(a, sr)
	effects := []effect.Effect{}
	if !sr.IsDone() {
		effects = append(effects, effect.Reschedule(sr.Ref())...)
	}
	effects = append(effects,
		notify(notificationEntity.TypeSeriesUpdated, "重复日程已修改: "+sr.Title, recurrenceText(sr),
			a, sr.Subject(), sr.Ref(), sr.Shares(), nil),
		effect.Broadcast{ChangeType: effect.ChangeSeriesUpdated, Payload: r, ExcludeUser: a.UserID},
	)
	s.dispatch(ctx, effects)
	return &r, nil
}

func (s *seriesServiceImpl) Delete(ctx context.Context, a userEntity.Actor, req request.SeriesIdRequest) (*respond.DeletedRespond, error) {
	sr, err := s.loadSeries(ctx, a, req.Id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(a, sr.Subject()); err != nil {
		return nil, err
	}

	var materialized []*entity.Event
	err = s.uow.Transaction(ctx, func(tx repository.TxRepos) error {
		list, err := tx.Events.ListByOriginalSeries(ctx, sr.Id)
		if err != nil {
			return err
		}
		for _, ev := range list {
			if err := tx.Shares.DeleteByEntity(ctx, entity.SharedEntityEvent, ev.Id); err != nil {
				return err
			}
		}
		if err := tx.Events.DeleteByOriginalSeries(ctx, sr.Id); err != nil {
			return err
		}
		if err := tx.Exceptions.DeleteBySeries(ctx, sr.Id); err != nil {
			return err
		}
		if err := tx.Shares.DeleteByEntity(ctx, entity.SharedEntitySeries, sr.Id); err != nil {
			return err
		}
		materialized = list
		return tx.Series.Delete(ctx, sr.Id)
	})
	if err != nil {
		return nil, storeError(err)
	}

	out := &respond.DeletedRespond{Ref: sr.Ref().String()}
	effects := []effect.Effect{effect.CancelReminders{Ref: sr.Ref()}}
	for _, ev := range materialized {
		effects = append(effects, effect.CancelReminders{Ref: ev.Ref()})
	}
	effects = append(effects,
		notify(notificationEntity.TypeSeriesDeleted, "重复日程已删除: "+sr.Title, recurrenceText(sr),
			a, sr.Subject(), sr.Ref(), sr.Shares(), nil),
		effect.Broadcast{ChangeType: effect.ChangeSeriesDeleted, Payload: out, ExcludeUser: a.UserID},
	)
	s.dispatch(ctx, effects)
	return out, nil
}

func (s *seriesServiceImpl) Complete(ctx context.Context, a userEntity.Actor, req request.SeriesIdRequest) (*respond.SeriesRespond, error) {
	sr, err := s.loadSeries(ctx, a, req.Id)
	if err != nil {
		return nil, err
	}
	if err := requireEdit(a, sr.Subject()); err != nil {
		return nil, err
	}
	if sr.IsDone() {
		r := s.seriesRespond(a, sr)
		return &r, nil
	}

	at := s.clock.StoredNow()
	sr.Status = entity.StatusDone
	sr.CompletedAt = &at
	var materialized []*entity.Event
	err = s.uow.Transaction(ctx, func(tx repository.TxRepos) error {
		if err := tx.Series.Save(ctx, sr); err != nil {
			return err
		}
		list, err := tx.Events.ListByOriginalSeries(ctx, sr.Id)
		if err != nil {
			return err
		}
		materialized = list
		return tx.Events.MarkDoneByOriginalSeries(ctx, sr.Id, at)
	})
	if err != nil {
		return nil, storeError(err)
	}

	r := s.seriesRespond(a, sr)
	effects := []effect.Effect{effect.CancelReminders{Ref: sr.Ref()}}
	for _, ev := range materialized {
		if !ev.IsDone() {
			effects = append(effects, effect.CancelReminders{Ref: ev.Ref()})
		}
	}
	effects = append(effects,
		notify(notificationEntity.TypeSeriesCompleted, "重复日程已完成: "+sr.Title, recurrenceText(sr),
			a, sr.Subject(), sr.Ref(), nil, nil),
		effect.Broadcast{ChangeType: effect.ChangeSeriesCompleted, Payload: r, ExcludeUser: a.UserID},
	)
	s.dispatch(ctx, effects)
	return &r, nil
}
