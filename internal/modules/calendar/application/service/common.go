package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"OrgCalendar/internal/modules/calendar/application/dto/request"
	"OrgCalendar/internal/modules/calendar/application/dto/respond"
	"OrgCalendar/internal/modules/calendar/application/effect"
	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/calendar/domain/repository"
	"OrgCalendar/internal/modules/calendar/domain/scope"
	notificationService "OrgCalendar/internal/modules/notification/application/service"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/xerr"
	"OrgCalendar/pkg/zlog"
)

const (
	maxTitleLen     = 200
	maxRemindOffset = 7 * 24 * 60
	maxWindowDays   = 400
)

// EffectSink 执行变更提交后的副作用
type EffectSink interface {
	Dispatch(ctx context.Context, effects []effect.Effect) error
}

// Options 读接口的派生字段参数
type Options struct {
	DueSoon time.Duration
}

type core struct {
	repos repository.TxRepos
	uow   repository.CalendarUnitOfWork
	sink  EffectSink
	clock *storetime.Clock
	opts  Options
}

func newCore(repos repository.TxRepos, uow repository.CalendarUnitOfWork, sink EffectSink, clock *storetime.Clock, opts Options) core {
	if opts.DueSoon <= 0 {
		opts.DueSoon = time.Hour
	}
	return core{repos: repos, uow: uow, sink: sink, clock: clock, opts: opts}
}

// dispatch 失败已由分发器记录, 不影响请求结果
func (c *core) dispatch(ctx context.Context, effects []effect.Effect) {
	if c.sink == nil || len(effects) == 0 {
		return
	}
	_ = c.sink.Dispatch(ctx, effects)
}

// storeError 把存储层错误转换为业务错误码, 原始错误只写日志
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var ce *xerr.CodeError
	if errors.As(err, &ce) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return xerr.ErrConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return xerr.Validation(xerr.ReasonInvalidReference, "关联数据不存在")
	}
	zlog.Error(err.Error())
	return xerr.ErrServerError
}

// loadEvent 不存在和不可见都返回 404
func (c *core) loadEvent(ctx context.Context, a userEntity.Actor, id string) (*entity.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, xerr.Validation(xerr.ReasonMissingField, "id 不能为空")
	}
	ev, err := c.repos.Events.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if ev == nil || !scope.CanView(a, ev.Subject(), ev.Shares()) {
		return nil, xerr.ErrNotFound
	}
	return ev, nil
}

func (c *core) loadSeries(ctx context.Context, a userEntity.Actor, id string) (*entity.EventSeries, error) {
	if strings.TrimSpace(id) == "" {
		return nil, xerr.Validation(xerr.ReasonMissingField, "id 不能为空")
	}
	s, err := c.repos.Series.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if s == nil || !scope.CanView(a, s.Subject(), s.Shares()) {
		return nil, xerr.ErrNotFound
	}
	return s, nil
}

func requireEdit(a userEntity.Actor, s scope.Subject) error {
	if !scope.CanEdit(a, s) {
		return xerr.ErrForbidden
	}
	return nil
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", xerr.Validation(xerr.ReasonMissingField, "标题不能为空")
	}
	if len([]rune(title)) > maxTitleLen {
		return "", xerr.Validation(xerr.ReasonInvalidField, "标题过长")
	}
	return title, nil
}

func validPriority(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return entity.PriorityNormal, nil
	}
	if !entity.ValidPriority(p) {
		return "", xerr.Validation(xerr.ReasonInvalidField, "优先级无效")
	}
	return p, nil
}

func validOffsets(offsets []int) (datatypes.JSONSlice[int], error) {
	if len(offsets) == 0 {
		return nil, nil
	}
	out := make(datatypes.JSONSlice[int], 0, len(offsets))
	for _, m := range offsets {
		if m <= 0 || m > maxRemindOffset {
			return nil, xerr.Validation(xerr.ReasonInvalidField, "提醒时间无效")
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *core) parseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, xerr.Validation(xerr.ReasonMissingField, field+" 不能为空")
	}
	t, err := c.clock.ParseWall(s)
	if err != nil {
		return time.Time{}, xerr.Validation(xerr.ReasonInvalidTimeRange, field+" 格式错误")
	}
	return t, nil
}

func checkRange(start, end time.Time) error {
	if end.Before(start) {
		return xerr.Validation(xerr.ReasonInvalidTimeRange, "结束时间不能早于开始时间")
	}
	return nil
}

// parseWindow 纯日期的结束边界取当天最后一刻
func (c *core) parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := c.parseBound(startStr, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := c.parseBound(endStr, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, xerr.Validation(xerr.ReasonInvalidTimeRange, "结束时间不能早于开始时间")
	}
	if end.Sub(start) > maxWindowDays*24*time.Hour {
		return time.Time{}, time.Time{}, xerr.Validation(xerr.ReasonInvalidTimeRange, "查询范围过大")
	}
	return start, end, nil
}

func (c *core) parseBound(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := storetime.ParseDate(s); err == nil {
		if endOfDay {
			return d.Add(24*time.Hour - time.Second), nil
		}
		return d, nil
	}
	return c.parseTime("时间范围", s)
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, xerr.Validation(xerr.ReasonMissingField, field+" 不能为空")
	}
	d, err := storetime.ParseDate(s)
	if err != nil {
		return time.Time{}, xerr.Validation(xerr.ReasonInvalidField, field+" 格式错误")
	}
	return d, nil
}

// parseClock 解析 15:04, 返回零点后的分钟数
func parseClock(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, xerr.Validation(xerr.ReasonMissingField, field+" 不能为空")
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, xerr.Validation(xerr.ReasonInvalidField, field+" 格式错误")
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func sharedTargets(entityType, entityID string, reqs []request.SharedTargetRequest) ([]entity.SharedTarget, error) {
	out := make([]entity.SharedTarget, 0, len(reqs))
	for _, r := range reqs {
		office := strings.TrimSpace(r.OfficeId)
		if office == "" {
			return nil, xerr.Validation(xerr.ReasonMissingField, "共享目标缺少办公室")
		}
		var positions datatypes.JSONSlice[string]
		for _, p := range r.Positions {
			if p = strings.TrimSpace(p); p != "" {
				positions = append(positions, p)
			}
		}
		out = append(out, entity.SharedTarget{
			EntityType:   entityType,
			EntityID:     entityID,
			OfficeId:     office,
			DepartmentId: strings.TrimSpace(r.DepartmentId),
			Positions:    positions,
		})
	}
	return out, nil
}

func sharedRespond(rows []entity.SharedTarget) []respond.SharedTargetRespond {
	out := make([]respond.SharedTargetRespond, 0, len(rows))
	for _, r := range rows {
		out = append(out, respond.SharedTargetRespond{OfficeId: r.OfficeId, DepartmentId: r.DepartmentId, Positions: r.Positions})
	}
	return out
}

func formatWallPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return storetime.FormatWall(*t)
}

// derive 计算逾期/即将截止, 已完成的条目两者都为 false
func (c *core) derive(r *respond.EventRespond, end time.Time, status string) {
	r.Status = status
	if status == entity.StatusDone {
		return
	}
	left := c.clock.Until(end)
	r.IsOverdue = left < 0
	r.IsDueSoon = !r.IsOverdue && left <= c.opts.DueSoon
	if r.IsOverdue {
		r.Status = entity.StatusOverdue
	}
}

func (c *core) eventRespond(a userEntity.Actor, ev *entity.Event) respond.EventRespond {
	r := respond.EventRespond{
		Ref:           ev.Ref().String(),
		Id:            ev.Id,
		Title:         ev.Title,
		Content:       ev.Content,
		StartTime:     storetime.FormatWall(ev.StartTime),
		EndTime:       storetime.FormatWall(ev.EndTime),
		CompletedAt:   formatWallPtr(ev.CompletedAt),
		Priority:      ev.Priority,
		AlertEnabled:  ev.AlertEnabled,
		RemindOffsets: ev.RemindOffsets,
		CreatorId:     ev.CreatorId,
		DepartmentId:  ev.DepartmentId,
		OfficeId:      ev.OfficeId,
		DivisionId:    ev.DivisionId,
		IsException:   ev.IsException,
		IsShared:      !scope.Of(a).Matches(ev.Subject()),
		CanEdit:       scope.CanEdit(a, ev.Subject()),
		SharedTargets: sharedRespond(ev.SharedTargets),
	}
	if ev.SeriesId != nil {
		r.SeriesId = *ev.SeriesId
	}
	if ev.OriginalSeriesId != nil {
		r.OriginalSeriesId = *ev.OriginalSeriesId
	}
	if ev.OriginalDate != nil {
		r.OccurrenceDate = storetime.FormatDate(time.Time(*ev.OriginalDate))
	}
	c.derive(&r, ev.EndTime, ev.Status)
	return r
}

// occurrenceRespond 展开出的虚拟实例, 状态跟随系列
func (c *core) occurrenceRespond(a userEntity.Actor, s *entity.EventSeries, o occurrence.Occurrence) respond.EventRespond {
	r := respond.EventRespond{
		Ref:            o.Ref.String(),
		SeriesId:       s.Id,
		OccurrenceDate: storetime.FormatDate(o.Date),
		Title:          s.Title,
		Content:        s.Content,
		StartTime:      storetime.FormatWall(o.Start),
		EndTime:        storetime.FormatWall(o.End),
		CompletedAt:    formatWallPtr(s.CompletedAt),
		Priority:       s.Priority,
		AlertEnabled:   s.AlertEnabled,
		RemindOffsets:  s.RemindOffsets,
		CreatorId:      s.CreatorId,
		DepartmentId:   s.DepartmentId,
		OfficeId:       s.OfficeId,
		DivisionId:     s.DivisionId,
		IsGenerated:    o.IsGenerated,
		IsShared:       !scope.Of(a).Matches(s.Subject()),
		CanEdit:        scope.CanEdit(a, s.Subject()),
		SharedTargets:  sharedRespond(s.SharedTargets),
	}
	c.derive(&r, o.End, s.Status)
	return r
}

func (c *core) seriesRespond(a userEntity.Actor, s *entity.EventSeries) respond.SeriesRespond {
	r := respond.SeriesRespond{
		Ref:                 s.Ref().String(),
		Id:                  s.Id,
		Title:               s.Title,
		Content:             s.Content,
		RecurrenceUnit:      s.RecurrenceUnit,
		RecurrenceInterval:  s.RecurrenceInterval,
		FirstOccurrenceDate: storetime.FormatDate(time.Time(s.FirstOccurrenceDate)),
		StartClock:          formatClock(s.StartClock),
		EndClock:            formatClock(s.EndClock),
		DurationDays:        s.DurationDays,
		Status:              s.Status,
		CompletedAt:         formatWallPtr(s.CompletedAt),
		Priority:            s.Priority,
		AlertEnabled:        s.AlertEnabled,
		RemindOffsets:       s.RemindOffsets,
		CreatorId:           s.CreatorId,
		DepartmentId:        s.DepartmentId,
		OfficeId:            s.OfficeId,
		DivisionId:          s.DivisionId,
		CanEdit:             scope.CanEdit(a, s.Subject()),
		SharedTargets:       sharedRespond(s.SharedTargets),
	}
	if s.RecurrenceEndDate != nil {
		r.RecurrenceEndDate = storetime.FormatDate(time.Time(*s.RecurrenceEndDate))
	}
	return r
}

// notify 构造通知副作用, 操作人不会收到自己的通知
func notify(typ, title, message string, a userEntity.Actor, subj scope.Subject, ref occurrence.Ref, shares []scope.Target, meta map[string]any) effect.Effect {
	return effect.Notify{Request: notificationService.Request{
		Type:    typ,
		Title:   title,
		Message: message,
		Context: notificationService.Context{
			ActorID:    a.UserID,
			CreatorID:  subj.CreatorID,
			Placement:  subj.Placement,
			RelatedRef: ref.String(),
			Metadata:   meta,
			Shares:     shares,
		},
	}}
}

func timeSpan(start, end time.Time) string {
	return fmt.Sprintf("时间: %s ~ %s", start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))
}
