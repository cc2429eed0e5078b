package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"OrgCalendar/internal/modules/calendar/application/dto/request"
	"OrgCalendar/internal/modules/calendar/application/dto/respond"
	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/calendar/domain/repository"
	"OrgCalendar/internal/modules/calendar/domain/scope"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/xerr"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

type QueryService interface {
	// List 返回窗口内可见的事件和展开后的系列实例, 按开始时间排序
	List(ctx context.Context, a userEntity.Actor, req request.ListEventsRequest) ([]respond.EventRespond, error)
	Search(ctx context.Context, a userEntity.Actor, req request.SearchEventsRequest) (*respond.SearchRespond, error)
	// ExportICS 以 iCalendar 格式导出窗口内的日程
	ExportICS(ctx context.Context, a userEntity.Actor, req request.ListEventsRequest) (string, error)
}

type queryServiceImpl struct {
	core
}

func NewQueryService(repos repository.TxRepos, clock *storetime.Clock, opts Options) QueryService {
	return &queryServiceImpl{core: newCore(repos, nil, nil, clock, opts)}
}

// window 窗口内的原始数据, 已按可见性过滤
type window struct {
	from, to   time.Time
	events     []*entity.Event
	series     []*entity.EventSeries
	exceptions map[string][]time.Time
}

func (s *queryServiceImpl) load(ctx context.Context, a userEntity.Actor, req request.ListEventsRequest) (*window, error) {
	from, to, err := s.parseWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	q := repository.ListQuery{Scope: scope.Of(a), ShareOfficeID: a.OfficeID, From: from, To: to}
	events, err := s.repos.Events.ListInRange(ctx, q)
	if err != nil {
		return nil, storeError(err)
	}
	series, err := s.repos.Series.ListInRange(ctx, q)
	if err != nil {
		return nil, storeError(err)
	}

	w := &window{from: from, to: to}
	for _, ev := range events {
		if scope.CanView(a, ev.Subject(), ev.Shares()) {
			w.events = append(w.events, ev)
		}
	}
	ids := make([]string, 0, len(series))
	for _, sr := range series {
		if scope.CanView(a, sr.Subject(), sr.Shares()) {
			w.series = append(w.series, sr)
			ids = append(ids, sr.Id)
		}
	}
	w.exceptions, err = s.repos.Exceptions.ListDates(ctx, ids, from.AddDate(0, 0, -occurrence.MaxDurationDays), to)
	if err != nil {
		return nil, storeError(err)
	}
	return w, nil
}

// occurrences 与窗口重叠的实例, 跨天实例可能从窗口之前开始
func (w *window) occurrences(sr *entity.EventSeries, exceptions []time.Time) []occurrence.Occurrence {
	rec := sr.Recurrence()
	from := storetime.DateOf(w.from).AddDate(0, 0, -rec.DurationDays)
	all := occurrence.Expand(rec, from, w.to, exceptions)
	out := all[:0]
	for _, o := range all {
		if !o.End.Before(w.from) && !o.Start.After(w.to) {
			out = append(out, o)
		}
	}
	return out
}

func (s *queryServiceImpl) List(ctx context.Context, a userEntity.Actor, req request.ListEventsRequest) ([]respond.EventRespond, error) {
	w, err := s.load(ctx, a, req)
	if err != nil {
		return nil, err
	}
	out := make([]respond.EventRespond, 0, len(w.events))
	for _, ev := range w.events {
		out = append(out, s.eventRespond(a, ev))
	}
	for _, sr := range w.series {
		for _, o := range w.occurrences(sr, w.exceptions[sr.Id]) {
			out = append(out, s.occurrenceRespond(a, sr, o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].Ref < out[j].Ref
	})
	return out, nil
}

func (s *queryServiceImpl) Search(ctx context.Context, a userEntity.Actor, req request.SearchEventsRequest) (*respond.SearchRespond, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, xerr.Validation(xerr.ReasonMissingField, "关键词不能为空")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	q := repository.SearchQuery{Scope: scope.Of(a), ShareOfficeID: a.OfficeID, Keyword: keyword, Limit: limit}

	events, err := s.repos.Events.Search(ctx, q)
	if err != nil {
		return nil, storeError(err)
	}
	series, err := s.repos.Series.Search(ctx, q)
	if err != nil {
		return nil, storeError(err)
	}

	out := &respond.SearchRespond{Events: []respond.EventRespond{}, Series: []respond.SeriesRespond{}}
	for _, ev := range events {
		if scope.CanView(a, ev.Subject(), ev.Shares()) {
			out.Events = append(out.Events, s.eventRespond(a, ev))
		}
	}
	for _, sr := range series {
		if scope.CanView(a, sr.Subject(), sr.Shares()) {
			out.Series = append(out.Series, s.seriesRespond(a, sr))
		}
	}
	return out, nil
}
