package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"OrgCalendar/internal/modules/calendar/application/dto/request"
	"OrgCalendar/internal/modules/calendar/application/dto/respond"
	"OrgCalendar/internal/modules/calendar/application/effect"
	"OrgCalendar/internal/modules/calendar/application/service"
	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/calendar/infrastructure/persistence"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/internal/testutil"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/xerr"
)

type recordingSink struct {
	mu      sync.Mutex
	effects []effect.Effect
}

func (s *recordingSink) Dispatch(_ context.Context, effects []effect.Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effects = append(s.effects, effects...)
	return nil
}

func (s *recordingSink) take() []effect.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.effects
	s.effects = nil
	return out
}

var (
	creator   = userEntity.Actor{UserID: "u1", Role: userEntity.RoleUser, Position: "staff", DepartmentID: "d1", OfficeID: "o1", DivisionID: "v1"}
	peer      = userEntity.Actor{UserID: "u2", Role: userEntity.RoleUser, Position: "staff", DepartmentID: "d1", OfficeID: "o1", DivisionID: "v1"}
	outsider  = userEntity.Actor{UserID: "u3", Role: userEntity.RoleUser, Position: "staff", DepartmentID: "d2", OfficeID: "o2", DivisionID: "v1"}
	deptLead  = userEntity.Actor{UserID: "u4", Role: userEntity.RoleUser, Position: "head", Breadth: userEntity.BreadthDepartment, DepartmentID: "d1", OfficeID: "o1", DivisionID: "v1"}
	adminUser = userEntity.Actor{UserID: "u5", Role: userEntity.RoleAdmin}
)

type fixture struct {
	db          *gorm.DB
	now         time.Time
	sink        *recordingSink
	events      service.EventService
	series      service.SeriesService
	occurrences service.OccurrenceService
	query       service.QueryService
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t, &entity.Event{}, &entity.EventSeries{}, &entity.EventException{}, &entity.SharedTarget{})
	// 本地时间 2024-01-08 (周一) 09:00
	f := &fixture{db: db, now: time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC), sink: &recordingSink{}}
	clock := storetime.New(storetime.DefaultOffset, func() time.Time { return f.now })

	repos := persistence.NewTxRepos(db)
	uow := persistence.NewCalendarUnitOfWork(db)
	opts := service.Options{DueSoon: time.Hour}
	f.events = service.NewEventService(repos, uow, f.sink, clock, opts)
	f.series = service.NewSeriesService(repos, uow, f.sink, clock, opts)
	f.occurrences = service.NewOccurrenceService(repos, uow, f.sink, clock, opts)
	f.query = service.NewQueryService(repos, clock, opts)
	return f
}

func requireCode(t *testing.T, err error, code int, reason string) {
	t.Helper()
	var ce *xerr.CodeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, code, ce.Code)
	if reason != "" {
		assert.Equal(t, reason, ce.Reason)
	}
}

func strPtr(s string) *string { return &s }

func (f *fixture) createEvent(t *testing.T, a userEntity.Actor, start, end string, shares ...request.SharedTargetRequest) *respond.EventRespond {
	t.Helper()
	ev, err := f.events.Create(context.Background(), a, request.CreateEventRequest{
		Title: "周会", StartTime: start, EndTime: end, SharedTargets: shares,
	})
	require.NoError(t, err)
	return ev
}

// createWeekly 每周一 10:00-11:00, 从 2024-01-01 开始
func (f *fixture) createWeekly(t *testing.T, a userEntity.Actor) *respond.SeriesRespond {
	t.Helper()
	sr, err := f.series.Create(context.Background(), a, request.CreateSeriesRequest{
		Title: "部门周会", RecurrenceUnit: "week", RecurrenceInterval: 1,
		FirstOccurrenceDate: "2024-01-01", StartClock: "10:00", EndClock: "11:00",
	})
	require.NoError(t, err)
	return sr
}

func (f *fixture) list(t *testing.T, a userEntity.Actor, start, end string) []respond.EventRespond {
	t.Helper()
	out, err := f.query.List(context.Background(), a, request.ListEventsRequest{Start: start, End: end})
	require.NoError(t, err)
	return out
}

func refsOf(list []respond.EventRespond) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.Ref)
	}
	return out
}

func TestWeeklySeriesListSkipsDeletedOccurrence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sr := f.createWeekly(t, creator)

	_, err := f.occurrences.Delete(ctx, creator, request.OccurrenceRequest{SeriesId: sr.Id, Date: "2024-01-15"})
	require.NoError(t, err)

	list := f.list(t, creator, "2024-01-01", "2024-01-31")
	prefix := "series:" + sr.Id + ":"
	assert.Equal(t, []string{prefix + "2024-01-01", prefix + "2024-01-08", prefix + "2024-01-22", prefix + "2024-01-29"}, refsOf(list))
	for _, r := range list {
		assert.True(t, r.IsGenerated)
		assert.Equal(t, sr.Id, r.SeriesId)
	}
	assert.Equal(t, "2024-01-01T10:00:00", list[0].StartTime)
	assert.Equal(t, entity.StatusOverdue, list[0].Status)
	assert.Equal(t, entity.StatusPending, list[1].Status)

	ref := occurrence.OccurrenceRef(sr.Id, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, f.sink.take(), effect.Effect(effect.CancelReminders{Ref: ref}))
}

func TestListMergesEventsAndOccurrencesByStart(t *testing.T) {
	f := newFixture(t)
	sr := f.createWeekly(t, creator)
	ev := f.createEvent(t, creator, "2024-01-08T09:30:00", "2024-01-08T10:30:00")

	list := f.list(t, creator, "2024-01-08", "2024-01-08")
	assert.Equal(t, []string{ev.Ref, "series:" + sr.Id + ":2024-01-08"}, refsOf(list))
}

func TestDueSoonThenOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.createEvent(t, creator, "2024-01-08T09:00:00", "2024-01-08T09:30:00")
	assert.True(t, ev.IsDueSoon)
	assert.False(t, ev.IsOverdue)
	assert.Equal(t, entity.StatusPending, ev.Status)

	f.now = f.now.Add(31 * time.Minute)
	got, err := f.events.Get(ctx, creator, request.EventIdRequest{Id: ev.Id})
	require.NoError(t, err)
	assert.True(t, got.IsOverdue)
	assert.False(t, got.IsDueSoon)
	assert.Equal(t, entity.StatusOverdue, got.Status)

	done, err := f.events.Complete(ctx, creator, request.EventIdRequest{Id: ev.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, done.Status)
	assert.False(t, done.IsOverdue)
	assert.NotEmpty(t, done.CompletedAt)

	// 重复完成不再产生副作用
	f.sink.take()
	_, err = f.events.Complete(ctx, creator, request.EventIdRequest{Id: ev.Id})
	require.NoError(t, err)
	assert.Empty(t, f.sink.take())
}

func TestCreateEventEffects(t *testing.T) {
	f := newFixture(t)
	ev := f.createEvent(t, creator, "2024-01-09T10:00:00", "2024-01-09T11:00:00")

	effects := f.sink.take()
	require.Len(t, effects, 3)
	assert.Equal(t, effect.ScheduleReminders{Ref: occurrence.EventRef(ev.Id)}, effects[0])
	notify, ok := effects[1].(effect.Notify)
	require.True(t, ok)
	assert.Equal(t, creator.UserID, notify.Request.Context.ActorID)
	assert.Equal(t, ev.Ref, notify.Request.Context.RelatedRef)
	bc, ok := effects[2].(effect.Broadcast)
	require.True(t, ok)
	assert.Equal(t, effect.ChangeEventCreated, bc.ChangeType)
	assert.Equal(t, creator.UserID, bc.ExcludeUser)
}

func TestCreateEventValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.events.Create(ctx, creator, request.CreateEventRequest{Title: " ", StartTime: "2024-01-09T10:00:00", EndTime: "2024-01-09T11:00:00"})
	requireCode(t, err, xerr.BadRequest, xerr.ReasonMissingField)

	_, err = f.events.Create(ctx, creator, request.CreateEventRequest{Title: "x", StartTime: "2024-01-09T11:00:00", EndTime: "2024-01-09T10:00:00"})
	requireCode(t, err, xerr.BadRequest, xerr.ReasonInvalidTimeRange)

	_, err = f.series.Create(ctx, creator, request.CreateSeriesRequest{
		Title: "x", RecurrenceUnit: "year", RecurrenceInterval: 1,
		FirstOccurrenceDate: "2024-01-01", StartClock: "10:00", EndClock: "11:00",
	})
	requireCode(t, err, xerr.BadRequest, xerr.ReasonInvalidRecurrence)

	_, err = f.query.List(ctx, creator, request.ListEventsRequest{Start: "2024-01-31", End: "2024-01-01"})
	requireCode(t, err, xerr.BadRequest, xerr.ReasonInvalidTimeRange)
	assert.Empty(t, f.sink.take())
}

func TestScopeAndSharing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.createEvent(t, creator, "2024-01-09T10:00:00", "2024-01-09T11:00:00")

	_, err := f.events.Get(ctx, outsider, request.EventIdRequest{Id: ev.Id})
	requireCode(t, err, xerr.NotFound, xerr.ReasonNotFound)
	assert.Empty(t, f.list(t, outsider, "2024-01-09", "2024-01-09"))

	got, err := f.events.Get(ctx, peer, request.EventIdRequest{Id: ev.Id})
	require.NoError(t, err)
	assert.False(t, got.CanEdit)
	_, err = f.events.Update(ctx, peer, request.UpdateEventRequest{Id: ev.Id, Title: strPtr("改")})
	requireCode(t, err, xerr.Forbidden, xerr.ReasonForbidden)

	updated, err := f.events.Update(ctx, deptLead, request.UpdateEventRequest{Id: ev.Id, Title: strPtr("改")})
	require.NoError(t, err)
	assert.Equal(t, "改", updated.Title)

	shares := []request.SharedTargetRequest{{OfficeId: "o2"}}
	_, err = f.events.Update(ctx, creator, request.UpdateEventRequest{Id: ev.Id, SharedTargets: &shares})
	require.NoError(t, err)

	list := f.list(t, outsider, "2024-01-09", "2024-01-09")
	require.Len(t, list, 1)
	assert.True(t, list[0].IsShared)
	assert.False(t, list[0].CanEdit)
	_, err = f.events.Delete(ctx, outsider, request.EventIdRequest{Id: ev.Id})
	requireCode(t, err, xerr.Forbidden, "")

	// 共享限定职位时其他职位看不到
	narrowed := []request.SharedTargetRequest{{OfficeId: "o2", Positions: []string{"head"}}}
	_, err = f.events.Update(ctx, creator, request.UpdateEventRequest{Id: ev.Id, SharedTargets: &narrowed})
	require.NoError(t, err)
	assert.Empty(t, f.list(t, outsider, "2024-01-09", "2024-01-09"))

	assert.Len(t, f.list(t, adminUser, "2024-01-09", "2024-01-09"), 1)
}

func TestEditEventReschedules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.createEvent(t, creator, "2024-01-09T10:00:00", "2024-01-09T11:00:00")
	f.sink.take()

	_, err := f.events.Update(ctx, creator, request.UpdateEventRequest{
		Id: ev.Id, StartTime: strPtr("2024-01-09T14:00:00"), EndTime: strPtr("2024-01-09T15:00:00"),
	})
	require.NoError(t, err)
	effects := f.sink.take()
	ref := occurrence.EventRef(ev.Id)
	require.GreaterOrEqual(t, len(effects), 2)
	assert.Equal(t, effect.CancelReminders{Ref: ref}, effects[0])
	assert.Equal(t, effect.ScheduleReminders{Ref: ref}, effects[1])

	_, err = f.events.Update(ctx, creator, request.UpdateEventRequest{Id: ev.Id, EndTime: strPtr("2024-01-09T13:00:00")})
	requireCode(t, err, xerr.BadRequest, xerr.ReasonInvalidTimeRange)
}

func TestMaterializeOccurrence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sr := f.createWeekly(t, creator)
	f.sink.take()

	ev, err := f.occurrences.Update(ctx, creator, request.UpdateOccurrenceRequest{
		SeriesId: sr.Id, Date: "2024-01-15", Title: strPtr("改到周二"),
		StartTime: strPtr("2024-01-16T14:00:00"), EndTime: strPtr("2024-01-16T15:00:00"),
	})
	require.NoError(t, err)
	assert.True(t, ev.IsException)
	assert.Equal(t, sr.Id, ev.OriginalSeriesId)
	assert.Equal(t, "2024-01-15", ev.OccurrenceDate)
	assert.Equal(t, "改到周二", ev.Title)

	occRef := occurrence.OccurrenceRef(sr.Id, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	effects := f.sink.take()
	require.GreaterOrEqual(t, len(effects), 2)
	assert.Equal(t, effect.CancelReminders{Ref: occRef}, effects[0])
	assert.Equal(t, effect.ScheduleReminders{Ref: occurrence.EventRef(ev.Id)}, effects[1])

	list := f.list(t, creator, "2024-01-14", "2024-01-17")
	assert.Equal(t, []string{ev.Ref}, refsOf(list))

	got, err := f.series.Get(ctx, creator, request.SeriesIdRequest{Id: sr.Id})
	require.NoError(t, err)
	assert.Equal(t, []respond.ExceptionRespond{{Date: "2024-01-15", Reason: entity.ExceptionEdited}}, got.Exceptions)

	// 同一天只能处理一次
	_, err = f.occurrences.Complete(ctx, creator, request.OccurrenceRequest{SeriesId: sr.Id, Date: "2024-01-15"})
	requireCode(t, err, xerr.NotFound, xerr.ReasonOccurrenceNotFound)
	_, err = f.occurrences.Delete(ctx, creator, request.OccurrenceRequest{SeriesId: sr.Id, Date: "2024-01-16"})
	requireCode(t, err, xerr.NotFound, xerr.ReasonOccurrenceNotFound)
	_, err = f.occurrences.Delete(ctx, peer, request.OccurrenceRequest{SeriesId: sr.Id, Date: "2024-01-22"})
	requireCode(t, err, xerr.Forbidden, "")
}

func TestCompleteOccurrence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sr := f.createWeekly(t, creator)

	ev, err := f.occurrences.Complete(ctx, creator, request.OccurrenceRequest{SeriesId: sr.Id, Date: "2024-01-22"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, ev.Status)
	assert.Equal(t, "2024-01-22T10:00:00", ev.StartTime)

	list := f.list(t, creator, "2024-01-22", "2024-01-22")
	require.Len(t, list, 1)
	assert.Equal(t, ev.Ref, list[0].Ref)
	assert.Equal(t, entity.StatusDone, list[0].Status)
}

func TestSeriesDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shares := []request.SharedTargetRequest{{OfficeId: "o2"}}
	sr, err := f.series.Create(ctx, creator, request.CreateSeriesRequest{
		Title: "巡检", RecurrenceUnit: "day", RecurrenceInterval: 2,
		FirstOccurrenceDate: "2024-01-01", StartClock: "08:00", EndClock: "08:30", SharedTargets: shares,
	})
	require.NoError(t, err)
	ev, err := f.occurrences.Update(ctx, creator, request.UpdateOccurrenceRequest{SeriesId: sr.Id, Date: "2024-01-09", Title: strPtr("改")})
	require.NoError(t, err)
	require.Len(t, ev.SharedTargets, 1)
	f.sink.take()

	_, err = f.series.Delete(ctx, outsider, request.SeriesIdRequest{Id: sr.Id})
	requireCode(t, err, xerr.Forbidden, "")

	out, err := f.series.Delete(ctx, creator, request.SeriesIdRequest{Id: sr.Id})
	require.NoError(t, err)
	assert.Equal(t, "series:"+sr.Id, out.Ref)

	_, err = f.events.Get(ctx, creator, request.EventIdRequest{Id: ev.Id})
	requireCode(t, err, xerr.NotFound, "")
	for _, model := range []any{&entity.Event{}, &entity.EventSeries{}, &entity.EventException{}, &entity.SharedTarget{}} {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}

	effects := f.sink.take()
	assert.Contains(t, effects, effect.Effect(effect.CancelReminders{Ref: occurrence.SeriesRef(sr.Id)}))
	assert.Contains(t, effects, effect.Effect(effect.CancelReminders{Ref: occurrence.EventRef(ev.Id)}))
}

func TestSeriesCompleteMarksMaterializedDone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sr := f.createWeekly(t, creator)
	ev, err := f.occurrences.Update(ctx, creator, request.UpdateOccurrenceRequest{SeriesId: sr.Id, Date: "2024-01-15", Title: strPtr("改")})
	require.NoError(t, err)

	done, err := f.series.Complete(ctx, creator, request.SeriesIdRequest{Id: sr.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, done.Status)

	got, err := f.events.Get(ctx, creator, request.EventIdRequest{Id: ev.Id})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, got.Status)

	for _, r := range f.list(t, creator, "2024-01-01", "2024-01-31") {
		assert.Equal(t, entity.StatusDone, r.Status, r.Ref)
		assert.False(t, r.IsOverdue)
	}
}

func TestSeriesUpdateRecurrence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sr := f.createWeekly(t, creator)

	unit := "day"
	interval := 3
	_, err := f.series.Update(ctx, creator, request.UpdateSeriesRequest{Id: sr.Id, RecurrenceUnit: &unit, RecurrenceInterval: &interval})
	require.NoError(t, err)
	list := f.list(t, creator, "2024-01-01", "2024-01-07")
	prefix := "series:" + sr.Id + ":"
	assert.Equal(t, []string{prefix + "2024-01-01", prefix + "2024-01-04", prefix + "2024-01-07"}, refsOf(list))

	zero := 0
	_, err = f.series.Update(ctx, creator, request.UpdateSeriesRequest{Id: sr.Id, RecurrenceInterval: &zero})
	requireCode(t, err, xerr.BadRequest, xerr.ReasonInvalidRecurrence)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createEvent(t, creator, "2024-01-09T10:00:00", "2024-01-09T11:00:00")
	f.createWeekly(t, creator)

	_, err := f.query.Search(ctx, creator, request.SearchEventsRequest{Keyword: "  "})
	requireCode(t, err, xerr.BadRequest, xerr.ReasonMissingField)

	res, err := f.query.Search(ctx, creator, request.SearchEventsRequest{Keyword: "周会"})
	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
	assert.Len(t, res.Series, 1)

	res, err = f.query.Search(ctx, outsider, request.SearchEventsRequest{Keyword: "周会"})
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Empty(t, res.Series)
}

func TestExportICS(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	weekly := f.createWeekly(t, creator)
	_, err := f.occurrences.Delete(ctx, creator, request.OccurrenceRequest{SeriesId: weekly.Id, Date: "2024-01-15"})
	require.NoError(t, err)
	f.createEvent(t, creator, "2024-01-09T10:00:00", "2024-01-09T11:00:00")

	// 31 号按月重复会被截断到月末, 无法用 RRULE 表达
	monthly, err := f.series.Create(ctx, creator, request.CreateSeriesRequest{
		Title: "月报", RecurrenceUnit: "month", RecurrenceInterval: 1,
		FirstOccurrenceDate: "2024-01-31", StartClock: "10:00", EndClock: "11:00",
	})
	require.NoError(t, err)

	body, err := f.query.ExportICS(ctx, creator, request.ListEventsRequest{Start: "2024-01-01", End: "2024-03-31"})
	require.NoError(t, err)
	body = strings.ReplaceAll(body, "\r\n ", "")

	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY")
	assert.Contains(t, body, "EXDATE:20240115T030000Z")
	assert.Contains(t, body, "DTSTART:20240109T030000Z")
	assert.Contains(t, body, "series:"+monthly.Id+":2024-02-29")
	assert.Contains(t, body, "DTSTART:20240229T030000Z")
	assert.Equal(t, 1, strings.Count(body, "RRULE:"))
	assert.Equal(t, 5, strings.Count(body, "BEGIN:VEVENT"))
}
