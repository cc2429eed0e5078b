package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtMiddleware "OrgCalendar/internal/middleware/jwt"
	calendarEntity "OrgCalendar/internal/modules/calendar/domain/entity"
	calendarPersistence "OrgCalendar/internal/modules/calendar/infrastructure/persistence"
	notificationEntity "OrgCalendar/internal/modules/notification/domain/entity"
	"OrgCalendar/internal/modules/notification/infrastructure/dedup"
	notificationPersistence "OrgCalendar/internal/modules/notification/infrastructure/persistence"
	"OrgCalendar/internal/modules/reminder/application/service"
	"OrgCalendar/internal/modules/reminder/domain/job"
	"OrgCalendar/internal/modules/reminder/infrastructure/persistence"
	handler "OrgCalendar/internal/modules/reminder/interface/http"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/internal/testutil"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/util/myjwt"
	"OrgCalendar/pkg/xerr"
)

type envelope struct {
	Code   int             `json:"code"`
	Reason string          `json:"reason"`
	Data   json.RawMessage `json:"data"`
}

func TestListJobsRespectsVisibility(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t,
		&calendarEntity.Event{}, &calendarEntity.EventSeries{},
		&calendarEntity.EventException{}, &calendarEntity.SharedTarget{},
		&notificationEntity.Notification{}, &job.ReminderJob{},
	)
	clock := storetime.New(storetime.DefaultOffset, func() time.Time {
		return time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC)
	})
	events := calendarPersistence.NewEventRepository(db)
	notifications := notificationPersistence.NewNotificationRepository(db)
	svc := service.NewReminderService(
		persistence.NewReminderJobRepository(db),
		events,
		calendarPersistence.NewEventSeriesRepository(db),
		calendarPersistence.NewEventExceptionRepository(db),
		notifications, dedup.New(notifications, clock), service.DefaultSettings(), clock,
	)

	ctx := context.Background()
	ev := &calendarEntity.Event{
		Id: "e1", Title: "处务会",
		StartTime: time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC), EndTime: time.Date(2024, 1, 8, 14, 0, 0, 0, time.UTC),
		Status: calendarEntity.StatusPending, Priority: calendarEntity.PriorityNormal, AlertEnabled: true,
		CreatorId: "u1", DepartmentId: "d1", OfficeId: "o1", DivisionId: "v1",
	}
	require.NoError(t, events.Create(ctx, ev))
	_, err := svc.Schedule(ctx, ev.Ref())
	require.NoError(t, err)

	signer := myjwt.NewSigner("secret", "org_calendar", time.Hour)
	engine := gin.New()
	authed := engine.Group("/")
	authed.Use(jwtMiddleware.Auth(signer))
	authed.POST("/reminder/listJobs", handler.NewReminderHandler(svc).ListJobs)

	call := func(office, ref string) envelope {
		token, err := signer.GenerateToken(myjwt.CustomClaims{
			Uuid: "lead-" + office, Role: userEntity.RoleUser, Position: "chief",
			ScopeBreadth: userEntity.BreadthOffice, OfficeId: office, DivisionId: "v1",
		})
		require.NoError(t, err)
		body, _ := json.Marshal(map[string]string{"ref": ref})
		req := httptest.NewRequest(http.MethodPost, "/reminder/listJobs", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var env envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		return env
	}

	env := call("o1", ev.Ref().String())
	require.Equal(t, xerr.OK, env.Code)
	var jobs []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &jobs))
	assert.Len(t, jobs, 5)

	// 不可见与不存在无法区分
	hidden := call("o2", ev.Ref().String())
	missing := call("o2", "event:nope")
	assert.Equal(t, xerr.NotFound, hidden.Code)
	assert.Equal(t, xerr.ReasonNotFound, hidden.Reason)
	assert.Equal(t, missing, hidden)
}
