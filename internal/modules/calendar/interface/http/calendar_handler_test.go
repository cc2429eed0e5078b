package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtMiddleware "OrgCalendar/internal/middleware/jwt"
	"OrgCalendar/internal/modules/calendar/application/effect"
	"OrgCalendar/internal/modules/calendar/application/service"
	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/infrastructure/persistence"
	handler "OrgCalendar/internal/modules/calendar/interface/http"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/internal/testutil"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/util/myjwt"
	"OrgCalendar/pkg/xerr"
)

type discardSink struct{}

func (discardSink) Dispatch(context.Context, []effect.Effect) error { return nil }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	engine *gin.Engine
	signer *myjwt.Signer
}

func newServer(t *testing.T) *server {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t, &entity.Event{}, &entity.EventSeries{}, &entity.EventException{}, &entity.SharedTarget{})
	clock := storetime.New(storetime.DefaultOffset, func() time.Time {
		return time.Date(2030, 4, 30, 2, 0, 0, 0, time.UTC)
	})
	repos := persistence.NewTxRepos(db)
	uow := persistence.NewCalendarUnitOfWork(db)
	opts := service.Options{DueSoon: time.Hour}
	h := handler.NewCalendarHandler(
		service.NewEventService(repos, uow, discardSink{}, clock, opts),
		service.NewSeriesService(repos, uow, discardSink{}, clock, opts),
		service.NewOccurrenceService(repos, uow, discardSink{}, clock, opts),
		service.NewQueryService(repos, clock, opts),
	)

	s := &server{engine: gin.New(), signer: myjwt.NewSigner("secret", "org_calendar", time.Hour)}
	authed := s.engine.Group("/")
	authed.Use(jwtMiddleware.Auth(s.signer))
	authed.POST("/calendar/events/list", h.List)
	authed.POST("/calendar/events/create", h.CreateEvent)
	authed.POST("/calendar/series/create", h.CreateSeries)
	authed.GET("/calendar/export.ics", h.Export)
	return s
}

func (s *server) token(t *testing.T, uid, dept, office string) string {
	t.Helper()
	token, err := s.signer.GenerateToken(myjwt.CustomClaims{
		Uuid: uid, Role: userEntity.RoleUser, Position: "staff", DepartmentId: dept, OfficeId: office, DivisionId: "v1",
	})
	require.NoError(t, err)
	return token
}

func (s *server) post(t *testing.T, token, path string, body any) envelope {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestCreateAndListThroughHTTP(t *testing.T) {
	s := newServer(t)
	alice := s.token(t, "u1", "d1", "o1")
	bob := s.token(t, "u2", "d1", "o1")
	carol := s.token(t, "u3", "d2", "o2")

	env := s.post(t, alice, "/calendar/events/create", map[string]any{
		"title":     "部门例会",
		"startTime": "2030-05-01T09:00:00",
		"endTime":   "2030-05-01T10:00:00",
		"priority":  "high",
	})
	require.Equal(t, xerr.OK, env.Code, env.Message)
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "部门例会", created["title"])
	assert.Equal(t, "2030-05-01T09:00:00", created["startTime"])

	window := map[string]any{"start": "2030-05-01", "end": "2030-05-02"}

	env = s.post(t, bob, "/calendar/events/list", window)
	require.Equal(t, xerr.OK, env.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, created["ref"], list[0]["ref"])

	env = s.post(t, carol, "/calendar/events/list", window)
	require.Equal(t, xerr.OK, env.Code)
	list = nil
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &list))
	}
	assert.Empty(t, list)
}

func TestValidationReasonInEnvelope(t *testing.T) {
	s := newServer(t)
	alice := s.token(t, "u1", "d1", "o1")

	env := s.post(t, alice, "/calendar/events/create", map[string]any{
		"title":     "倒置",
		"startTime": "2030-05-01T10:00:00",
		"endTime":   "2030-05-01T09:00:00",
	})
	assert.Equal(t, xerr.BadRequest, env.Code)
	assert.Equal(t, xerr.ReasonInvalidTimeRange, env.Reason)

	env = s.post(t, alice, "/calendar/series/create", map[string]any{
		"title":               "坏规则",
		"recurrenceUnit":      "fortnight",
		"recurrenceInterval":  1,
		"firstOccurrenceDate": "2030-05-01",
		"startClock":          "09:00",
		"endClock":            "10:00",
	})
	assert.Equal(t, xerr.BadRequest, env.Code)
	assert.Equal(t, xerr.ReasonInvalidRecurrence, env.Reason)
}

func TestMalformedBody(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/calendar/events/create", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token(t, "u1", "d1", "o1"))
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, xerr.BadRequest, env.Code)
}

func TestExportServesCalendar(t *testing.T) {
	s := newServer(t)
	alice := s.token(t, "u1", "d1", "o1")
	env := s.post(t, alice, "/calendar/series/create", map[string]any{
		"title":               "周会",
		"recurrenceUnit":      "week",
		"recurrenceInterval":  1,
		"firstOccurrenceDate": "2030-05-06",
		"startClock":          "10:00",
		"endClock":            "11:00",
	})
	require.Equal(t, xerr.OK, env.Code, env.Message)

	req := httptest.NewRequest(http.MethodGet, "/calendar/export.ics?start=2030-05-01&end=2030-06-01", nil)
	req.Header.Set("Authorization", "Bearer "+alice)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "calendar.ics")
	body := w.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY")
}
