package jwt

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/back"
	"OrgCalendar/pkg/util/myjwt"
	"OrgCalendar/pkg/xerr"
)

func newRouter(signer *myjwt.Signer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(signer))
	r.GET("/whoami", func(c *gin.Context) {
		back.Success(c, ActorFrom(c))
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthBearerHeader(t *testing.T) {
	signer := myjwt.NewSigner("secret", "org_calendar", time.Hour)
	token, err := signer.GenerateToken(myjwt.CustomClaims{
		Uuid:         "u1",
		Username:     "alice",
		Position:     "head",
		ScopeBreadth: entity.BreadthDepartment,
		DepartmentId: "d1",
		OfficeId:     "o1",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newRouter(signer).ServeHTTP(w, req)

	body := decode(t, w)
	assert.EqualValues(t, xerr.OK, body["code"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "u1", data["UserID"])
	assert.Equal(t, entity.RoleUser, data["Role"])
	assert.Equal(t, entity.BreadthDepartment, data["Breadth"])
}

func TestAuthQueryToken(t *testing.T) {
	signer := myjwt.NewSigner("secret", "org_calendar", time.Hour)
	token, err := signer.GenerateToken(myjwt.CustomClaims{Uuid: "u2", Role: entity.RoleAdmin})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	newRouter(signer).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami?token="+token, nil))

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "u2", data["UserID"])
	assert.Equal(t, entity.RoleAdmin, data["Role"])
}

func TestAuthRejects(t *testing.T) {
	signer := myjwt.NewSigner("secret", "org_calendar", time.Hour)
	other, err := myjwt.NewSigner("other", "org_calendar", time.Hour).GenerateToken(myjwt.CustomClaims{Uuid: "u1"})
	require.NoError(t, err)

	cases := map[string]string{
		"missing":    "",
		"bad scheme": "Basic abc",
		"foreign":    "Bearer " + other,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			newRouter(signer).ServeHTTP(w, req)
			assert.EqualValues(t, xerr.Unauthorized, decode(t, w)["code"])
		})
	}
}
