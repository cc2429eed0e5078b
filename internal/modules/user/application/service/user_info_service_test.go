package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrgCalendar/internal/modules/user/application/service"
	"OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/internal/modules/user/infrastructure/persistence"
	"OrgCalendar/internal/testutil"
)

func TestMe(t *testing.T) {
	db := testutil.NewDB(t, &entity.UserInfo{})
	require.NoError(t, db.Create(&entity.UserInfo{Uuid: "u1", Username: "alice", Nickname: "Alice", Role: entity.RoleUser, Approved: true}).Error)
	svc := service.NewUserInfoService(persistence.NewUserInfoRepository(db))

	lead := entity.Actor{UserID: "u1", Role: entity.RoleUser, Breadth: entity.BreadthOffice, OfficeID: "o1"}
	me, err := svc.Me(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Nickname)
	assert.Equal(t, "alice", me.Username)
	assert.True(t, me.IsLeader)
	assert.Equal(t, "o1", me.OfficeId)

	// 目录里还没有同步到的用户
	me, err = svc.Me(context.Background(), entity.Actor{UserID: "u9", Role: entity.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "u9", me.Uuid)
	assert.Empty(t, me.Username)
	assert.False(t, me.IsLeader)
}
