package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrgCalendar/internal/modules/notification/application/dto/request"
	"OrgCalendar/internal/modules/notification/application/service"
	"OrgCalendar/internal/modules/notification/domain/entity"
	"OrgCalendar/internal/modules/notification/infrastructure/persistence"
	"OrgCalendar/internal/testutil"
	"OrgCalendar/pkg/storetime"
)

func TestInboxReadFlow(t *testing.T) {
	db := testutil.NewDB(t, &entity.Notification{})
	repo := persistence.NewNotificationRepository(db)
	now := time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC)
	svc := service.NewNotificationService(repo, storetime.New(storetime.DefaultOffset, func() time.Time { return now }))
	ctx := context.Background()

	var rows []*entity.Notification
	for i := 0; i < 5; i++ {
		rows = append(rows, &entity.Notification{
			UserId:    "u1",
			Type:      entity.TypeReminder,
			Title:     "提醒",
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}
	rows = append(rows, &entity.Notification{UserId: "u2", Type: entity.TypeReminder, Title: "别人的", CreatedAt: now})
	require.NoError(t, repo.CreateBatch(ctx, rows))

	count, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 5, count.Count)

	page, err := svc.List(ctx, "u1", request.ListNotificationRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.List, 2)
	assert.True(t, page.List[0].CreatedAt.After(page.List[1].CreatedAt), "newest first")

	// 只能标记自己的通知
	read, err := svc.Read(ctx, "u1", request.ReadNotificationRequest{Ids: []int64{page.List[0].Id, rows[5].Id}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, read.Updated)

	unread, err := svc.List(ctx, "u1", request.ListNotificationRequest{UnreadOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 4, unread.Total)
	assert.Equal(t, 20, unread.PageSize)

	all, err := svc.ReadAll(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.Updated)

	count, err = svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count.Count)

	count, err = svc.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count.Count)
}
