package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrgCalendar/internal/modules/calendar/application/effect"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	notificationService "OrgCalendar/internal/modules/notification/application/service"
)

type stubReminders struct {
	scheduled []occurrence.Ref
	cancelled []occurrence.Ref
	err       error
}

func (s *stubReminders) Schedule(_ context.Context, ref occurrence.Ref) (int, error) {
	s.scheduled = append(s.scheduled, ref)
	return 1, s.err
}

func (s *stubReminders) Cancel(_ context.Context, ref occurrence.Ref) error {
	s.cancelled = append(s.cancelled, ref)
	return nil
}

type stubNotifier struct {
	recipients []string
	ctxErr     error
}

func (n *stubNotifier) Notify(ctx context.Context, _ notificationService.Request) (notificationService.Result, error) {
	n.ctxErr = ctx.Err()
	return notificationService.Result{Recipients: n.recipients}, nil
}

type sent struct {
	changeType, exclude string
}

type stubBroadcaster struct {
	sent []sent
}

func (b *stubBroadcaster) Broadcast(changeType string, _ any, excludeUser string) int {
	b.sent = append(b.sent, sent{changeType, excludeUser})
	return 1
}

func TestDispatchRunsEveryEffectInOrder(t *testing.T) {
	rem := &stubReminders{err: errors.New("db down")}
	notifier := &stubNotifier{recipients: []string{"u2"}}
	bc := &stubBroadcaster{}
	d := NewDispatcher(rem, notifier, bc)

	ref := occurrence.EventRef("e1")
	req := notificationService.Request{Type: "event_created", Context: notificationService.Context{ActorID: "u1", RelatedRef: ref.String()}}
	err := d.Dispatch(context.Background(), append(effect.Reschedule(ref),
		effect.Notify{Request: req},
		effect.Broadcast{ChangeType: effect.ChangeEventCreated, ExcludeUser: "u1"},
	))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule: db down")
	assert.Equal(t, []occurrence.Ref{ref}, rem.cancelled)
	assert.Equal(t, []occurrence.Ref{ref}, rem.scheduled)
	assert.Equal(t, []sent{
		{effect.ChangeNotificationCreated, "u1"},
		{effect.ChangeEventCreated, "u1"},
	}, bc.sent)
}

func TestDispatchOutlivesRequestContext(t *testing.T) {
	notifier := &stubNotifier{}
	bc := &stubBroadcaster{}
	d := NewDispatcher(nil, notifier, bc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Dispatch(ctx, []effect.Effect{
		effect.ScheduleReminders{Ref: occurrence.SeriesRef("s1")},
		effect.Notify{Request: notificationService.Request{Type: "event_deleted"}},
	}))
	assert.NoError(t, notifier.ctxErr)
	// 没有接收人时不推送 notification.created
	assert.Empty(t, bc.sent)
}
