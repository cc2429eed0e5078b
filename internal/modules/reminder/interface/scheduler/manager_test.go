package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrgCalendar/internal/modules/reminder/application/service"
	"OrgCalendar/internal/modules/reminder/domain/job"
	"OrgCalendar/internal/modules/reminder/infrastructure/persistence"
	"OrgCalendar/internal/testutil"
	"OrgCalendar/pkg/storetime"
)

type stubHandler struct {
	err   error
	panic bool
	calls int
}

func (h *stubHandler) Handle(context.Context, *job.ReminderJob) (string, error) {
	h.calls++
	if h.panic {
		panic("boom")
	}
	if h.err != nil {
		return "", h.err
	}
	return service.OutcomeFired, nil
}

func newManager(t *testing.T, h service.JobHandler) (*SchedulerManager, *job.ReminderJob) {
	db := testutil.NewDB(t, &job.ReminderJob{})
	now := time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC)
	clock := storetime.New(storetime.DefaultOffset, func() time.Time { return now })
	repo := persistence.NewReminderJobRepository(db)

	j := &job.ReminderJob{
		JobKey: "event:e1|OVERDUE|0", TargetKind: job.TargetEvent, EventId: "e1",
		TriggerType: job.TriggerOverdue, TargetStart: now, TargetEnd: now,
		ScheduledAt: now.Add(-time.Minute), Status: job.StatusPending,
	}
	_, err := repo.Insert(context.Background(), j)
	require.NoError(t, err)

	opts := Options{Workers: 1, Poll: time.Second, MaxRetries: 3, SweepCron: "@every 30m", StaleAfter: time.Minute, RetryBackoff: 30 * time.Second}
	return NewSchedulerManager(repo, nil, h, clock, opts), j
}

func (m *SchedulerManager) reload(t *testing.T, key string) *job.ReminderJob {
	list, err := m.jobRepo.ListByPrefix(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0]
}

func claimOne(t *testing.T, m *SchedulerManager) *job.ReminderJob {
	list, err := m.jobRepo.ClaimDue(context.Background(), m.clock.Now(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0]
}

func TestExecuteMarksFired(t *testing.T) {
	h := &stubHandler{}
	m, j := newManager(t, h)

	m.execute(claimOne(t, m))
	got := m.reload(t, j.JobKey)
	assert.Equal(t, job.StatusFired, got.Status)
	assert.NotNil(t, got.FinishedAt)

	// 已触发的任务不会再被领取
	list, err := m.jobRepo.ClaimDue(context.Background(), m.clock.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFailedJobRetriesWithBackoffThenGivesUp(t *testing.T) {
	h := &stubHandler{err: errors.New("db down")}
	m, j := newManager(t, h)

	m.execute(claimOne(t, m))
	got := m.reload(t, j.JobKey)
	assert.Equal(t, job.StatusPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, "db down", got.LastError)
	assert.True(t, got.ScheduledAt.Equal(m.clock.Now().Add(30*time.Second)))

	got.Status = job.StatusRunning
	m.execute(got)
	got = m.reload(t, j.JobKey)
	assert.Equal(t, 2, got.RetryCount)
	assert.True(t, got.ScheduledAt.Equal(m.clock.Now().Add(60*time.Second)))

	m.execute(got)
	got = m.reload(t, j.JobKey)
	assert.Equal(t, job.StatusFailed, got.Status)
	assert.Equal(t, 3, got.RetryCount)
	assert.Equal(t, 3, h.calls)
}

func TestPanicIsRecoveredAsFailure(t *testing.T) {
	m, j := newManager(t, &stubHandler{panic: true})

	assert.NotPanics(t, func() { m.execute(claimOne(t, m)) })
	got := m.reload(t, j.JobKey)
	assert.Equal(t, job.StatusPending, got.Status)
	assert.Contains(t, got.LastError, "boom")
}

func TestReleaseStaleRequeuesRunningJobs(t *testing.T) {
	m, j := newManager(t, &stubHandler{})
	claimOne(t, m)

	later := m.clock.Now().Add(10 * time.Minute)
	n, err := m.jobRepo.ReleaseStale(context.Background(), later.Add(-m.opts.StaleAfter), later)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, job.StatusPending, m.reload(t, j.JobKey).Status)
}
