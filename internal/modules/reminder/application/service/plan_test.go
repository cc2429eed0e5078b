package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/reminder/application/service"
	"OrgCalendar/internal/modules/reminder/domain/job"
	"OrgCalendar/pkg/storetime"
)

// 2024-01-08 09:00 本地
func fixedClock() *storetime.Clock {
	return storetime.New(storetime.DefaultOffset, func() time.Time {
		return time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC)
	})
}

func local(day, hour, min int) time.Time {
	return time.Date(2024, 1, day, hour, min, 0, 0, time.UTC)
}

func keysOf(jobs []*job.ReminderJob) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.JobKey)
	}
	return out
}

func TestPlanSchedulesEveryTrigger(t *testing.T) {
	clock := fixedClock()
	target := service.Target{
		Ref:          occurrence.EventRef("e1"),
		Start:        local(8, 12, 0),
		End:          local(8, 14, 0),
		AlertEnabled: true,
	}

	jobs := service.Plan(target, service.DefaultSettings(), clock)
	require.Len(t, jobs, 5)
	assert.Equal(t, []string{
		"event:e1|REMINDER|30",
		"event:e1|REMINDER|60",
		"event:e1|REMINDER|180",
		"event:e1|DUE_SOON|60",
		"event:e1|OVERDUE|0",
	}, keysOf(jobs))

	// 12:00 本地 = 05:00 UTC
	assert.Equal(t, time.Date(2024, 1, 8, 4, 30, 0, 0, time.UTC), jobs[0].ScheduledAt)
	assert.Equal(t, time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC), jobs[2].ScheduledAt)
	assert.Equal(t, time.Date(2024, 1, 8, 6, 0, 0, 0, time.UTC), jobs[3].ScheduledAt)
	assert.Equal(t, time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC), jobs[4].ScheduledAt)
	for _, j := range jobs {
		assert.Equal(t, job.TargetEvent, j.TargetKind)
		assert.Equal(t, "e1", j.EventId)
		assert.Equal(t, job.StatusPending, j.Status)
	}
}

func TestPlanSkipsPassedStartAndRunsLateTriggersSoon(t *testing.T) {
	clock := fixedClock()
	settings := service.DefaultSettings()
	target := service.Target{
		Ref:          occurrence.EventRef("e1"),
		Start:        local(8, 8, 0),
		End:          local(8, 9, 30),
		AlertEnabled: true,
	}

	jobs := service.Plan(target, settings, clock)
	assert.Equal(t, []string{"event:e1|DUE_SOON|60", "event:e1|OVERDUE|0"}, keysOf(jobs))
	// 截止前 60 分钟已过, 稍后立即执行
	assert.Equal(t, clock.Now().Add(settings.ImmediateDelay), jobs[0].ScheduledAt)
}

func TestPlanWithAlertDisabledKeepsOverdue(t *testing.T) {
	target := service.Target{
		Ref:   occurrence.EventRef("e1"),
		Start: local(8, 12, 0),
		End:   local(8, 14, 0),
	}
	jobs := service.Plan(target, service.DefaultSettings(), fixedClock())
	assert.Equal(t, []string{"event:e1|OVERDUE|0"}, keysOf(jobs))

	settings := service.DefaultSettings()
	settings.OverdueEnabled = false
	assert.Empty(t, service.Plan(target, settings, fixedClock()))
}

func TestPlanNormalizesOffsetOverrides(t *testing.T) {
	target := service.Target{
		Ref:           occurrence.OccurrenceRef("s1", local(9, 0, 0)),
		Start:         local(9, 10, 0),
		End:           local(9, 11, 0),
		AlertEnabled:  true,
		RemindOffsets: []int{60, 15, 60, -5, 0},
	}
	jobs := service.Plan(target, service.DefaultSettings(), fixedClock())
	assert.Equal(t, []string{
		"series:s1:2024-01-09|REMINDER|15",
		"series:s1:2024-01-09|REMINDER|60",
		"series:s1:2024-01-09|DUE_SOON|60",
		"series:s1:2024-01-09|OVERDUE|0",
	}, keysOf(jobs))
	require.NotNil(t, jobs[0].OccurrenceDate)
	assert.Equal(t, job.TargetOccurrence, jobs[0].TargetKind)
	assert.Equal(t, "s1", jobs[0].SeriesId)
	assert.Equal(t, target.Ref, jobs[0].Ref())
}
