package service

import (
	"sort"
	"time"

	"gorm.io/datatypes"

	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/calendar/domain/scope"
	"OrgCalendar/internal/modules/reminder/domain/job"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/storetime"
)

// Target 需要提醒的一次性事件或系列实例, 时间为库内本地时间
type Target struct {
	Ref           occurrence.Ref
	Title         string
	Start         time.Time
	End           time.Time
	AlertEnabled  bool
	RemindOffsets []int
	CreatorID     string
	Placement     userEntity.Placement
	Shares        []scope.Target
}

// Plan 计算目标的全部提醒任务. 已过去的触发时间改为稍后立即执行
func Plan(t Target, s Settings, clock *storetime.Clock) []*job.ReminderJob {
	now := clock.Now()
	var out []*job.ReminderJob

	add := func(trigger string, offset int, fireAt time.Time) {
		if fireAt.Before(now) {
			fireAt = now.Add(s.ImmediateDelay)
		}
		out = append(out, newJob(t, trigger, offset, fireAt))
	}

	start := clock.ToInstant(t.Start)
	end := clock.ToInstant(t.End)

	if t.AlertEnabled {
		if start.After(now) {
			for _, m := range offsetsOf(t, s) {
				add(job.TriggerReminder, m, start.Add(-time.Duration(m)*time.Minute))
			}
		}
		if end.After(now) && s.DueSoon > 0 {
			add(job.TriggerDueSoon, int(s.DueSoon/time.Minute), end.Add(-s.DueSoon))
		}
	}
	if s.OverdueEnabled {
		add(job.TriggerOverdue, 0, end)
	}
	return out
}

func offsetsOf(t Target, s Settings) []int {
	src := s.RemindOffsets
	if len(t.RemindOffsets) > 0 {
		src = t.RemindOffsets
	}
	seen := map[int]struct{}{}
	out := make([]int, 0, len(src))
	for _, m := range src {
		if m <= 0 {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

func newJob(t Target, trigger string, offset int, fireAt time.Time) *job.ReminderJob {
	j := &job.ReminderJob{
		JobKey:               job.Key(t.Ref, trigger, offset),
		TriggerType:          trigger,
		TriggerOffsetMinutes: offset,
		TargetStart:          t.Start,
		TargetEnd:            t.End,
		ScheduledAt:          fireAt.UTC(),
		Status:               job.StatusPending,
	}
	switch t.Ref.Kind {
	case occurrence.KindSeriesOccurrence:
		d := datatypes.Date(t.Ref.Date)
		j.TargetKind = job.TargetOccurrence
		j.SeriesId = t.Ref.SeriesID
		j.OccurrenceDate = &d
	default:
		j.TargetKind = job.TargetEvent
		j.EventId = t.Ref.EventID
	}
	return j
}
