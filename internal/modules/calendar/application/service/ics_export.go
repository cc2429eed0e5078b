package service

import (
	"context"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"OrgCalendar/internal/modules/calendar/application/dto/request"
	"OrgCalendar/internal/modules/calendar/domain/entity"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
)

const (
	icsProductID = "-//OrgCalendar//Calendar Export//ZH"
	icsUIDSuffix = "@orgcalendar"
	icsUTCLayout = "20060102T150405Z"

	icsPropStatus = ical.ComponentProperty("X-ORGCAL-STATUS")
)

var icsFreq = map[occurrence.Unit]rrule.Frequency{
	occurrence.UnitDay:   rrule.DAILY,
	occurrence.UnitWeek:  rrule.WEEKLY,
	occurrence.UnitMonth: rrule.MONTHLY,
}

// 1 最高, 9 最低
var icsPriority = map[string]int{
	entity.PriorityUrgent: 1,
	entity.PriorityHigh:   3,
	entity.PriorityNormal: 5,
	entity.PriorityLow:    9,
}

func (s *queryServiceImpl) ExportICS(ctx context.Context, a userEntity.Actor, req request.ListEventsRequest) (string, error) {
	w, err := s.load(ctx, a, req)
	if err != nil {
		return "", err
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	stamp := s.clock.Now()
	for _, ev := range w.events {
		ve := cal.AddEvent(ev.Ref().String() + icsUIDSuffix)
		s.fillVEvent(ve, stamp, ev.Title, ev.Content, ev.Priority, ev.Status, ev.StartTime, ev.EndTime)
	}
	for _, sr := range w.series {
		s.exportSeries(cal, w, sr, stamp)
	}
	return cal.Serialize(), nil
}

func (s *queryServiceImpl) fillVEvent(ve *ical.VEvent, stamp time.Time, title, content, priority, status string, start, end time.Time) {
	ve.SetDtStampTime(stamp)
	ve.SetStartAt(s.clock.ToInstant(start))
	ve.SetEndAt(s.clock.ToInstant(end))
	ve.SetSummary(title)
	if content != "" {
		ve.SetDescription(content)
	}
	if p, ok := icsPriority[priority]; ok {
		ve.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(p))
	}
	ve.SetProperty(icsPropStatus, status)
}

// exportSeries 能用 RRULE 准确表达时导出一个主事件加 EXDATE, 否则逐个导出实例.
// 按月重复且日期被截断到月末时 RRULE 的语义不同, 会走后一种
func (s *queryServiceImpl) exportSeries(cal *ical.Calendar, w *window, sr *entity.EventSeries, stamp time.Time) {
	lattice := w.occurrences(sr, nil)
	if len(lattice) == 0 {
		return
	}
	visible := w.occurrences(sr, w.exceptions[sr.Id])

	if opt, ok := s.ruleFor(sr, lattice); ok && len(lattice) > 1 {
		first := lattice[0]
		ve := cal.AddEvent(sr.Ref().String() + icsUIDSuffix)
		s.fillVEvent(ve, stamp, sr.Title, sr.Content, sr.Priority, sr.Status, first.Start, first.End)
		ve.AddProperty(ical.ComponentPropertyRrule, opt.RRuleString())

		kept := make(map[string]struct{}, len(visible))
		for _, o := range visible {
			kept[o.Ref.String()] = struct{}{}
		}
		for _, o := range lattice {
			if _, ok := kept[o.Ref.String()]; !ok {
				ve.AddProperty(ical.ComponentPropertyExdate, s.clock.ToInstant(o.Start).Format(icsUTCLayout))
			}
		}
		return
	}

	for _, o := range visible {
		ve := cal.AddEvent(o.Ref.String() + icsUIDSuffix)
		s.fillVEvent(ve, stamp, sr.Title, sr.Content, sr.Priority, sr.Status, o.Start, o.End)
	}
}

// ruleFor 构造与展开结果逐一比对过的规则
func (s *queryServiceImpl) ruleFor(sr *entity.EventSeries, lattice []occurrence.Occurrence) (*rrule.ROption, bool) {
	freq, ok := icsFreq[occurrence.Unit(sr.RecurrenceUnit)]
	if !ok {
		return nil, false
	}
	interval := sr.RecurrenceInterval
	if interval < 1 {
		interval = 1
	}
	first := s.clock.ToInstant(lattice[0].Start)
	last := s.clock.ToInstant(lattice[len(lattice)-1].Start)
	opt := rrule.ROption{Freq: freq, Interval: interval, Dtstart: first, Until: last}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, false
	}
	starts := r.Between(first, last, true)
	if len(starts) != len(lattice) {
		return nil, false
	}
	for i, t := range starts {
		if !t.Equal(s.clock.ToInstant(lattice[i].Start)) {
			return nil, false
		}
	}
	opt.Dtstart = time.Time{}
	return &opt, true
}
