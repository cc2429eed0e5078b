package handler

import (
	"github.com/gin-gonic/gin"

	"OrgCalendar/internal/middleware/jwt"
	"OrgCalendar/internal/modules/calendar/application/dto/request"
	"OrgCalendar/internal/modules/calendar/application/service"
	"OrgCalendar/pkg/back"
	"OrgCalendar/pkg/xerr"
	"OrgCalendar/pkg/zlog"
)

type CalendarHandler struct {
	events      service.EventService
	series      service.SeriesService
	occurrences service.OccurrenceService
	query       service.QueryService
}

func NewCalendarHandler(events service.EventService, series service.SeriesService, occurrences service.OccurrenceService, query service.QueryService) *CalendarHandler {
	return &CalendarHandler{events: events, series: series, occurrences: occurrences, query: query}
}

func bind(c *gin.Context, req any) bool {
	if err := c.BindJSON(req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return false
	}
	return true
}

func (h *CalendarHandler) List(c *gin.Context) {
	var req request.ListEventsRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.query.List(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) Search(c *gin.Context) {
	var req request.SearchEventsRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.query.Search(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

// Export 直接返回 text/calendar, 出错时仍使用统一响应
func (h *CalendarHandler) Export(c *gin.Context) {
	req := request.ListEventsRequest{Start: c.Query("start"), End: c.Query("end")}
	body, err := h.query.ExportICS(c.Request.Context(), jwt.ActorFrom(c), req)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Attachment(c, "text/calendar; charset=utf-8", "calendar.ics", []byte(body))
}

func (h *CalendarHandler) GetEvent(c *gin.Context) {
	var req request.EventIdRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.events.Get(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	var req request.CreateEventRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.events.Create(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	var req request.UpdateEventRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.events.Update(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	var req request.EventIdRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.events.Delete(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) CompleteEvent(c *gin.Context) {
	var req request.EventIdRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.events.Complete(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) UncompleteEvent(c *gin.Context) {
	var req request.EventIdRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.events.Uncomplete(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) GetSeries(c *gin.Context) {
	var req request.SeriesIdRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.series.Get(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) CreateSeries(c *gin.Context) {
	var req request.CreateSeriesRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.series.Create(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) UpdateSeries(c *gin.Context) {
	var req request.UpdateSeriesRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.series.Update(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) DeleteSeries(c *gin.Context) {
	var req request.SeriesIdRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.series.Delete(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) CompleteSeries(c *gin.Context) {
	var req request.SeriesIdRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.series.Complete(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) UpdateOccurrence(c *gin.Context) {
	var req request.UpdateOccurrenceRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.occurrences.Update(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) DeleteOccurrence(c *gin.Context) {
	var req request.OccurrenceRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.occurrences.Delete(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}

func (h *CalendarHandler) CompleteOccurrence(c *gin.Context) {
	var req request.OccurrenceRequest
	if !bind(c, &req) {
		return
	}
	data, err := h.occurrences.Complete(c.Request.Context(), jwt.ActorFrom(c), req)
	back.Result(c, data, err)
}
