package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"OrgCalendar/internal/middleware/jwt"
	"OrgCalendar/internal/modules/calendar/domain/occurrence"
	"OrgCalendar/internal/modules/reminder/application/dto/request"
	"OrgCalendar/internal/modules/reminder/application/dto/respond"
	"OrgCalendar/internal/modules/reminder/application/service"
	"OrgCalendar/pkg/back"
	"OrgCalendar/pkg/xerr"
	"OrgCalendar/pkg/zlog"
)

type ReminderHandler struct {
	svc service.ReminderService
}

func NewReminderHandler(svc service.ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

// CheckNow 立即执行一次回填和系列扫描, 仅管理员和领导可用
func (h *ReminderHandler) CheckNow(c *gin.Context) {
	actor := jwt.ActorFrom(c)
	if !actor.IsAdmin() && !actor.IsLeader() {
		back.Result(c, nil, xerr.ErrForbidden)
		return
	}
	rep, err := h.svc.CheckNow(c.Request.Context())
	if err != nil {
		// 部分失败也返回统计结果
		zlog.Warn("manual reminder check finished with errors", zap.String("user", actor.UserID), zap.Error(err))
	}
	back.Success(c, respond.CheckNowRespond{Targets: rep.Targets, Scheduled: rep.Scheduled, Purged: rep.Purged})
}

func (h *ReminderHandler) ListJobs(c *gin.Context) {
	actor := jwt.ActorFrom(c)
	if !actor.IsAdmin() && !actor.IsLeader() {
		back.Result(c, nil, xerr.ErrForbidden)
		return
	}
	var req request.ListJobsRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	ref, err := occurrence.ParseRef(req.Ref)
	if err != nil {
		back.Result(c, nil, xerr.Validation(xerr.ReasonInvalidRef, "无效的日程引用"))
		return
	}
	jobs, err := h.svc.ListVisibleJobs(c.Request.Context(), actor, ref)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	out := make([]respond.ReminderJobRespond, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, respond.ReminderJobRespond{
			JobKey:        j.JobKey,
			TriggerType:   j.TriggerType,
			OffsetMinutes: j.TriggerOffsetMinutes,
			ScheduledAt:   j.ScheduledAt.UTC().Format(time.RFC3339),
			Status:        j.Status,
			RetryCount:    j.RetryCount,
			LastError:     j.LastError,
		})
	}
	back.Success(c, out)
}
