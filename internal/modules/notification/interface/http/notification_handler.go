package handler

import (
	"github.com/gin-gonic/gin"

	"OrgCalendar/internal/middleware/jwt"
	"OrgCalendar/internal/modules/notification/application/dto/request"
	"OrgCalendar/internal/modules/notification/application/service"
	"OrgCalendar/pkg/back"
	"OrgCalendar/pkg/xerr"
	"OrgCalendar/pkg/zlog"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	var req request.ListNotificationRequest
	// 允许空 body
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			zlog.Error(err.Error())
			back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
			return
		}
	}
	data, err := h.svc.List(c.Request.Context(), jwt.ActorFrom(c).UserID, req)
	back.Result(c, data, err)
}

func (h *NotificationHandler) Read(c *gin.Context) {
	var req request.ReadNotificationRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Read(c.Request.Context(), jwt.ActorFrom(c).UserID, req)
	back.Result(c, data, err)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	data, err := h.svc.ReadAll(c.Request.Context(), jwt.ActorFrom(c).UserID)
	back.Result(c, data, err)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	data, err := h.svc.UnreadCount(c.Request.Context(), jwt.ActorFrom(c).UserID)
	back.Result(c, data, err)
}
