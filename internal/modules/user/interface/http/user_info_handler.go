package handler

import (
	"github.com/gin-gonic/gin"

	"OrgCalendar/internal/middleware/jwt"
	"OrgCalendar/internal/modules/user/application/service"
	"OrgCalendar/pkg/back"
)

type UserInfoHandler struct {
	svc service.UserInfoService
}

func NewUserInfoHandler(svc service.UserInfoService) *UserInfoHandler {
	return &UserInfoHandler{svc: svc}
}

func (h *UserInfoHandler) Me(c *gin.Context) {
	data, err := h.svc.Me(c.Request.Context(), jwt.ActorFrom(c))
	back.Result(c, data, err)
}
