package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"OrgCalendar/internal/middleware/jwt"
	userRepository "OrgCalendar/internal/modules/user/domain/repository"
	"OrgCalendar/pkg/ws"
	"OrgCalendar/pkg/zlog"
)

type WsHandler struct {
	hub   *ws.Hub
	users userRepository.UserInfoRepository
}

func NewWsHandler(hub *ws.Hub, users userRepository.UserInfoRepository) *WsHandler {
	return &WsHandler{hub: hub, users: users}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connect 浏览器无法给 websocket 握手加 Header, token 通过 ?token= 传给鉴权中间件
func (h *WsHandler) Connect(c *gin.Context) {
	actor := jwt.ActorFrom(c)
	if actor.UserID == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	user, err := h.users.GetByUUID(c.Request.Context(), actor.UserID)
	if err != nil {
		zlog.Error(err.Error())
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if user == nil || user.Status != 0 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error(err.Error())
		return
	}

	client := ws.NewClient(actor.UserID, conn)
	h.hub.Register(client)
	zlog.Info("websocket session opened", zap.String("user", actor.UserID), zap.Int("sessions", h.hub.Count()))

	go client.WritePump()
	// 阻塞到连接断开, 返回时会话已从 hub 移除
	client.ReadPump()
}
