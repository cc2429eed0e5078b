package back

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"OrgCalendar/pkg/xerr"
	"OrgCalendar/pkg/zlog"
)

// Response 统一响应结构, 业务错误也返回 HTTP 200, 由 code 区分
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Reason  string      `json:"reason,omitempty"` // 机器可读的错误原因
	Data    interface{} `json:"data,omitempty"`
}

// Result 统一返回入口
func Result(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	var e *xerr.CodeError
	if errors.As(err, &e) {
		c.JSON(http.StatusOK, Response{
			Code:    e.Code,
			Message: e.Message,
			Reason:  e.Reason,
		})
		return
	}

	// 未包装的错误不对外暴露细节
	zlog.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
	Error(c, xerr.ErrServerError.Code, xerr.ErrServerError.Message)
}

// Success 成功返回
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    xerr.OK,
		Message: "Success",
		Data:    data,
	})
}

// Error 错误返回
func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// Attachment 以附件形式返回原始内容, 如 iCalendar 导出
func Attachment(c *gin.Context, contentType, filename string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}
