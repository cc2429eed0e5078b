package ssl

import (
	"net"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"OrgCalendar/pkg/zlog"
)

// TlsHandler 把 http 请求重定向到 https, 并附带 HSTS 头
func TlsHandler(host string, port int) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:          true,
		SSLHost:              net.JoinHostPort(host, strconv.Itoa(port)),
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
	})
	return func(c *gin.Context) {
		// Process 出错时已经写好了重定向响应, 这里只中止链路
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			zlog.Debug("tls redirect", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Abort()
			return
		}
		c.Next()
	}
}
