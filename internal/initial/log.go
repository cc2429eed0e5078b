package initial

import (
	"OrgCalendar/internal/config"
	"OrgCalendar/pkg/zlog"
)

// setupLog 各 init 入口先初始化日志, zlog.Init 只生效一次
func setupLog() {
	conf := config.GetConfig()
	zlog.Init(zlog.Options{
		LogPath: conf.LogConfig.LogPath,
		Level:   conf.LogConfig.Level,
	})
}
