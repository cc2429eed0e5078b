package service

import (
	"time"

	"OrgCalendar/internal/config"
)

// Settings 提醒调度参数
type Settings struct {
	RemindOffsets  []int // 开始前多少分钟提醒
	DueSoon        time.Duration
	OverdueEnabled bool
	Horizon        time.Duration // 回填与扫描的前瞻窗口
	Retention      time.Duration
	ImmediateDelay time.Duration // 触发时间已过时的补发延迟
	CancelTrail    time.Duration // 取消时清理多久内产生的未读提醒
	DedupWindow    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		RemindOffsets:  []int{30, 60, 180},
		DueSoon:        60 * time.Minute,
		OverdueEnabled: true,
		Horizon:        48 * time.Hour,
		Retention:      168 * time.Hour,
		ImmediateDelay: 5 * time.Second,
		CancelTrail:    10 * time.Minute,
		DedupWindow:    3 * time.Hour,
	}
}

// SettingsFrom 未配置的项使用默认值
func SettingsFrom(conf config.ReminderConfig) Settings {
	s := DefaultSettings()
	if len(conf.RemindOffsets) > 0 {
		s.RemindOffsets = conf.RemindOffsets
	}
	if conf.DueSoonMinutes > 0 {
		s.DueSoon = time.Duration(conf.DueSoonMinutes) * time.Minute
	}
	if conf.OverdueEnabled != nil {
		s.OverdueEnabled = *conf.OverdueEnabled
	}
	if conf.HorizonHours > 0 {
		s.Horizon = time.Duration(conf.HorizonHours) * time.Hour
	}
	if conf.RetentionHours > 0 {
		s.Retention = time.Duration(conf.RetentionHours) * time.Hour
	}
	if conf.ImmediateDelaySeconds > 0 {
		s.ImmediateDelay = time.Duration(conf.ImmediateDelaySeconds) * time.Second
	}
	if conf.CancelTrailMinutes > 0 {
		s.CancelTrail = time.Duration(conf.CancelTrailMinutes) * time.Minute
	}
	if conf.DedupWindowHours > 0 {
		s.DedupWindow = time.Duration(conf.DedupWindowHours) * time.Hour
	}
	return s
}
