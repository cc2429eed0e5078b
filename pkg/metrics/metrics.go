// Package metrics exposes process counters for Prometheus.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orgcalendar"

var (
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_created_total",
		Help:      "Notification rows written, by type.",
	}, []string{"type"})

	NotificationsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_deduplicated_total",
		Help:      "Recipients skipped because the same notification was sent inside the window.",
	}, []string{"type"})

	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_delivery_failures_total",
		Help:      "Failed side-channel deliveries, by channel.",
	}, []string{"channel"})

	ReminderJobsScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminder_jobs_scheduled_total",
		Help:      "Reminder jobs inserted, by trigger.",
	}, []string{"trigger"})

	// ReminderJobsFinished 按结果统计: fired / suppressed / retry / failed
	ReminderJobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminder_jobs_finished_total",
		Help:      "Reminder jobs processed by workers, by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	EffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "effect_failures_total",
		Help:      "Post-commit side effects that failed, by kind.",
	}, []string{"kind"})

	WebsocketSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_sessions",
		Help:      "Open live-update sessions on this instance.",
	})

	BroadcastEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "websocket_evictions_total",
		Help:      "Sessions dropped because a write failed or their buffer was full.",
	})
)

// Handler 挂载到 /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
