package http

import (
	"time"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"OrgCalendar/internal/config"
	"OrgCalendar/internal/initial"
	jwtMiddleware "OrgCalendar/internal/middleware/jwt"
	calendarService "OrgCalendar/internal/modules/calendar/application/service"
	"OrgCalendar/internal/modules/calendar/infrastructure/dispatch"
	calendarPersistence "OrgCalendar/internal/modules/calendar/infrastructure/persistence"
	calendarHandler "OrgCalendar/internal/modules/calendar/interface/http"
	notificationService "OrgCalendar/internal/modules/notification/application/service"
	"OrgCalendar/internal/modules/notification/infrastructure/dedup"
	"OrgCalendar/internal/modules/notification/infrastructure/delivery"
	notificationPersistence "OrgCalendar/internal/modules/notification/infrastructure/persistence"
	notificationHandler "OrgCalendar/internal/modules/notification/interface/http"
	"OrgCalendar/internal/modules/realtime/infrastructure/relay"
	realtimeHandler "OrgCalendar/internal/modules/realtime/interface/http"
	reminderService "OrgCalendar/internal/modules/reminder/application/service"
	reminderPersistence "OrgCalendar/internal/modules/reminder/infrastructure/persistence"
	reminderHandler "OrgCalendar/internal/modules/reminder/interface/http"
	"OrgCalendar/internal/modules/reminder/interface/scheduler"
	userService "OrgCalendar/internal/modules/user/application/service"
	userPersistence "OrgCalendar/internal/modules/user/infrastructure/persistence"
	userHandler "OrgCalendar/internal/modules/user/interface/http"
	"OrgCalendar/pkg/metrics"
	"OrgCalendar/pkg/mq"
	"OrgCalendar/pkg/mq/kafka"
	"OrgCalendar/pkg/ssl"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/util"
	"OrgCalendar/pkg/util/myjwt"
	"OrgCalendar/pkg/ws"
	"OrgCalendar/pkg/zlog"
)

var (
	GE *gin.Engine

	// 以下组件的生命周期由 main 管理
	Hub               *ws.Hub
	Scheduler         *scheduler.SchedulerManager
	Relay             *relay.Relay
	BroadcastConsumer mq.Consumer
)

func init() {
	conf := config.GetConfig()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	if conf.MainConfig.TLS {
		GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))
	}

	clock := newClock(conf.TimeConfig)
	settings := reminderService.SettingsFrom(conf.ReminderConfig)
	db := initial.GormDB

	// 实时推送: 本地会话表 + 跨实例转发
	Hub = ws.NewHub()
	instance := util.InstanceID()
	Relay = relay.New(Hub, initial.KafkaPublisher, conf.KafkaConfig.BroadcastTopic, instance)
	if initial.KafkaPublisher != nil && conf.KafkaConfig.BroadcastTopic != "" {
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: conf.KafkaConfig.Brokers,
			// 每个实例独立消费组, 都能收到全部广播
			GroupID:  "org_calendar.broadcast." + instance,
			Topics:   []string{conf.KafkaConfig.BroadcastTopic},
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			zlog.Error("broadcast consumer init failed", zap.Error(err))
		} else {
			BroadcastConsumer = consumer
		}
	}

	// repositories
	userRepo := userPersistence.NewUserInfoRepository(db)
	calendarRepos := calendarPersistence.NewTxRepos(db)
	uow := calendarPersistence.NewCalendarUnitOfWork(db)
	notificationRepo := notificationPersistence.NewNotificationRepository(db)
	jobRepo := reminderPersistence.NewReminderJobRepository(db)

	// notification fan-out
	deduper := dedup.New(notificationRepo, clock)
	fanoutSvc := notificationService.NewFanoutService(
		notificationRepo,
		userRepo,
		deduper,
		notificationService.TypeConfigs(conf.NotificationConfig),
		clock,
		deliverers(conf)...,
	)
	notificationSvc := notificationService.NewNotificationService(notificationRepo, clock)

	// reminders
	reminderSvc := reminderService.NewReminderService(
		jobRepo, calendarRepos.Events, calendarRepos.Series, calendarRepos.Exceptions,
		notificationRepo, deduper, settings, clock,
	)
	jobHandler := reminderService.NewJobHandler(
		calendarRepos.Events, calendarRepos.Series, calendarRepos.Exceptions,
		fanoutSvc, Relay, settings, clock,
	)
	Scheduler = scheduler.NewSchedulerManager(jobRepo, reminderSvc, jobHandler, clock, scheduler.OptionsFrom(conf.ReminderConfig))

	// calendar
	dispatcher := dispatch.NewDispatcher(reminderSvc, fanoutSvc, Relay)
	calendarOpts := calendarService.Options{DueSoon: settings.DueSoon}
	eventSvc := calendarService.NewEventService(calendarRepos, uow, dispatcher, clock, calendarOpts)
	seriesSvc := calendarService.NewSeriesService(calendarRepos, uow, dispatcher, clock, calendarOpts)
	occurrenceSvc := calendarService.NewOccurrenceService(calendarRepos, uow, dispatcher, clock, calendarOpts)
	querySvc := calendarService.NewQueryService(calendarRepos, clock, calendarOpts)

	userSvc := userService.NewUserInfoService(userRepo)

	calendarH := calendarHandler.NewCalendarHandler(eventSvc, seriesSvc, occurrenceSvc, querySvc)
	notificationH := notificationHandler.NewNotificationHandler(notificationSvc)
	reminderH := reminderHandler.NewReminderHandler(reminderSvc)
	userH := userHandler.NewUserInfoHandler(userSvc)
	wsH := realtimeHandler.NewWsHandler(Hub, userRepo)

	GE.GET("/metrics", metrics.Handler())
	GE.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "sessions": Hub.Count()})
	})

	authed := GE.Group("/")
	authed.Use(jwtMiddleware.Auth(myjwt.FromConfig(conf)))
	// 浏览器握手无法带 Authorization 头, token 走 query
	authed.GET("/wss", wsH.Connect)
	authed.POST("/user/me", userH.Me)

	authed.POST("/calendar/events/list", calendarH.List)
	authed.POST("/calendar/events/search", calendarH.Search)
	authed.POST("/calendar/events/get", calendarH.GetEvent)
	authed.POST("/calendar/events/create", calendarH.CreateEvent)
	authed.POST("/calendar/events/update", calendarH.UpdateEvent)
	authed.POST("/calendar/events/delete", calendarH.DeleteEvent)
	authed.POST("/calendar/events/complete", calendarH.CompleteEvent)
	authed.POST("/calendar/events/uncomplete", calendarH.UncompleteEvent)
	authed.POST("/calendar/occurrences/update", calendarH.UpdateOccurrence)
	authed.POST("/calendar/occurrences/delete", calendarH.DeleteOccurrence)
	authed.POST("/calendar/occurrences/complete", calendarH.CompleteOccurrence)
	authed.POST("/calendar/series/get", calendarH.GetSeries)
	authed.POST("/calendar/series/create", calendarH.CreateSeries)
	authed.POST("/calendar/series/update", calendarH.UpdateSeries)
	authed.POST("/calendar/series/delete", calendarH.DeleteSeries)
	authed.POST("/calendar/series/complete", calendarH.CompleteSeries)
	authed.GET("/calendar/export.ics", calendarH.Export)

	authed.POST("/notification/list", notificationH.List)
	authed.POST("/notification/read", notificationH.Read)
	authed.POST("/notification/readAll", notificationH.ReadAll)
	authed.POST("/notification/unreadCount", notificationH.UnreadCount)

	authed.POST("/reminder/checkNow", reminderH.CheckNow)
	authed.POST("/reminder/listJobs", reminderH.ListJobs)
}

func newClock(conf config.TimeConfig) *storetime.Clock {
	offset := storetime.DefaultOffset
	if conf.StoreOffsetMinutes != nil {
		offset = time.Duration(*conf.StoreOffsetMinutes) * time.Minute
	}
	return storetime.New(offset, nil)
}

// deliverers 站内通知之外的投递渠道, 配置不完整的渠道跳过
func deliverers(conf *config.Config) []notificationService.Deliverer {
	var out []notificationService.Deliverer
	if conf.NotificationConfig.EmailEnabled {
		email, err := delivery.NewEmailDeliverer(conf.MailConfig)
		if err != nil {
			zlog.Warn("email delivery disabled", zap.Error(err))
		} else {
			out = append(out, email)
		}
	}
	if conf.NotificationConfig.PushEnabled {
		push, err := delivery.NewPushDeliverer(initial.KafkaPublisher, conf.KafkaConfig.PushTopic)
		if err != nil {
			zlog.Warn("push delivery disabled", zap.Error(err))
		} else {
			out = append(out, push)
		}
	}
	return out
}
