package initial

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"OrgCalendar/internal/config"
	calendarEntity "OrgCalendar/internal/modules/calendar/domain/entity"
	notificationEntity "OrgCalendar/internal/modules/notification/domain/entity"
	reminderJob "OrgCalendar/internal/modules/reminder/domain/job"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/zlog"
)

var GormDB *gorm.DB

func init() {
	setupLog()
	conf := config.GetConfig()
	user := conf.MysqlConfig.User
	password := conf.MysqlConfig.Password
	host := conf.MysqlConfig.Host
	port := conf.MysqlConfig.Port
	dbName := conf.MysqlConfig.DatabaseName
	if dbName == "" {
		dbName = conf.AppName
	}
	// 库里存的是不带时区的本地墙钟时间, 驱动按 UTC 读写避免二次换算
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC", user, password, host, port, dbName)
	var err error
	gormLogger := logger.New(
		zap.NewStdLog(zlog.L()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger, TranslateError: true})
	if err != nil {
		zlog.Fatal(err.Error())
	}
	// 自动迁移，如果没有建表，会自动创建对应的表
	err = GormDB.AutoMigrate(
		&userEntity.UserInfo{},
		&calendarEntity.Event{},
		&calendarEntity.EventSeries{},
		&calendarEntity.EventException{},
		&calendarEntity.SharedTarget{},
		&notificationEntity.Notification{},
		&reminderJob.ReminderJob{},
	)
	if err != nil {
		zlog.Fatal(err.Error())
	}
}
