package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	TLS     bool   `toml:"tls"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
	Level   string `toml:"level"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type KafkaConfig struct {
	Brokers        []string `toml:"brokers"`
	ClientID       string   `toml:"clientID"`
	PushTopic      string   `toml:"pushTopic"`
	BroadcastTopic string   `toml:"broadcastTopic"`
	Partitions     int32    `toml:"partitions"`
	Replication    int16    `toml:"replication"`
}

type RedisConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"poolSize"`
	MinIdleConns int    `toml:"minIdleConns"`
}

type MailConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// TimeConfig 存储时间为本地墙钟时间，比较前需要扣除偏移
type TimeConfig struct {
	StoreOffsetMinutes *int `toml:"storeOffsetMinutes"`
}

// ReminderConfig 提醒调度配置
type ReminderConfig struct {
	RemindOffsets         []int  `toml:"remindOffsets"`
	DueSoonMinutes        int    `toml:"dueSoonMinutes"`
	OverdueEnabled        *bool  `toml:"overdueEnabled"`
	HorizonHours          int    `toml:"horizonHours"`
	RetentionHours        int    `toml:"retentionHours"`
	ImmediateDelaySeconds int    `toml:"immediateDelaySeconds"`
	CancelTrailMinutes    int    `toml:"cancelTrailMinutes"`
	DedupWindowHours      int    `toml:"dedupWindowHours"`
	Workers               int    `toml:"workers"`
	PollSeconds           int    `toml:"pollSeconds"`
	MaxRetries            int    `toml:"maxRetries"`
	SweepCron             string `toml:"sweepCron"`
}

// NotificationTypeConfig 单个通知类型的开关与接收范围
type NotificationTypeConfig struct {
	Enabled *bool  `toml:"enabled"`
	Scope   string `toml:"scope"`
}

type NotificationConfig struct {
	EmailEnabled bool                              `toml:"emailEnabled"`
	PushEnabled  bool                              `toml:"pushEnabled"`
	Types        map[string]NotificationTypeConfig `toml:"types"`
}

type Config struct {
	MainConfig         `toml:"mainConfig"`
	MysqlConfig        `toml:"mysqlConfig"`
	JwtConfig          `toml:"jwtConfig"`
	KafkaConfig        `toml:"kafkaConfig"`
	LogConfig          `toml:"logConfig"`
	RedisConfig        `toml:"redisConfig"`
	MailConfig         `toml:"mailConfig"`
	TimeConfig         `toml:"timeConfig"`
	ReminderConfig     `toml:"reminderConfig"`
	NotificationConfig `toml:"notificationConfig"`
}

var config *Config

func LoadConfig() error {
	configPath := "configs/config_local.toml"
	if p := strings.TrimSpace(os.Getenv("CONFIG_PATH")); p != "" {
		configPath = p
	}
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("加载配置文件失败: %v, 尝试使用默认设置", err)
		applyEnv(config)
		return err
	}
	applyEnv(config)
	return nil
}

// applyEnv 用 .env / 环境变量覆盖敏感配置
func applyEnv(c *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("JWT_KEY"); v != "" {
		c.JwtConfig.Key = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.MysqlConfig.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisConfig.Password = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.MailConfig.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.MainConfig.Port = p
		}
	}
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
	}
	return config
}
