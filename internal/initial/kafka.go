package initial

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"OrgCalendar/internal/config"
	"OrgCalendar/pkg/mq"
	"OrgCalendar/pkg/mq/kafka"
	"OrgCalendar/pkg/zlog"
)

// KafkaPublisher 未配置 broker 或连接失败时为 nil, 推送投递与跨实例广播随之关闭
var KafkaPublisher mq.Publisher

func init() {
	setupLog()
	conf := config.GetConfig().KafkaConfig
	if len(conf.Brokers) == 0 {
		zlog.Info("kafka not configured, skip")
		return
	}

	var specs []kafka.TopicSpec
	for _, topic := range []string{conf.PushTopic, conf.BroadcastTopic} {
		if strings.TrimSpace(topic) == "" {
			continue
		}
		specs = append(specs, kafka.TopicSpec{
			Name:              topic,
			Partitions:        conf.Partitions,
			ReplicationFactor: conf.Replication,
			Retention:         24 * time.Hour,
		})
	}
	if err := kafka.EnsureTopics(kafka.TopicAdminConfig{Brokers: conf.Brokers, ClientID: conf.ClientID}, specs...); err != nil {
		zlog.Warn("ensure kafka topics failed", zap.Error(err))
	}

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{Brokers: conf.Brokers, ClientID: conf.ClientID})
	if err != nil {
		zlog.Error("kafka publisher init failed", zap.Error(err))
		return
	}
	KafkaPublisher = pub
	zlog.Info("kafka publisher ready", zap.Strings("brokers", conf.Brokers))
}
