// Package relay forwards live-update broadcasts between instances through
// Kafka. Every instance consumes the broadcast topic with its own group, so each
// one sees every message and writes it to its local hub.
package relay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"OrgCalendar/pkg/mq"
	"OrgCalendar/pkg/ws"
	"OrgCalendar/pkg/zlog"
)

const (
	headerOrigin  = "origin"
	headerExclude = "exclude"
	headerType    = "type"

	publishTimeout = 3 * time.Second
)

// LocalHub 本实例的会话表
type LocalHub interface {
	BroadcastRaw(b []byte, excludeUser string) int
}

// Relay 本地会话直接发送, 同时发布到 topic 供其他实例转发
type Relay struct {
	hub      LocalHub
	pub      mq.Publisher
	topic    string
	instance string
	now      func() time.Time
}

func New(hub LocalHub, pub mq.Publisher, topic, instance string) *Relay {
	return &Relay{hub: hub, pub: pub, topic: topic, instance: instance, now: time.Now}
}

// Broadcast 返回本实例成功入队的会话数, 发布失败只记录日志
func (r *Relay) Broadcast(changeType string, payload any, excludeUser string) int {
	b, err := ws.Encode(changeType, payload, r.now())
	if err != nil {
		zlog.Error("encode broadcast failed", zap.String("type", changeType), zap.Error(err))
		return 0
	}
	sent := r.hub.BroadcastRaw(b, excludeUser)
	if r.pub == nil {
		return sent
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_, err = r.pub.Publish(ctx, mq.Message{
		Topic: r.topic,
		Key:   []byte(changeType),
		Value: b,
		Headers: map[string]string{
			headerOrigin:  r.instance,
			headerExclude: excludeUser,
			headerType:    changeType,
		},
	})
	if err != nil {
		zlog.Warn("publish broadcast failed", zap.String("type", changeType), zap.Error(err))
	}
	return sent
}

// Handle 消费其他实例发布的广播, 自己发布的已经在本地发过
func (r *Relay) Handle(_ context.Context, msg mq.Message) error {
	if msg.Headers[headerOrigin] == r.instance {
		return nil
	}
	r.hub.BroadcastRaw(msg.Value, msg.Headers[headerExclude])
	return nil
}

// Run 阻塞消费直到 ctx 结束
func (r *Relay) Run(ctx context.Context, consumer mq.Consumer) {
	zlog.Info("broadcast relay started", zap.String("topic", r.topic), zap.String("instance", r.instance))
	if err := consumer.Run(ctx, r); err != nil && ctx.Err() == nil {
		zlog.Error("broadcast relay stopped", zap.Error(err))
	}
}
