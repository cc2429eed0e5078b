package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"OrgCalendar/internal/modules/notification/domain/entity"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/mq"
)

// PushMessage 推送网关消费的消息体
type PushMessage struct {
	UserID         string    `json:"userId"`
	NotificationID int64     `json:"notificationId"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	RelatedRef     string    `json:"relatedRef,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PushDeliverer 把通知投递到推送 topic, 由推送网关发往设备
type PushDeliverer struct {
	pub   mq.Publisher
	topic string
}

func NewPushDeliverer(pub mq.Publisher, topic string) (*PushDeliverer, error) {
	if pub == nil {
		return nil, errors.New("push publisher is nil")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("push topic is empty")
	}
	return &PushDeliverer{pub: pub, topic: topic}, nil
}

func (d *PushDeliverer) Name() string {
	return "push"
}

func (d *PushDeliverer) Deliver(ctx context.Context, user userEntity.UserInfo, n *entity.Notification) error {
	body, err := json.Marshal(PushMessage{
		UserID:         n.UserId,
		NotificationID: n.Id,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		RelatedRef:     n.RelatedEventId,
		CreatedAt:      n.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, err = d.pub.Publish(ctx, mq.Message{
		Topic:   d.topic,
		Key:     []byte(user.Uuid),
		Value:   body,
		Headers: map[string]string{"type": n.Type},
	})
	return err
}
