package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"OrgCalendar/internal/config"
	"OrgCalendar/internal/modules/notification/domain/entity"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
)

// EmailDeliverer 通过 SMTP 发送通知邮件
type EmailDeliverer struct {
	conf config.MailConfig
}

func NewEmailDeliverer(conf config.MailConfig) (*EmailDeliverer, error) {
	if strings.TrimSpace(conf.Host) == "" {
		return nil, errors.New("smtp host is empty")
	}
	if strings.TrimSpace(conf.From) == "" {
		return nil, errors.New("smtp sender is empty")
	}
	return &EmailDeliverer{conf: conf}, nil
}

func (d *EmailDeliverer) Name() string {
	return "email"
}

func (d *EmailDeliverer) Deliver(ctx context.Context, user userEntity.UserInfo, n *entity.Notification) error {
	if user.Email == "" {
		return nil
	}
	msg, err := d.message(user, n)
	if err != nil {
		return err
	}
	client, err := d.client()
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (d *EmailDeliverer) message(user userEntity.UserInfo, n *entity.Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(d.conf.From); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.AddToFormat(user.DisplayName(), user.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient %s: %w", user.Email, err)
	}
	msg.Subject(n.Title)
	msg.SetBodyString(mail.TypeTextPlain, n.Message)
	return msg, nil
}

func (d *EmailDeliverer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if d.conf.Port > 0 {
		opts = append(opts, mail.WithPort(d.conf.Port))
	}
	if d.conf.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(d.conf.Username),
			mail.WithPassword(d.conf.Password),
		)
	}
	return mail.NewClient(d.conf.Host, opts...)
}
