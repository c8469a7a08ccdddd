package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"TicketMonitor/internal/model"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// msgPublisher *nats.Conn 的最小子集
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSPublisher 把可售状态变化发布到 NATS 主题
type NATSPublisher struct {
	nc      msgPublisher
	subject string
	logger  *logrus.Logger
}

func NewNATSPublisher(nc *nats.Conn, subject string, logger *logrus.Logger) *NATSPublisher {
	return newNATSPublisher(nc, subject, logger)
}

func newNATSPublisher(nc msgPublisher, subject string, logger *logrus.Logger) *NATSPublisher {
	return &NATSPublisher{
		nc:      nc,
		subject: strings.TrimSuffix(subject, "."),
		logger:  logger,
	}
}

// Publish 主题为 <subject>.<event_code>，消息头带 Nats-Msg-Id 便于 JetStream 去重
func (p *NATSPublisher) Publish(ctx context.Context, change model.AvailabilityChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("序列化可售状态变化失败: %w", err)
	}

	header := nats.Header{}
	header.Set(nats.MsgIdHdr, change.ID)
	if deadline, ok := ctx.Deadline(); ok {
		header.Set("Deadline", deadline.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"))
	}

	msg := &nats.Msg{
		Subject: p.fullSubject(change.EventCode),
		Data:    payload,
		Header:  header,
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("发布到NATS失败: %w", err)
	}
	p.logger.WithFields(logrus.Fields{
		"subject":   msg.Subject,
		"available": change.Available,
	}).Debug("可售状态变化已发布")
	return nil
}

func (p *NATSPublisher) fullSubject(code string) string {
	code = sanitizeToken(code)
	if code == "" {
		return p.subject
	}
	return p.subject + "." + code
}

// sanitizeToken NATS 主题中 '.'、'*'、'>' 和空白有特殊含义
func sanitizeToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}

// Nop 未配置 NATS 时使用
type Nop struct{}

func (Nop) Publish(context.Context, model.AvailabilityChange) error { return nil }
