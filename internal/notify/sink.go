package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Message 一条对外通知
type Message struct {
	Title string // 告警标题（PagerDuty summary）
	Body  string // 告警正文（PagerDuty source）
	Text  string // 广播正文（HTML），为空时由 Title/Body 拼接
}

func (m Message) broadcastText() string {
	if m.Text != "" {
		return m.Text
	}
	return "<b>" + m.Title + "</b>\n\n" + m.Body
}

// Result 各通道发送结果；错误只用于记录，不向上抛
type Result struct {
	BroadcastOK  bool
	AlertOK      bool
	BroadcastErr error `json:"-"`
	AlertErr     error `json:"-"`
}

// OK 两个通道都成功
func (r Result) OK() bool {
	return r.BroadcastOK && r.AlertOK
}

// Broadcaster 多目的地广播通道
type Broadcaster interface {
	Name() string
	Broadcast(ctx context.Context, text string) error
}

// Alerter 单端点告警通道
type Alerter interface {
	Name() string
	Alert(ctx context.Context, title, body string) error
}

// Sink 同时向广播通道和告警通道发送，互不短路
type Sink struct {
	broadcaster Broadcaster
	alerter     Alerter
	logger      *logrus.Logger
}

func NewSink(b Broadcaster, a Alerter, logger *logrus.Logger) *Sink {
	return &Sink{broadcaster: b, alerter: a, logger: logger}
}

// Notify 并发发送两个通道并等待两者完成
func (s *Sink) Notify(ctx context.Context, msg Message) Result {
	var res Result
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.BroadcastErr = s.safeBroadcast(ctx, msg.broadcastText())
	}()
	go func() {
		defer wg.Done()
		res.AlertErr = s.safeAlert(ctx, msg.Title, msg.Body)
	}()
	wg.Wait()

	res.BroadcastOK = res.BroadcastErr == nil
	res.AlertOK = res.AlertErr == nil
	if !res.BroadcastOK {
		s.logger.WithError(res.BroadcastErr).WithField("title", msg.Title).Error("广播通道发送失败")
	}
	if !res.AlertOK {
		s.logger.WithError(res.AlertErr).WithField("title", msg.Title).Error("告警通道发送失败")
	}
	return res
}

func (s *Sink) safeBroadcast(ctx context.Context, text string) (err error) {
	if s.broadcaster == nil {
		return errNotConfigured("broadcast")
	}
	defer recoverInto(&err, s.broadcaster.Name())
	return s.broadcaster.Broadcast(ctx, text)
}

func (s *Sink) safeAlert(ctx context.Context, title, body string) (err error) {
	if s.alerter == nil {
		return errNotConfigured("alert")
	}
	defer recoverInto(&err, s.alerter.Name())
	return s.alerter.Alert(ctx, title, body)
}
