package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"TicketMonitor/internal/config"
	"TicketMonitor/internal/debounce"
	"TicketMonitor/internal/interfaces"
	"TicketMonitor/internal/matcher"
	"TicketMonitor/internal/metrics"
	"TicketMonitor/internal/model"
	"TicketMonitor/internal/notify"
	"TicketMonitor/internal/publisher"
	"TicketMonitor/internal/repository"

	"github.com/sirupsen/logrus"
)

// State 轮询循环状态
type State string

const (
	StateStarting State = "STARTING"
	StateRunning  State = "RUNNING"
	StateStopping State = "STOPPING"
)

const (
	defaultInterval      = 30 * time.Second
	defaultFetchTimeout  = 10 * time.Second
	defaultNotifyTimeout = 15 * time.Second
)

// MonitorService 拉取 -> 匹配 -> 去抖 -> 通知 的轮询循环
type MonitorService struct {
	cfg       config.MonitorConfig
	filter    model.MonitorFilter
	source    interfaces.EventSource
	notifier  interfaces.Notifier
	alerts    interfaces.AlertRepository
	publisher interfaces.AvailabilityPublisher
	metrics   *metrics.Metrics
	logger    *logrus.Logger

	debouncer *debounce.Debouncer
	store     *debounce.Store

	after func(time.Duration) <-chan time.Time
	now   func() time.Time

	mu          sync.RWMutex
	state       State
	lastPoll    time.Time
	lastError   string
	lastMatched int
	polls       int
}

// Option 可选依赖
type Option func(*MonitorService)

func WithAlertRepository(repo interfaces.AlertRepository) Option {
	return func(s *MonitorService) { s.alerts = repo }
}

func WithPublisher(p interfaces.AvailabilityPublisher) Option {
	return func(s *MonitorService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *MonitorService) { s.metrics = m }
}

func NewMonitorService(cfg config.MonitorConfig, filter model.MonitorFilter, source interfaces.EventSource, notifier interfaces.Notifier, logger *logrus.Logger, opts ...Option) *MonitorService {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	s := &MonitorService{
		cfg:       cfg,
		filter:    filter,
		source:    source,
		notifier:  notifier,
		alerts:    repository.NewMemoryAlertRepository(0),
		publisher: publisher.Nop{},
		logger:    logger,
		debouncer: debounce.New(cfg.MaxAlertsPerEpisode),
		store:     debounce.NewStore(),
		after:     time.After,
		now:       time.Now,
		state:     StateStarting,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run 发送启动通知后循环轮询，ctx 取消时发送停止通知并返回
func (s *MonitorService) Run(ctx context.Context) error {
	if s.source == nil {
		return &FatalError{Err: errors.New("事件源未配置")}
	}

	s.setState(StateStarting)
	s.logger.WithField("filter", s.filter.Describe()).Info("Starting RCB ticket monitor")
	s.announce(ctx, startupMessage(s.filter))
	s.setState(StateRunning)

	var fatal error
loop:
	for ctx.Err() == nil {
		if err := s.runIteration(ctx); err != nil {
			var fe *FatalError
			if errors.As(err, &fe) {
				s.logger.WithError(err).Error("轮询遇到不可恢复错误，停止监控")
				fatal = err
				break loop
			}
			s.logger.WithError(err).Warn("本轮轮询失败，等待下一轮")
		}

		select {
		case <-ctx.Done():
			break loop
		case <-s.after(s.cfg.Interval):
		}
	}

	s.setState(StateStopping)
	if fatal != nil {
		s.logger.WithError(fatal).Error("监控因不可恢复错误停止")
	} else {
		s.logger.Info("Stopped by user")
	}
	// 原 ctx 可能已取消，停止通知使用独立的有界 ctx
	stopCtx := context.WithoutCancel(ctx)
	s.announce(stopCtx, shutdownMessage(fatal))
	return fatal
}

// runIteration 单轮执行，panic 转为 RecoverableError
func (s *MonitorService) runIteration(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("stack", string(debug.Stack())).Error("轮询发生panic")
			err = &RecoverableError{Stage: "panic", Err: fmt.Errorf("%v", r)}
		}
	}()
	return s.PollOnce(ctx)
}

// PollOnce 执行一轮：拉取、匹配、对每个匹配事件去抖并按需通知
func (s *MonitorService) PollOnce(ctx context.Context) error {
	if s.source == nil {
		return &FatalError{Err: errors.New("事件源未配置")}
	}
	start := s.now()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	events, err := s.source.FetchEvents(fetchCtx)
	cancel()
	if err != nil {
		s.metrics.ObservePoll(metrics.PollError, 0, time.Since(start))
		s.recordPoll(start, 0, err)
		// 事件源可返回 FatalError 终止循环
		var fe *FatalError
		if errors.As(err, &fe) {
			return err
		}
		return &RecoverableError{Stage: "fetch", Err: err}
	}
	if len(events) == 0 {
		s.metrics.ObservePoll(metrics.PollEmpty, 0, time.Since(start))
		s.recordPoll(start, 0, nil)
		return nil
	}

	matched := matcher.Match(events, s.filter, s.logger)
	for _, ev := range matched {
		s.logger.Infof("%s - %s", ev.Name, ev.DisplayDate)
		s.handleEvent(ctx, ev)
	}

	s.metrics.ObservePoll(metrics.PollOK, len(matched), time.Since(start))
	s.recordPoll(start, len(matched), nil)
	return nil
}

func (s *MonitorService) handleEvent(ctx context.Context, ev model.TicketEvent) {
	id := ev.Key()
	dec := s.debouncer.Evaluate(s.store, debounce.Observation{
		ID:        id,
		Status:    ev.ButtonText,
		Available: ev.Available(),
	})
	entry := s.logger.WithFields(logrus.Fields{
		"event_code": id,
		"status":     ev.ButtonText,
		"episode":    dec.Episode,
	})

	if dec.RisingEdge {
		s.metrics.ObserveRisingEdge()
		entry.Info("门票变为可购买")
	}
	if dec.Changed {
		s.publishChange(ctx, ev, dec)
	}
	if !dec.Emit {
		if ev.Available() {
			entry.WithField("alerts_sent", dec.AlertsSent).Debug("本区间告警次数已达上限，跳过")
		}
		return
	}

	notifyCtx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	res := s.notifier.Notify(notifyCtx, availabilityMessage(ev, s.cfg.BookingURL))
	cancel()
	s.observeResult(res)
	s.recordAlert(ctx, ev, dec, res)

	if res.OK() {
		s.debouncer.Delivered(s.store, id)
		entry.Info("Notifications sent successfully!")
		return
	}
	entry.Warn("告警未完全送达，不计入本区间次数，下轮重试")
}

func (s *MonitorService) publishChange(ctx context.Context, ev model.TicketEvent, dec debounce.Decision) {
	change := model.AvailabilityChange{
		EventCode:   ev.Key(),
		EventName:   ev.Name,
		DisplayDate: ev.DisplayDate,
		Status:      ev.ButtonText,
		Available:   ev.Available(),
		Episode:     dec.Episode,
		ObservedAt:  s.now(),
	}
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.logger.WithError(err).WithField("event_code", change.EventCode).Warn("发布可售状态变化失败")
	}
}

func (s *MonitorService) recordAlert(ctx context.Context, ev model.TicketEvent, dec debounce.Decision, res notify.Result) {
	channels, _ := json.Marshal(map[string]string{
		"broadcast": errString(res.BroadcastErr),
		"alert":     errString(res.AlertErr),
	})
	record := &model.AlertRecord{
		EventCode:   ev.Key(),
		EventName:   ev.Name,
		Status:      ev.ButtonText,
		Episode:     dec.Episode,
		Attempt:     dec.AlertsSent + 1,
		BroadcastOK: res.BroadcastOK,
		AlertOK:     res.AlertOK,
		Channels:    channels,
		CreatedAt:   s.now(),
	}
	if err := s.alerts.SaveAlert(ctx, record); err != nil {
		s.logger.WithError(err).WithField("event_code", record.EventCode).Warn("记录告警历史失败")
	}
}

func (s *MonitorService) observeResult(res notify.Result) {
	s.metrics.ObserveNotification("broadcast", res.BroadcastOK)
	s.metrics.ObserveNotification("alert", res.AlertOK)
}

// announce 启动/停止通知，失败只记录
func (s *MonitorService) announce(ctx context.Context, msg notify.Message) notify.Result {
	nctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()
	res := s.notifier.Notify(nctx, msg)
	s.observeResult(res)
	if !res.OK() {
		s.logger.WithField("title", msg.Title).Warn("状态通知未完全送达")
	}
	return res
}

// TestNotifications 向两个通道各发一条测试消息
func (s *MonitorService) TestNotifications(ctx context.Context) notify.Result {
	res := s.announce(ctx, testMessage())
	if res.OK() {
		s.logger.Info("测试通知发送成功")
	}
	return res
}

func (s *MonitorService) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *MonitorService) recordPoll(at time.Time, matched int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	s.lastPoll = at
	s.lastMatched = matched
	s.lastError = errString(err)
}

// Status 状态接口使用的快照
type Status struct {
	State       State                            `json:"state"`
	Filter      string                           `json:"filter"`
	Source      string                           `json:"source"`
	Polls       int                              `json:"polls"`
	LastPoll    time.Time                        `json:"last_poll"`
	LastError   string                           `json:"last_error,omitempty"`
	LastMatched int                              `json:"last_matched"`
	MaxAlerts   int                              `json:"max_alerts_per_episode"`
	Events      map[string]debounce.EpisodeState `json:"events"`
}

func (s *MonitorService) Status() Status {
	s.mu.RLock()
	st := Status{
		State:       s.state,
		Filter:      s.filter.Describe(),
		Polls:       s.polls,
		LastPoll:    s.lastPoll,
		LastError:   s.lastError,
		LastMatched: s.lastMatched,
		MaxAlerts:   s.debouncer.MaxAlerts(),
	}
	s.mu.RUnlock()
	if s.source != nil {
		st.Source = s.source.GetName()
	}
	st.Events = s.store.Snapshot()
	return st
}

// Alerts 最近的告警历史
func (s *MonitorService) Alerts(ctx context.Context, limit int) ([]*model.AlertRecord, error) {
	return s.alerts.ListRecent(ctx, limit)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
