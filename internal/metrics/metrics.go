package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Poll result 标签取值
const (
	PollOK    = "ok"
	PollEmpty = "empty"
	PollError = "error"
)

// Metrics 轮询循环指标；nil 接收者上的方法均为空操作，便于测试中不注入
type Metrics struct {
	polls         *prometheus.CounterVec
	matched       prometheus.Gauge
	notifications *prometheus.CounterVec
	risingEdges   prometheus.Counter
	lastSuccessTS prometheus.Gauge
	pollDuration  prometheus.Histogram
}

// New 创建并注册指标；reg 为 nil 时只创建不注册
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticket_monitor",
			Name:      "polls_total",
			Help:      "Number of poll iterations by result",
		}, []string{"result"}),
		matched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ticket_monitor",
			Name:      "matched_events",
			Help:      "Events matching the filter in the last successful poll",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticket_monitor",
			Name:      "notifications_total",
			Help:      "Notification attempts by channel and result",
		}, []string{"channel", "result"}),
		risingEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ticket_monitor",
			Name:      "availability_rising_edges_total",
			Help:      "Number of unavailable to available transitions observed",
		}),
		lastSuccessTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ticket_monitor",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last poll that fetched data",
		}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ticket_monitor",
			Name:      "poll_duration_seconds",
			Help:      "Time spent in one poll iteration",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.polls, m.matched, m.notifications, m.risingEdges, m.lastSuccessTS, m.pollDuration)
	}
	return m
}

func (m *Metrics) ObservePoll(result string, matched int, took time.Duration) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
	m.pollDuration.Observe(took.Seconds())
	if result == PollOK {
		m.matched.Set(float64(matched))
		m.lastSuccessTS.Set(float64(time.Now().Unix()))
	}
}

func (m *Metrics) ObserveNotification(channel string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) ObserveRisingEdge() {
	if m == nil {
		return
	}
	m.risingEdges.Inc()
}
