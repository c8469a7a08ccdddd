package debounce

import "time"

// DefaultMaxAlertsPerEpisode 每个可售区间默认最多告警次数
const DefaultMaxAlertsPerEpisode = 2

// Observation 一次轮询中某个事件的观测值
type Observation struct {
	ID        string
	Status    string // 原始文案，仅用于记录
	Available bool
}

// Decision 去抖结果
type Decision struct {
	Emit             bool // 本轮是否发送告警
	RisingEdge       bool // 不可售 -> 可售（首次观察即可售也算）
	FirstObservation bool
	Changed          bool // 首次观察或可售状态发生切换
	AlertsSent       int  // 评估后、发送前的计数
	Episode          int
}

// Debouncer 把逐轮状态转换为有上限的"变为可售"信号
type Debouncer struct {
	maxAlerts int
	now       func() time.Time
}

func New(maxAlerts int) *Debouncer {
	if maxAlerts <= 0 {
		maxAlerts = DefaultMaxAlertsPerEpisode
	}
	return &Debouncer{maxAlerts: maxAlerts, now: time.Now}
}

func (d *Debouncer) MaxAlerts() int { return d.maxAlerts }

// Evaluate 更新 store 中 obs.ID 的状态并决定本轮是否告警
// 计数只在 Delivered 时增加，发送失败不消耗上限
func (d *Debouncer) Evaluate(store *Store, obs Observation) Decision {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := d.now()
	st, seen := store.states[obs.ID]
	if !seen {
		st = &EpisodeState{
			LastStatus:    obs.Status,
			LastAvailable: obs.Available,
			FirstSeen:     now,
		}
		store.states[obs.ID] = st
	}

	dec := Decision{
		FirstObservation: !seen,
		RisingEdge:       obs.Available && (!seen || !st.LastAvailable),
		Changed:          !seen || st.LastAvailable != obs.Available,
	}
	if dec.RisingEdge {
		st.AlertsSent = 0
		st.Episodes++
	}
	st.LastStatus = obs.Status
	st.LastAvailable = obs.Available
	st.LastSeen = now

	dec.Emit = obs.Available && st.AlertsSent < d.maxAlerts
	dec.AlertsSent = st.AlertsSent
	dec.Episode = st.Episodes
	return dec
}

// Delivered 记录一次两个通道都成功的告警
func (d *Debouncer) Delivered(store *Store, id string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if st, ok := store.states[id]; ok {
		st.AlertsSent++
	}
}
