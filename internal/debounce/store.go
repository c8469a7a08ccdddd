package debounce

import (
	"sync"
	"time"
)

// EpisodeState 单个事件的可售区间状态
type EpisodeState struct {
	LastStatus    string    `json:"last_status"`
	LastAvailable bool      `json:"last_available"`
	AlertsSent    int       `json:"alerts_sent"` // 当前可售区间内已成功发送的告警数
	Episodes      int       `json:"episodes"`    // 上升沿次数
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
}

// Store 事件ID -> 区间状态，由轮询循环持有；读锁只为状态接口的并发快照
type Store struct {
	mu     sync.RWMutex
	states map[string]*EpisodeState
}

func NewStore() *Store {
	return &Store{states: make(map[string]*EpisodeState)}
}

// Get 返回状态副本
func (s *Store) Get(id string) (EpisodeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	if !ok {
		return EpisodeState{}, false
	}
	return *st, true
}

// Snapshot 返回全部状态副本
func (s *Store) Snapshot() map[string]EpisodeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]EpisodeState, len(s.states))
	for id, st := range s.states {
		out[id] = *st
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
