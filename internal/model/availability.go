package model

import "time"

// AvailabilityChange 可售状态变化事件（首次观察或可售/不可售切换时产生）
type AvailabilityChange struct {
	ID          string    `json:"id"`
	EventCode   string    `json:"event_code"`
	EventName   string    `json:"event_name"`
	DisplayDate string    `json:"display_date"`
	Status      string    `json:"status"`
	Available   bool      `json:"available"`
	Episode     int       `json:"episode"`
	ObservedAt  time.Time `json:"observed_at"`
}
