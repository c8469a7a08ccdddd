package interfaces

import (
	"context"

	"TicketMonitor/internal/model"
)

// EventSource 上游票务事件源，每次轮询返回最新的完整事件列表
type EventSource interface {
	GetName() string
	// FetchEvents 拉取事件列表；非200或空结果返回空切片，不视为错误
	FetchEvents(ctx context.Context) ([]model.TicketEvent, error)
}

// AlertRepository 告警历史存储
type AlertRepository interface {
	SaveAlert(ctx context.Context, record *model.AlertRecord) error
	ListRecent(ctx context.Context, limit int) ([]*model.AlertRecord, error)
}

// AvailabilityPublisher 发布可售状态变化
type AvailabilityPublisher interface {
	Publish(ctx context.Context, change model.AvailabilityChange) error
}
