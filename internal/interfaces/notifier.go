package interfaces

import (
	"context"

	"TicketMonitor/internal/notify"
)

// Notifier 双通道通知，两个通道都会尝试，结果分别返回
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) notify.Result
}
