package repository

import (
	"context"
	"sync"
	"time"

	"TicketMonitor/internal/interfaces"
	"TicketMonitor/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository 创建基于PostgreSQL的告警历史仓储
func NewAlertRepository(db *gorm.DB) interfaces.AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) SaveAlert(ctx context.Context, record *model.AlertRecord) error {
	prepare(record)
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *alertRepository) ListRecent(ctx context.Context, limit int) ([]*model.AlertRecord, error) {
	var list []*model.AlertRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(clampLimit(limit)).
		Find(&list).Error
	return list, err
}

// MemoryAlertRepository 未配置数据库时使用，只保留最近 capacity 条
type MemoryAlertRepository struct {
	mu       sync.Mutex
	capacity int
	records  []*model.AlertRecord
	nextID   uint64
}

func NewMemoryAlertRepository(capacity int) *MemoryAlertRepository {
	if capacity <= 0 {
		capacity = maxListLimit
	}
	return &MemoryAlertRepository{capacity: capacity}
}

func (r *MemoryAlertRepository) SaveAlert(_ context.Context, record *model.AlertRecord) error {
	prepare(record)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	record.ID = r.nextID
	cp := *record
	r.records = append(r.records, &cp)
	if len(r.records) > r.capacity {
		r.records = r.records[len(r.records)-r.capacity:]
	}
	return nil
}

// ListRecent 最新的在前
func (r *MemoryAlertRepository) ListRecent(_ context.Context, limit int) ([]*model.AlertRecord, error) {
	limit = clampLimit(limit)
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.AlertRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

func prepare(record *model.AlertRecord) {
	if record.AlertUUID == "" {
		record.AlertUUID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
