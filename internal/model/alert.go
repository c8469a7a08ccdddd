package model

import (
	"time"

	"gorm.io/datatypes"
)

// AlertRecord 告警历史（仅审计用，不参与去抖状态恢复）
type AlertRecord struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	AlertUUID   string         `gorm:"column:alert_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID" json:"alert_uuid"`
	EventCode   string         `gorm:"column:event_code;type:varchar(64);index;not null;comment:平台事件ID" json:"event_code"`
	EventName   string         `gorm:"column:event_name;type:varchar(256);comment:比赛名称" json:"event_name"`
	Status      string         `gorm:"column:status;type:varchar(64);comment:按钮文案" json:"status"`
	Episode     int            `gorm:"column:episode;type:int;default:0;comment:第几个可售区间" json:"episode"`
	Attempt     int            `gorm:"column:attempt;type:int;default:0;comment:区间内第几次告警" json:"attempt"`
	BroadcastOK bool           `gorm:"column:broadcast_ok;type:boolean;default:false;comment:广播是否成功" json:"broadcast_ok"`
	AlertOK     bool           `gorm:"column:alert_ok;type:boolean;default:false;comment:告警是否成功" json:"alert_ok"`
	Channels    datatypes.JSON `gorm:"column:channels;type:jsonb;comment:各通道结果" json:"channels"`
	CreatedAt   time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间" json:"created_at"`
}

func (AlertRecord) TableName() string { return "ticket_alerts" }
