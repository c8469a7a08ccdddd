package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StatusBuyTickets 上游唯一表示"可购买"的按钮文案，其余任何值（含空）都视为不可购买
const StatusBuyTickets = "BUY TICKETS"

// EventDateLayout 上游 event_Date 字段格式
const EventDateLayout = "2006-01-02T15:04:05"

// FilterDateLayout 命令行 --date 格式
const FilterDateLayout = "2006-01-02"

// EventCode 平台事件ID；上游有时返回数字，统一按字符串处理
type EventCode string

func (c *EventCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = EventCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("event_Code 应为字符串或数字: %s", data)
	}
	*c = EventCode(n.String())
	return nil
}

// TicketEvent 上游票务接口返回的单场比赛
type TicketEvent struct {
	Code        EventCode `json:"event_Code"`         // 平台事件ID，跨轮询稳定
	Name        string    `json:"event_Name"`         // 比赛名称
	DisplayDate string    `json:"event_Display_Date"` // 展示用日期
	Date        string    `json:"event_Date"`         // 原始时间 YYYY-MM-DDTHH:MM:SS
	ButtonText  string    `json:"event_Button_Text"`  // 状态文案
	Team1       string    `json:"team_1"`
	Team2       string    `json:"team_2"`
	VenueName   string    `json:"venue_Name"`
	CityName    string    `json:"city_Name"`
	PriceRange  string    `json:"event_Price_Range"`
}

// Available 是否处于可购买状态，哨兵字符串只在这里比较
func (e TicketEvent) Available() bool {
	return e.ButtonText == StatusBuyTickets
}

// Key 去抖状态的键；event_Code 缺失时退化为名称+时间
func (e TicketEvent) Key() string {
	if e.Code != "" {
		return string(e.Code)
	}
	return e.Name + "@" + e.Date
}

// EventListResponse 事件列表接口响应；逐条解码，单条坏数据只跳过该条
type EventListResponse struct {
	Result []json.RawMessage `json:"result"`
}

// MonitorFilter 监控条件，Team 与 Date 二选一，进程内不可变
type MonitorFilter struct {
	Team string
	Date string
}

// NewMonitorFilter 校验并构建监控条件
func NewMonitorFilter(team, date string) (MonitorFilter, error) {
	team = strings.TrimSpace(team)
	date = strings.TrimSpace(date)
	switch {
	case team != "" && date != "":
		return MonitorFilter{}, errors.New("--team 与 --date 只能指定一个")
	case team == "" && date == "":
		return MonitorFilter{}, errors.New("必须指定 --team 或 --date")
	case date != "":
		if _, err := time.Parse(FilterDateLayout, date); err != nil {
			return MonitorFilter{}, fmt.Errorf("日期格式应为 YYYY-MM-DD: %w", err)
		}
		return MonitorFilter{Date: date}, nil
	default:
		return MonitorFilter{Team: team}, nil
	}
}

// IsTeam 是否按球队筛选
func (f MonitorFilter) IsTeam() bool {
	return f.Team != ""
}

// Describe 用于启动/停止通知的描述
func (f MonitorFilter) Describe() string {
	if f.IsTeam() {
		return "match against " + f.Team
	}
	return "match on " + f.Date
}
