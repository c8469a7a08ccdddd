package matcher

import (
	"strings"
	"time"

	"TicketMonitor/internal/model"

	"github.com/sirupsen/logrus"
)

// Match 从完整事件列表中筛出符合监控条件的事件
// 没有命中返回空切片；单条记录时间解析失败只跳过该条
func Match(events []model.TicketEvent, filter model.MonitorFilter, logger *logrus.Logger) []model.TicketEvent {
	matched := make([]model.TicketEvent, 0)
	if filter.IsTeam() {
		team := strings.ToLower(filter.Team)
		for _, e := range events {
			if strings.Contains(strings.ToLower(e.Team1), team) || strings.Contains(strings.ToLower(e.Team2), team) {
				matched = append(matched, e)
			}
		}
		return matched
	}

	for _, e := range events {
		ok, err := matchDate(e, filter.Date)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"event_code": e.Code,
				"event_date": e.Date,
			}).Warn("解析比赛时间失败，跳过该事件")
			continue
		}
		if ok {
			matched = append(matched, e)
		}
	}
	return matched
}

func matchDate(e model.TicketEvent, date string) (bool, error) {
	t, err := time.Parse(model.EventDateLayout, e.Date)
	if err != nil {
		return false, err
	}
	return t.Format(model.FilterDateLayout) == date, nil
}
