package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"TicketMonitor/internal/config"
	"TicketMonitor/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultPagerDutyURL Events API v2 入口
	DefaultPagerDutyURL = "https://events.pagerduty.com/v2/enqueue"
)

// PagerDuty 通过 Events API v2 触发告警
type PagerDuty struct {
	url        string
	routingKey string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewPagerDuty(cfg config.PagerDutyConfig, logger *logrus.Logger) *PagerDuty {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		u = DefaultPagerDutyURL
	}
	return &PagerDuty{
		url:        u,
		routingKey: cfg.RoutingKey,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{Timeout: cfg.Timeout, Proxy: cfg.Proxy}, logger),
		logger:     logger,
	}
}

func (p *PagerDuty) Name() string { return "pagerduty" }

type pagerDutyEvent struct {
	Payload     pagerDutyPayload `json:"payload"`
	RoutingKey  string           `json:"routing_key"`
	EventAction string           `json:"event_action"`
}

type pagerDutyPayload struct {
	Summary  string `json:"summary"`
	Severity string `json:"severity"`
	Source   string `json:"source"`
}

// Alert 触发一条 critical 事件
func (p *PagerDuty) Alert(ctx context.Context, title, body string) error {
	if p.routingKey == "" {
		return errNotConfigured("pagerduty routing key")
	}
	reqBody, err := json.Marshal(pagerDutyEvent{
		Payload: pagerDutyPayload{
			Summary:  title,
			Severity: "critical",
			Source:   body,
		},
		RoutingKey:  p.routingKey,
		EventAction: "trigger",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("PagerDuty 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("PagerDuty 返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	p.logger.WithField("summary", title).Info("PagerDuty notification sent successfully")
	return nil
}
