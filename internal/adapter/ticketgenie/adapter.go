package ticketgenie

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"TicketMonitor/internal/adapter"
	"TicketMonitor/internal/config"
	"TicketMonitor/internal/interfaces"
	"TicketMonitor/internal/model"
	"TicketMonitor/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// SourceType 配置 source.type 的取值
const SourceType = "ticketgenie"

func init() {
	adapter.Register(SourceType, NewAdapter)
}

type Adapter struct {
	cfg        config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewAdapter(cfg config.SourceConfig, logger *logrus.Logger) interfaces.EventSource {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{Timeout: cfg.Timeout, Proxy: cfg.Proxy}, logger),
		logger:     logger,
	}
}

// GetName ========== 实现EventSource接口 ==========
func (a *Adapter) GetName() string {
	return "TicketGenie"
}

// FetchEvents 拉取事件列表。非200、空结果都只记录日志并返回nil；传输失败或整体解析失败返回错误
func (a *Adapter) FetchEvents(ctx context.Context) ([]model.TicketEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建TicketGenie请求失败: %w", err)
	}
	if a.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/json")
	if a.cfg.Origin != "" {
		req.Header.Set("Origin", a.cfg.Origin)
	}
	if a.cfg.Referer != "" {
		req.Header.Set("Referer", a.cfg.Referer)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取TicketGenie事件失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.WithError(err).Warn("关闭TicketGenie响应体失败")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		a.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(snippet),
		}).Warn("TicketGenie返回非200，本轮无数据")
		return nil, nil
	}

	var body model.EventListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("解析TicketGenie事件失败: %w", err)
	}
	if len(body.Result) == 0 {
		a.logger.Warn("TicketGenie返回的事件列表为空")
		return nil, nil
	}

	events := a.decodeEvents(body.Result)
	a.logger.Debugf("成功获取TicketGenie事件共%d条（原始%d条）", len(events), len(body.Result))
	return events, nil
}

// decodeEvents 逐条解码，坏记录记录日志后跳过，不影响同批其他记录
func (a *Adapter) decodeEvents(raw []json.RawMessage) []model.TicketEvent {
	events := make([]model.TicketEvent, 0, len(raw))
	for i, item := range raw {
		var e model.TicketEvent
		if err := json.Unmarshal(item, &e); err != nil {
			a.logger.WithError(err).WithFields(logrus.Fields{
				"index":  i,
				"record": truncate(string(item), 256),
			}).Warn("解析TicketGenie单条事件失败，跳过该条")
			continue
		}
		events = append(events, e)
	}
	return events
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
