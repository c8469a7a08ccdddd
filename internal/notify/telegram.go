package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"TicketMonitor/internal/config"
	"TicketMonitor/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Telegram 通过 Bot API sendMessage 向多个 chat 广播
type Telegram struct {
	baseURL    string
	token      string
	chatIDs    []string
	timeout    time.Duration // 单个 chat 的发送时限
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewTelegram(cfg config.TelegramConfig, logger *logrus.Logger) *Telegram {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		baseURL:    baseURL,
		token:      cfg.BotToken,
		chatIDs:    cfg.ChatIDs,
		timeout:    timeout,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{Timeout: cfg.Timeout, Proxy: cfg.Proxy}, logger),
		logger:     logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Broadcast 并发向各 chat 发送并全部等待；每个 chat 有独立时限，慢的目的地不占用其他目的地的时间
// 全部成功才返回 nil
func (t *Telegram) Broadcast(ctx context.Context, text string) error {
	if t.token == "" {
		return errNotConfigured("telegram bot token")
	}
	if len(t.chatIDs) == 0 {
		return errNotConfigured("telegram chat ids")
	}

	errs := make([]error, len(t.chatIDs))
	var wg sync.WaitGroup
	for i, chatID := range t.chatIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, t.timeout)
			defer cancel()
			if err := t.send(sendCtx, chatID, text); err != nil {
				t.logger.WithError(err).WithField("chat_id", chatID).Error("Telegram消息发送失败")
				errs[i] = fmt.Errorf("chat %s: %w", chatID, err)
				return
			}
			t.logger.WithField("chat_id", chatID).Debug("Telegram消息发送成功")
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (t *Telegram) send(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return redact(err, t.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return redact(err, t.token)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode/100 != 2 {
		var r sendMessageResponse
		if json.Unmarshal(respBody, &r) == nil && r.Description != "" {
			return fmt.Errorf("telegram 返回 %d: %s", resp.StatusCode, r.Description)
		}
		return fmt.Errorf("telegram 返回 %d", resp.StatusCode)
	}
	return nil
}
