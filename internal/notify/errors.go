package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotConfigured 通道缺少凭据或目的地
var ErrNotConfigured = errors.New("通知通道未配置")

func errNotConfigured(channel string) error {
	return fmt.Errorf("%s: %w", channel, ErrNotConfigured)
}

func recoverInto(err *error, channel string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panic: %v", channel, r)
	}
}

// redact 从 url.Error 中去掉URL里的凭据（Telegram token 位于路径中）
func redact(err error, secret string) error {
	if err == nil || secret == "" {
		return err
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s %s: %w", uerr.Op, strings.ReplaceAll(uerr.URL, secret, "***"), uerr.Err)
	}
	return err
}
