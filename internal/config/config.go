package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（匹配config.yaml，敏感项来自环境变量）
type Config struct {
	Monitor   MonitorConfig   `mapstructure:"monitor"`   // 轮询与去抖配置
	Source    SourceConfig    `mapstructure:"source"`    // 上游票务接口配置
	Telegram  TelegramConfig  `mapstructure:"telegram"`  // 广播通道
	PagerDuty PagerDutyConfig `mapstructure:"pagerduty"` // 告警通道
	Server    ServerConfig    `mapstructure:"server"`    // 状态接口
	Database  DatabaseConfig  `mapstructure:"database"`  // 告警历史（可选）
	NATS      NATSConfig      `mapstructure:"nats"`      // 可用性事件发布（可选）
	Log       LogConfig       `mapstructure:"log"`
}

// MonitorConfig 轮询循环配置
type MonitorConfig struct {
	Interval            time.Duration `mapstructure:"interval"`               // 轮询间隔
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`          // 单次拉取超时
	NotifyTimeout       time.Duration `mapstructure:"notify_timeout"`         // 单次通知超时
	MaxAlertsPerEpisode int           `mapstructure:"max_alerts_per_episode"` // 每个可售区间最多告警次数
	BookingURL          string        `mapstructure:"booking_url"`            // 购票页地址
}

// SourceConfig 上游事件源配置
type SourceConfig struct {
	Type      string        `mapstructure:"type"`       // 事件源类型：ticketgenie
	URL       string        `mapstructure:"url"`        // 事件列表地址
	Timeout   time.Duration `mapstructure:"timeout"`    // HTTP超时
	Proxy     string        `mapstructure:"proxy"`      // 代理地址
	UserAgent string        `mapstructure:"user_agent"` // 浏览器UA，避免被拦截
	Origin    string        `mapstructure:"origin"`
	Referer   string        `mapstructure:"referer"`
}

// TelegramConfig Telegram机器人配置
type TelegramConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	BotToken string        `mapstructure:"bot_token"`
	ChatIDs  []string      `mapstructure:"chat_ids"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Proxy    string        `mapstructure:"proxy"`
}

// PagerDutyConfig PagerDuty Events API v2 配置
type PagerDutyConfig struct {
	URL        string        `mapstructure:"url"`
	RoutingKey string        `mapstructure:"routing_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Proxy      string        `mapstructure:"proxy"`
}

// ServerConfig 状态接口配置，Port为0时不启动
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL配置，DSN为空时不记录告警历史
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// NATSConfig URL为空时不发布事件
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig 加载配置：.env -> config/config.yaml（可不存在）-> 环境变量覆盖敏感项
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在）
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// 2. 读取 config.yaml，文件不存在时只用默认值
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.interval", 30*time.Second)
	v.SetDefault("monitor.fetch_timeout", 10*time.Second)
	v.SetDefault("monitor.notify_timeout", 15*time.Second)
	v.SetDefault("monitor.max_alerts_per_episode", 2)
	v.SetDefault("monitor.booking_url", "https://shop.royalchallengers.com/ticket")

	v.SetDefault("source.type", "ticketgenie")
	v.SetDefault("source.url", "https://rcbmpapi.ticketgenie.in/ticket/eventlist/O")
	v.SetDefault("source.timeout", 10*time.Second)
	v.SetDefault("source.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("source.origin", "https://shop.royalchallengers.com")
	v.SetDefault("source.referer", "https://shop.royalchallengers.com/")

	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 10*time.Second)

	v.SetDefault("pagerduty.url", "https://events.pagerduty.com/v2/enqueue")
	v.SetDefault("pagerduty.timeout", 10*time.Second)

	v.SetDefault("server.port", 0)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("nats.subject", "tickets.availability")

	v.SetDefault("log.level", "info")
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_IDS"); v != "" {
		cfg.Telegram.ChatIDs = SplitList(v)
	}
	if v := os.Getenv("PAGERDUTY_ROUTING_KEY"); v != "" {
		cfg.PagerDuty.RoutingKey = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("TICKET_PROXY"); v != "" {
		cfg.Source.Proxy = v
	}
}

// MissingCredentials 返回未配置的通知凭据名（只用于启动告警，不阻止启动）
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if len(c.Telegram.ChatIDs) == 0 {
		missing = append(missing, "TELEGRAM_CHAT_IDS")
	}
	if c.PagerDuty.RoutingKey == "" {
		missing = append(missing, "PAGERDUTY_ROUTING_KEY")
	}
	return missing
}

// SplitList 拆分逗号分隔列表，去掉空白与空项
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
