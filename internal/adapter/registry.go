package adapter

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"TicketMonitor/internal/config"
	"TicketMonitor/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory 事件源工厂函数签名
// 入参：事件源配置、日志实例
// 出参：实现EventSource接口的事件源实例
type Factory func(cfg config.SourceConfig, logger *logrus.Logger) interfaces.EventSource

// ========== 全局工厂函数注册表 ==========
var (
	mu              sync.RWMutex
	factoryRegistry = make(map[string]Factory)
)

// Register 供事件源init函数调用，注册工厂函数
func Register(sourceType string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("事件源%s的工厂函数不能为nil", sourceType))
	}
	key := normalize(sourceType)
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factoryRegistry[key]; exists {
		logrus.Warnf("事件源%s已注册，将覆盖原有实现", key)
	}
	factoryRegistry[key] = factory
}

// GetFactory 获取指定事件源的工厂函数
func GetFactory(sourceType string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := factoryRegistry[normalize(sourceType)]
	return factory, ok
}

// ListFactories 列出所有已注册的事件源类型（有序）
func ListFactories() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(factoryRegistry))
	for t := range factoryRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewEventSource 按 source.type 创建事件源实例
func NewEventSource(cfg config.SourceConfig, logger *logrus.Logger) (interfaces.EventSource, error) {
	factory, ok := GetFactory(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("事件源%q未注册（已注册：%v）", cfg.Type, ListFactories())
	}
	src := factory(cfg, logger)
	if src == nil {
		return nil, fmt.Errorf("事件源%q的工厂函数返回nil", cfg.Type)
	}
	logger.WithFields(logrus.Fields{
		"source": src.GetName(),
		"url":    cfg.URL,
	}).Info("事件源初始化成功")
	return src, nil
}

func normalize(sourceType string) string {
	return strings.ToLower(strings.TrimSpace(sourceType))
}
