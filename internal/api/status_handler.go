package api

import (
	"context"
	"net/http"
	"strconv"

	"TicketMonitor/internal/model"
	"TicketMonitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatusProvider 轮询循环对外暴露的只读视图
type StatusProvider interface {
	Status() service.Status
	Alerts(ctx context.Context, limit int) ([]*model.AlertRecord, error)
}

// StatusHandler 监控状态查询接口
type StatusHandler struct {
	provider StatusProvider
	logger   *logrus.Logger
}

func NewStatusHandler(provider StatusProvider, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{provider: provider, logger: logger}
}

// GetStatus 循环状态、筛选条件与各事件的区间状态
// GET /api/status
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.provider.Status())
}

// ListAlerts 最近的告警历史
// GET /api/alerts?limit=20
func (h *StatusHandler) ListAlerts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	list, err := h.provider.Alerts(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("ListAlerts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": list, "count": len(list)})
}

// Healthz 循环处于 RUNNING 时返回 200
// GET /healthz
func (h *StatusHandler) Healthz(c *gin.Context) {
	st := h.provider.Status()
	if st.State != service.StateRunning {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": st.State})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": st.State})
}
