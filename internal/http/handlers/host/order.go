package host

import (
	handlershared "github.com/groupvial/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// ListOrders 本区域订单
func (h *Handler) ListOrders(c *gin.Context) {
	handlershared.ListManagedOrders(c, h.OrderService)
}

// GetOrder 本区域订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	handlershared.GetManagedOrder(c, h.OrderService)
}

// UpdateOrderStatus 更新本区域订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	handlershared.UpdateManagedOrderStatus(c, h.OrderService)
}

// UpdatePaymentStatus 确认本区域订单线下收款
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	handlershared.UpdateManagedOrderPaymentStatus(c, h.OrderService)
}

// GetDashboard 团长仪表盘
func (h *Handler) GetDashboard(c *gin.Context) {
	handlershared.GetScopedDashboard(c, h.DashboardService)
}
