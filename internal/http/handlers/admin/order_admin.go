package admin

import (
	handlershared "github.com/groupvial/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	handlershared.ListManagedOrders(c, h.OrderService)
}

// AdminGetOrder 订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	handlershared.GetManagedOrder(c, h.OrderService)
}

// AdminUpdateOrderStatus 更新订单状态
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	handlershared.UpdateManagedOrderStatus(c, h.OrderService)
}

// AdminUpdatePaymentStatus 更新付款状态（线下收款确认/退款）
func (h *Handler) AdminUpdatePaymentStatus(c *gin.Context) {
	handlershared.UpdateManagedOrderPaymentStatus(c, h.OrderService)
}
