package admin

import (
	handlershared "github.com/groupvial/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview 获取后台仪表盘总览
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	handlershared.GetScopedDashboard(c, h.DashboardService)
}
