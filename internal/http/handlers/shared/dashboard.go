package shared

import (
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

// GetScopedDashboard 仪表盘总览，数据范围由操作人角色决定
func GetScopedDashboard(c *gin.Context, dashboards *service.DashboardService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	input, err := ParseDashboardQuery(c)
	if err != nil {
		RespondError(c, response.CodeBadRequest, "error.dashboard_range_invalid", nil)
		return
	}
	data, err := dashboards.GetOverview(c.Request.Context(), actor, input)
	if err != nil {
		rules := ConcatMappedErrors(DashboardErrorRules, CommonErrorRules)
		RespondWithMappedError(c, err, rules, response.CodeInternal, "error.dashboard_fetch_failed")
		return
	}
	response.Success(c, data)
}
