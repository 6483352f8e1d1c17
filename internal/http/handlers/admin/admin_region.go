package admin

import (
	"strings"

	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

// RegionRequest 区域创建/更新请求
type RegionRequest struct {
	Slug          string `json:"slug" binding:"required"`
	Name          string `json:"name" binding:"required"`
	ContactHandle string `json:"contact_handle"`
	HostUserID    *uint  `json:"host_user_id"`
	IsActive      *bool  `json:"is_active"`
}

func (r RegionRequest) toServiceInput() service.RegionInput {
	return service.RegionInput{
		Slug:          strings.TrimSpace(r.Slug),
		Name:          strings.TrimSpace(r.Name),
		ContactHandle: strings.TrimSpace(r.ContactHandle),
		HostUserID:    r.HostUserID,
		IsActive:      r.IsActive,
	}
}

// AssignHostRequest 指派团长请求
type AssignHostRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// ListRegions 区域列表
func (h *Handler) ListRegions(c *gin.Context) {
	regions, err := h.RegionService.ListAdmin()
	if err != nil {
		respondError(c, response.CodeInternal, "error.region_fetch_failed", err)
		return
	}
	response.Success(c, regions)
}

// CreateRegion 创建区域
func (h *Handler) CreateRegion(c *gin.Context) {
	var req RegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	region, err := h.RegionService.Create(req.toServiceInput())
	if err != nil {
		respondRegionError(c, err, "error.region_save_failed")
		return
	}
	requestLog(c).Infow("admin_region_created", "region_id", region.ID, "slug", region.Slug)
	response.Success(c, region)
}

// UpdateRegion 更新区域
func (h *Handler) UpdateRegion(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req RegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	region, err := h.RegionService.Update(id, req.toServiceInput())
	if err != nil {
		respondRegionError(c, err, "error.region_save_failed")
		return
	}
	response.Success(c, region)
}

// AssignRegionHost 指派区域团长
func (h *Handler) AssignRegionHost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req AssignHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	region, err := h.RegionService.AssignHost(id, req.UserID)
	if err != nil {
		respondRegionError(c, err, "error.region_save_failed")
		return
	}
	requestLog(c).Infow("admin_region_host_assigned", "region_id", region.ID, "host_user_id", req.UserID)
	response.Success(c, region)
}

// DeleteRegion 删除区域
func (h *Handler) DeleteRegion(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.RegionService.Delete(id); err != nil {
		respondRegionError(c, err, "error.region_save_failed")
		return
	}
	response.Success(c, nil)
}
