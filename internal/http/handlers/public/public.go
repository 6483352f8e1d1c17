package public

import (
	"strconv"
	"strings"

	"github.com/groupvial/internal/cache"
	"github.com/groupvial/internal/constants"
	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/i18n"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicBatchView 公共批次响应结构
type PublicBatchView struct {
	models.Batch
	Progress service.BatchProgress `json:"progress"`
}

// PublicRegionView 公共区域响应结构
type PublicRegionView struct {
	models.Region
	ActiveBatch *PublicBatchView `json:"active_batch"`
}

func newPublicBatchView(batch *models.Batch) PublicBatchView {
	return PublicBatchView{
		Batch:    *batch,
		Progress: service.ComputeBatchProgress(batch),
	}
}

// GetConfig 获取全局配置与功能开关
func (h *Handler) GetConfig(c *gin.Context) {
	if cached, hit, err := cache.GetPublicConfig(c.Request.Context()); err == nil && hit {
		response.Success(c, cached)
		return
	}

	// 默认配置
	defaults := map[string]interface{}{
		"languages":                         []string{i18n.LocaleEN, i18n.LocaleFIL},
		"currency":                          constants.SiteCurrencyDefault,
		"messaging_provider":                h.Config.Messaging.Provider,
		constants.SettingFieldContactHandle: h.Config.Messaging.DefaultHandle,
	}

	data, err := h.SettingService.PublicConfig(c.Request.Context(), defaults)
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	data["captcha"] = gin.H{
		constants.CaptchaSceneGuestCheckout: h.Config.Order.RequireGuestCaptcha,
	}
	data["auth_mode"] = h.AuthService.Mode()

	_ = cache.SetPublicConfig(c.Request.Context(), data)
	response.Success(c, data)
}

// GetProducts 获取商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	category := strings.TrimSpace(c.Query("category"))
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListPublic(category, search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, products, handlershared.BuildPagination(page, pageSize, total))
}

// GetProductBySlug 获取商品详情
func (h *Handler) GetProductBySlug(c *gin.Context) {
	product, err := h.ProductService.GetPublicBySlug(c.Param("slug"))
	if err != nil {
		respondWithMappedError(c, err, handlershared.ProductErrorRules, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, product)
}

// GetBatches 获取可下单批次
func (h *Handler) GetBatches(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	kind := strings.TrimSpace(c.Query("kind"))
	if kind != "" {
		if err := h.SettingService.RequireMode(c.Request.Context(), kind); err != nil {
			respondBatchError(c, err)
			return
		}
	}

	batches, total, err := h.BatchService.ListPublic(kind, handlershared.QueryUint(c, "region_id"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.batch_fetch_failed", err)
		return
	}

	items := make([]PublicBatchView, 0, len(batches))
	for i := range batches {
		items = append(items, newPublicBatchView(&batches[i]))
	}
	response.SuccessWithPage(c, items, handlershared.BuildPagination(page, pageSize, total))
}

// GetBatch 获取批次详情与进度
func (h *Handler) GetBatch(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.BatchService.GetVisible(id)
	if err != nil {
		respondBatchError(c, err)
		return
	}
	response.Success(c, newPublicBatchView(batch))
}

// GetRegions 获取启用的子团区域
func (h *Handler) GetRegions(c *gin.Context) {
	regions, err := h.RegionService.ListPublic(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, regionPublicErrorRules, response.CodeInternal, "error.region_fetch_failed")
		return
	}
	response.Success(c, regions)
}

// GetRegionBySlug 获取区域及其进行中的子团批次
func (h *Handler) GetRegionBySlug(c *gin.Context) {
	region, err := h.RegionService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondWithMappedError(c, err, regionPublicErrorRules, response.CodeInternal, "error.region_fetch_failed")
		return
	}
	view := PublicRegionView{Region: *region}
	batch, err := h.RegionService.ActiveBatch(region.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.region_fetch_failed", err)
		return
	}
	if batch != nil {
		batchView := newPublicBatchView(batch)
		view.ActiveBatch = &batchView
	}
	response.Success(c, view)
}
