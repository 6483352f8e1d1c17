package admin

import (
	handlershared "github.com/groupvial/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// ListBatches 批次列表
func (h *Handler) ListBatches(c *gin.Context) {
	handlershared.ListManagedBatches(c, h.BatchService)
}

// GetBatch 批次详情
func (h *Handler) GetBatch(c *gin.Context) {
	handlershared.GetManagedBatch(c, h.BatchService)
}

// CreateBatch 创建批次（集团购或子团）
func (h *Handler) CreateBatch(c *gin.Context) {
	handlershared.CreateManagedBatch(c, h.BatchService)
}

// UpdateBatch 更新批次
func (h *Handler) UpdateBatch(c *gin.Context) {
	handlershared.UpdateManagedBatch(c, h.BatchService)
}

// AddBatchProduct 批次加入商品
func (h *Handler) AddBatchProduct(c *gin.Context) {
	handlershared.AddManagedBatchProduct(c, h.BatchService)
}

// UpdateBatchProduct 修改成员商品
func (h *Handler) UpdateBatchProduct(c *gin.Context) {
	handlershared.UpdateManagedBatchProduct(c, h.BatchService)
}

// RemoveBatchProduct 移除成员商品
func (h *Handler) RemoveBatchProduct(c *gin.Context) {
	handlershared.RemoveManagedBatchProduct(c, h.BatchService)
}

// TransitionBatch 批次状态流转
func (h *Handler) TransitionBatch(c *gin.Context) {
	handlershared.TransitionManagedBatch(c, h.BatchService)
}
