package shared

import (
	"strings"

	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/repository"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

// ManagedBatchView 后台批次视图（含进度）
type ManagedBatchView struct {
	models.Batch
	Progress service.BatchProgress `json:"progress"`
}

func newManagedBatchView(batch *models.Batch) ManagedBatchView {
	return ManagedBatchView{Batch: *batch, Progress: service.ComputeBatchProgress(batch)}
}

func respondBatchError(c *gin.Context, err error, fallbackKey string) {
	RespondWithMappedError(c, err, ConcatMappedErrors(BatchErrorRules, CommonErrorRules), response.CodeInternal, fallbackKey)
}

// ListManagedBatches 按操作人范围列出批次
func ListManagedBatches(c *gin.Context, batches *service.BatchService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	page, pageSize := QueryPagination(c)
	filter := repository.BatchListFilter{
		Page:         page,
		PageSize:     pageSize,
		Kind:         strings.TrimSpace(c.Query("kind")),
		RegionID:     QueryUint(c, "region_id"),
		WithProducts: true,
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filter.Statuses = strings.Split(status, ",")
	}

	items, total, err := batches.ListForActor(actor, filter)
	if err != nil {
		respondBatchError(c, err, "error.batch_fetch_failed")
		return
	}
	views := make([]ManagedBatchView, 0, len(items))
	for i := range items {
		views = append(views, newManagedBatchView(&items[i]))
	}
	response.SuccessWithPage(c, views, BuildPagination(page, pageSize, total))
}

// GetManagedBatch 批次详情
func GetManagedBatch(c *gin.Context, batches *service.BatchService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	batch, err := batches.Get(id)
	if err == nil {
		err = batches.CanManage(actor, batch)
	}
	if err != nil {
		respondBatchError(c, err, "error.batch_fetch_failed")
		return
	}
	response.Success(c, newManagedBatchView(batch))
}

// CreateManagedBatch 创建草稿批次
func CreateManagedBatch(c *gin.Context, batches *service.BatchService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	input, err := req.ToServiceInput()
	if err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	batch, err := batches.Create(actor, input)
	if err != nil {
		respondBatchError(c, err, "error.batch_save_failed")
		return
	}
	RequestLog(c).Infow("batch_created", "batch_id", batch.ID, "kind", batch.Kind, "actor_id", actor.UserID)
	response.Success(c, batch)
}

// UpdateManagedBatch 更新批次基础信息
func UpdateManagedBatch(c *gin.Context, batches *service.BatchService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	input, err := req.ToServiceInput()
	if err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	batch, err := batches.Update(actor, id, input)
	if err != nil {
		respondBatchError(c, err, "error.batch_save_failed")
		return
	}
	response.Success(c, batch)
}

// AddManagedBatchProduct 批次加入商品
func AddManagedBatchProduct(c *gin.Context, batches *service.BatchService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req BatchProductRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == 0 {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	item, err := batches.AddProduct(actor, id, req.ToServiceInput())
	if err != nil {
		respondBatchError(c, err, "error.batch_save_failed")
		return
	}
	response.Success(c, item)
}

// UpdateManagedBatchProduct 修改成员商品目标与价格
func UpdateManagedBatchProduct(c *gin.Context, batches *service.BatchService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req BatchProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	item, err := batches.UpdateProduct(actor, id, req.ToServiceInput())
	if err != nil {
		respondBatchError(c, err, "error.batch_save_failed")
		return
	}
	response.Success(c, item)
}

// RemoveManagedBatchProduct 移除成员商品（仅草稿）
func RemoveManagedBatchProduct(c *gin.Context, batches *service.BatchService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := batches.RemoveProduct(actor, id); err != nil {
		respondBatchError(c, err, "error.batch_save_failed")
		return
	}
	response.Success(c, nil)
}

// TransitionManagedBatch 批次状态流转
func TransitionManagedBatch(c *gin.Context, batches *service.BatchService) {
	actor, ok := GetActor(c)
	if !ok {
		return
	}
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	batch, err := batches.Transition(c.Request.Context(), actor, id, strings.TrimSpace(req.Status))
	if err != nil {
		respondBatchError(c, err, "error.batch_save_failed")
		return
	}
	RequestLog(c).Infow("batch_status_changed", "batch_id", batch.ID, "status", batch.Status, "actor_id", actor.UserID)
	response.Success(c, newManagedBatchView(batch))
}
