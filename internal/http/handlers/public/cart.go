package public

import (
	"strings"

	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 加入购物车请求
type CartItemRequest struct {
	Mode           string `json:"mode" binding:"required"`
	ProductID      uint   `json:"product_id"`
	Unit           string `json:"unit"`
	BatchProductID uint   `json:"batch_product_id"`
	Quantity       int    `json:"quantity" binding:"required"`
}

// CartQuantityRequest 修改数量请求
type CartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CreateCart 创建购物车
func (h *Handler) CreateCart(c *gin.Context) {
	created, err := h.CartService.Create(c.Request.Context())
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, created)
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	current, err := h.CartService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, current)
}

// AddCartItem 加入购物车，模式或批次不同时替换原有内容
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	current, err := h.CartService.AddItem(c.Request.Context(), c.Param("id"), service.AddCartItemInput{
		Mode:           strings.TrimSpace(req.Mode),
		ProductID:      req.ProductID,
		Unit:           strings.TrimSpace(req.Unit),
		BatchProductID: req.BatchProductID,
		Quantity:       req.Quantity,
	})
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, current)
}

// UpdateCartItem 修改行数量，0 表示移除
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	current, err := h.CartService.SetQuantity(c.Request.Context(), c.Param("id"), c.Param("key"), *req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, current)
}

// RemoveCartItem 移除行
func (h *Handler) RemoveCartItem(c *gin.Context) {
	current, err := h.CartService.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("key"))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, current)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	current, err := h.CartService.Clear(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, current)
}

// DeleteCart 删除购物车
func (h *Handler) DeleteCart(c *gin.Context) {
	if err := h.CartService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, nil)
}
